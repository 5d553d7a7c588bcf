package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func SetupHealthRoutes(g *echo.Group) {
	g.GET("/health", GetHealth)
}

func GetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "API is running",
	})
}
