package handler

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

type DataResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func render(c echo.Context, component templ.Component) error {
	buf := templ.GetBuffer()
	defer templ.ReleaseBuffer(buf)

	if err := component.Render(c.Request().Context(), buf); err != nil {
		return err
	}
	return c.HTML(http.StatusOK, buf.String())
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, DataResponse{Message: message, Data: data})
}
