package handler

import (
	"github.com/labstack/echo/v4"
)

const userIDKey = "user_id"

func getCtxUserID(c echo.Context) string {
	if id, ok := c.Get(userIDKey).(string); ok {
		return id
	}
	return ""
}
