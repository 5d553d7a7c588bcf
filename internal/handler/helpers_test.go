package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/haatos/gitbridge/internal"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

const testUserID = "user-1"

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = ErrorHandler
	return e
}

func newAPIGroup(e *echo.Echo) *echo.Group {
	return e.Group("/api", UserIdentity("default-user"))
}

func doJSON(e *echo.Echo, method, target string, body any, userID string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = bytes.NewBufferString(b)
		default:
			payload, _ := json.Marshal(b)
			r = bytes.NewBuffer(payload)
		}
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != "" {
		req.Header.Set(internal.UserIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := map[string]any{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func assertErrorBody(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	assert.Equal(t, status, rec.Code)
	assert.Equal(t, message, decodeBody(t, rec)["error"])
}

