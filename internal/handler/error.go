package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/haatos/gitbridge/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	messageRouteNotFound = "Route not found"
	messageUnexpected    = "Something went wrong!"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := ErrorResponse{Error: messageUnexpected}

	var he *echo.HTTPError
	switch {
	case errors.Is(err, echo.ErrNotFound), errors.Is(err, echo.ErrMethodNotAllowed):
		status = http.StatusNotFound
		body = ErrorResponse{Error: messageRouteNotFound}
	case errors.As(err, &he):
		status = he.Code
		switch m := he.Message.(type) {
		case ErrorResponse:
			body = m
		case string:
			body = ErrorResponse{Error: m}
		}
		if he.Internal != nil {
			event := log.Warn()
			if status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.Err(he.Internal).
				Str("path", c.Request().URL.Path).
				Int("status", status).
				Msg("handler internal error")
		}
	default:
		log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("handler error")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		log.Error().Err(err).Msg("err returning json")
	}
}

func newError(c echo.Context, err error, status int, message string) error {
	return newErrorWithDetails(c, err, status, message, "")
}

func newErrorWithDetails(
	c echo.Context,
	err error,
	status int,
	message, details string,
) error {
	var e *echo.HTTPError
	if details == "" {
		e = echo.NewHTTPError(status, message)
	} else {
		e = echo.NewHTTPError(status, ErrorResponse{Error: message, Details: details})
	}
	if err != nil {
		e = e.WithInternal(err)
	}
	return e
}

// serviceError translates an error returned by a service into an HTTP error.
// notFound is the message used when the requested record does not exist.
func serviceError(c echo.Context, err error, notFound string) error {
	var ve *service.ValidationError
	var pe *service.ProviderError
	var re *service.RunError
	switch {
	case errors.As(err, &ve):
		return newError(c, err, http.StatusBadRequest, ve.Message)
	case errors.Is(err, sql.ErrNoRows):
		return newError(c, err, http.StatusNotFound, notFound)
	case errors.Is(err, service.ErrUnknownProvider):
		return newError(c, err, http.StatusBadRequest, "Unsupported OAuth provider")
	case errors.Is(err, service.ErrProviderNotConfigured):
		return newError(c, err, http.StatusInternalServerError, err.Error())
	case errors.As(err, &pe):
		status := http.StatusInternalServerError
		if pe.Rejected {
			status = http.StatusBadRequest
		}
		return newErrorWithDetails(c, err, status, pe.Message, pe.Details)
	case errors.As(err, &re):
		return newErrorWithDetails(c, err, http.StatusInternalServerError, re.Message, re.Output)
	default:
		return newError(c, err, http.StatusInternalServerError, messageUnexpected)
	}
}
