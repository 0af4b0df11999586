package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"uk.co.dudmesh.bulksms/internal/model"
)

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details string   `json:"details,omitempty"`
	Invalid []string `json:"invalid,omitempty"`
}

// ErrorHandler is installed as echo's HTTPErrorHandler. Validation errors
// map to 400, everything else the services return maps to 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}

func errorResponse(err error) (int, *ErrorResponse) {
	var validationErr *model.ValidationError
	var configErr *model.ConfigurationError
	var transportErr *model.TransportFailure
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, &ErrorResponse{Error: validationErr.Error(), Invalid: validationErr.Invalid}
	case errors.As(err, &configErr):
		return http.StatusInternalServerError, &ErrorResponse{Error: configErr.Error()}
	case errors.As(err, &transportErr):
		return http.StatusInternalServerError, &ErrorResponse{Error: "gateway call failed", Details: transportErr.Cause}
	case errors.As(err, &httpErr):
		return httpErr.Code, &ErrorResponse{Error: fmt.Sprint(httpErr.Message)}
	default:
		return http.StatusInternalServerError, &ErrorResponse{Error: "internal error", Details: err.Error()}
	}
}
