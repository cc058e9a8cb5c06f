package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/logger"
	"github.com/mdouchement/monitoraedes/internal/webserver/weberror"
)

// NewHTTPErrorHandler is a middleware that formats rendered errors as `{"detail": "..."}'.
func NewHTTPErrorHandler(log logger.Logger) func(err error, c echo.Context) {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		switch e := err.(type) {
		case *weberror.Error:
		case *echo.HTTPError:
			message, ok := e.Message.(string)
			if !ok {
				message = http.StatusText(e.Code)
			}
			err = weberror.New(e.Code, message)
		default:
			err = weberror.New(http.StatusInternalServerError, err.Error())
		}

		code := weberror.StatusCode(err)
		if code >= http.StatusInternalServerError {
			log.Error(err)
		} else {
			log.Debugf("HTTPErrorHandler: %s", err)
		}

		var err2 error
		if c.Request().Method == http.MethodHead {
			err2 = c.NoContent(code)
		} else {
			err2 = c.JSON(code, err)
		}
		if err2 != nil {
			log.Errorf("HTTPErrorHandler: %s", err2)
		}
	}
}
