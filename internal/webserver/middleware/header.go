package middleware

import (
	"net/http/httputil"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/logger"
)

// Dumpper logs the incoming requests headers.
func Dumpper(log logger.Logger) echo.MiddlewareFunc {
	log = log.WithPrefix("[dump]")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			payload, err := httputil.DumpRequest(c.Request(), false)
			if err != nil {
				log.Errorf("DumpRequest: %s", err)
			}
			log.Debug(string(payload))

			return next(c)
		}
	}
}
