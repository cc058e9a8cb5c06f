package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/logger"
)

// Logger logs every served request.
func Logger(log logger.Logger) echo.MiddlewareFunc {
	log = log.WithPrefix("[http]")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			start := time.Now()

			if err = next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			l := log.WithField("status", res.Status).
				WithField("latency", time.Since(start).String()).
				WithField("remote_ip", c.RealIP())
			if handler, ok := c.Get("handler_method").(string); ok {
				l = l.WithField("handler", handler)
			}

			l.Infof("%s %s", req.Method, req.URL.RequestURI())
			return nil
		}
	}
}
