package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/monitoraedes/internal/webserver/weberror"
)

// HeaderAdminKey is the header holding the administration key.
const HeaderAdminKey = "Admin-Key"

// AdminKey rejects the requests that do not provide the given administration key.
// All requests are rejected when key is empty.
func AdminKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			provided := c.Request().Header.Get(HeaderAdminKey)
			if key == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				return weberror.New(http.StatusForbidden, "unauthorized")
			}

			return next(c)
		}
	}
}
