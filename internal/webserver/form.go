package webserver

import (
	"math"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/monitoraedes/internal/webserver/weberror"
)

func formString(c echo.Context, name string) (string, error) {
	v := strings.TrimSpace(c.FormValue(name))
	if v == "" {
		return "", weberror.MissingField(name)
	}
	return v, nil
}

func formInt(c echo.Context, name string) (int, error) {
	v, err := formString(c, name)
	if err != nil {
		return 0, err
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, weberror.InvalidField(name)
	}
	return i, nil
}

func formFloat(c echo.Context, name string) (float64, error) {
	v, err := formString(c, name)
	if err != nil {
		return 0, err
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, weberror.InvalidField(name)
	}
	return f, nil
}

// queryLimit returns the limit query parameter or 0 when absent.
func queryLimit(c echo.Context) (int, error) {
	v := c.QueryParam("limit")
	if v == "" {
		return 0, nil
	}

	limit, err := strconv.Atoi(v)
	if err != nil || limit < 0 {
		return 0, weberror.InvalidField("limit")
	}
	return limit, nil
}
