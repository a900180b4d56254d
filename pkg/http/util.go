package http

import (
	"time"

	xutil "StratForge/pkg/util"

	"github.com/labstack/echo/v4"
)

// QueryInt returns the named query parameter as an int, or def when the
// parameter is absent or malformed.
func QueryInt(c echo.Context, name string, def int) int {
	return xutil.ParseIntDefault(c.QueryParam(name), def)
}

// QueryTime returns the named query parameter as a time (RFC3339 or unix
// seconds), or def when the parameter is absent or malformed.
func QueryTime(c echo.Context, name string, def time.Time) time.Time {
	return xutil.ParseTimeDefault(c.QueryParam(name), def)
}
