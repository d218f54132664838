package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	// MaxAge is the preflight cache lifetime in seconds; zero omits the header.
	MaxAge int
}

// CORS returns CORS middleware. Requests from origins outside AllowOrigins pass through without CORS headers.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	wildcard := slices.Contains(cfg.AllowOrigins, "*")
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			h := c.Response().Header()
			origin := req.Header.Get(echo.HeaderOrigin)
			h.Add(echo.HeaderVary, echo.HeaderOrigin)

			if origin == "" {
				return next(c)
			}
			switch {
			case wildcard:
				h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			case slices.Contains(cfg.AllowOrigins, origin):
				h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			default:
				return next(c)
			}

			preflight := req.Method == http.MethodOptions && req.Header.Get(echo.HeaderAccessControlRequestMethod) != ""
			if !preflight {
				return next(c)
			}

			if methods != "" {
				h.Set(echo.HeaderAccessControlAllowMethods, methods)
			}
			if headers != "" {
				h.Set(echo.HeaderAccessControlAllowHeaders, headers)
			}
			if cfg.MaxAge > 0 {
				h.Set(echo.HeaderAccessControlMaxAge, strconv.Itoa(cfg.MaxAge))
			}
			return c.NoContent(http.StatusNoContent)
		}
	}
}
