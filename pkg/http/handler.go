package http

import "github.com/labstack/echo/v4"

// Handler registers its routes on the server's echo instance.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// HandlerFunc adapts a plain route registration function to Handler.
type HandlerFunc func(e *echo.Echo)

func (f HandlerFunc) RegisterRoutes(e *echo.Echo) { f(e) }
