package logger

import (
	"github.com/labstack/echo/v4"
)

// EchoMiddleware attaches a request scoped logger carrying the request id and route.
// It must run after middleware.RequestID.
func EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := WithLogger(req.Context(), map[string]interface{}{
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
				"method":     req.Method,
				"route":      c.Path(),
			})
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
