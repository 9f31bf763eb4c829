package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	requestIDHeader  = "X-Request-ID"
	shopDomainHeader = "X-Shopify-Shop-Domain"
)

// RequestLog returns Echo middleware that logs requests with structured fields.
// It generates a request ID if none is provided and propagates it through
// the response header and echo context. Only the path is logged: callback
// queries carry codes and signatures.
//
// Probe paths are logged on their first success and on every failure, so a
// healthy gateway does not flood the log with probe lines.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var probes sync.Map // path -> struct{} once a success has been logged

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			reqID := req.Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			c.Set("request_id", reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)

			path := req.URL.Path
			status := c.Response().Status
			ok := status < 400

			if _, probe := probePaths[path]; probe && ok {
				if _, seen := probes.LoadOrStore(path, struct{}{}); seen {
					return err
				}
			}

			level := slog.LevelInfo
			if !ok {
				level = slog.LevelWarn
			}

			attrs := []any{
				"method", req.Method,
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			}
			if shop := shopOf(c); shop != "" {
				attrs = append(attrs, "shop", shop)
			}

			log.Log(context.Background(), level, "request", attrs...)

			return err
		}
	}
}

// shopOf returns the shop a request is about: the webhook header or the
// shop parameter of an install redirect.
func shopOf(c echo.Context) string {
	if s := c.Request().Header.Get(shopDomainHeader); s != "" {
		return s
	}
	return c.QueryParam("shop")
}
