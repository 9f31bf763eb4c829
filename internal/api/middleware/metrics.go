// Package middleware provides Echo middleware for the shop gateway.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/donaldgifford/shopify-admin/internal/metrics"
)

// unmatchedRoute labels requests that hit no registered route, so scanners
// cannot mint a new series per URL.
const unmatchedRoute = "unmatched"

// probePaths are excluded from request metrics. Health probes update a 0/1
// gauge instead.
var probePaths = map[string]prometheus.Gauge{
	"/metrics": nil,
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
}

// Metrics returns Echo middleware that records request duration and status
// labelled by route template (/webhooks/:topic, not the concrete topic).
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if gauge, probe := probePaths[c.Request().URL.Path]; probe {
				err := next(c)
				if gauge != nil {
					gauge.Set(boolToFloat(c.Response().Status < http.StatusMultipleChoices))
				}
				return err
			}

			start := time.Now()

			err := next(c)
			if err != nil {
				// Let echo write the error so the recorded status is the one sent.
				c.Error(err)
				err = nil
			}

			route := routeOf(c)
			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method

			metrics.HTTPRequestDuration.
				WithLabelValues(method, route, status).
				Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.
				WithLabelValues(method, route, status).
				Inc()

			return err
		}
	}
}

func routeOf(c echo.Context) string {
	path := c.Path()
	if path == "" || (c.Response().Status == http.StatusNotFound && path == "/*") {
		return unmatchedRoute
	}
	return path
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
