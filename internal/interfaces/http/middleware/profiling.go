package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/grafana/pyroscope-go"
)

// Pyroscope labels attached to each profiled request
const (
	ProfilingLabelMethod    = "method"
	ProfilingLabelRoute     = "route"
	ProfilingLabelOperation = "ledger_operation"
)

// ProfilingConfig controls ProfilingWithConfig.
type ProfilingConfig struct {
	Enabled bool
	// Routes with these prefixes are never labelled.
	SkipPrefixes []string
}

func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:      true,
		SkipPrefixes: []string{"/health", "/swagger"},
	}
}

// ProfilingWithConfig runs the handler chain under pprof labels so CPU
// profiles split by ledger operation (payments, discounts, integrity...).
// Labels come from the route pattern, never the raw path, so demand ids
// do not leak into label cardinality.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if !cfg.Enabled || route == "" || hasAnyPrefix(route, cfg.SkipPrefixes) {
			c.Next()
			return
		}
		labels := pyroscope.Labels(
			ProfilingLabelMethod, c.Request.Method,
			ProfilingLabelRoute, route,
			ProfilingLabelOperation, operationFromRoute(route),
		)
		pyroscope.TagWrapper(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// operationFromRoute returns the last static segment of a route:
// "/api/v1/ledger/demands/:id/penalty-waivers" -> "penalty-waivers".
func operationFromRoute(route string) string {
	parts := strings.Split(strings.Trim(route, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		p := parts[i]
		if p != "" && !strings.HasPrefix(p, ":") && !strings.HasPrefix(p, "*") {
			return p
		}
	}
	return ""
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
