package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/dabifac/pkg/metrics"
)

// unmatchedRoute labels requests that reached NoRoute, which covers every
// intercepted asset path.
const unmatchedRoute = "unmatched"

// Metrics records in-flight and latency metrics for each HTTP request. Paths
// listed in skip (the scrape endpoint itself) are not measured.
func Metrics(skip ...string) gin.HandlerFunc {
	ignored := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		ignored[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := ignored[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		metrics.APIInFlight.Inc()
		defer metrics.APIInFlight.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.APILatency.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
