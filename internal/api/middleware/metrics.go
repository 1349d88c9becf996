package middleware

import (
	"net/http"
	"sync/atomic"
)

// MetricsCollector counts requests by outcome.
type MetricsCollector struct {
	requestCount *atomic.Int64
	errorCount   *atomic.Int64
	clientErrors atomic.Int64
	serverErrors atomic.Int64
}

func NewMetricsCollector(requestCount, errorCount *atomic.Int64) *MetricsCollector {
	return &MetricsCollector{
		requestCount: requestCount,
		errorCount:   errorCount,
	}
}

// ErrorBreakdown returns 4xx and 5xx counts separately.
func (mc *MetricsCollector) ErrorBreakdown() (client, server int64) {
	return mc.clientErrors.Load(), mc.serverErrors.Load()
}

// Middleware counts requests and errors.
func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mc.requestCount.Add(1)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		switch {
		case rw.statusCode >= 500:
			mc.errorCount.Add(1)
			mc.serverErrors.Add(1)
		case rw.statusCode >= 400:
			mc.errorCount.Add(1)
			mc.clientErrors.Add(1)
		}
	})
}
