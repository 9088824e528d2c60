package http

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

// metrics tracks request counters exposed at /metrics in plain text.
type metrics struct {
	requestsTotal atomic.Int64
	responses2xx  atomic.Int64
	responses4xx  atomic.Int64
	responses5xx  atomic.Int64
	rateLimited   atomic.Int64
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.requestsTotal.Add(1)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		switch {
		case rec.status == http.StatusTooManyRequests:
			m.rateLimited.Add(1)
			m.responses4xx.Add(1)
		case rec.status >= 500:
			m.responses5xx.Add(1)
		case rec.status >= 400:
			m.responses4xx.Add(1)
		default:
			m.responses2xx.Add(1)
		}
	})
}

func (m *metrics) handler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "fintrack_http_requests_total %d\n", m.requestsTotal.Load())
	fmt.Fprintf(w, "fintrack_http_responses_2xx_total %d\n", m.responses2xx.Load())
	fmt.Fprintf(w, "fintrack_http_responses_4xx_total %d\n", m.responses4xx.Load())
	fmt.Fprintf(w, "fintrack_http_responses_5xx_total %d\n", m.responses5xx.Load())
	fmt.Fprintf(w, "fintrack_http_rate_limited_total %d\n", m.rateLimited.Load())
}
