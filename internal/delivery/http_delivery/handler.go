package http_delivery

import (
	"net/http"

	"go.uber.org/zap"

	"groupchat/internal/metrics"
)

type Routes struct {
	GraphQL   http.Handler
	WebSocket http.Handler
	Metrics   *metrics.Metrics
	Limiter   *IPRateLimiter
	Log       *zap.Logger
}

// Handler mounts the service routes behind request id, access log and rate
// limit middleware. /metrics and /healthz are not rate limited.
func Handler(rt Routes) http.Handler {
	mux := http.NewServeMux()

	api := func(route string, h http.Handler) http.Handler {
		if rt.Limiter != nil {
			h = rt.Limiter.Middleware(h)
		}
		return instrument(route, rt.Metrics, h)
	}

	mux.Handle("/graphql", api("/graphql", rt.GraphQL))
	if rt.WebSocket != nil {
		mux.Handle("/ws", api("/ws", rt.WebSocket))
	}
	if rt.Metrics != nil {
		mux.Handle("/metrics", rt.Metrics.Handler())
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return requestID(accessLog(rt.Log, mux))
}
