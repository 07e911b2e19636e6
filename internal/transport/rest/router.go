package rest

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heartmarshall/modelboard-ingest/internal/config"
	"github.com/heartmarshall/modelboard-ingest/internal/transport/middleware"
)

// RouterDeps are the handlers and settings the router mounts.
type RouterDeps struct {
	Ingest  *IngestHandler
	Health  *HealthHandler
	Limiter *middleware.RateLimiter
	Logger  *slog.Logger
	CORS    config.CORSConfig
	// ProposePerMinute limits preview and regenerate per client.
	ProposePerMinute int
}

// NewRouter builds the HTTP handler tree.
func NewRouter(d RouterDeps) http.Handler {
	r := mux.NewRouter()
	r.Use(mux.MiddlewareFunc(middleware.Metrics()))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeFail(w, http.StatusNotFound, "no such endpoint", nil)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeFail(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	r.HandleFunc("/live", d.Health.Live).Methods(http.MethodGet)
	r.HandleFunc("/ready", d.Health.Ready).Methods(http.MethodGet)
	r.HandleFunc("/health", d.Health.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	var limit middleware.Middleware
	if d.Limiter != nil {
		limit = d.Limiter.Limit(d.ProposePerMinute)
	}
	propose := func(h http.HandlerFunc) http.Handler { return middleware.Chain(limit)(h) }

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/uploads", d.Ingest.Upload).Methods(http.MethodPost)
	api.HandleFunc("/uploads/check", d.Ingest.Check).Methods(http.MethodPost)
	api.Handle("/uploads/preview", propose(d.Ingest.Preview)).Methods(http.MethodPost)
	api.Handle("/uploads/regenerate", propose(d.Ingest.Regenerate)).Methods(http.MethodPost)
	api.HandleFunc("/uploads/confirm", d.Ingest.Confirm).Methods(http.MethodPost)
	api.HandleFunc("/sources/{sourceID}", d.Ingest.DeleteSource).Methods(http.MethodDelete)

	return middleware.Chain(
		middleware.RequestID(),
		middleware.Logger(d.Logger),
		middleware.Recovery(d.Logger),
		middleware.CORS(d.CORS),
	)(r)
}
