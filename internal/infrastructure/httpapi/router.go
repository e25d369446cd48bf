package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"webtrace/internal/adapters/ingest"
	"webtrace/internal/adapters/netlog"
	"webtrace/internal/infrastructure/config"
	obs "webtrace/internal/infrastructure/observability"
	"webtrace/internal/usecase"
)

type Deps struct {
	Cfg     config.Config
	Logger  *zerolog.Logger
	Metrics *obs.Metrics
	Svc     *usecase.RecorderService
	Builder *netlog.Builder
	Bridge  *ingest.Bridge
	Console *ingest.ConsoleTap
	Buffer  *ingest.PollBuffer
	DOM     *ingest.DOMCapture
}

// NewRouter wires the recorder's serving surface: ingest endpoints for the
// collaborators, health and metrics, and the read-only session projection.
func NewRouter(d *Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":    "webtrace",
			"version": obs.Version,
			"time":    time.Now().UTC(),
		})
	})

	// read-only projection of the session as recorded so far
	mux.HandleFunc("/api/session", d.handleSessionView)

	// delivery channels
	mux.HandleFunc("/ingest/ws", d.Bridge.HandleWS)
	mux.HandleFunc("/ingest/console", d.handleConsoleLines)
	mux.HandleFunc("/ingest/buffer", d.handleBufferPush)
	mux.HandleFunc("/ingest/network", d.handleNetworkExchange)
	mux.HandleFunc("/ingest/dom", d.handleDOMSnapshot)

	return mux
}
