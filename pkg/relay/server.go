// Copyright 2024-2026 Aiku AI

package relay

import (
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewServer builds the HTTP server with one event handler per configured
// endpoint plus /healthz and /metrics.
func NewServer(cfg *Config, r *Relay, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	for _, ep := range cfg.Endpoints {
		mux.Handle(ep.Path, NewHandler(r, ep, cfg.MaxBodySize, log))
		log.Debug().
			Str("path", ep.Path).
			Str("directory", ep.Directory).
			Msg("Registered event endpoint")
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Covers slow destination uploads.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}
