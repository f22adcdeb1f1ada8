// Package server assembles the HTTP surface of the gateway: the grasp
// websocket endpoint plus the health, discovery, status and metrics
// endpoints around it.
package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dimensionalOS/anygrasp-sdk/internal/config"
	"github.com/dimensionalOS/anygrasp-sdk/internal/engine"
	"github.com/dimensionalOS/anygrasp-sdk/internal/gateway"
	"github.com/dimensionalOS/anygrasp-sdk/internal/metrics"
)

// New constructs the HTTP handler for the gateway.
func New(cfg config.ServerConfig, reg *gateway.Registry, eng engine.Engine) http.Handler {
	r := chi.NewRouter()
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		}))
	}

	preg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = preg
	prometheus.DefaultGatherer = preg
	metrics.Register(preg)

	r.Handle(cfg.WSPath, gateway.WSHandler(reg, eng, cfg.MaxGrasps))
	r.Get("/health", HealthHandler(eng))
	r.Get("/ip", IPHandler(cfg.Port))
	r.Get("/status", StatusHandler(reg, eng))

	if cfg.MetricsAddr == fmt.Sprintf(":%d", cfg.Port) {
		r.Handle("/metrics", promhttp.HandlerFor(preg, promhttp.HandlerOpts{}))
	}

	return r
}
