package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/contaluz/contaluz/internal/auth"
	"github.com/contaluz/contaluz/internal/config"
	"github.com/contaluz/contaluz/internal/metrics"
	migrate "github.com/contaluz/contaluz/internal/migrate"
	"github.com/contaluz/contaluz/internal/notification"
	"github.com/contaluz/contaluz/internal/readings"
	"github.com/contaluz/contaluz/internal/storage"
	"github.com/contaluz/contaluz/internal/tariff"
)

// NewMux constructs the HTTP mux, wiring the tariff, billing, and readings
// services together with metrics and health endpoints.
func NewMux(cfg config.Config) *http.ServeMux {
	ctx := context.Background()

	// Optional auto-migration: run `goose up` on startup when enabled.
	autoMig := strings.ToLower(os.Getenv("CONTALUZ_AUTO_MIGRATE"))
	if autoMig == "1" || autoMig == "true" || autoMig == "yes" {
		if err := migrate.Up(ctx, cfg.DBDriver, cfg.DSN); err != nil {
			log.Printf("auto-migration failed: %v", err)
		}
	}

	tariffCfg := tariff.Config{
		BaseURL:     cfg.ANEELBaseURL,
		ResourceID:  cfg.ANEELResourceID,
		Limit:       cfg.ANEELLimit,
		SnapshotTTL: cfg.SnapshotTTL,
	}

	// Prefer a real storage backend; fall back to fetch-only mode so the
	// service still answers tariff queries without a database.
	var svc *tariff.Service
	st, err := storage.Open(ctx, storage.Config{Driver: cfg.DBDriver, DSN: cfg.DSN})
	if err != nil {
		log.Printf("storage.Open failed (driver=%s): %v; falling back to fetch-only mode", cfg.DBDriver, err)
		st = nil
		svc = tariff.NewService(tariffCfg)
	} else {
		log.Printf("tariff service using storage backend driver=%s", cfg.DBDriver)
		svc = tariff.NewServiceWithStorage(tariffCfg, st)
	}

	var authSvc *auth.Service
	var readingsSvc *readings.Service
	var notifSvc *notification.Service
	if st != nil {
		readingsSvc = readings.NewService(st)
		notifSvc = notification.NewService(st)
		if authSvc, err = auth.NewService(st); err != nil {
			log.Printf("auth service init failed: %v; auth routes disabled", err)
			authSvc = nil
		}
	}

	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if st == nil {
			// Fetch-only mode has no database to wait for.
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		if err := st.Ping(r.Context()); err != nil {
			log.Printf("readyz: db ping failed: %v", err)
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("live"))
	})

	registerTariffRoutes(mux, svc)
	registerEstimateRoutes(mux, svc, cfg)
	if readingsSvc != nil {
		registerReadingRoutes(mux, readingsSvc, svc, cfg)
	}
	registerBillRoutes(mux)
	registerDocsRoutes(mux)
	if authSvc != nil {
		registerAuthRoutes(mux, authSvc)
		if notifSvc != nil {
			registerNotificationRoutes(mux, authSvc, notifSvc)
		}
	}

	return mux
}

// instrument wraps a handler with the request counter and duration
// histogram under a stable path label.
func instrument(path string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.RequestsTotal.WithLabelValues(path).Inc()
		defer func() {
			metrics.RequestDurationSeconds.WithLabelValues(path).Observe(time.Since(start).Seconds())
		}()
		h(w, r)
	}
}
