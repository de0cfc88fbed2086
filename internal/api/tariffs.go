package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/contaluz/contaluz/internal/metrics"
	"github.com/contaluz/contaluz/internal/tariff"
)

func registerTariffRoutes(mux *http.ServeMux, svc *tariff.Service) {
	mux.HandleFunc("/api/v1/tariffs", instrument("/api/v1/tariffs", handleListTariffs(svc)))
	mux.HandleFunc("/api/v1/tariffs/refresh", instrument("/api/v1/tariffs/refresh", handleRefreshTariffs(svc)))
	mux.HandleFunc("/api/v1/flags", instrument("/api/v1/flags", handleListFlags))
}

// handleListTariffs serves the current residential tariff list, optionally
// filtered with ?state=UF.
func handleListTariffs(svc *tariff.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const path = "/api/v1/tariffs"
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		uf := strings.ToUpper(r.URL.Query().Get("state"))
		resp, err := svc.List(r.Context(), uf)
		if err != nil {
			writeTariffError(w, path, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Printf("encode tariff list failed: %v", err)
		}
	}
}

// handleRefreshTariffs bypasses the snapshot cache; used by CronJobs and
// manual refresh.
func handleRefreshTariffs(svc *tariff.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const path = "/api/v1/tariffs/refresh"
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		resp, err := svc.ForceRefresh(r.Context())
		if err != nil {
			writeTariffError(w, path, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Printf("encode refresh response failed: %v", err)
		}
	}
}

func handleListFlags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tariff.Flags())
}

// writeTariffError maps fetch failures to response codes: upstream HTTP
// failures become 502, an empty dataset becomes 404, anything else 500.
func writeTariffError(w http.ResponseWriter, path string, err error) {
	var upstream *tariff.UpstreamError
	switch {
	case errors.As(err, &upstream):
		log.Printf("%s: upstream error: %v", path, err)
		metrics.RequestErrorsTotal.WithLabelValues(path, "502").Inc()
		http.Error(w, "tariff source unavailable", http.StatusBadGateway)
	case errors.Is(err, tariff.ErrNoData):
		metrics.RequestErrorsTotal.WithLabelValues(path, "404").Inc()
		http.Error(w, "no tariff data available", http.StatusNotFound)
	default:
		log.Printf("%s: %v", path, err)
		metrics.RequestErrorsTotal.WithLabelValues(path, "500").Inc()
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
