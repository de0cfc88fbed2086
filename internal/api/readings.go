package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/contaluz/contaluz/internal/billing"
	"github.com/contaluz/contaluz/internal/config"
	"github.com/contaluz/contaluz/internal/metrics"
	"github.com/contaluz/contaluz/internal/readings"
	"github.com/contaluz/contaluz/internal/tariff"
)

type readingRequest struct {
	HouseholdID string    `json:"household_id"`
	ValueKWh    float64   `json:"value_kwh"`
	ReadAt      time.Time `json:"read_at"`
}

func registerReadingRoutes(mux *http.ServeMux, svc *readings.Service, tariffs *tariff.Service, cfg config.Config) {
	mux.HandleFunc("/api/v1/readings", instrument("/api/v1/readings", handleReadings(svc)))
	mux.HandleFunc("/api/v1/readings/consumption", instrument("/api/v1/readings/consumption", handleConsumption(svc)))
	mux.HandleFunc("/api/v1/readings/projection", instrument("/api/v1/readings/projection", handleProjection(svc, tariffs, cfg)))
}

// handleReadings records (POST) or lists (GET) meter readings.
func handleReadings(svc *readings.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const path = "/api/v1/readings"
		switch r.Method {
		case http.MethodPost:
			var req readingRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				metrics.RequestErrorsTotal.WithLabelValues(path, "400").Inc()
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
			rec, err := svc.Record(r.Context(), req.HouseholdID, req.ValueKWh, req.ReadAt)
			if err != nil {
				code := http.StatusBadRequest
				if errors.Is(err, readings.ErrNonMonotonic) || errors.Is(err, readings.ErrOutOfOrder) {
					code = http.StatusConflict
				}
				metrics.RequestErrorsTotal.WithLabelValues(path, strconv.Itoa(code)).Inc()
				http.Error(w, err.Error(), code)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(rec)

		case http.MethodGet:
			householdID := r.URL.Query().Get("household_id")
			if householdID == "" {
				metrics.RequestErrorsTotal.WithLabelValues(path, "400").Inc()
				http.Error(w, "household_id is required", http.StatusBadRequest)
				return
			}
			list, err := svc.List(r.Context(), householdID)
			if err != nil {
				metrics.RequestErrorsTotal.WithLabelValues(path, "500").Inc()
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(list)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func handleConsumption(svc *readings.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const path = "/api/v1/readings/consumption"
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		householdID := r.URL.Query().Get("household_id")
		if householdID == "" {
			metrics.RequestErrorsTotal.WithLabelValues(path, "400").Inc()
			http.Error(w, "household_id is required", http.StatusBadRequest)
			return
		}
		cons, err := svc.Consumptions(r.Context(), householdID)
		if err != nil {
			metrics.RequestErrorsTotal.WithLabelValues(path, "500").Inc()
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cons)
	}
}

// handleProjection estimates the next bill from the household's latest
// consumption interval projected to 30 days.
func handleProjection(svc *readings.Service, tariffs *tariff.Service, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const path = "/api/v1/readings/projection"
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		householdID := r.URL.Query().Get("household_id")
		distributor := r.URL.Query().Get("distributor")
		if householdID == "" || distributor == "" {
			metrics.RequestErrorsTotal.WithLabelValues(path, "400").Inc()
			http.Error(w, "household_id and distributor are required", http.StatusBadRequest)
			return
		}

		flagKey := r.URL.Query().Get("flag")
		if flagKey == "" {
			flagKey = "verde"
		}
		flag, err := tariff.GetFlag(flagKey)
		if err != nil {
			metrics.RequestErrorsTotal.WithLabelValues(path, "400").Inc()
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		latest, err := svc.LatestConsumption(r.Context(), householdID)
		if err != nil {
			metrics.RequestErrorsTotal.WithLabelValues(path, "500").Inc()
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if latest == nil {
			metrics.RequestErrorsTotal.WithLabelValues(path, "404").Inc()
			http.Error(w, "at least two readings are required", http.StatusNotFound)
			return
		}

		entry, err := tariffs.Find(r.Context(), distributor)
		if err != nil {
			writeTariffError(w, path, err)
			return
		}

		est := billing.Estimated(latest.ProjectedKWh30d, *entry, flag, cfg.COSIPFee, cfg.TaxRate)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"consumption": latest,
			"estimate":    est,
		})
	}
}
