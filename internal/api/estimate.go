package api

import (
	"encoding/json"
	"net/http"

	"github.com/contaluz/contaluz/internal/billing"
	"github.com/contaluz/contaluz/internal/config"
	"github.com/contaluz/contaluz/internal/metrics"
	"github.com/contaluz/contaluz/internal/tariff"
)

type estimateRequest struct {
	ConsumptionKWh float64 `json:"consumption_kwh"`
	Distributor    string  `json:"distributor"`
	Flag           string  `json:"flag"`
	FixedFees      float64 `json:"fixed_fees_brl"`
	TaxRate        float64 `json:"tax_rate"`
	// Breakdown requests the itemized pre-tax view instead of the
	// grossed-up estimate.
	Breakdown bool `json:"breakdown"`
}

func registerEstimateRoutes(mux *http.ServeMux, svc *tariff.Service, cfg config.Config) {
	mux.HandleFunc("/api/v1/estimate", instrument("/api/v1/estimate", handleEstimate(svc, cfg)))
}

// handleEstimate computes a bill estimate for a consumption figure against
// a distributor's current tariff.
func handleEstimate(svc *tariff.Service, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const path = "/api/v1/estimate"
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req estimateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			metrics.RequestErrorsTotal.WithLabelValues(path, "400").Inc()
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.ConsumptionKWh <= 0 {
			metrics.RequestErrorsTotal.WithLabelValues(path, "400").Inc()
			http.Error(w, "consumption_kwh must be positive", http.StatusBadRequest)
			return
		}
		if req.Distributor == "" {
			metrics.RequestErrorsTotal.WithLabelValues(path, "400").Inc()
			http.Error(w, "distributor is required", http.StatusBadRequest)
			return
		}

		flagKey := req.Flag
		if flagKey == "" {
			flagKey = "verde"
		}
		flag, err := tariff.GetFlag(flagKey)
		if err != nil {
			metrics.RequestErrorsTotal.WithLabelValues(path, "400").Inc()
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		entry, err := svc.Find(r.Context(), req.Distributor)
		if err != nil {
			writeTariffError(w, path, err)
			return
		}

		fees := req.FixedFees
		if fees == 0 {
			fees = cfg.COSIPFee
		}
		taxRate := req.TaxRate
		if taxRate == 0 {
			taxRate = cfg.TaxRate
		}

		w.Header().Set("Content-Type", "application/json")
		if req.Breakdown {
			items := billing.Breakdown(req.ConsumptionKWh, entry.Total, flag.SurchargePerKWh, fees)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"items":        items,
				"subtotal_brl": billing.Subtotal(items),
			})
			return
		}

		est := billing.Estimated(req.ConsumptionKWh, *entry, flag, fees, taxRate)
		json.NewEncoder(w).Encode(est)
	}
}
