package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/contaluz/contaluz/internal/billing"
	"github.com/contaluz/contaluz/internal/metrics"
)

func registerBillRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/bills/import", instrument("/api/v1/bills/import", handleBillImport))
}

// handleBillImport extracts consumption and total from an uploaded
// distributor bill PDF (multipart field "file").
func handleBillImport(w http.ResponseWriter, r *http.Request) {
	const path = "/api/v1/bills/import"
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(16 << 20); err != nil {
		metrics.RequestErrorsTotal.WithLabelValues(path, "400").Inc()
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		metrics.RequestErrorsTotal.WithLabelValues(path, "400").Inc()
		http.Error(w, "multipart field 'file' is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// The PDF reader needs a seekable file on disk.
	tmp, err := os.CreateTemp("", "bill-*.pdf")
	if err != nil {
		metrics.RequestErrorsTotal.WithLabelValues(path, "500").Inc()
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		metrics.RequestErrorsTotal.WithLabelValues(path, "500").Inc()
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	bill, err := billing.ParseBillFromPDF(tmp.Name())
	if err != nil {
		log.Printf("bill import failed: %v", err)
		metrics.RequestErrorsTotal.WithLabelValues(path, "422").Inc()
		http.Error(w, "could not extract bill fields", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bill)
}
