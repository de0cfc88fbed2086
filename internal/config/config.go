package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the runtime settings, all sourced from CONTALUZ_* environment
// variables with defaults that work for a single-node deployment.
type Config struct {
	Port string

	DBDriver string
	DSN      string

	ANEELBaseURL    string
	ANEELResourceID string
	ANEELLimit      int
	SnapshotTTL     time.Duration

	TaxRate  float64
	COSIPFee float64

	BillPDFPath string
}

// FromEnv builds a Config from environment variables, with sane defaults.
func FromEnv() Config {
	return Config{
		Port:            getenv("CONTALUZ_PORT", "8080"),
		DBDriver:        getenv("CONTALUZ_DB_DRIVER", "memory"),
		DSN:             os.Getenv("CONTALUZ_DB_DSN"),
		ANEELBaseURL:    os.Getenv("CONTALUZ_ANEEL_BASE_URL"),
		ANEELResourceID: os.Getenv("CONTALUZ_ANEEL_RESOURCE_ID"),
		ANEELLimit:      getenvInt("CONTALUZ_ANEEL_LIMIT", 0),
		SnapshotTTL:     getenvDuration("CONTALUZ_SNAPSHOT_TTL", 24*time.Hour),
		TaxRate:         getenvFloat("CONTALUZ_TAX_RATE", 0),
		COSIPFee:        getenvFloat("CONTALUZ_COSIP_FEE", 0),
		BillPDFPath:     os.Getenv("CONTALUZ_BILL_PDF_PATH"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
