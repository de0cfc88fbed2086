package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSendJobAlertGeneric(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewAlerter(AlertConfig{
		WebhookURL:             srv.URL,
		WebhookType:            "generic",
		Enabled:                true,
		MinFailuresBeforeAlert: 1,
		Timeout:                5 * time.Second,
	})

	err := a.SendJobAlert(context.Background(), JobAlert{
		JobName:      "refresh_tariffs",
		Source:       "aneel",
		Error:        "upstream returned status 503",
		FailureCount: 2,
		Duration:     800 * time.Millisecond,
		Timestamp:    time.Now(),
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if got["job_name"] != "refresh_tariffs" || got["source"] != "aneel" {
		t.Errorf("payload = %+v", got)
	}
}

func TestSendJobAlertBelowThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("webhook must not be called below the failure threshold")
	}))
	defer srv.Close()

	a := NewAlerter(AlertConfig{
		WebhookURL:             srv.URL,
		WebhookType:            "generic",
		Enabled:                true,
		MinFailuresBeforeAlert: 3,
		Timeout:                5 * time.Second,
	})

	if err := a.SendJobAlert(context.Background(), JobAlert{FailureCount: 1}); err != nil {
		t.Fatalf("send: %v", err)
	}
}

func TestSendJobAlertDisabled(t *testing.T) {
	a := NewAlerter(AlertConfig{Enabled: false})
	if err := a.SendJobAlert(context.Background(), JobAlert{FailureCount: 10}); err != nil {
		t.Fatalf("disabled alerter must be a no-op, got %v", err)
	}
}

func TestSendJobAlertWebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	a := NewAlerter(AlertConfig{
		WebhookURL:             srv.URL,
		Enabled:                true,
		MinFailuresBeforeAlert: 1,
		Timeout:                5 * time.Second,
	})
	if err := a.SendJobAlert(context.Background(), JobAlert{FailureCount: 1}); err == nil {
		t.Fatalf("expected error on webhook failure")
	}
}
