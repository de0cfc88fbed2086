package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// AlertConfig holds webhook alerting configuration.
type AlertConfig struct {
	// WebhookURL is a Slack, Discord, or custom webhook endpoint.
	WebhookURL string
	// WebhookType selects the payload format: "slack", "discord", or "generic".
	WebhookType string
	Enabled     bool
	// MinFailuresBeforeAlert is the consecutive-failure threshold.
	MinFailuresBeforeAlert int
	Timeout                time.Duration
}

// DefaultAlertConfig returns config from environment variables.
func DefaultAlertConfig() AlertConfig {
	cfg := AlertConfig{
		WebhookURL:             os.Getenv("CONTALUZ_ALERT_WEBHOOK_URL"),
		WebhookType:            os.Getenv("CONTALUZ_ALERT_WEBHOOK_TYPE"),
		MinFailuresBeforeAlert: 1,
		Timeout:                10 * time.Second,
	}

	cfg.Enabled = cfg.WebhookURL != ""

	if cfg.WebhookType == "" {
		if strings.Contains(cfg.WebhookURL, "slack.com") {
			cfg.WebhookType = "slack"
		} else if strings.Contains(cfg.WebhookURL, "discord.com") {
			cfg.WebhookType = "discord"
		} else {
			cfg.WebhookType = "generic"
		}
	}

	if v := os.Getenv("CONTALUZ_ALERT_MIN_FAILURES"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			cfg.MinFailuresBeforeAlert = n
		}
	}

	return cfg
}

// Alerter sends alerts to the configured webhook.
type Alerter struct {
	cfg    AlertConfig
	client *http.Client
}

func NewAlerter(cfg AlertConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// JobAlert describes a failed background job run, typically the tariff
// refresh against the open-data API.
type JobAlert struct {
	JobName      string
	Source       string
	Error        string
	FailureCount int
	Duration     time.Duration
	Timestamp    time.Time
}

// SendJobAlert notifies the webhook about a failed job run.
func (a *Alerter) SendJobAlert(ctx context.Context, alert JobAlert) error {
	if !a.cfg.Enabled {
		return nil
	}

	if alert.FailureCount < a.cfg.MinFailuresBeforeAlert {
		log.Printf("alerting: %d failures below threshold (%d), skipping",
			alert.FailureCount, a.cfg.MinFailuresBeforeAlert)
		return nil
	}

	var payload []byte
	var err error

	switch a.cfg.WebhookType {
	case "slack":
		payload, err = a.buildSlackPayload(alert)
	case "discord":
		payload, err = a.buildDiscordPayload(alert)
	default:
		payload, err = a.buildGenericPayload(alert)
	}
	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	log.Printf("alerting: sent alert for job %s", alert.JobName)
	return nil
}

func (a *Alerter) buildSlackPayload(alert JobAlert) ([]byte, error) {
	payload := map[string]interface{}{
		"blocks": []map[string]interface{}{
			{
				"type": "header",
				"text": map[string]string{
					"type": "plain_text",
					"text": fmt.Sprintf(":x: Job Alert: %s", alert.JobName),
				},
			},
			{
				"type": "section",
				"fields": []map[string]string{
					{"type": "mrkdwn", "text": fmt.Sprintf("*Source:*\n%s", alert.Source)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Consecutive failures:*\n%d", alert.FailureCount)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Duration:*\n%s", alert.Duration.Round(time.Millisecond))},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Timestamp:*\n%s", alert.Timestamp.Format(time.RFC3339))},
				},
			},
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Error:*\n%s", alert.Error),
				},
			},
		},
	}

	return json.Marshal(payload)
}

func (a *Alerter) buildDiscordPayload(alert JobAlert) ([]byte, error) {
	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       fmt.Sprintf("Job Alert: %s", alert.JobName),
				"description": alert.Error,
				"color":       16711680,
				"fields": []map[string]interface{}{
					{"name": "Source", "value": alert.Source, "inline": true},
					{"name": "Failures", "value": fmt.Sprintf("%d", alert.FailureCount), "inline": true},
					{"name": "Duration", "value": alert.Duration.Round(time.Millisecond).String(), "inline": true},
				},
				"timestamp": alert.Timestamp.Format(time.RFC3339),
			},
		},
	}

	return json.Marshal(payload)
}

func (a *Alerter) buildGenericPayload(alert JobAlert) ([]byte, error) {
	payload := map[string]interface{}{
		"alert_type":    "job_failure",
		"job_name":      alert.JobName,
		"source":        alert.Source,
		"error":         alert.Error,
		"failure_count": alert.FailureCount,
		"duration_ms":   alert.Duration.Milliseconds(),
		"timestamp":     alert.Timestamp.Format(time.RFC3339),
	}

	return json.Marshal(payload)
}
