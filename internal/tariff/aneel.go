package tariff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/contaluz/contaluz/internal/metrics"
)

const (
	// DefaultBaseURL is the ANEEL open-data portal.
	DefaultBaseURL = "https://dadosabertos.aneel.gov.br"

	datastorePath = "/api/3/action/datastore_search"

	// DefaultResourceID identifies the homologated distribution tariffs
	// resource in the portal's CKAN datastore.
	DefaultResourceID = "fcf2906c-7c32-4b9b-a637-054e7a5234f4"

	// DefaultLimit is the row limit sent to the datastore when the caller
	// does not supply one. The residential B1 slice of the dataset is well
	// under this.
	DefaultLimit = 10000
)

// ErrNoData is returned when the datastore responds successfully but
// reports failure or carries zero records. Callers can distinguish "no
// results" from "service down".
var ErrNoData = errors.New("aneel: no tariff records returned")

// UpstreamError reports a non-2xx status from the open-data endpoint.
type UpstreamError struct {
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("aneel: upstream returned status %d", e.Status)
}

// envelope is the CKAN datastore_search response wrapper.
type envelope struct {
	Success bool `json:"success"`
	Result  struct {
		Records []RawRecord `json:"records"`
		Total   int         `json:"total"`
	} `json:"result"`
}

// Client queries the ANEEL CKAN datastore for residential tariffs.
type Client struct {
	baseURL    string
	resourceID string
	hc         *http.Client
}

// NewClient builds a datastore client. Empty arguments fall back to the
// production portal, the homologated-tariffs resource, and a client with a
// bounded timeout.
func NewClient(baseURL, resourceID string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if resourceID == "" {
		resourceID = DefaultResourceID
	}
	if hc == nil {
		hc = DefaultHTTPClient()
	}
	return &Client{baseURL: baseURL, resourceID: resourceID, hc: hc}
}

// SourceURL is the human-facing address of the dataset, recorded on served
// payloads for provenance.
func (c *Client) SourceURL() string {
	return c.baseURL + "/dataset/tarifas-distribuidoras-energia-eletrica"
}

// FetchTariffs retrieves, normalizes, and sorts the residential low-voltage
// tariff list. The datastore filters server-side to subgroup B1 and class
// Residencial; uf optionally restricts the result to one state by exact
// match. One outbound call per invocation, no automatic retry.
func (c *Client) FetchTariffs(ctx context.Context, uf string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	filters, err := json.Marshal(map[string]string{
		"DscSubGrupo": "B1",
		"DscClasse":   "Residencial",
	})
	if err != nil {
		return nil, fmt.Errorf("encode filters: %w", err)
	}

	q := url.Values{}
	q.Set("resource_id", c.resourceID)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("filters", string(filters))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+datastorePath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		metrics.FetchesTotal.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("fetch tariffs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.FetchesTotal.WithLabelValues("upstream_error").Inc()
		return nil, &UpstreamError{Status: resp.StatusCode}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		metrics.FetchesTotal.WithLabelValues("decode_error").Inc()
		return nil, fmt.Errorf("decode datastore response: %w", err)
	}

	if !env.Success || len(env.Result.Records) == 0 {
		metrics.FetchesTotal.WithLabelValues("no_data").Inc()
		return nil, ErrNoData
	}

	// The validity cutoff is evaluated once for the whole batch, not per
	// record.
	entries := Normalize(env.Result.Records, time.Now().UTC())
	entries = FilterState(entries, uf)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Total < entries[j].Total
	})

	metrics.FetchesTotal.WithLabelValues("ok").Inc()
	return entries, nil
}
