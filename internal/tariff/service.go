package tariff

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/contaluz/contaluz/internal/storage"
)

// snapshotKey identifies the cached national tariff list in storage. The
// full list is cached once and state filters are applied on read, so a
// single refresh serves every state.
const snapshotKey = "aneel"

// Config controls how the tariff service behaves.
type Config struct {
	// BaseURL overrides the open-data portal address (tests point this at
	// a local server).
	BaseURL string
	// ResourceID overrides the datastore resource queried.
	ResourceID string
	// Limit is the row limit per datastore query.
	Limit int
	// SnapshotTTL is how long a cached snapshot is served before a new
	// upstream fetch. Zero means snapshots never expire and only
	// ForceRefresh reaches upstream.
	SnapshotTTL time.Duration
}

// Service coordinates fetching and caching of the tariff list.
type Service struct {
	cfg    Config
	client *Client
	store  storage.Storage // may be nil for fetch-only mode
}

// NewService returns a fetch-only Service with no snapshot caching.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg, client: NewClient(cfg.BaseURL, cfg.ResourceID, nil)}
}

// NewServiceWithStorage returns a Service that caches tariff snapshots in
// the provided storage backend.
func NewServiceWithStorage(cfg Config, st storage.Storage) *Service {
	s := NewService(cfg)
	s.store = st
	return s
}

// List returns the sorted residential tariff list, optionally filtered to
// one state. A fresh storage snapshot is preferred; on miss or expiry the
// upstream datastore is queried and the result written back best-effort.
func (s *Service) List(ctx context.Context, uf string) (*ListResponse, error) {
	if s.store != nil {
		snap, err := s.store.GetTariffSnapshot(ctx, snapshotKey)
		if err == nil && snap != nil && len(snap.Payload) > 0 && s.fresh(snap.FetchedAt) {
			var resp ListResponse
			if err := json.Unmarshal(snap.Payload, &resp); err == nil {
				resp.Entries = FilterState(resp.Entries, uf)
				return &resp, nil
			}
			// Undecodable snapshot: fall through and re-fetch.
		}
	}

	resp, err := s.refresh(ctx)
	if err != nil {
		return nil, err
	}
	out := *resp
	out.Entries = FilterState(resp.Entries, uf)
	return &out, nil
}

// ForceRefresh bypasses any cached snapshot and re-fetches from upstream.
func (s *Service) ForceRefresh(ctx context.Context) (*ListResponse, error) {
	return s.refresh(ctx)
}

func (s *Service) fresh(fetchedAt time.Time) bool {
	if s.cfg.SnapshotTTL <= 0 {
		return true
	}
	return time.Since(fetchedAt) < s.cfg.SnapshotTTL
}

func (s *Service) refresh(ctx context.Context) (*ListResponse, error) {
	entries, err := s.client.FetchTariffs(ctx, "", s.cfg.Limit)
	if err != nil {
		return nil, err
	}

	resp := &ListResponse{
		Source:    "ANEEL",
		SourceURL: s.client.SourceURL(),
		FetchedAt: time.Now().UTC(),
		Entries:   entries,
	}

	// Best-effort write-back; a storage hiccup must not fail the fetch.
	if s.store != nil {
		if payload, err := json.Marshal(resp); err == nil {
			_ = s.store.SaveTariffSnapshot(ctx, storage.TariffSnapshot{
				Source:    snapshotKey,
				Payload:   payload,
				FetchedAt: resp.FetchedAt,
			})
		}
	}

	return resp, nil
}

// Find returns the entry for a distributor acronym from the current list.
func (s *Service) Find(ctx context.Context, acronym string) (*Entry, error) {
	resp, err := s.List(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range resp.Entries {
		if resp.Entries[i].Acronym == acronym {
			return &resp.Entries[i], nil
		}
	}
	return nil, fmt.Errorf("unknown distributor: %s", acronym)
}
