package tariff

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/contaluz/contaluz/internal/storage"
)

func countingServer(t *testing.T, records []RawRecord, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	h := datastoreHandler(t, records)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		h(w, r)
	}))
}

func TestServiceListCachesSnapshot(t *testing.T) {
	var hits atomic.Int64
	srv := countingServer(t, []RawRecord{
		activeRecord("CEMIG-D", "0,50", "0,40"),
		activeRecord("LIGHT", "0,20", "0,30"),
	}, &hits)
	defer srv.Close()

	st := storage.NewMemory()
	svc := NewServiceWithStorage(Config{
		BaseURL:     srv.URL,
		ResourceID:  "test-resource",
		SnapshotTTL: time.Hour,
	}, st)
	ctx := context.Background()

	first, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("first List: %v", err)
	}
	if len(first.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(first.Entries))
	}

	// Second call must be served from the snapshot.
	if _, err := svc.List(ctx, ""); err != nil {
		t.Fatalf("second List: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("upstream hit %d times, want 1 (snapshot should serve the second call)", got)
	}

	// State filter applies to the cached list too.
	mg, err := svc.List(ctx, "MG")
	if err != nil {
		t.Fatalf("filtered List: %v", err)
	}
	if len(mg.Entries) != 1 || mg.Entries[0].State != "MG" {
		t.Errorf("expected only the MG entry from cache, got %+v", mg.Entries)
	}
}

func TestServiceForceRefreshBypassesSnapshot(t *testing.T) {
	var hits atomic.Int64
	srv := countingServer(t, []RawRecord{
		activeRecord("LIGHT", "0,20", "0,30"),
	}, &hits)
	defer srv.Close()

	st := storage.NewMemory()
	svc := NewServiceWithStorage(Config{
		BaseURL:     srv.URL,
		ResourceID:  "test-resource",
		SnapshotTTL: time.Hour,
	}, st)
	ctx := context.Background()

	if _, err := svc.List(ctx, ""); err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := svc.ForceRefresh(ctx); err != nil {
		t.Fatalf("ForceRefresh: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("upstream hit %d times, want 2", got)
	}
}

func TestServiceFetchOnlyMode(t *testing.T) {
	srv := httptest.NewServer(datastoreHandler(t, []RawRecord{
		activeRecord("COPEL-DIS", "0,35", "0,30"),
	}))
	defer srv.Close()

	svc := NewService(Config{BaseURL: srv.URL, ResourceID: "test-resource"})
	resp, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List without storage: %v", err)
	}
	if len(resp.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(resp.Entries))
	}
	if resp.Source != "ANEEL" {
		t.Errorf("Source = %q, want ANEEL", resp.Source)
	}
}

func TestServiceFind(t *testing.T) {
	srv := httptest.NewServer(datastoreHandler(t, []RawRecord{
		activeRecord("CEMIG-D", "0,50", "0,40"),
		activeRecord("LIGHT", "0,20", "0,30"),
	}))
	defer srv.Close()

	svc := NewService(Config{BaseURL: srv.URL, ResourceID: "test-resource"})
	e, err := svc.Find(context.Background(), "CEMIG-D")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if e.State != "MG" {
		t.Errorf("State = %q, want MG", e.State)
	}

	if _, err := svc.Find(context.Background(), "NOPE"); err == nil {
		t.Fatalf("expected error for unknown distributor")
	}
}
