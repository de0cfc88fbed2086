package storage

import (
	"context"
	"testing"
	"time"
)

func TestMemoryTariffSnapshotRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	snap, err := m.GetTariffSnapshot(ctx, "aneel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected nil snapshot on empty store")
	}

	if err := m.SaveTariffSnapshot(ctx, TariffSnapshot{Source: "aneel", Payload: []byte(`{}`)}); err != nil {
		t.Fatalf("save: %v", err)
	}

	snap, err = m.GetTariffSnapshot(ctx, "aneel")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snap == nil || len(snap.Payload) == 0 {
		t.Fatalf("expected stored snapshot, got %+v", snap)
	}
	if snap.FetchedAt.IsZero() {
		t.Errorf("expected FetchedAt to be defaulted")
	}
}

func TestMemoryMeterReadingsOrdered(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// Insert out of order; listing must come back sorted by read time.
	for i, day := range []int{20, 0, 10} {
		r := MeterReading{
			ID:          string(rune('a' + i)),
			HouseholdID: "casa",
			ValueKWh:    float64(1000 + day),
			ReadAt:      base.AddDate(0, 0, day),
		}
		if err := m.SaveMeterReading(ctx, r); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	list, err := m.ListMeterReadings(ctx, "casa")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].ReadAt.Before(list[i-1].ReadAt) {
			t.Errorf("readings not sorted by read_at")
		}
	}

	latest, err := m.LatestMeterReading(ctx, "casa")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest == nil || latest.ValueKWh != 1020 {
		t.Errorf("latest = %+v, want the day-20 reading", latest)
	}

	other, err := m.LatestMeterReading(ctx, "outra")
	if err != nil {
		t.Fatalf("latest other: %v", err)
	}
	if other != nil {
		t.Errorf("expected nil for unknown household")
	}
}

func TestMemorySettings(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	v, err := m.GetSetting(ctx, "refresh_interval_seconds")
	if err != nil || v != "" {
		t.Fatalf("expected empty setting, got %q err=%v", v, err)
	}
	if err := m.SetSetting(ctx, "refresh_interval_seconds", "600"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, err = m.GetSetting(ctx, "refresh_interval_seconds")
	if err != nil || v != "600" {
		t.Fatalf("got %q err=%v, want 600", v, err)
	}
}
