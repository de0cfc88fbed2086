package readings

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/contaluz/contaluz/internal/storage"
)

func TestRecordAndList(t *testing.T) {
	svc := NewService(storage.NewMemory())
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	r1, err := svc.Record(ctx, "casa", 10000, base)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if r1.ID == "" {
		t.Errorf("expected generated id")
	}

	if _, err := svc.Record(ctx, "casa", 10200, base.AddDate(0, 0, 30)); err != nil {
		t.Fatalf("record second: %v", err)
	}

	list, err := svc.List(ctx, "casa")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(list))
	}
}

func TestRecordRejectsDecreasingValue(t *testing.T) {
	svc := NewService(storage.NewMemory())
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	if _, err := svc.Record(ctx, "casa", 10000, base); err != nil {
		t.Fatalf("record: %v", err)
	}
	_, err := svc.Record(ctx, "casa", 9999, base.AddDate(0, 0, 1))
	if !errors.Is(err, ErrNonMonotonic) {
		t.Fatalf("expected ErrNonMonotonic, got %v", err)
	}
}

func TestRecordRejectsOutOfOrderTimestamp(t *testing.T) {
	svc := NewService(storage.NewMemory())
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	if _, err := svc.Record(ctx, "casa", 10000, base); err != nil {
		t.Fatalf("record: %v", err)
	}
	_, err := svc.Record(ctx, "casa", 10100, base.AddDate(0, 0, -1))
	if !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}
}

func TestRecordValidation(t *testing.T) {
	svc := NewService(storage.NewMemory())
	ctx := context.Background()

	if _, err := svc.Record(ctx, "", 100, time.Time{}); err == nil {
		t.Errorf("expected error for missing household")
	}
	if _, err := svc.Record(ctx, "casa", -1, time.Time{}); err == nil {
		t.Errorf("expected error for negative value")
	}
}

func TestConsumptions(t *testing.T) {
	svc := NewService(storage.NewMemory())
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, r := range []struct {
		value float64
		days  int
	}{
		{10000, 0},
		{10150, 15},
		{10450, 45},
	} {
		if _, err := svc.Record(ctx, "casa", r.value, base.AddDate(0, 0, r.days)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	cons, err := svc.Consumptions(ctx, "casa")
	if err != nil {
		t.Fatalf("consumptions: %v", err)
	}
	if len(cons) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(cons))
	}
	if cons[0].KWh != 150 || cons[1].KWh != 300 {
		t.Errorf("deltas = %v/%v, want 150/300", cons[0].KWh, cons[1].KWh)
	}
	// 150 kWh over 15 days projects to 300 kWh in 30 days.
	if math.Abs(cons[0].ProjectedKWh30d-300) > 1e-9 {
		t.Errorf("projection = %v, want 300", cons[0].ProjectedKWh30d)
	}

	latest, err := svc.LatestConsumption(ctx, "casa")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest == nil || latest.KWh != 300 {
		t.Errorf("latest = %+v, want the 300 kWh interval", latest)
	}
}

func TestConsumptionsNeedsTwoReadings(t *testing.T) {
	svc := NewService(storage.NewMemory())
	ctx := context.Background()

	if _, err := svc.Record(ctx, "casa", 10000, time.Now().UTC()); err != nil {
		t.Fatalf("record: %v", err)
	}
	cons, err := svc.Consumptions(ctx, "casa")
	if err != nil {
		t.Fatalf("consumptions: %v", err)
	}
	if cons != nil {
		t.Errorf("expected nil with a single reading, got %+v", cons)
	}
	latest, err := svc.LatestConsumption(ctx, "casa")
	if err != nil || latest != nil {
		t.Errorf("expected nil latest, got %+v err=%v", latest, err)
	}
}
