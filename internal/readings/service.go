package readings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/contaluz/contaluz/internal/storage"
)

var (
	// ErrNonMonotonic is returned when a new reading is lower than the
	// latest stored one. Meter registers are cumulative and only count up.
	ErrNonMonotonic = errors.New("reading value below the latest recorded value")

	// ErrOutOfOrder is returned when a new reading is timestamped before
	// the latest stored one.
	ErrOutOfOrder = errors.New("reading timestamp before the latest recorded reading")
)

// Service records and reports household meter readings. Readings store the
// cumulative register value; consumption is the delta between consecutive
// readings.
type Service struct {
	store storage.Storage
}

func NewService(store storage.Storage) *Service {
	return &Service{store: store}
}

// Record validates and persists a reading. Zero ReadAt defaults to now.
func (s *Service) Record(ctx context.Context, householdID string, valueKWh float64, readAt time.Time) (*storage.MeterReading, error) {
	if householdID == "" {
		return nil, errors.New("household id is required")
	}
	if valueKWh < 0 {
		return nil, errors.New("reading value must not be negative")
	}
	if readAt.IsZero() {
		readAt = time.Now().UTC()
	}

	latest, err := s.store.LatestMeterReading(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("loading latest reading: %w", err)
	}
	if latest != nil {
		if valueKWh < latest.ValueKWh {
			return nil, fmt.Errorf("%w: %.2f < %.2f", ErrNonMonotonic, valueKWh, latest.ValueKWh)
		}
		if readAt.Before(latest.ReadAt) {
			return nil, fmt.Errorf("%w: %s < %s", ErrOutOfOrder, readAt.Format(time.RFC3339), latest.ReadAt.Format(time.RFC3339))
		}
	}

	r := storage.MeterReading{
		ID:          uuid.NewString(),
		HouseholdID: householdID,
		ValueKWh:    valueKWh,
		ReadAt:      readAt,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.SaveMeterReading(ctx, r); err != nil {
		return nil, fmt.Errorf("saving reading: %w", err)
	}
	return &r, nil
}

// List returns the household's readings ordered by read time.
func (s *Service) List(ctx context.Context, householdID string) ([]storage.MeterReading, error) {
	return s.store.ListMeterReadings(ctx, householdID)
}

// Consumption is the kWh delta and elapsed time between two consecutive
// readings, plus the linear projection to a 30-day month.
type Consumption struct {
	From            time.Time `json:"from"`
	To              time.Time `json:"to"`
	KWh             float64   `json:"kwh"`
	Days            float64   `json:"days"`
	ProjectedKWh30d float64   `json:"projected_kwh_30d"`
}

// Consumptions derives the consumption intervals from the household's
// reading history. Needs at least two readings; returns nil otherwise.
func (s *Service) Consumptions(ctx context.Context, householdID string) ([]Consumption, error) {
	list, err := s.store.ListMeterReadings(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("listing readings: %w", err)
	}
	if len(list) < 2 {
		return nil, nil
	}

	out := make([]Consumption, 0, len(list)-1)
	for i := 1; i < len(list); i++ {
		prev, cur := list[i-1], list[i]
		c := Consumption{
			From: prev.ReadAt,
			To:   cur.ReadAt,
			KWh:  cur.ValueKWh - prev.ValueKWh,
			Days: cur.ReadAt.Sub(prev.ReadAt).Hours() / 24,
		}
		if c.Days > 0 {
			c.ProjectedKWh30d = c.KWh / c.Days * 30
		}
		out = append(out, c)
	}
	return out, nil
}

// LatestConsumption returns the most recent interval, or nil with fewer
// than two readings.
func (s *Service) LatestConsumption(ctx context.Context, householdID string) (*Consumption, error) {
	all, err := s.Consumptions(ctx, householdID)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	last := all[len(all)-1]
	return &last, nil
}
