package tariff

import (
	"math"
	"testing"
	"time"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func rawRecord(agent, start, end, tusd, te string) RawRecord {
	return RawRecord{
		SigAgente:         agent,
		DatInicioVigencia: start,
		DatFimVigencia:    end,
		VlrTUSD:           tusd,
		VlrTE:             te,
	}
}

func TestNormalizeParsesCommaDecimals(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recs := []RawRecord{
		rawRecord("CEMIG-D", "2025-05-28", "2026-05-27", "0,45000", "0,27518"),
	}

	out := Normalize(recs, now)
	if len(out) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(out))
	}
	e := out[0]
	if e.TUSD != 0.45 {
		t.Errorf("TUSD = %v, want 0.45", e.TUSD)
	}
	if e.TE != 0.27518 {
		t.Errorf("TE = %v, want 0.27518", e.TE)
	}
	// Total is a runtime float sum; compare with a tolerance.
	if !almostEqual(e.Total, 0.72518) {
		t.Errorf("Total = %v, want 0.72518", e.Total)
	}
	if e.State != "MG" {
		t.Errorf("State = %q, want MG", e.State)
	}
}

func TestNormalizeLenientOnBadDecimals(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recs := []RawRecord{
		rawRecord("LIGHT", "2025-01-01", "2026-12-31", "", "abc"),
	}

	out := Normalize(recs, now)
	if len(out) != 1 {
		t.Fatalf("expected record kept despite bad charges, got %d entries", len(out))
	}
	if out[0].Total != 0 {
		t.Errorf("Total = %v, want 0 for unparsable charges", out[0].Total)
	}
}

func TestNormalizeValidityWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recs := []RawRecord{
		rawRecord("EXPIRED", "2024-01-01", "2025-12-31", "0,1", "0,1"),
		rawRecord("BOUNDARY", "2025-01-01", "2026-01-01", "0,1", "0,1"),
		rawRecord("ACTIVE", "2025-06-01", "2026-06-01", "0,1", "0,1"),
		rawRecord("NODATE", "2025-06-01", "", "0,1", "0,1"),
	}

	out := Normalize(recs, now)
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	// An end date exactly equal to now is still valid.
	if out[0].Acronym != "BOUNDARY" || out[1].Acronym != "ACTIVE" {
		t.Errorf("unexpected survivors: %q, %q", out[0].Acronym, out[1].Acronym)
	}
}

func TestNormalizeDedupKeepsLowestTotal(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recs := []RawRecord{
		rawRecord("COPEL-DIS", "2025-06-01", "2026-06-01", "0,50", "0,40"),
		rawRecord("COPEL-DIS", "2025-06-01", "2026-06-01", "0,30", "0,30"), // lower, replaces
		rawRecord("COPEL-DIS", "2025-06-01", "2026-06-01", "0,60", "0,50"), // higher, discarded
	}

	out := Normalize(recs, now)
	if len(out) != 1 {
		t.Fatalf("expected 1 deduplicated entry, got %d", len(out))
	}
	if got := out[0].Total; got != 0.6 {
		t.Errorf("Total = %v, want 0.6 (minimum of the group)", got)
	}
}

// Dedup is keyed by acronym alone: different modalities for the same
// distributor collapse into one entry.
func TestNormalizeDedupIgnoresModality(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := rawRecord("CELESC-DIS", "2025-06-01", "2026-06-01", "0,40", "0,30")
	a.DscModalidadeTarifaria = "Convencional"
	b := rawRecord("CELESC-DIS", "2025-06-01", "2026-06-01", "0,20", "0,25")
	b.DscModalidadeTarifaria = "Branca"
	b.NomPostoTarifario = "Fora ponta"

	out := Normalize([]RawRecord{a, b}, now)
	if len(out) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(out))
	}
	if out[0].Modality != "Branca" {
		t.Errorf("Modality = %q, want the lower-total record's modality", out[0].Modality)
	}
}

func TestNormalizeDefaultsModalityAndSlot(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := Normalize([]RawRecord{
		rawRecord("RGE", "2025-06-01", "2026-06-01", "0,1", "0,1"),
	}, now)
	if len(out) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(out))
	}
	if out[0].Modality != "Convencional" {
		t.Errorf("Modality = %q, want Convencional", out[0].Modality)
	}
	if out[0].Slot != "Não se aplica" {
		t.Errorf("Slot = %q, want Não se aplica", out[0].Slot)
	}
}

func TestNormalizePreservesInsertionOrder(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recs := []RawRecord{
		rawRecord("B-AGENT", "2025-06-01", "2026-06-01", "0,9", "0,9"),
		rawRecord("A-AGENT", "2025-06-01", "2026-06-01", "0,1", "0,1"),
		rawRecord("B-AGENT", "2025-06-01", "2026-06-01", "0,2", "0,2"), // replaces in place
	}

	out := Normalize(recs, now)
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	if out[0].Acronym != "B-AGENT" || out[1].Acronym != "A-AGENT" {
		t.Errorf("order = [%q, %q], want first-seen order", out[0].Acronym, out[1].Acronym)
	}
	if out[0].Total != 0.4 {
		t.Errorf("replaced entry Total = %v, want 0.4", out[0].Total)
	}
}
