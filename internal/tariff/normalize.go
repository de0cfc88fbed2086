package tariff

import (
	"strconv"
	"strings"
	"time"

	"github.com/contaluz/contaluz/internal/geo"
	"github.com/contaluz/contaluz/internal/metrics"
)

const (
	defaultModality = "Convencional"
	defaultSlot     = "Não se aplica"
)

// parseCharge converts a comma-decimal charge field ("0,72518") to a
// float64. Unparsable values default to zero instead of failing the record;
// occurrences are counted rather than surfaced.
func parseCharge(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		metrics.LenientParsesTotal.Inc()
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		metrics.LenientParsesTotal.Inc()
		return 0
	}
	return v
}

// parseDate accepts the ISO-like date strings the dataset carries, with or
// without a time suffix.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) > 10 {
		s = s[:10]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Normalize converts raw datastore rows into deduplicated tariff entries.
//
// Records whose validity window has already closed relative to now are
// dropped (an end date equal to now is kept). Entries are keyed by agent
// acronym only — distinct modalities and time-of-use slots for the same
// distributor deliberately collapse into a single entry, keeping whichever
// has the lowest total charge. Output preserves the insertion order of each
// acronym's first occurrence; callers re-sort as needed.
func Normalize(records []RawRecord, now time.Time) []Entry {
	out := make([]Entry, 0, len(records))
	index := make(map[string]int)

	for _, rec := range records {
		end, ok := parseDate(rec.DatFimVigencia)
		if !ok || end.Before(now) {
			continue
		}
		start, _ := parseDate(rec.DatInicioVigencia)

		tusd := parseCharge(rec.VlrTUSD)
		te := parseCharge(rec.VlrTE)

		modality := strings.TrimSpace(rec.DscModalidadeTarifaria)
		if modality == "" {
			modality = defaultModality
		}
		slot := strings.TrimSpace(rec.NomPostoTarifario)
		if slot == "" {
			slot = defaultSlot
		}

		e := Entry{
			Acronym:    rec.SigAgente,
			Name:       rec.SigAgente,
			State:      geo.StateOf(rec.SigAgente),
			ValidFrom:  start,
			ValidUntil: end,
			Modality:   modality,
			Slot:       slot,
			TUSD:       tusd,
			TE:         te,
			Total:      tusd + te,
			Source:     "ANEEL",
		}

		if i, seen := index[e.Acronym]; seen {
			if e.Total < out[i].Total {
				out[i] = e
			}
			continue
		}
		index[e.Acronym] = len(out)
		out = append(out, e)
	}

	return out
}
