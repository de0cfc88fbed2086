package billing

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// BillImport carries the fields extracted from a distributor bill PDF.
// It seeds a consumption history without manual typing.
type BillImport struct {
	ConsumptionKWh float64 `json:"consumption_kwh"`
	TotalBRL       float64 `json:"total_brl"`
	ReferenceMonth string  `json:"reference_month,omitempty"` // "MM/YYYY" when found
}

// ParseBillFromPDF opens a bill PDF at the given path, extracts text, and
// delegates to ParseBillFromText.
func ParseBillFromPDF(path string) (*BillImport, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	rc, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, fmt.Errorf("read pdf text: %w", err)
	}

	return ParseBillFromText(buf.String())
}

var (
	consumptionRe = regexp.MustCompile(`(?i)consumo[^0-9]{0,40}?([0-9]{1,6}(?:[.,][0-9]+)?)\s*kWh`)
	totalRe       = regexp.MustCompile(`(?i)total\s+a\s+pagar[^0-9]{0,20}R?\$?\s*([0-9][0-9.,]*)`)
	referenceRe   = regexp.MustCompile(`(?i)refer[êe]ncia[^0-9]{0,20}([0-9]{2}/[0-9]{4})`)
)

// ParseBillFromText parses a plain-text representation of a distributor
// bill. Layouts vary wildly between distributors; only the consumption and
// total fields are required, everything else is best effort.
func ParseBillFromText(text string) (*BillImport, error) {
	out := &BillImport{}

	if m := consumptionRe.FindStringSubmatch(text); len(m) >= 2 {
		out.ConsumptionKWh = parseBRLNumber(m[1])
	}
	if m := totalRe.FindStringSubmatch(text); len(m) >= 2 {
		out.TotalBRL = parseBRLNumber(m[1])
	}
	if m := referenceRe.FindStringSubmatch(text); len(m) >= 2 {
		out.ReferenceMonth = m[1]
	}

	if out.ConsumptionKWh == 0 && out.TotalBRL == 0 {
		return nil, fmt.Errorf("no recognizable bill fields in document")
	}
	return out, nil
}

// parseBRLNumber handles the Brazilian "1.234,56" convention: dots are
// thousand separators, the comma is the decimal mark.
func parseBRLNumber(s string) float64 {
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
