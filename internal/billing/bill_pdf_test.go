package billing

import (
	"strings"
	"testing"
)

const sampleBillText = `
CEMIG DISTRIBUIÇÃO S.A.
CNPJ 06.981.180/0001-16
Conta de energia elétrica - Referência: 03/2026
Classe: Residencial  Subgrupo B1
Leitura anterior 12.345  Leitura atual 12.545
Consumo 200 kWh
Bandeira tarifária: Verde
Contribuição de iluminação pública 41,12
Total a pagar R$ 1.234,56
Vencimento 15/04/2026
`

func TestParseBillFromText(t *testing.T) {
	bill, err := ParseBillFromText(sampleBillText)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if bill.ConsumptionKWh != 200 {
		t.Errorf("consumption = %v, want 200", bill.ConsumptionKWh)
	}
	if !almostEqual(bill.TotalBRL, 1234.56) {
		t.Errorf("total = %v, want 1234.56", bill.TotalBRL)
	}
	if bill.ReferenceMonth != "03/2026" {
		t.Errorf("reference = %q, want 03/2026", bill.ReferenceMonth)
	}
}

func TestParseBillFromTextDecimalConsumption(t *testing.T) {
	bill, err := ParseBillFromText("Consumo faturado: 183,5 kWh\nTotal a pagar R$ 210,00")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !almostEqual(bill.ConsumptionKWh, 183.5) {
		t.Errorf("consumption = %v, want 183.5", bill.ConsumptionKWh)
	}
	if !almostEqual(bill.TotalBRL, 210) {
		t.Errorf("total = %v, want 210", bill.TotalBRL)
	}
}

func TestParseBillFromTextUnrecognized(t *testing.T) {
	if _, err := ParseBillFromText("nada a ver com uma conta de luz"); err == nil {
		t.Fatalf("expected error for unrecognizable document")
	}
	if _, err := ParseBillFromText(strings.Repeat("x", 2048)); err == nil {
		t.Fatalf("expected error for noise document")
	}
}

func TestParseBRLNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1.234,56", 1234.56},
		{"41,12", 41.12},
		{"200", 200},
		{"lixo", 0},
	}
	for _, tc := range cases {
		if got := parseBRLNumber(tc.in); !almostEqual(got, tc.want) {
			t.Errorf("parseBRLNumber(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
