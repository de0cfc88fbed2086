package billing

import "github.com/contaluz/contaluz/internal/tariff"

// Estimate is a simplified bill projection for a consumption figure and a
// selected tariff. Unlike the itemized breakdown, the simplified estimate
// grosses the subtotal up by the consumption taxes, because it answers
// "what will I actually pay".
type Estimate struct {
	ConsumptionKWh float64 `json:"consumption_kwh"`
	Distributor    string  `json:"distributor"`
	TariffPerKWh   float64 `json:"tariff_brl_per_kwh"`
	Flag           string  `json:"flag"`
	Items          []Item  `json:"items"`
	Subtotal       float64 `json:"subtotal_brl"`
	TaxRate        float64 `json:"tax_rate"`
	Total          float64 `json:"total_brl"`
}

// Estimated computes the simplified bill estimate. Returns nil when
// consumption is zero, mirroring the breakdown contract. A taxRate of zero
// falls back to DefaultTaxRate; pass a negative rate to disable taxes.
func Estimated(consumptionKWh float64, entry tariff.Entry, flag tariff.Flag, fixedFees, taxRate float64) *Estimate {
	items := Breakdown(consumptionKWh, entry.Total, flag.SurchargePerKWh, fixedFees)
	if items == nil {
		return nil
	}

	if taxRate == 0 {
		taxRate = DefaultTaxRate
	}

	sub := Subtotal(items)
	return &Estimate{
		ConsumptionKWh: consumptionKWh,
		Distributor:    entry.Acronym,
		TariffPerKWh:   entry.Total,
		Flag:           flag.Key,
		Items:          items,
		Subtotal:       sub,
		TaxRate:        taxRate,
		Total:          GrossUp(sub, taxRate),
	}
}
