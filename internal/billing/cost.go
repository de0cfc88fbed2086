package billing

import "github.com/shopspring/decimal"

// DefaultTaxRate is the combined ICMS (18%) + PIS (1.65%) + COFINS (7.6%)
// fraction applied to residential bills. States vary their ICMS; the rate
// is overridable per request.
const DefaultTaxRate = 0.2725

// Item is one labeled line of a cost breakdown, with its share of the
// summed total.
type Item struct {
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount_brl"`
	Percent     float64 `json:"percent"`
}

// Breakdown itemizes the cost of a billing period: energy at the base
// tariff, the tariff-flag surcharge, and fixed fees (public lighting).
//
// Returns nil when consumption is zero. Zero-valued lines are dropped,
// except the flag surcharge, which is always shown so a green-flag month
// reads as an explicit "no surcharge" rather than a missing line.
// Percentages are computed against the sum of the displayed items. Taxes
// are NOT included here; see GrossUp.
func Breakdown(consumptionKWh, baseTariff, flagSurcharge, fixedFees float64) []Item {
	if consumptionKWh == 0 {
		return nil
	}

	cons := decimal.NewFromFloat(consumptionKWh)
	base := cons.Mul(decimal.NewFromFloat(baseTariff))
	flag := cons.Mul(decimal.NewFromFloat(flagSurcharge))
	fee := decimal.NewFromFloat(fixedFees)
	total := base.Add(flag).Add(fee)

	percent := func(amount decimal.Decimal) float64 {
		if total.IsZero() {
			return 0
		}
		p, _ := amount.Div(total).Mul(decimal.NewFromInt(100)).Float64()
		return p
	}

	var items []Item
	if !base.IsZero() {
		items = append(items, Item{
			Label:       "Consumo",
			Description: "Energia consumida na tarifa base",
			Amount:      base.InexactFloat64(),
			Percent:     percent(base),
		})
	}
	items = append(items, Item{
		Label:       "Bandeira tarifária",
		Description: "Adicional da bandeira vigente",
		Amount:      flag.InexactFloat64(),
		Percent:     percent(flag),
	})
	if !fee.IsZero() {
		items = append(items, Item{
			Label:       "Iluminação pública",
			Description: "Contribuição fixa de iluminação pública (COSIP)",
			Amount:      fee.InexactFloat64(),
			Percent:     percent(fee),
		})
	}

	return items
}

// Subtotal sums the breakdown lines.
func Subtotal(items []Item) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.Amount))
	}
	return sum.InexactFloat64()
}

// GrossUp applies the Brazilian tax-inside convention: taxes are a fraction
// of the final price, so the pre-tax subtotal is divided by (1 - rate)
// rather than multiplied. This is the single place tax inclusion happens;
// the breakdown view never applies it. Rates outside (0, 1) leave the
// subtotal unchanged.
func GrossUp(subtotal, taxRate float64) float64 {
	if taxRate <= 0 || taxRate >= 1 {
		return subtotal
	}
	out, _ := decimal.NewFromFloat(subtotal).
		Div(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(taxRate))).
		Float64()
	return out
}
