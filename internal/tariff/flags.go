package tariff

import "fmt"

// Flag is a monthly-assigned tariff-flag tier. The surcharge is applied per
// kWh on top of the distributor's base rate; the green tier carries none.
type Flag struct {
	Key             string  `json:"key"`
	Name            string  `json:"name"`
	SurchargePerKWh float64 `json:"surcharge_brl_per_kwh"`
}

// Surcharge values follow the schedule in force since mid-2024. The table
// is fixed at init and never mutated.
var flagTiers = []Flag{
	{Key: "verde", Name: "Bandeira Verde", SurchargePerKWh: 0},
	{Key: "amarela", Name: "Bandeira Amarela", SurchargePerKWh: 0.01885},
	{Key: "vermelha1", Name: "Bandeira Vermelha - Patamar 1", SurchargePerKWh: 0.04463},
	{Key: "vermelha2", Name: "Bandeira Vermelha - Patamar 2", SurchargePerKWh: 0.07877},
}

// Flags returns a copy of the flag tier table.
func Flags() []Flag {
	out := make([]Flag, len(flagTiers))
	copy(out, flagTiers)
	return out
}

// GetFlag looks up a flag tier by key.
func GetFlag(key string) (Flag, error) {
	for _, f := range flagTiers {
		if f.Key == key {
			return f, nil
		}
	}
	return Flag{}, fmt.Errorf("unknown tariff flag: %s", key)
}
