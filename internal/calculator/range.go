package calculator

import (
	"errors"
	"math"
)

// CalculateSupportResistance returns the lowest (support) and highest
// (resistance) price in the window.
func CalculateSupportResistance(prices []float64) (support, resistance float64, err error) {
	if len(prices) == 0 {
		return 0, 0, errors.New("no prices provided")
	}
	support = math.Inf(1)
	resistance = math.Inf(-1)
	for _, p := range prices {
		if p < support {
			support = p
		}
		if p > resistance {
			resistance = p
		}
	}
	return support, resistance, nil
}
