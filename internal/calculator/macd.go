package calculator

import (
	"errors"
	"fmt"
)

// CalculateMACD returns the latest MACD line value (EMA(short) - EMA(long))
// and the latest signal line value (EMA of the MACD line).
func CalculateMACD(closes []float64, short, long, signalPeriod int) (macd, signal float64, err error) {
	if short <= 0 || long <= 0 || signalPeriod <= 0 {
		return 0, 0, errors.New("periods must be positive")
	}
	if short >= long {
		return 0, 0, fmt.Errorf("short period %d must be below long period %d", short, long)
	}
	if len(closes) < long {
		return 0, 0, ErrInsufficientData
	}

	shortEMA, err := CalculateEMA(closes, short)
	if err != nil {
		return 0, 0, err
	}
	longEMA, err := CalculateEMA(closes, long)
	if err != nil {
		return 0, 0, err
	}
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = shortEMA[i] - longEMA[i]
	}
	signalLine, err := CalculateEMA(line, signalPeriod)
	if err != nil {
		return 0, 0, err
	}
	return line[len(line)-1], signalLine[len(signalLine)-1], nil
}
