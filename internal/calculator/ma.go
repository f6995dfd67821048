package calculator

import (
	"errors"

	"github.com/shopspring/decimal"
)

// AverageScale is the number of decimal places the moving average is rounded to.
const AverageScale = 2

// CalculateSMA computes the simple moving average of the last period prices,
// rounded half-up to scale decimal places.
func CalculateSMA(prices []decimal.Decimal, period int, scale int32) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, errors.New("period must be positive")
	}
	if len(prices) < period {
		return decimal.Zero, errors.New("not enough data for SMA calculation")
	}
	sum := decimal.Zero
	for i := len(prices) - period; i < len(prices); i++ {
		sum = sum.Add(prices[i])
	}
	return sum.DivRound(decimal.NewFromInt(int64(period)), scale), nil
}
