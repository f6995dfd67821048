package strategy

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"MarketWatcher/internal/calculator"
	"MarketWatcher/internal/model"
)

// Classifier labels a price against the simple moving average of its window.
type Classifier struct {
	Period int
}

// NewClassifier creates a Classifier that needs period prices before it
// produces a directional label.
func NewClassifier(period int) *Classifier {
	if period <= 0 {
		period = calculator.DefaultWindowSize
	}
	return &Classifier{Period: period}
}

// Classify compares current with the window's SMA. The window is oldest first
// and already contains current as its newest entry; it is not modified.
func (c *Classifier) Classify(symbol string, current decimal.Decimal, window []decimal.Decimal) model.Trend {
	if len(window) < c.Period {
		log.Info().Str("symbol", symbol).Msgf("gathering data (%d/%d)", len(window), c.Period)
		return model.TrendGathering
	}

	avg, err := calculator.CalculateSMA(window, c.Period, calculator.AverageScale)
	if err != nil {
		// unreachable with len(window) >= Period > 0
		log.Error().Err(err).Str("symbol", symbol).Msg("sma calculation failed")
		return model.TrendGathering
	}

	trend := compare(current, avg)
	log.Info().
		Str("symbol", symbol).
		Str("price", current.String()).
		Str("sma", avg.StringFixed(calculator.AverageScale)).
		Str("trend", string(trend)).
		Msg("trend classified")
	return trend
}

func compare(current, avg decimal.Decimal) model.Trend {
	switch current.Cmp(avg) {
	case 1:
		return model.TrendUp
	case -1:
		return model.TrendDown
	default:
		return model.TrendStable
	}
}
