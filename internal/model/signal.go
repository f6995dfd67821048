package model

// Trend is the short-term direction of a symbol relative to its moving average.
type Trend string

const (
	TrendUp        Trend = "UPTREND"
	TrendDown      Trend = "DOWNTREND"
	TrendStable    Trend = "STABLE"
	TrendGathering Trend = "GATHERING_DATA"
)

// AllTrends lists every label in a stable order.
var AllTrends = []Trend{TrendUp, TrendDown, TrendStable, TrendGathering}

// Valid reports whether t is one of the known labels.
func (t Trend) Valid() bool {
	switch t {
	case TrendUp, TrendDown, TrendStable, TrendGathering:
		return true
	}
	return false
}
