package notifier

import (
	"fmt"
	"html"
	"strings"

	"MarketWatcher/internal/model"
)

var trendIcon = map[model.Trend]string{
	model.TrendUp:     "📈",
	model.TrendDown:   "📉",
	model.TrendStable: "➖",
}

// FormatTrendChange formats a trend flip for one symbol.
func FormatTrendChange(prev model.Trend, snap *model.Snapshot) string {
	return fmt.Sprintf("%s <b>%s</b> %s → %s\nprice: %s\n%s",
		trendIcon[snap.Trend], html.EscapeString(snap.Symbol), prev, snap.Trend,
		snap.Price.String(), snap.CreatedAt.Format("2006-01-02 15:04:05 MST"))
}

// FormatRecent lists the given snapshots, newest first.
func FormatRecent(snaps []model.Snapshot) string {
	if len(snaps) == 0 {
		return "No snapshots recorded yet."
	}
	var b strings.Builder
	b.WriteString("<b>Latest snapshots</b>\n\n")
	for _, s := range snaps {
		b.WriteString(fmt.Sprintf("%s %s  %s  %s\n",
			s.CreatedAt.Format("15:04:05"), html.EscapeString(s.Symbol), s.Price.String(), s.Trend))
	}
	return b.String()
}

func helpText() string {
	return "/prices - latest snapshots\n/help - this message"
}
