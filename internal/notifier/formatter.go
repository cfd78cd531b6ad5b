package notifier

import (
	"fmt"
	"html"
	"strings"

	"FXInsight/internal/dashboard"
	"FXInsight/internal/model"
)

// FormatReport formats a dashboard snapshot into a Telegram message.
func FormatReport(v *dashboard.View) string {
	var b strings.Builder
	m := v.Market

	b.WriteString(fmt.Sprintf("📊 <b>%s fair value report</b> | %s\n\n", m.Series.Pair, m.LatestDate.Format("2006-01-02")))

	b.WriteString(fmt.Sprintf("Latest: %.2f (%+.2f d/d)\n", v.Summary.LatestPrice, v.Summary.Change1d))
	b.WriteString(fmt.Sprintf("MA20: %.2f | MA60: %.2f\n", v.Summary.MA20, v.Summary.MA60))
	b.WriteString(fmt.Sprintf("52w range: %.2f ~ %.2f (%.0f%%)\n", v.Summary.Low52w, v.Summary.High52w, v.Summary.Position52w*100))
	b.WriteString(fmt.Sprintf("Source: %s\n\n", m.SourceLabel))

	b.WriteString(fmt.Sprintf("🎯 <b>Fair value (%s, %s):</b> %.2f\n", v.FairValue.Version, v.FairValue.Method, v.FairValue.Rounded()))
	for _, c := range v.FairValue.Contributions {
		b.WriteString(fmt.Sprintf("  %s = %g: %+.2f\n", html.EscapeString(c.Label), c.Input, c.Value))
	}
	b.WriteString(fmt.Sprintf("  Gap vs latest: %+.2f\n\n", v.Gap))

	if n := len(v.Forecast.Points); n > 0 {
		last := v.Forecast.Points[n-1]
		b.WriteString(fmt.Sprintf("📈 <b>Path (%s, %dd):</b> %.2f by %s\n", v.Forecast.Policy, n-1, last.Price, last.Date.Format("2006-01-02")))
	}
	if len(v.Peers) > 0 {
		parts := make([]string, 0, len(v.Peers))
		for _, p := range v.Peers {
			s := fmt.Sprintf("%s %.4g", p.Pair, p.Value)
			if p.IsFallback {
				s += "*"
			}
			parts = append(parts, s)
		}
		b.WriteString(fmt.Sprintf("Peers: %s\n", strings.Join(parts, " | ")))
	}

	if v.Warning != "" {
		b.WriteString(fmt.Sprintf("\n⚠️ %s\n", html.EscapeString(v.Warning)))
	}
	b.WriteString("\n<i>Heuristic estimate, not investment advice.</i>")
	return b.String()
}

// FormatRefresh summarizes a forced reload of market data.
func FormatRefresh(res *model.SourceResult) string {
	var b strings.Builder
	b.WriteString("🔄 <b>Market data reloaded</b>\n\n")
	for _, a := range res.Attempts {
		if a.OK() {
			b.WriteString(fmt.Sprintf("✅ %s: %d points\n", a.Source, a.Points))
		} else {
			b.WriteString(fmt.Sprintf("❌ %s: %s\n", a.Source, html.EscapeString(a.Message())))
		}
	}
	if res.Empty() {
		b.WriteString("\nNo data available.")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("\nUsing %s: %.2f as of %s", res.SourceLabel, res.LatestPrice, res.LatestDate.Format("2006-01-02")))
	if res.IsSynthetic {
		b.WriteString(" (placeholder data)")
	}
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "Available commands:\n• /report: fair value report with default inputs\n• /refresh: reload market data\n• /help: this message"
}
