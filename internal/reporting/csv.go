package reporting

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// RenderCSV renders pair analytics as CSV string.
func RenderCSV(r *Report) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"pair", "base_currency", "quote_currency", "total_trades", "winning_trades", "losing_trades",
		"win_rate", "avg_profit_pct", "total_profit_abs", "avg_trade_duration_minutes", "price_volatility_pct",
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, p := range r.Pairs {
		record := []string{
			p.Pair,
			p.BaseCurrency,
			p.QuoteCurrency,
			strconv.Itoa(p.TotalTrades),
			strconv.Itoa(p.WinningTrades),
			strconv.Itoa(p.LosingTrades),
			formatFloat(p.WinRate),
			formatFloat(p.AvgProfitPct),
			formatFloat(p.TotalProfitAbs),
			formatFloat(p.AvgTradeDurationMinutes),
			formatFloat(p.PriceVolatilityPct),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
