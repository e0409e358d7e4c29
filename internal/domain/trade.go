package domain

import "time"

// Trade represents one row of the trades table written by the trading bot.
// Closed trades are immutable; the analytics engine only reads them.
type Trade struct {
	TradeID       int64  // monotonic, unique
	Pair          string // e.g. "BTC/USD"
	BaseCurrency  string
	QuoteCurrency string
	Strategy      string

	StakeAmount float64
	ProfitRatio float64
	ProfitPct   float64 // percent units: 5 means +5%
	ProfitAbs   float64 // quote currency

	OpenDate      *time.Time
	CloseDate     *time.Time
	TradeDuration *int // minutes

	ExitReason  string
	StopLossPct *float64 // configured stop-loss level, nil when none was set
	IsOpen      bool
}

// Exit reason codes
const (
	ExitReasonStopLoss   = "stop_loss"
	ExitReasonROI        = "roi"
	ExitReasonExitSignal = "exit_signal"
	ExitReasonForceExit  = "force_exit"
)

// IsWin reports whether the trade counts as a win. Break-even is a loss.
func (t *Trade) IsWin() bool {
	return t.ProfitPct > 0
}

// IsStopLoss reports whether the trade was closed by its stop-loss.
func (t *Trade) IsStopLoss() bool {
	return t.ExitReason == ExitReasonStopLoss
}
