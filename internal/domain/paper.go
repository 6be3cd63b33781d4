package domain

import (
	"errors"
	"time"
)

// Position sides for the paper ledger.
const (
	SideLong  = "LONG"
	SideShort = "SHORT"
)

// Trade actions in the paper trade log.
const (
	TradeActionOpen  = "OPEN"
	TradeActionClose = "CLOSE"
)

// ErrAccountNotFound is returned by stores when no account has been saved yet.
var ErrAccountNotFound = errors.New("paper account not found")

// PaperPosition is an open simulated position. Size is in base units.
type PaperPosition struct {
	ID            string    `json:"id"`
	Symbol        string    `json:"symbol"`
	Side          string    `json:"side"`
	Size          float64   `json:"size"`
	EntryPrice    float64   `json:"entryPrice"`
	CurrentPrice  float64   `json:"currentPrice"`
	StopLoss      float64   `json:"stopLoss"`
	UnrealizedPnL float64   `json:"unrealizedPnl"`
	RealizedPnL   float64   `json:"realizedPnl"`
	OpenedAt      time.Time `json:"openedAt"`
}

// PaperTrade is one append-only trade log entry.
type PaperTrade struct {
	ID         string    `json:"id"`
	PositionID string    `json:"positionId"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Action     string    `json:"action"`
	Size       float64   `json:"size"`
	Price      float64   `json:"price"`
	PnL        float64   `json:"pnl"`
	Reason     string    `json:"reason,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// PaperAccount is the full simulated ledger. Balance plus the cost basis and
// unrealized P&L of open positions equals equity.
type PaperAccount struct {
	Balance        float64                   `json:"balance"`
	PeakEquity     float64                   `json:"peak_equity"`
	MaxDrawdownPct float64                   `json:"max_drawdown_pct"`
	Positions      map[string]*PaperPosition `json:"positions"`
	Trades         []PaperTrade              `json:"trades"`
	TotalPnL       float64                   `json:"total_pnl"`
	LastUpdated    time.Time                 `json:"last_updated"`
}

// Equity is balance plus the market value of all open positions.
func (a *PaperAccount) Equity() float64 {
	equity := a.Balance
	for _, pos := range a.Positions {
		equity += pos.Size*pos.EntryPrice + pos.UnrealizedPnL
	}
	return equity
}

// PaperStats is the read-only aggregation derived from the trade log.
type PaperStats struct {
	Balance        float64 `json:"balance"`
	Equity         float64 `json:"equity"`
	OpenPositions  int     `json:"openPositions"`
	TotalTrades    int     `json:"totalTrades"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinRate        float64 `json:"winRate"` // percent
	TotalPnL       float64 `json:"totalPnl"`
	MaxDrawdownPct float64 `json:"maxDrawdownPct"`
}

// PaperStore persists the simulated account after every mutation.
type PaperStore interface {
	Load() (*PaperAccount, error)
	Save(account *PaperAccount) error
}

// TradeArchive records closed paper trades for long-term history.
type TradeArchive interface {
	RecordTrade(trade *PaperTrade) error
	GetHistory(fromTime time.Time) []*PaperTrade
}
