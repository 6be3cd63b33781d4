package domain

import "time"

// TradingMode controls how far an order travels before (or instead of) reaching a broker.
type TradingMode string

const (
	ModeSandbox TradingMode = "SANDBOX"
	ModeDryRun  TradingMode = "DRY_RUN"
	ModeLive    TradingMode = "LIVE"
)

// Order sides and types
const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	OrderTypeMarket = "MARKET"
	OrderTypeLimit  = "LIMIT"
)

// OrderResult statuses
const (
	StatusDryRun          = "dry_run"
	StatusSandbox         = "sandbox"
	StatusLive            = "live"
	StatusPendingApproval = "pending_approval"
)

// OrderRequest describes a desired trade. Size is expressed in quote currency
// (USD), not base units, so callers never need a price to submit.
type OrderRequest struct {
	Symbol    string            `json:"symbol"`
	Side      string            `json:"side"`      // BUY or SELL
	SizeUSD   float64           `json:"sizeUsd"`   // quote-currency notional
	OrderType string            `json:"orderType"` // MARKET or LIMIT
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// OrderResult is the outcome of a submission through the order gate.
type OrderResult struct {
	OrderID   string      `json:"orderId"`
	Status    string      `json:"status"`
	Mode      TradingMode `json:"mode"`
	Symbol    string      `json:"symbol"`
	Side      string      `json:"side"`
	SizeUSD   float64     `json:"sizeUsd"`
	BrokerRef string      `json:"brokerRef,omitempty"` // broker-assigned order id, LIVE only
	CreatedAt time.Time   `json:"createdAt"`
}
