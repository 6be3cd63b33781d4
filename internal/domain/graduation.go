package domain

import (
	"errors"
	"time"
)

// TradingStage is where a user sits on the paper-to-live progression.
type TradingStage string

const (
	StagePaper          TradingStage = "paper"
	StageLiveRestricted TradingStage = "live_restricted"
	StageLiveFull       TradingStage = "live_full"
)

// ErrProgressNotFound is returned by stores when a user has no record yet.
var ErrProgressNotFound = errors.New("graduation progress not found")

// StageLimits are the trading ceilings enforced at a given stage.
// Zero values mean unlimited at this layer (broker limits still apply).
type StageLimits struct {
	MaxPositionUSD   float64 `json:"maxPositionUsd"`
	MaxCapitalUSD    float64 `json:"maxCapitalUsd"`
	MaxOpenPositions int     `json:"maxOpenPositions"`
}

// GraduationProgress is one user's record. Stage only moves forward except
// through the explicit revert-to-paper action.
type GraduationProgress struct {
	UserID         string       `json:"userId"`
	Stage          TradingStage `json:"stage"`
	TotalTrades    int          `json:"totalTrades"`
	Wins           int          `json:"wins"`
	Losses         int          `json:"losses"`
	WinRate        float64      `json:"winRate"` // percent
	TotalPnL       float64      `json:"totalPnl"`
	MaxDrawdownPct float64      `json:"maxDrawdownPct"`
	RiskScore      float64      `json:"riskScore"` // 0-100
	PaperStartedAt time.Time    `json:"paperStartedAt"`
	GraduatedAt    *time.Time   `json:"graduatedAt,omitempty"`
	LiveEnabledAt  *time.Time   `json:"liveEnabledAt,omitempty"`
}

// GraduationResult reports a transition attempt. Disallowed transitions are
// results, not errors, so a UI can show exactly which criteria are unmet.
type GraduationResult struct {
	UserID        string       `json:"userId"`
	Allowed       bool         `json:"allowed"`
	Stage         TradingStage `json:"stage"`
	MetCriteria   []string     `json:"metCriteria,omitempty"`
	UnmetCriteria []string     `json:"unmetCriteria,omitempty"`
	Message       string       `json:"message,omitempty"`
}

// GraduationStore persists per-user progress records.
type GraduationStore interface {
	Load(userID string) (*GraduationProgress, error)
	Save(progress *GraduationProgress) error
}
