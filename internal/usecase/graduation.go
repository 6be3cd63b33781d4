package usecase

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"nija-backend/internal/domain"
)

// Graduation criteria. All of them must hold at the moment of the graduation
// call; there is no partial credit.
const (
	MinPaperDays       = 7
	MinTotalTrades     = 20
	MinWinRatePct      = 55.0
	MinRiskScore       = 70.0
	MaxDrawdownCeilPct = 15.0
	MinRestrictedDays  = 30
)

var stageLimits = map[domain.TradingStage]domain.StageLimits{
	domain.StagePaper:          {MaxPositionUSD: 10000, MaxCapitalUSD: 100000, MaxOpenPositions: 10},
	domain.StageLiveRestricted: {MaxPositionUSD: 100, MaxCapitalUSD: 500, MaxOpenPositions: 2},
	domain.StageLiveFull:       {}, // unlimited at this layer
}

// PaperStatsProvider feeds graduation updates from the simulated ledger.
type PaperStatsProvider interface {
	Stats() (*domain.PaperStats, error)
}

// GraduationService owns the paper -> live_restricted -> live_full state
// machine. Transitions are forward-only except RevertToPaper.
type GraduationService struct {
	store    domain.GraduationStore
	paper    PaperStatsProvider
	notifier *NotificationService

	mu  sync.Mutex
	now func() time.Time
}

func NewGraduationService(store domain.GraduationStore, paper PaperStatsProvider, notifier *NotificationService) *GraduationService {
	return &GraduationService{
		store:    store,
		paper:    paper,
		notifier: notifier,
		now:      time.Now,
	}
}

// GetProgress loads a user's record, creating a fresh paper-stage record on
// first access.
func (s *GraduationService) GetProgress(userID string) (*domain.GraduationProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadOrCreate(userID)
}

func (s *GraduationService) loadOrCreate(userID string) (*domain.GraduationProgress, error) {
	progress, err := s.store.Load(userID)
	if errors.Is(err, domain.ErrProgressNotFound) {
		progress = &domain.GraduationProgress{
			UserID:         userID,
			Stage:          domain.StagePaper,
			PaperStartedAt: s.now(),
		}
		if err := s.store.Save(progress); err != nil {
			return nil, err
		}
		log.Printf("Started paper trading record for user %s", userID)
		return progress, nil
	}
	if err != nil {
		return nil, err
	}
	return progress, nil
}

// UpdateFromPaperStats copies the paper ledger's current aggregates into the
// user's record and recomputes the risk score.
func (s *GraduationService) UpdateFromPaperStats(userID string) (*domain.GraduationProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	progress, err := s.loadOrCreate(userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.paper.Stats()
	if err != nil {
		return nil, err
	}

	progress.TotalTrades = stats.TotalTrades
	progress.Wins = stats.Wins
	progress.Losses = stats.Losses
	progress.WinRate = stats.WinRate
	progress.TotalPnL = stats.TotalPnL
	progress.MaxDrawdownPct = stats.MaxDrawdownPct
	progress.RiskScore = RiskScore(stats.WinRate, stats.MaxDrawdownPct, stats.TotalTrades, stats.TotalPnL)

	if err := s.store.Save(progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// RequestGraduation attempts paper -> live_restricted. All criteria must hold
// simultaneously; otherwise the result names every unmet one.
func (s *GraduationService) RequestGraduation(userID string) (*domain.GraduationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	progress, err := s.loadOrCreate(userID)
	if err != nil {
		return nil, err
	}

	if progress.Stage != domain.StagePaper {
		return &domain.GraduationResult{
			UserID:  userID,
			Allowed: false,
			Stage:   progress.Stage,
			Message: fmt.Sprintf("already at stage %s", progress.Stage),
		}, nil
	}

	met, unmet := s.evaluateCriteria(progress)
	if len(unmet) > 0 {
		return &domain.GraduationResult{
			UserID:        userID,
			Allowed:       false,
			Stage:         progress.Stage,
			MetCriteria:   met,
			UnmetCriteria: unmet,
			Message:       "graduation criteria not met",
		}, nil
	}

	now := s.now()
	progress.Stage = domain.StageLiveRestricted
	progress.GraduatedAt = &now
	if err := s.store.Save(progress); err != nil {
		return nil, err
	}

	log.Printf("User %s graduated to %s (trades=%d winRate=%.1f%% riskScore=%.0f)",
		userID, progress.Stage, progress.TotalTrades, progress.WinRate, progress.RiskScore)
	if s.notifier != nil {
		s.notifier.NotifyGraduation(progress)
	}

	return &domain.GraduationResult{
		UserID:      userID,
		Allowed:     true,
		Stage:       progress.Stage,
		MetCriteria: met,
		Message:     "graduated to restricted live trading",
	}, nil
}

// EnableFullLive attempts live_restricted -> live_full, gated only on time
// spent in the restricted stage.
func (s *GraduationService) EnableFullLive(userID string) (*domain.GraduationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	progress, err := s.loadOrCreate(userID)
	if err != nil {
		return nil, err
	}

	if progress.Stage != domain.StageLiveRestricted {
		return &domain.GraduationResult{
			UserID:  userID,
			Allowed: false,
			Stage:   progress.Stage,
			Message: fmt.Sprintf("full live trading requires stage %s, current stage is %s", domain.StageLiveRestricted, progress.Stage),
		}, nil
	}

	days := 0.0
	if progress.GraduatedAt != nil {
		days = s.now().Sub(*progress.GraduatedAt).Hours() / 24
	}
	if days < MinRestrictedDays {
		return &domain.GraduationResult{
			UserID:        userID,
			Allowed:       false,
			Stage:         progress.Stage,
			UnmetCriteria: []string{fmt.Sprintf("time_in_restricted: %.0f of %d days", days, MinRestrictedDays)},
			Message:       "not enough time in restricted live trading",
		}, nil
	}

	now := s.now()
	progress.Stage = domain.StageLiveFull
	progress.LiveEnabledAt = &now
	if err := s.store.Save(progress); err != nil {
		return nil, err
	}

	log.Printf("User %s unlocked full live trading after %.0f days restricted", userID, days)
	if s.notifier != nil {
		s.notifier.NotifyGraduation(progress)
	}

	return &domain.GraduationResult{
		UserID:  userID,
		Allowed: true,
		Stage:   progress.Stage,
		Message: "full live trading enabled",
	}, nil
}

// RevertToPaper drops the user back to paper trading. It is the safety valve:
// always allowed, from any stage, no criteria checked.
func (s *GraduationService) RevertToPaper(userID string) (*domain.GraduationProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	progress, err := s.loadOrCreate(userID)
	if err != nil {
		return nil, err
	}

	from := progress.Stage
	progress.Stage = domain.StagePaper
	if err := s.store.Save(progress); err != nil {
		return nil, err
	}

	log.Printf("User %s reverted to paper trading (was %s)", userID, from)
	return progress, nil
}

// LimitsFor returns the trading ceilings for a stage.
func (s *GraduationService) LimitsFor(stage domain.TradingStage) domain.StageLimits {
	return stageLimits[stage]
}

func (s *GraduationService) evaluateCriteria(p *domain.GraduationProgress) (met, unmet []string) {
	check := func(ok bool, label string) {
		if ok {
			met = append(met, label)
		} else {
			unmet = append(unmet, label)
		}
	}

	days := s.now().Sub(p.PaperStartedAt).Hours() / 24
	check(days >= MinPaperDays, fmt.Sprintf("time_in_paper: %.0f of %d days", days, MinPaperDays))
	check(p.TotalTrades >= MinTotalTrades, fmt.Sprintf("trade_count: %d of %d", p.TotalTrades, MinTotalTrades))
	check(p.WinRate >= MinWinRatePct, fmt.Sprintf("win_rate: %.1f%% of %.0f%%", p.WinRate, MinWinRatePct))
	check(p.RiskScore >= MinRiskScore, fmt.Sprintf("risk_score: %.0f of %.0f", p.RiskScore, MinRiskScore))
	check(p.MaxDrawdownPct <= MaxDrawdownCeilPct, fmt.Sprintf("max_drawdown: %.1f%% under %.0f%% ceiling", p.MaxDrawdownPct, MaxDrawdownCeilPct))
	return met, unmet
}

// RiskScore computes the 0-100 heuristic from four independently capped
// buckets: win rate (40), drawdown (25), trade-count consistency (20) and
// total P&L (15).
func RiskScore(winRatePct, drawdownPct float64, totalTrades int, totalPnL float64) float64 {
	var score float64

	switch {
	case winRatePct >= 60:
		score += 40
	case winRatePct >= 55:
		score += 32
	case winRatePct >= 50:
		score += 24
	case winRatePct >= 45:
		score += 14
	default:
		score += 5
	}

	switch {
	case drawdownPct <= 5:
		score += 25
	case drawdownPct <= 10:
		score += 18
	case drawdownPct <= 15:
		score += 10
	case drawdownPct <= 20:
		score += 4
	}

	switch {
	case totalTrades >= 100:
		score += 20
	case totalTrades >= 50:
		score += 16
	case totalTrades >= 20:
		score += 12
	case totalTrades >= 10:
		score += 6
	default:
		score += 2
	}

	switch {
	case totalPnL >= 500:
		score += 15
	case totalPnL >= 100:
		score += 11
	case totalPnL > 0:
		score += 7
	case totalPnL == 0:
		score += 3
	}

	return score
}
