package usecase

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"nija-backend/internal/domain"

	"github.com/google/uuid"
)

// ErrInsufficientBalance means an open was rejected because the notional
// exceeds available cash. The ledger is left untouched.
var ErrInsufficientBalance = errors.New("insufficient paper balance")

// ErrPositionNotFound means the position id is unknown or already closed.
var ErrPositionNotFound = errors.New("position not found")

// PriceFeed supplies current prices for the monitor loop.
type PriceFeed interface {
	GetSpotPrice(symbol string) (float64, error)
}

// PaperTradingService maintains the simulated ledger with the same shape of
// effects a live fill would have, without any network call. Every mutation is
// persisted immediately; persistence failures are returned, never swallowed.
type PaperTradingService struct {
	store    domain.PaperStore
	archive  domain.TradeArchive // optional, best effort
	notifier *NotificationService

	mu      sync.Mutex
	account *domain.PaperAccount
	now     func() time.Time
}

func NewPaperTradingService(store domain.PaperStore, archive domain.TradeArchive, initialBalance float64) (*PaperTradingService, error) {
	account, err := store.Load()
	if errors.Is(err, domain.ErrAccountNotFound) {
		account = &domain.PaperAccount{
			Balance:    initialBalance,
			PeakEquity: initialBalance,
			Positions:  make(map[string]*domain.PaperPosition),
			Trades:     []domain.PaperTrade{},
		}
		if err := store.Save(account); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	if account.Positions == nil {
		account.Positions = make(map[string]*domain.PaperPosition)
	}

	return &PaperTradingService{
		store:   store,
		archive: archive,
		account: account,
		now:     time.Now,
	}, nil
}

// OpenPosition debits cash by the notional and records the position plus an
// OPEN trade entry. Size is in base units, so notional is size * entryPrice.
func (s *PaperTradingService) OpenPosition(symbol string, size, entryPrice, stopLoss float64, side string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notional := size * entryPrice
	if notional > s.account.Balance {
		log.Printf("Rejected paper open: %s %s notional %.2f exceeds balance %.2f", side, symbol, notional, s.account.Balance)
		return "", ErrInsufficientBalance
	}

	now := s.now()
	pos := &domain.PaperPosition{
		ID:           uuid.NewString(),
		Symbol:       symbol,
		Side:         side,
		Size:         size,
		EntryPrice:   entryPrice,
		CurrentPrice: entryPrice,
		StopLoss:     stopLoss,
		OpenedAt:     now,
	}

	s.account.Balance -= notional
	s.account.Positions[pos.ID] = pos
	s.account.Trades = append(s.account.Trades, domain.PaperTrade{
		ID:         uuid.NewString(),
		PositionID: pos.ID,
		Symbol:     symbol,
		Side:       side,
		Action:     domain.TradeActionOpen,
		Size:       size,
		Price:      entryPrice,
		Timestamp:  now,
	})

	if err := s.persist(); err != nil {
		return "", err
	}
	log.Printf("Paper position opened: %s %s size=%.6f entry=%.2f sl=%.2f", side, symbol, size, entryPrice, stopLoss)
	return pos.ID, nil
}

// UpdatePosition recomputes unrealized P&L at the given price and auto-closes
// the position if the price crossed the stop loss in the adverse direction.
func (s *PaperTradingService) UpdatePosition(positionID string, currentPrice float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.account.Positions[positionID]
	if !ok {
		return ErrPositionNotFound
	}

	pos.CurrentPrice = currentPrice
	pos.UnrealizedPnL = pnlFor(pos.Side, pos.EntryPrice, currentPrice, pos.Size)

	if stopHit(pos, currentPrice) {
		_, err := s.closeLocked(pos, currentPrice, 1.0, "SL_HIT")
		return err
	}

	return s.persist()
}

// ClosePosition realizes P&L on closePct of the position (1.0 = full close)
// and credits cash with the cost basis of the closed portion plus its P&L.
func (s *PaperTradingService) ClosePosition(positionID string, exitPrice, closePct float64, reason string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.account.Positions[positionID]
	if !ok {
		return 0, ErrPositionNotFound
	}
	if closePct <= 0 || closePct > 1 {
		return 0, fmt.Errorf("close percentage %.2f out of range (0, 1]", closePct)
	}

	return s.closeLocked(pos, exitPrice, closePct, reason)
}

func (s *PaperTradingService) closeLocked(pos *domain.PaperPosition, exitPrice, closePct float64, reason string) (float64, error) {
	closedSize := pos.Size * closePct
	realized := pnlFor(pos.Side, pos.EntryPrice, exitPrice, closedSize)

	s.account.Balance += closedSize*pos.EntryPrice + realized
	s.account.TotalPnL += realized
	pos.RealizedPnL += realized

	trade := domain.PaperTrade{
		ID:         uuid.NewString(),
		PositionID: pos.ID,
		Symbol:     pos.Symbol,
		Side:       pos.Side,
		Action:     domain.TradeActionClose,
		Size:       closedSize,
		Price:      exitPrice,
		PnL:        realized,
		Reason:     reason,
		Timestamp:  s.now(),
	}
	s.account.Trades = append(s.account.Trades, trade)

	if closePct >= 1 {
		delete(s.account.Positions, pos.ID)
	} else {
		pos.Size -= closedSize
		pos.CurrentPrice = exitPrice
		pos.UnrealizedPnL = pnlFor(pos.Side, pos.EntryPrice, exitPrice, pos.Size)
	}

	if err := s.persist(); err != nil {
		return realized, err
	}

	if s.archive != nil {
		if err := s.archive.RecordTrade(&trade); err != nil {
			log.Printf("Failed to archive closed trade %s: %v", trade.ID, err)
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyPositionClosed(&trade)
	}

	log.Printf("Paper position closed: %s %s size=%.6f exit=%.2f pnl=%.2f reason=%s",
		pos.Side, pos.Symbol, closedSize, exitPrice, realized, reason)
	return realized, nil
}

// SetNotifier attaches push notifications for closed positions.
func (s *PaperTradingService) SetNotifier(notifier *NotificationService) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = notifier
}

// History returns closed trades recorded since fromTime. It reads from the
// archive when one is configured, falling back to the in-memory trade log.
func (s *PaperTradingService) History(fromTime time.Time) []*domain.PaperTrade {
	if s.archive != nil {
		return s.archive.GetHistory(fromTime)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trades := []*domain.PaperTrade{}
	for i := range s.account.Trades {
		t := s.account.Trades[i]
		if t.Action == domain.TradeActionClose && !t.Timestamp.Before(fromTime) {
			trades = append(trades, &t)
		}
	}
	return trades
}

// Stats derives win/loss counts and win rate from the recorded per-trade P&L
// signs in the trade log.
func (s *PaperTradingService) Stats() (*domain.PaperStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wins, losses, closes := 0, 0, 0
	for _, trade := range s.account.Trades {
		if trade.Action != domain.TradeActionClose {
			continue
		}
		closes++
		if trade.PnL > 0 {
			wins++
		} else if trade.PnL < 0 {
			losses++
		}
	}

	winRate := 0.0
	if closes > 0 {
		winRate = float64(wins) / float64(closes) * 100
	}

	return &domain.PaperStats{
		Balance:        s.account.Balance,
		Equity:         s.account.Equity(),
		OpenPositions:  len(s.account.Positions),
		TotalTrades:    closes,
		Wins:           wins,
		Losses:         losses,
		WinRate:        winRate,
		TotalPnL:       s.account.TotalPnL,
		MaxDrawdownPct: s.account.MaxDrawdownPct,
	}, nil
}

// Account returns a snapshot copy safe for serialization.
func (s *PaperTradingService) Account() *domain.PaperAccount {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := *s.account
	snapshot.Positions = make(map[string]*domain.PaperPosition, len(s.account.Positions))
	for id, pos := range s.account.Positions {
		p := *pos
		snapshot.Positions[id] = &p
	}
	snapshot.Trades = append([]domain.PaperTrade(nil), s.account.Trades...)
	return &snapshot
}

// RunMonitor polls the price feed and refreshes every open position so stop
// losses trigger without a caller in the loop. Blocks until the ticker stops.
func (s *PaperTradingService) RunMonitor(feed PriceFeed, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		s.refreshPrices(feed)
	}
}

func (s *PaperTradingService) refreshPrices(feed PriceFeed) {
	for _, pos := range s.Account().Positions {
		price, err := feed.GetSpotPrice(pos.Symbol)
		if err != nil {
			log.Printf("Price refresh failed for %s: %v", pos.Symbol, err)
			continue
		}
		if err := s.UpdatePosition(pos.ID, price); err != nil && !errors.Is(err, ErrPositionNotFound) {
			log.Printf("Position update failed for %s: %v", pos.ID, err)
		}
	}
}

func (s *PaperTradingService) persist() error {
	equity := s.account.Equity()
	if equity > s.account.PeakEquity {
		s.account.PeakEquity = equity
	}
	if s.account.PeakEquity > 0 {
		drawdown := (s.account.PeakEquity - equity) / s.account.PeakEquity * 100
		if drawdown > s.account.MaxDrawdownPct {
			s.account.MaxDrawdownPct = drawdown
		}
	}
	s.account.LastUpdated = s.now()
	return s.store.Save(s.account)
}

// pnlFor uses the side-aware sign convention: longs profit when price rises,
// shorts when it falls.
func pnlFor(side string, entry, current, size float64) float64 {
	if side == domain.SideShort {
		return (entry - current) * size
	}
	return (current - entry) * size
}

func stopHit(pos *domain.PaperPosition, price float64) bool {
	if pos.StopLoss <= 0 {
		return false
	}
	if pos.Side == domain.SideShort {
		return price >= pos.StopLoss
	}
	return price <= pos.StopLoss
}
