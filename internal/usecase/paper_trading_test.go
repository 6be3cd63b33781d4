package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nija-backend/internal/domain"
)

type memPaperStore struct {
	account *domain.PaperAccount
	saves   int
}

func (s *memPaperStore) Load() (*domain.PaperAccount, error) {
	if s.account == nil {
		return nil, domain.ErrAccountNotFound
	}
	return s.account, nil
}

func (s *memPaperStore) Save(account *domain.PaperAccount) error {
	s.account = account
	s.saves++
	return nil
}

type memArchive struct {
	trades []*domain.PaperTrade
}

func (a *memArchive) RecordTrade(trade *domain.PaperTrade) error {
	a.trades = append(a.trades, trade)
	return nil
}

func (a *memArchive) GetHistory(fromTime time.Time) []*domain.PaperTrade {
	return a.trades
}

func newTestPaper(t *testing.T, balance float64) (*PaperTradingService, *memPaperStore, *memArchive) {
	t.Helper()
	store := &memPaperStore{}
	archive := &memArchive{}
	svc, err := NewPaperTradingService(store, archive, balance)
	require.NoError(t, err)
	return svc, store, archive
}

func TestOpenPositionDebitsNotional(t *testing.T) {
	svc, store, _ := newTestPaper(t, 10000)

	id, err := svc.OpenPosition("BTC-USD", 0.1, 50000, 45000, domain.SideLong)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	account := svc.Account()
	assert.Equal(t, 5000.0, account.Balance)
	require.Len(t, account.Positions, 1)
	assert.Equal(t, 0.1, account.Positions[id].Size)
	require.Len(t, account.Trades, 1)
	assert.Equal(t, domain.TradeActionOpen, account.Trades[0].Action)
	assert.Greater(t, store.saves, 0)
}

func TestOpenPositionInsufficientBalance(t *testing.T) {
	svc, _, _ := newTestPaper(t, 1000)

	id, err := svc.OpenPosition("BTC-USD", 1, 2000, 0, domain.SideLong)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Empty(t, id)

	// The ledger is untouched: no position, no trade, full balance.
	account := svc.Account()
	assert.Equal(t, 1000.0, account.Balance)
	assert.Empty(t, account.Positions)
	assert.Empty(t, account.Trades)
}

func TestCloseAtEntryPriceRestoresBalance(t *testing.T) {
	svc, _, _ := newTestPaper(t, 10000)

	id, err := svc.OpenPosition("ETH-USD", 2, 3000, 0, domain.SideLong)
	require.NoError(t, err)

	pnl, err := svc.ClosePosition(id, 3000, 1.0, "MANUAL")
	require.NoError(t, err)

	assert.Equal(t, 0.0, pnl)
	account := svc.Account()
	assert.Equal(t, 10000.0, account.Balance)
	assert.Empty(t, account.Positions)
	assert.Equal(t, 0.0, account.TotalPnL)
}

func TestCloseLongWithProfit(t *testing.T) {
	svc, _, archive := newTestPaper(t, 10000)

	id, err := svc.OpenPosition("BTC-USD", 0.1, 50000, 0, domain.SideLong)
	require.NoError(t, err)

	pnl, err := svc.ClosePosition(id, 55000, 1.0, "TP_HIT")
	require.NoError(t, err)

	assert.Equal(t, 500.0, pnl)
	account := svc.Account()
	assert.Equal(t, 10500.0, account.Balance)
	assert.Equal(t, 500.0, account.TotalPnL)

	require.Len(t, archive.trades, 1)
	assert.Equal(t, "TP_HIT", archive.trades[0].Reason)
}

func TestCloseShortProfitsWhenPriceFalls(t *testing.T) {
	svc, _, _ := newTestPaper(t, 10000)

	id, err := svc.OpenPosition("SOL-USD", 10, 100, 0, domain.SideShort)
	require.NoError(t, err)

	pnl, err := svc.ClosePosition(id, 90, 1.0, "MANUAL")
	require.NoError(t, err)

	assert.Equal(t, 100.0, pnl)
	assert.Equal(t, 10100.0, svc.Account().Balance)
}

func TestPartialClose(t *testing.T) {
	svc, _, _ := newTestPaper(t, 10000)

	id, err := svc.OpenPosition("BTC-USD", 0.1, 50000, 0, domain.SideLong)
	require.NoError(t, err)

	pnl, err := svc.ClosePosition(id, 60000, 0.5, "MANUAL")
	require.NoError(t, err)

	assert.Equal(t, 500.0, pnl)
	account := svc.Account()
	require.Len(t, account.Positions, 1)
	assert.Equal(t, 0.05, account.Positions[id].Size)
	// Half the cost basis plus the realized half came back to cash.
	assert.Equal(t, 8000.0, account.Balance)
}

func TestClosePercentageOutOfRange(t *testing.T) {
	svc, _, _ := newTestPaper(t, 10000)

	id, err := svc.OpenPosition("BTC-USD", 0.1, 50000, 0, domain.SideLong)
	require.NoError(t, err)

	_, err = svc.ClosePosition(id, 50000, 0, "MANUAL")
	assert.Error(t, err)
	_, err = svc.ClosePosition(id, 50000, 1.5, "MANUAL")
	assert.Error(t, err)
}

func TestCloseUnknownPosition(t *testing.T) {
	svc, _, _ := newTestPaper(t, 10000)

	_, err := svc.ClosePosition("missing", 100, 1.0, "MANUAL")
	assert.ErrorIs(t, err, ErrPositionNotFound)
}

func TestUpdatePositionTracksUnrealizedPnL(t *testing.T) {
	svc, _, _ := newTestPaper(t, 10000)

	id, err := svc.OpenPosition("BTC-USD", 0.1, 50000, 40000, domain.SideLong)
	require.NoError(t, err)

	require.NoError(t, svc.UpdatePosition(id, 52000))

	pos := svc.Account().Positions[id]
	assert.Equal(t, 52000.0, pos.CurrentPrice)
	assert.Equal(t, 200.0, pos.UnrealizedPnL)
}

func TestUpdatePositionTriggersStopLoss(t *testing.T) {
	svc, _, archive := newTestPaper(t, 10000)

	id, err := svc.OpenPosition("BTC-USD", 0.1, 50000, 45000, domain.SideLong)
	require.NoError(t, err)

	require.NoError(t, svc.UpdatePosition(id, 44000))

	account := svc.Account()
	assert.Empty(t, account.Positions, "stop loss should close the position")
	assert.Equal(t, -600.0, account.TotalPnL)

	require.Len(t, archive.trades, 1)
	assert.Equal(t, "SL_HIT", archive.trades[0].Reason)
}

func TestUpdatePositionShortStopLoss(t *testing.T) {
	svc, _, _ := newTestPaper(t, 10000)

	id, err := svc.OpenPosition("ETH-USD", 1, 3000, 3300, domain.SideShort)
	require.NoError(t, err)

	// Price rising through the stop is adverse for a short.
	require.NoError(t, svc.UpdatePosition(id, 3400))

	account := svc.Account()
	assert.Empty(t, account.Positions)
	assert.Equal(t, -400.0, account.TotalPnL)
}

func TestStatsCountsWinsAndLosses(t *testing.T) {
	svc, _, _ := newTestPaper(t, 10000)

	winID, err := svc.OpenPosition("BTC-USD", 0.01, 50000, 0, domain.SideLong)
	require.NoError(t, err)
	_, err = svc.ClosePosition(winID, 55000, 1.0, "MANUAL")
	require.NoError(t, err)

	lossID, err := svc.OpenPosition("ETH-USD", 0.1, 3000, 0, domain.SideLong)
	require.NoError(t, err)
	_, err = svc.ClosePosition(lossID, 2800, 1.0, "MANUAL")
	require.NoError(t, err)

	stats, err := svc.Stats()
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalTrades)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 50.0, stats.WinRate)
	assert.Equal(t, 0, stats.OpenPositions)
	assert.InDelta(t, 30.0, stats.TotalPnL, 0.0001)
}

func TestMaxDrawdownIsSticky(t *testing.T) {
	svc, _, _ := newTestPaper(t, 10000)

	id, err := svc.OpenPosition("BTC-USD", 0.1, 50000, 0, domain.SideLong)
	require.NoError(t, err)

	// Drop, recover, drop less. Max drawdown keeps the worst point.
	require.NoError(t, svc.UpdatePosition(id, 40000))
	worst := svc.Account().MaxDrawdownPct
	assert.Greater(t, worst, 0.0)

	require.NoError(t, svc.UpdatePosition(id, 49000))
	assert.Equal(t, worst, svc.Account().MaxDrawdownPct)
}

func TestHistoryFallsBackToTradeLog(t *testing.T) {
	store := &memPaperStore{}
	svc, err := NewPaperTradingService(store, nil, 10000)
	require.NoError(t, err)

	id, err := svc.OpenPosition("BTC-USD", 0.01, 50000, 0, domain.SideLong)
	require.NoError(t, err)
	_, err = svc.ClosePosition(id, 51000, 1.0, "MANUAL")
	require.NoError(t, err)

	// Without an archive, only CLOSE entries from the in-memory log come back.
	trades := svc.History(time.Now().Add(-time.Hour))
	require.Len(t, trades, 1)
	assert.Equal(t, domain.TradeActionClose, trades[0].Action)

	assert.Empty(t, svc.History(time.Now().Add(time.Hour)))
}

func TestAccountSurvivesReload(t *testing.T) {
	store := &memPaperStore{}
	svc, err := NewPaperTradingService(store, nil, 10000)
	require.NoError(t, err)

	_, err = svc.OpenPosition("BTC-USD", 0.1, 50000, 0, domain.SideLong)
	require.NoError(t, err)

	// A second service over the same store sees the persisted ledger, not a
	// fresh account.
	reloaded, err := NewPaperTradingService(store, nil, 10000)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, reloaded.Account().Balance)
	assert.Len(t, reloaded.Account().Positions, 1)
}
