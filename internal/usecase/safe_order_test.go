package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nija-backend/internal/domain"
)

type stubBroker struct {
	calls  int
	err    error
	lastID string
}

func (b *stubBroker) PlaceOrder(req *domain.OrderRequest) (*domain.BrokerOrder, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	b.lastID = "broker-" + req.Symbol
	return &domain.BrokerOrder{OrderID: b.lastID, Symbol: req.Symbol, Status: "FILLED"}, nil
}

func (b *stubBroker) GetAccounts() ([]domain.BrokerAccount, error) {
	return nil, nil
}

type memApprovalStore struct {
	state domain.ApprovalState
	err   error
}

func (s *memApprovalStore) Load() (*domain.ApprovalState, error) {
	if s.err != nil {
		return nil, s.err
	}
	state := s.state
	state.PendingOrders = append([]domain.PendingOrder(nil), s.state.PendingOrders...)
	return &state, nil
}

func (s *memApprovalStore) Save(state *domain.ApprovalState) error {
	if s.err != nil {
		return s.err
	}
	s.state = *state
	return nil
}

type memAudit struct {
	events []domain.AuditEvent
}

func (a *memAudit) Append(event *domain.AuditEvent) error {
	a.events = append(a.events, *event)
	return nil
}

func (a *memAudit) types() []string {
	out := make([]string, len(a.events))
	for i, e := range a.events {
		out[i] = e.EventType
	}
	return out
}

func newTestGate(cfg GateConfig) (*SafeOrderGate, *stubBroker, *memApprovalStore, *memAudit) {
	broker := &stubBroker{}
	approvals := &memApprovalStore{}
	audit := &memAudit{}
	gate := NewSafeOrderGate(cfg, broker, approvals, audit)
	return gate, broker, approvals, audit
}

func testOrder(sizeUSD float64) *domain.OrderRequest {
	return &domain.OrderRequest{
		Symbol:    "BTC-USD",
		Side:      domain.SideBuy,
		SizeUSD:   sizeUSD,
		OrderType: domain.OrderTypeMarket,
	}
}

func TestSubmitOrderDryRunNeverTouchesBroker(t *testing.T) {
	gate, broker, _, audit := newTestGate(GateConfig{
		Mode:               domain.ModeDryRun,
		MaxOrderUSD:        100,
		MaxOrdersPerMinute: 5,
	})

	result, err := gate.SubmitOrder(testOrder(50))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDryRun, result.Status)
	assert.Equal(t, domain.ModeDryRun, result.Mode)
	assert.NotEmpty(t, result.OrderID)
	assert.Empty(t, result.BrokerRef)
	assert.Equal(t, 0, broker.calls)
	assert.Equal(t, []string{"order_submitted"}, audit.types())
}

func TestSubmitOrderSandboxStatus(t *testing.T) {
	gate, broker, _, _ := newTestGate(GateConfig{
		Mode:               domain.ModeSandbox,
		MaxOrderUSD:        100,
		MaxOrdersPerMinute: 5,
	})

	result, err := gate.SubmitOrder(testOrder(50))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSandbox, result.Status)
	assert.Equal(t, 0, broker.calls)
}

func TestSubmitOrderSizeLimit(t *testing.T) {
	gate, broker, _, audit := newTestGate(GateConfig{
		Mode:               domain.ModeDryRun,
		MaxOrderUSD:        100,
		MaxOrdersPerMinute: 5,
	})

	result, err := gate.SubmitOrder(testOrder(150))
	require.Error(t, err)
	assert.Nil(t, result)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "100")
	assert.Equal(t, 0, broker.calls)
	assert.Equal(t, []string{"order_rejected"}, audit.types())
}

func TestSizeLimitDoesNotConsumeRateWindow(t *testing.T) {
	gate, _, _, _ := newTestGate(GateConfig{
		Mode:               domain.ModeDryRun,
		MaxOrderUSD:        100,
		MaxOrdersPerMinute: 1,
	})

	// Oversized rejections must never count against the rate limit.
	for i := 0; i < 5; i++ {
		_, err := gate.SubmitOrder(testOrder(500))
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	}

	_, err := gate.SubmitOrder(testOrder(50))
	assert.NoError(t, err)
}

func TestSubmitOrderRateLimit(t *testing.T) {
	gate, _, _, _ := newTestGate(GateConfig{
		Mode:               domain.ModeDryRun,
		MaxOrderUSD:        100,
		MaxOrdersPerMinute: 3,
	})

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gate.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		_, err := gate.SubmitOrder(testOrder(10))
		require.NoError(t, err)
	}

	_, err := gate.SubmitOrder(testOrder(10))
	var rateErr *RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 3, rateErr.MaxPerMinute)

	// Slots free up once their timestamps age out of the trailing minute.
	current = current.Add(61 * time.Second)
	_, err = gate.SubmitOrder(testOrder(10))
	assert.NoError(t, err)
}

func TestSubmitOrderLiveRequiresConfiguration(t *testing.T) {
	gate, broker, _, _ := newTestGate(GateConfig{
		Mode:               domain.ModeLive,
		MaxOrderUSD:        100,
		MaxOrdersPerMinute: 5,
	})

	_, err := gate.SubmitOrder(testOrder(10))
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Contains(t, err.Error(), "COINBASE_ACCOUNT_ID")
	assert.Equal(t, 0, broker.calls)

	gate.cfg.CoinbaseAccountID = "acct-1"
	_, err = gate.SubmitOrder(testOrder(10))
	require.ErrorAs(t, err, &configErr)
	assert.Contains(t, err.Error(), "CONFIRM_LIVE")
	assert.Equal(t, 0, broker.calls)
}

func TestSubmitOrderLiveDispatchesToBroker(t *testing.T) {
	gate, broker, _, audit := newTestGate(GateConfig{
		Mode:               domain.ModeLive,
		MaxOrderUSD:        100,
		MaxOrdersPerMinute: 5,
		CoinbaseAccountID:  "acct-1",
		ConfirmLive:        true,
	})

	result, err := gate.SubmitOrder(testOrder(25))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusLive, result.Status)
	assert.Equal(t, broker.lastID, result.BrokerRef)
	assert.Equal(t, 1, broker.calls)
	assert.Equal(t, []string{"order_submitted"}, audit.types())
}

func TestSubmitOrderLiveBrokerFailureIsAudited(t *testing.T) {
	gate, broker, _, audit := newTestGate(GateConfig{
		Mode:               domain.ModeLive,
		MaxOrderUSD:        100,
		MaxOrdersPerMinute: 5,
		CoinbaseAccountID:  "acct-1",
		ConfirmLive:        true,
	})
	broker.err = errors.New("exchange unavailable")

	_, err := gate.SubmitOrder(testOrder(25))
	require.Error(t, err)
	assert.Equal(t, []string{"broker_error"}, audit.types())
}

func TestManualApprovalQueuesOrders(t *testing.T) {
	gate, broker, _, audit := newTestGate(GateConfig{
		Mode:                domain.ModeDryRun,
		MaxOrderUSD:         100,
		MaxOrdersPerMinute:  10,
		ManualApprovalCount: 2,
	})

	// Below the approval threshold every order parks in the queue.
	result, err := gate.SubmitOrder(testOrder(10))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingApproval, result.Status)
	assert.Equal(t, 0, broker.calls)

	pending, err := gate.ListPending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, result.OrderID, pending[0].ID)
	assert.Equal(t, "BTC-USD", pending[0].Request.Symbol)

	// Granting approvals unblocks future submissions but does not dispatch
	// what is already queued.
	total, err := gate.Approve(2)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	result, err = gate.SubmitOrder(testOrder(20))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDryRun, result.Status)

	pending, err = gate.ListPending()
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	assert.Equal(t, []string{"order_queued", "order_submitted"}, audit.types())
}

func TestClearResetsApprovals(t *testing.T) {
	gate, _, _, _ := newTestGate(GateConfig{
		Mode:                domain.ModeDryRun,
		MaxOrderUSD:         100,
		MaxOrdersPerMinute:  10,
		ManualApprovalCount: 1,
	})

	_, err := gate.SubmitOrder(testOrder(10))
	require.NoError(t, err)

	require.NoError(t, gate.Clear())

	pending, err := gate.ListPending()
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Counter was reset too, so the next order queues again.
	result, err := gate.SubmitOrder(testOrder(10))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingApproval, result.Status)
}

func TestApprovalStoreFailureSurfaces(t *testing.T) {
	broker := &stubBroker{}
	approvals := &memApprovalStore{err: errors.New("disk full")}
	audit := &memAudit{}
	gate := NewSafeOrderGate(GateConfig{
		Mode:                domain.ModeDryRun,
		MaxOrderUSD:         100,
		MaxOrdersPerMinute:  10,
		ManualApprovalCount: 1,
	}, broker, approvals, audit)

	_, err := gate.SubmitOrder(testOrder(10))
	require.Error(t, err)
	assert.Equal(t, []string{"order_error"}, audit.types())
}

func TestSubmitOrderUnknownMode(t *testing.T) {
	gate, _, _, _ := newTestGate(GateConfig{
		Mode:               domain.TradingMode("BOGUS"),
		MaxOrderUSD:        100,
		MaxOrdersPerMinute: 5,
	})

	_, err := gate.SubmitOrder(testOrder(10))
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
}
