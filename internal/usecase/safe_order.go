package usecase

import (
	"fmt"
	"log"
	"sync"
	"time"

	"nija-backend/internal/domain"

	"github.com/google/uuid"
)

const rateWindow = time.Minute

// ConfigError means LIVE mode preconditions are not met. No other checks run
// after it fires.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "live trading not configured: " + e.Reason
}

// ValidationError means an order exceeded the single-order size ceiling.
type ValidationError struct {
	SizeUSD float64
	MaxUSD  float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("order size %.2f USD exceeds limit of %.2f USD", e.SizeUSD, e.MaxUSD)
}

// RateLimitError means too many orders were accepted in the trailing window.
type RateLimitError struct {
	MaxPerMinute int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit reached: max %d orders per minute", e.MaxPerMinute)
}

// GateConfig holds the policies the gate enforces.
type GateConfig struct {
	Mode                domain.TradingMode
	MaxOrderUSD         float64
	MaxOrdersPerMinute  int
	ManualApprovalCount int // 0 disables the approval gate
	CoinbaseAccountID   string
	ConfirmLive         bool
}

// SafeOrderGate is the single choke point every outbound order passes through.
// It enforces, in fixed order: mode preconditions, size ceiling, rate limit,
// manual approval. All shared state lives behind one mutex so concurrent
// submissions cannot slip past a policy.
type SafeOrderGate struct {
	cfg       GateConfig
	broker    domain.Broker
	approvals domain.ApprovalStore
	audit     domain.AuditLogger

	mu     sync.Mutex
	window []time.Time
	now    func() time.Time
}

func NewSafeOrderGate(cfg GateConfig, broker domain.Broker, approvals domain.ApprovalStore, audit domain.AuditLogger) *SafeOrderGate {
	return &SafeOrderGate{
		cfg:       cfg,
		broker:    broker,
		approvals: approvals,
		audit:     audit,
		now:       time.Now,
	}
}

// SubmitOrder runs the full policy chain and, depending on mode, simulates or
// dispatches the order. Every outcome, including failures, is written to the
// audit trail before returning.
func (g *SafeOrderGate) SubmitOrder(req *domain.OrderRequest) (*domain.OrderResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	// 1. Mode preconditions. LIVE needs an account id and an explicit confirm.
	if g.cfg.Mode == domain.ModeLive {
		if g.cfg.CoinbaseAccountID == "" {
			return nil, g.fail(req, "order_rejected", &ConfigError{Reason: "COINBASE_ACCOUNT_ID is not set"})
		}
		if !g.cfg.ConfirmLive {
			return nil, g.fail(req, "order_rejected", &ConfigError{Reason: "CONFIRM_LIVE is not set"})
		}
	}

	// 2. Size ceiling. Checked before the rate limiter so an oversized order
	// never consumes a window slot.
	if req.SizeUSD > g.cfg.MaxOrderUSD {
		return nil, g.fail(req, "order_rejected", &ValidationError{SizeUSD: req.SizeUSD, MaxUSD: g.cfg.MaxOrderUSD})
	}

	// 3. Sliding-window rate limit.
	g.pruneWindow(now)
	if len(g.window) >= g.cfg.MaxOrdersPerMinute {
		return nil, g.fail(req, "order_rejected", &RateLimitError{MaxPerMinute: g.cfg.MaxOrdersPerMinute})
	}
	g.window = append(g.window, now)

	// 4. Manual approval gate. While granted approvals are below the
	// threshold, orders are queued instead of dispatched. Approving later does
	// not retroactively dispatch what is already queued; it only lets future
	// submissions through.
	if g.cfg.ManualApprovalCount > 0 {
		state, err := g.approvals.Load()
		if err != nil {
			return nil, g.fail(req, "order_error", err)
		}
		if state.ApprovedCount < g.cfg.ManualApprovalCount {
			pending := domain.PendingOrder{
				ID:        uuid.NewString(),
				Timestamp: now,
				Request:   *req,
				Status:    "pending",
			}
			state.PendingOrders = append(state.PendingOrders, pending)
			if err := g.approvals.Save(state); err != nil {
				return nil, g.fail(req, "order_error", err)
			}

			result := g.newResult(req, pending.ID, domain.StatusPendingApproval, "", now)
			g.record("order_queued", req, result, nil)
			log.Printf("Order queued for manual approval: %s %s %.2f USD (%d/%d approvals granted)",
				req.Side, req.Symbol, req.SizeUSD, state.ApprovedCount, g.cfg.ManualApprovalCount)
			return result, nil
		}
	}

	// 5. Dispatch by mode.
	var result *domain.OrderResult
	switch g.cfg.Mode {
	case domain.ModeDryRun:
		result = g.newResult(req, uuid.NewString(), domain.StatusDryRun, "", now)
	case domain.ModeSandbox:
		result = g.newResult(req, uuid.NewString(), domain.StatusSandbox, "", now)
	case domain.ModeLive:
		brokerOrder, err := g.broker.PlaceOrder(req)
		if err != nil {
			return nil, g.fail(req, "broker_error", err)
		}
		result = g.newResult(req, uuid.NewString(), domain.StatusLive, brokerOrder.OrderID, now)
	default:
		return nil, g.fail(req, "order_rejected", &ConfigError{Reason: fmt.Sprintf("unknown mode %q", g.cfg.Mode)})
	}

	g.record("order_submitted", req, result, nil)
	return result, nil
}

// Approve grants count additional manual approvals and persists the counter.
func (g *SafeOrderGate) Approve(count int) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, err := g.approvals.Load()
	if err != nil {
		return 0, err
	}
	state.ApprovedCount += count
	if err := g.approvals.Save(state); err != nil {
		return 0, err
	}
	log.Printf("Manual approvals granted: +%d (total %d, threshold %d)", count, state.ApprovedCount, g.cfg.ManualApprovalCount)
	return state.ApprovedCount, nil
}

// ListPending returns the orders currently held in the approval queue.
func (g *SafeOrderGate) ListPending() ([]domain.PendingOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, err := g.approvals.Load()
	if err != nil {
		return nil, err
	}
	return state.PendingOrders, nil
}

// Clear resets the approval counter and drops all queued orders.
func (g *SafeOrderGate) Clear() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.approvals.Save(&domain.ApprovalState{PendingOrders: []domain.PendingOrder{}})
}

// Mode returns the configured trading mode.
func (g *SafeOrderGate) Mode() domain.TradingMode {
	return g.cfg.Mode
}

func (g *SafeOrderGate) pruneWindow(now time.Time) {
	cutoff := now.Add(-rateWindow)
	kept := g.window[:0]
	for _, ts := range g.window {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	g.window = kept
}

func (g *SafeOrderGate) newResult(req *domain.OrderRequest, id, status, brokerRef string, now time.Time) *domain.OrderResult {
	return &domain.OrderResult{
		OrderID:   id,
		Status:    status,
		Mode:      g.cfg.Mode,
		Symbol:    req.Symbol,
		Side:      req.Side,
		SizeUSD:   req.SizeUSD,
		BrokerRef: brokerRef,
		CreatedAt: now,
	}
}

// fail audits the rejection and hands the error back unchanged.
func (g *SafeOrderGate) fail(req *domain.OrderRequest, eventType string, err error) error {
	g.record(eventType, req, nil, err)
	return err
}

func (g *SafeOrderGate) record(eventType string, req *domain.OrderRequest, result *domain.OrderResult, cause error) {
	event := &domain.AuditEvent{
		Timestamp: g.now().UTC(),
		EventType: eventType,
		Mode:      g.cfg.Mode,
		Request:   req,
		Result:    result,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if err := g.audit.Append(event); err != nil {
		// The audit failure must not mask the policy outcome, but it cannot
		// stay silent either.
		log.Printf("CRITICAL: audit append failed: %v", err)
	}
}
