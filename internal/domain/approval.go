package domain

import "time"

// PendingOrder is an order held back until enough manual approvals accumulate.
type PendingOrder struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Request   OrderRequest `json:"request"`
	Status    string       `json:"status"` // "pending"
}

// ApprovalState is the persisted snapshot of the manual-approval queue.
type ApprovalState struct {
	ApprovedCount int            `json:"approved_count"`
	PendingOrders []PendingOrder `json:"pending_orders"`
}

// ApprovalStore persists the approval queue. Load on a fresh store returns an
// empty state, never an error.
type ApprovalStore interface {
	Load() (*ApprovalState, error)
	Save(state *ApprovalState) error
}
