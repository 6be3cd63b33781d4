package domain

import "time"

// AuditEvent is one line of the append-only order audit trail. Every branch
// through the order gate, success or failure, produces exactly one event.
type AuditEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	EventType string        `json:"event_type"`
	Mode      TradingMode   `json:"mode"`
	Request   *OrderRequest `json:"request,omitempty"`
	Result    *OrderResult  `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// AuditLogger appends events to durable storage.
type AuditLogger interface {
	Append(event *AuditEvent) error
}
