package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"nija-backend/internal/domain"
	"nija-backend/internal/usecase"
)

// OrderHandler exposes the safe-order gate and its approval queue.
type OrderHandler struct {
	gate *usecase.SafeOrderGate
}

func NewOrderHandler(gate *usecase.SafeOrderGate) *OrderHandler {
	return &OrderHandler{gate: gate}
}

// SubmitOrder handles POST /api/orders
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Symbol == "" || req.SizeUSD <= 0 {
		http.Error(w, "symbol and a positive sizeUsd are required", http.StatusBadRequest)
		return
	}
	if req.Side == "" {
		req.Side = domain.SideBuy
	}
	if req.OrderType == "" {
		req.OrderType = domain.OrderTypeMarket
	}

	result, err := h.gate.SubmitOrder(&req)
	if err != nil {
		writeGateError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// ListPending handles GET /api/orders/pending
func (h *OrderHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.gate.ListPending()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if pending == nil {
		pending = []domain.PendingOrder{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pending)
}

// Approve handles POST /api/orders/approve
func (h *OrderHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Count <= 0 {
		http.Error(w, "count must be positive", http.StatusBadRequest)
		return
	}

	total, err := h.gate.Approve(req.Count)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"approvedCount": total,
	})
}

// ClearApprovals handles POST /api/orders/approvals/clear
func (h *OrderHandler) ClearApprovals(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.Clear(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"cleared"}`))
}

// writeGateError maps the gate's error taxonomy onto HTTP statuses so callers
// can tell which policy rejected the order.
func writeGateError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway // broker and persistence failures
	kind := "broker_error"

	var configErr *usecase.ConfigError
	var validationErr *usecase.ValidationError
	var rateErr *usecase.RateLimitError
	switch {
	case errors.As(err, &configErr):
		status, kind = http.StatusBadRequest, "config_error"
	case errors.As(err, &validationErr):
		status, kind = http.StatusBadRequest, "validation_error"
	case errors.As(err, &rateErr):
		status, kind = http.StatusTooManyRequests, "rate_limit_error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   kind,
		"details": err.Error(),
	})
}
