package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"nija-backend/internal/domain"
	"nija-backend/internal/usecase"
)

// PaperHandler exposes the simulated ledger.
type PaperHandler struct {
	svc *usecase.PaperTradingService
}

func NewPaperHandler(svc *usecase.PaperTradingService) *PaperHandler {
	return &PaperHandler{svc: svc}
}

// GetAccount handles GET /api/paper/account
func (h *PaperHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.svc.Account())
}

// GetStats handles GET /api/paper/stats
func (h *PaperHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// GetHistory handles GET /api/paper/history?hours=24
func (h *PaperHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "hours must be a positive integer", http.StatusBadRequest)
			return
		}
		hours = n
	}

	trades := h.svc.History(time.Now().Add(-time.Duration(hours) * time.Hour))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(trades)
}

// OpenPosition handles POST /api/paper/positions
func (h *PaperHandler) OpenPosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol     string  `json:"symbol"`
		Size       float64 `json:"size"`
		EntryPrice float64 `json:"entryPrice"`
		StopLoss   float64 `json:"stopLoss"`
		Side       string  `json:"side"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Symbol == "" || req.Size <= 0 || req.EntryPrice <= 0 {
		http.Error(w, "symbol, size and entryPrice are required", http.StatusBadRequest)
		return
	}
	if req.Side == "" {
		req.Side = domain.SideLong
	}

	positionID, err := h.svc.OpenPosition(req.Symbol, req.Size, req.EntryPrice, req.StopLoss, req.Side)
	if errors.Is(err, usecase.ErrInsufficientBalance) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"positionId": positionID})
}

// UpdatePosition handles POST /api/paper/positions/update
func (h *PaperHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PositionID   string  `json:"positionId"`
		CurrentPrice float64 `json:"currentPrice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.svc.UpdatePosition(req.PositionID, req.CurrentPrice); err != nil {
		if errors.Is(err, usecase.ErrPositionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"updated"}`))
}

// ClosePosition handles POST /api/paper/positions/close
func (h *PaperHandler) ClosePosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PositionID string  `json:"positionId"`
		ExitPrice  float64 `json:"exitPrice"`
		ClosePct   float64 `json:"closePct"`
		Reason     string  `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ClosePct == 0 {
		req.ClosePct = 1.0
	}
	if req.Reason == "" {
		req.Reason = "MANUAL"
	}

	pnl, err := h.svc.ClosePosition(req.PositionID, req.ExitPrice, req.ClosePct, req.Reason)
	if err != nil {
		if errors.Is(err, usecase.ErrPositionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]float64{"realizedPnl": pnl})
}
