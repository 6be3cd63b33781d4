package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"nija-backend/internal/domain"
	"nija-backend/internal/usecase"
)

// WebhookHandler accepts signed trade signals from external alerting systems
// and forwards them through the safe-order gate.
type WebhookHandler struct {
	gate   *usecase.SafeOrderGate
	secret string
}

func NewWebhookHandler(gate *usecase.SafeOrderGate, secret string) *WebhookHandler {
	return &WebhookHandler{gate: gate, secret: secret}
}

type webhookPayload struct {
	Symbol  string  `json:"symbol"`
	Side    string  `json:"side"`
	SizeUSD float64 `json:"sizeUsd"`
	Source  string  `json:"source"`
}

// Handle handles POST /api/webhook. The body must carry an
// X-Webhook-Signature header: hex(HMAC-SHA256(body, secret)).
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		http.Error(w, "Webhook not configured", http.StatusServiceUnavailable)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	if !h.verifySignature(body, r.Header.Get("X-Webhook-Signature")) {
		log.Printf("Webhook: rejected request with bad signature from %s", r.RemoteAddr)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	if payload.Symbol == "" || payload.SizeUSD <= 0 {
		http.Error(w, "symbol and a positive sizeUsd are required", http.StatusBadRequest)
		return
	}
	if payload.Side == "" {
		payload.Side = domain.SideBuy
	}

	req := &domain.OrderRequest{
		Symbol:    payload.Symbol,
		Side:      payload.Side,
		SizeUSD:   payload.SizeUSD,
		OrderType: domain.OrderTypeMarket,
		Metadata:  map[string]string{"source": payload.Source},
	}

	result, err := h.gate.SubmitOrder(req)
	if err != nil {
		writeGateError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
