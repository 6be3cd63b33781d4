package http

import (
	"encoding/json"
	"net/http"

	"nija-backend/internal/domain"
)

// BrokerHandler exposes read-only account data from the configured broker.
type BrokerHandler struct {
	broker domain.Broker
}

func NewBrokerHandler(broker domain.Broker) *BrokerHandler {
	return &BrokerHandler{broker: broker}
}

// GetAccounts handles GET /api/broker/accounts
func (h *BrokerHandler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.broker.GetAccounts()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if accounts == nil {
		accounts = []domain.BrokerAccount{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accounts)
}
