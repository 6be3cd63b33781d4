package domain

// BrokerOrder is the broker's view of a placed order.
type BrokerOrder struct {
	OrderID    string  `json:"orderId"`
	Symbol     string  `json:"symbol"`
	Status     string  `json:"status"`
	FilledSize float64 `json:"filledSize"`
	AvgPrice   float64 `json:"avgPrice"`
}

// BrokerAccount is a single currency account at the broker.
type BrokerAccount struct {
	ID        string  `json:"id"`
	Currency  string  `json:"currency"`
	Available float64 `json:"available"`
	Hold      float64 `json:"hold"`
}

// Broker is the outbound surface of an exchange client. LIVE mode is the only
// mode that ever calls it.
type Broker interface {
	PlaceOrder(req *OrderRequest) (*BrokerOrder, error)
	GetAccounts() ([]BrokerAccount, error)
}
