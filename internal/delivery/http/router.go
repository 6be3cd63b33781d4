package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// RouterDeps bundles the handlers the router mounts.
type RouterDeps struct {
	Orders     *OrderHandler
	Graduation *GraduationHandler
	Paper      *PaperHandler
	Broker     *BrokerHandler
	Webhook    *WebhookHandler
	Tokens     *TokenHandler
	WS         http.HandlerFunc
}

// SetupRouter configures all routes and returns a CORS-wrapped handler.
func SetupRouter(deps RouterDeps) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Safe-order gate
	router.HandleFunc("/api/orders", deps.Orders.SubmitOrder).Methods("POST")
	router.HandleFunc("/api/orders/pending", deps.Orders.ListPending).Methods("GET")
	router.HandleFunc("/api/orders/approve", deps.Orders.Approve).Methods("POST")
	router.HandleFunc("/api/orders/approvals/clear", deps.Orders.ClearApprovals).Methods("POST")

	// Graduation
	router.HandleFunc("/api/graduation/status", deps.Graduation.Status).Methods("GET")
	router.HandleFunc("/api/graduation/refresh", deps.Graduation.Refresh).Methods("POST")
	router.HandleFunc("/api/graduation/graduate", deps.Graduation.Graduate).Methods("POST")
	router.HandleFunc("/api/graduation/enable-full", deps.Graduation.EnableFull).Methods("POST")
	router.HandleFunc("/api/graduation/revert", deps.Graduation.Revert).Methods("POST")

	// Paper ledger
	router.HandleFunc("/api/paper/account", deps.Paper.GetAccount).Methods("GET")
	router.HandleFunc("/api/paper/stats", deps.Paper.GetStats).Methods("GET")
	router.HandleFunc("/api/paper/history", deps.Paper.GetHistory).Methods("GET")
	router.HandleFunc("/api/paper/positions", deps.Paper.OpenPosition).Methods("POST")
	router.HandleFunc("/api/paper/positions/update", deps.Paper.UpdatePosition).Methods("POST")
	router.HandleFunc("/api/paper/positions/close", deps.Paper.ClosePosition).Methods("POST")

	// Broker account balances
	if deps.Broker != nil {
		router.HandleFunc("/api/broker/accounts", deps.Broker.GetAccounts).Methods("GET")
	}

	// Signed external signals
	if deps.Webhook != nil {
		router.HandleFunc("/api/webhook", deps.Webhook.Handle).Methods("POST")
	}

	// Push-notification device tokens
	if deps.Tokens != nil {
		router.HandleFunc("/api/tokens/register", deps.Tokens.HandleRegisterToken).Methods("POST")
		router.HandleFunc("/api/tokens/unregister", deps.Tokens.HandleUnregisterToken).Methods("POST")
		router.HandleFunc("/api/tokens/count", deps.Tokens.HandleGetTokenCount).Methods("GET")
	}

	// Live account stream
	if deps.WS != nil {
		router.HandleFunc("/ws", deps.WS)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Webhook-Signature"},
	})

	return c.Handler(router)
}
