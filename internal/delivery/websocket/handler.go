package websocket

import (
	"log"
	"net/http"
	"time"

	"nija-backend/internal/domain"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// AccountSource provides the snapshot pushed to connected clients.
type AccountSource interface {
	Account() *domain.PaperAccount
}

type Handler struct {
	source AccountSource
}

func NewHandler(source AccountSource) *Handler {
	return &Handler{
		source: source,
	}
}

// Handle upgrades the connection and streams the simulated account every
// few seconds so dashboards track balance and open positions live.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}
	defer conn.Close()

	log.Println("New Client Connected")

	// Send initial data immediately
	if err := conn.WriteJSON(h.source.Account()); err != nil {
		log.Println("Write error:", err)
		return
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.WriteJSON(h.source.Account()); err != nil {
			log.Println("Write error:", err)
			return
		}
	}
}
