package usecase

import (
	"fmt"
	"log"
	"sync"
	"time"

	"nija-backend/internal/domain"
	"nija-backend/internal/infrastructure/fcm"
	"nija-backend/internal/repository"
)

const notifyCooldown = 5 * time.Minute

// NotificationService pushes FCM alerts for graduation transitions and closed
// paper positions. A per-key cooldown keeps repeated events from spamming
// devices.
type NotificationService struct {
	fcmClient *fcm.Client
	tokenRepo *repository.TokenRepository

	mu       sync.Mutex
	lastSent map[string]time.Time
}

func NewNotificationService(fcmClient *fcm.Client, tokenRepo *repository.TokenRepository) *NotificationService {
	return &NotificationService{
		fcmClient: fcmClient,
		tokenRepo: tokenRepo,
		lastSent:  make(map[string]time.Time),
	}
}

// NotifyGraduation announces a stage change for a user.
func (s *NotificationService) NotifyGraduation(progress *domain.GraduationProgress) {
	title := fmt.Sprintf("Trading stage changed: %s", progress.Stage)
	body := fmt.Sprintf("User %s is now at %s | trades: %d | win rate: %.1f%% | risk score: %.0f",
		progress.UserID, progress.Stage, progress.TotalTrades, progress.WinRate, progress.RiskScore)
	data := map[string]string{
		"type":   "graduation",
		"userId": progress.UserID,
		"stage":  string(progress.Stage),
	}
	s.send("graduation:"+progress.UserID+":"+string(progress.Stage), title, body, data)
}

// NotifyPositionClosed announces a closed paper position with its P&L.
func (s *NotificationService) NotifyPositionClosed(trade *domain.PaperTrade) {
	title := fmt.Sprintf("Paper position closed: %s", trade.Symbol)
	body := fmt.Sprintf("%s %s | size: %.6f | exit: $%.2f | P&L: %.2f | %s",
		trade.Side, trade.Symbol, trade.Size, trade.Price, trade.PnL, trade.Reason)
	data := map[string]string{
		"type":   "paper_close",
		"symbol": trade.Symbol,
		"pnl":    fmt.Sprintf("%.2f", trade.PnL),
	}
	s.send("paper_close:"+trade.Symbol, title, body, data)
}

func (s *NotificationService) send(key, title, body string, data map[string]string) {
	if s.fcmClient == nil || !s.fcmClient.IsEnabled() {
		return
	}

	tokens := s.tokenRepo.GetAllTokens()
	if len(tokens) == 0 {
		return
	}

	now := time.Now()
	s.mu.Lock()
	if last, ok := s.lastSent[key]; ok && now.Sub(last) < notifyCooldown {
		s.mu.Unlock()
		return
	}
	s.lastSent[key] = now
	// Drop stale cooldown entries while we hold the lock.
	for k, ts := range s.lastSent {
		if now.Sub(ts) > notifyCooldown*2 {
			delete(s.lastSent, k)
		}
	}
	s.mu.Unlock()

	if err := s.fcmClient.SendMulticast(tokens, title, body, data); err != nil {
		log.Printf("Error sending notification %q: %v", key, err)
		return
	}
	log.Printf("Sent notification %q to %d devices", key, len(tokens))
}
