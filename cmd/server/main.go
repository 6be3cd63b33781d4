package main

import (
	"context"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"nija-backend/internal/config"
	httpdelivery "nija-backend/internal/delivery/http"
	"nija-backend/internal/delivery/websocket"
	"nija-backend/internal/domain"
	"nija-backend/internal/infrastructure/coinbase"
	"nija-backend/internal/infrastructure/db"
	"nija-backend/internal/infrastructure/fcm"
	"nija-backend/internal/infrastructure/kraken"
	"nija-backend/internal/repository"
	"nija-backend/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// 1. Persistence. Postgres when DATABASE_URL is set, JSON files otherwise.
	var (
		graduationStore domain.GraduationStore
		tradeArchive    domain.TradeArchive
	)
	if cfg.Database.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		pool, err := db.NewPool(ctx, cfg.Database.URL, db.PoolConfigFromEnv())
		if err != nil {
			cancel()
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := db.Migrate(ctx, pool); err != nil {
			cancel()
			log.Fatalf("Failed to run migrations: %v", err)
		}
		cancel()
		defer pool.Close()

		graduationStore = repository.NewPostgresGraduationStore(pool)
		tradeArchive = repository.NewPostgresTradeArchive(pool)
		log.Println("Using Postgres for graduation progress and trade history")
	} else {
		graduationStore = repository.NewFileGraduationStore(cfg.Storage.DataDir)
		log.Println("Using file storage under " + cfg.Storage.DataDir)
	}

	approvalStore := repository.NewFileApprovalStore(filepath.Join(cfg.Storage.DataDir, "approvals.json"))
	paperStore := repository.NewFilePaperStore(filepath.Join(cfg.Storage.DataDir, "paper_account.json"))
	auditLog := repository.NewAuditLog(cfg.Storage.LogPath)

	// 2. Broker.
	coinbaseClient := coinbase.NewClient(cfg.Broker.CoinbaseAPIKey, cfg.Broker.CoinbaseAPISecret)
	var broker domain.Broker = coinbaseClient
	if cfg.Broker.Name == "kraken" {
		broker = kraken.NewClient(cfg.Broker.KrakenAPIKey, cfg.Broker.KrakenAPISecret)
	}

	// 3. Notifications.
	tokenRepo := repository.NewTokenRepository()
	fcmClient, err := fcm.NewClient()
	if err != nil {
		log.Printf("FCM disabled: %v", err)
	}
	notifier := usecase.NewNotificationService(fcmClient, tokenRepo)

	// 4. Usecases.
	gate := usecase.NewSafeOrderGate(usecase.GateConfig{
		Mode:                domain.TradingMode(cfg.Trading.Mode),
		MaxOrderUSD:         cfg.Trading.MaxOrderUSD,
		MaxOrdersPerMinute:  cfg.Trading.MaxOrdersPerMinute,
		ManualApprovalCount: cfg.Trading.ManualApprovalCount,
		CoinbaseAccountID:   cfg.Trading.CoinbaseAccountID,
		ConfirmLive:         cfg.Trading.ConfirmLive,
	}, broker, approvalStore, auditLog)

	paper, err := usecase.NewPaperTradingService(paperStore, tradeArchive, cfg.Trading.InitialPaperBalance)
	if err != nil {
		log.Fatalf("Failed to initialize paper trading: %v", err)
	}
	paper.SetNotifier(notifier)

	graduation := usecase.NewGraduationService(graduationStore, paper, notifier)

	// 5. Stop-loss monitor in the background. Spot prices come from the public
	// Coinbase endpoint regardless of which broker handles live orders.
	go paper.RunMonitor(coinbaseClient, 30*time.Second)

	// 6. Delivery.
	wsHandler := websocket.NewHandler(paper)

	var webhookHandler *httpdelivery.WebhookHandler
	if cfg.Webhook.Secret != "" {
		webhookHandler = httpdelivery.NewWebhookHandler(gate, cfg.Webhook.Secret)
	} else {
		log.Println("WEBHOOK_SECRET not set, webhook endpoint disabled")
	}

	router := httpdelivery.SetupRouter(httpdelivery.RouterDeps{
		Orders:     httpdelivery.NewOrderHandler(gate),
		Graduation: httpdelivery.NewGraduationHandler(graduation),
		Paper:      httpdelivery.NewPaperHandler(paper),
		Broker:     httpdelivery.NewBrokerHandler(broker),
		Webhook:    webhookHandler,
		Tokens:     httpdelivery.NewTokenHandler(tokenRepo),
		WS:         wsHandler.Handle,
	})

	log.Printf("Server executing on :%s (mode=%s broker=%s)", cfg.Server.Port, cfg.Trading.Mode, cfg.Broker.Name)
	if err := http.ListenAndServe(":"+cfg.Server.Port, router); err != nil {
		log.Fatal(err)
	}
}
