package config

import (
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Trading  TradingConfig
	Broker   BrokerConfig
	Database DatabaseConfig
	Webhook  WebhookConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port string
}

// TradingConfig carries the order-gate policies and the paper ledger seed.
type TradingConfig struct {
	Mode                string // SANDBOX, DRY_RUN or LIVE
	MaxOrderUSD         float64
	MaxOrdersPerMinute  int
	ManualApprovalCount int
	CoinbaseAccountID   string
	ConfirmLive         bool
	InitialPaperBalance float64
}

type BrokerConfig struct {
	Name              string // "coinbase" or "kraken"
	CoinbaseAPIKey    string
	CoinbaseAPISecret string
	KrakenAPIKey      string
	KrakenAPISecret   string
}

type DatabaseConfig struct {
	URL string
}

type WebhookConfig struct {
	Secret string
}

type StorageConfig struct {
	DataDir string
	LogPath string
}

// Load returns application configuration loaded from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnvWithDefault("PORT", "8080"),
		},
		Trading: TradingConfig{
			Mode:                getEnvWithDefault("MODE", "DRY_RUN"),
			MaxOrderUSD:         getEnvFloat("MAX_ORDER_USD", 100),
			MaxOrdersPerMinute:  getEnvInt("MAX_ORDERS_PER_MINUTE", 5),
			ManualApprovalCount: getEnvInt("MANUAL_APPROVAL_COUNT", 0),
			CoinbaseAccountID:   os.Getenv("COINBASE_ACCOUNT_ID"),
			ConfirmLive:         getEnvBool("CONFIRM_LIVE", false),
			InitialPaperBalance: getEnvFloat("INITIAL_PAPER_BALANCE", 10000),
		},
		Broker: BrokerConfig{
			Name:              getEnvWithDefault("BROKER", "coinbase"),
			CoinbaseAPIKey:    os.Getenv("COINBASE_API_KEY"),
			CoinbaseAPISecret: os.Getenv("COINBASE_API_SECRET"),
			KrakenAPIKey:      os.Getenv("KRAKEN_API_KEY"),
			KrakenAPISecret:   os.Getenv("KRAKEN_API_SECRET"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Webhook: WebhookConfig{
			Secret: os.Getenv("WEBHOOK_SECRET"),
		},
		Storage: StorageConfig{
			DataDir: getEnvWithDefault("DATA_DIR", "data"),
			LogPath: getEnvWithDefault("LOG_PATH", "data/audit.log"),
		},
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
