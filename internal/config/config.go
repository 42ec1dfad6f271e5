package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Secrets (from .env)
	PrivateKey      string
	APIKey          string
	CORSAllowOrigin string

	// Chain
	RPCURL         string
	ChainID        int
	GasLimit       int
	GasMultiplier  float64
	DeployGasLimit int
	ReceiptPoll    time.Duration

	// Contracts
	ContractsDir string

	// API
	APIPort        int
	RequestTimeout time.Duration

	// Invocation ledger
	DBEnabled  bool
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Notifications
	WebhookURL string
	NotifyName string

	// Logging
	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		PrivateKey:      envStr("PRIVATE_KEY", ""),
		APIKey:          envStr("API_KEY", ""),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		RPCURL:         envStr("ETH_RPC_URL", "http://localhost:8545"),
		ChainID:        envInt("CHAIN_ID", 1337),
		GasLimit:       envInt("GAS_LIMIT", 250000),
		GasMultiplier:  envFloat("GAS_MULTIPLIER", 1.0),
		DeployGasLimit: envInt("DEPLOY_GAS_LIMIT", 3000000),
		ReceiptPoll:    time.Duration(envInt("RECEIPT_POLL_SECONDS", 10)) * time.Second,

		ContractsDir: envStr("CONTRACTS_DIR", "./contracts"),

		APIPort:        envInt("API_PORT", 8080),
		RequestTimeout: time.Duration(envInt("REQUEST_TIMEOUT_SECONDS", 60)) * time.Second,

		DBEnabled:  envBool("DB_ENABLED", false),
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "contract_gateway"),
		DBUser:     envStr("DB_USER", ""),
		DBPassword: envStr("DB_PASSWORD", ""),

		WebhookURL: envStr("WEBHOOK_URL", ""),
		NotifyName: envStr("NOTIFY_NAME", "ContractGateway"),

		LogLevel:      envStr("LOG_LEVEL", "info"),
		LogFile:       envStr("LOG_FILE", ""),
		LogMaxSizeMB:  envInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: envInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: envInt("LOG_MAX_AGE_DAYS", 30),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.RPCURL == "" {
		errs = append(errs, "ETH_RPC_URL is required")
	}
	if c.ContractsDir == "" {
		errs = append(errs, "CONTRACTS_DIR is required")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Sprintf("API_PORT %d is out of range", c.APIPort))
	}
	if c.DeployGasLimit <= 0 {
		errs = append(errs, "DEPLOY_GAS_LIMIT must be positive")
	}
	if c.ReceiptPoll <= 0 {
		errs = append(errs, "RECEIPT_POLL_SECONDS must be positive")
	}
	if c.DBEnabled && c.DBUser == "" {
		errs = append(errs, "DB_USER is required when DB_ENABLED is set")
	}
	if c.APIKey == "" {
		fmt.Println("[WARN] API_KEY not set, REST API has no authentication")
	}
	if c.PrivateKey == "" {
		fmt.Println("[WARN] PRIVATE_KEY not set, transactions are signed by the node's unlocked accounts")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== Contract Gateway Configuration ===")
	fmt.Printf("RPC: %s (chain %d)\n", c.RPCURL, c.ChainID)
	fmt.Printf("Contracts dir: %s\n", c.ContractsDir)
	fmt.Printf("Signing: %s\n", boolLabel(c.PrivateKey != "", "local key", "node accounts"))
	fmt.Printf("Deploy gas: %d, receipt poll: %s\n", c.DeployGasLimit, c.ReceiptPoll)
	fmt.Println("--------------------------------------")
	fmt.Printf("API port: %d, request timeout: %s\n", c.APIPort, c.RequestTimeout)
	fmt.Printf("Webhook: %s\n", boolLabel(c.WebhookURL != "", "enabled", "disabled"))
	fmt.Printf("Ledger: %s\n", boolLabel(c.DBEnabled, fmt.Sprintf("%s:%d/%s", c.DBHost, c.DBPort, c.DBName), "disabled"))
	fmt.Println("======================================")
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
