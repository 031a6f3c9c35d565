package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Ledger Ledger
	Risk   Risk
	Oracle Oracle
	DB     DB
	Redis  Redis
	Server Server
	Alert  Alert
	Trace  Trace
	Log    Log
}

type Ledger struct {
	RPCURL     string
	RESTURL    string
	GatewayURL string
	Denom      string
	Timeout    time.Duration
}

type Risk struct {
	BaseURL   string
	Threshold int
	Timeout   time.Duration
}

type Oracle struct {
	ContractAddr string
	WalletLabel  string
	WalletsFile  string
	NonceTTL     time.Duration
}

type DB struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Redis struct {
	URL string
}

type Server struct {
	Port    int
	OpsPort int
}

type Alert struct {
	SlackWebhookURL string
	WebhookURL      string
	CooldownMin     int
}

type Trace struct {
	Enabled      bool
	OTLPEndpoint string
	SampleRatio  float64
}

type Log struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Ledger: Ledger{
			RPCURL:     getEnv("RPC_URL", "https://rpc.malaga-420.cosmwasm.com:443"),
			RESTURL:    getEnv("REST_URL", "https://api.malaga-420.cosmwasm.com"),
			GatewayURL: getEnv("GATEWAY_URL", ""),
			Denom:      getEnv("LEDGER_DENOM", "umlg"),
			Timeout:    time.Duration(getEnvInt("LEDGER_TIMEOUT_SEC", 15)) * time.Second,
		},
		Risk: Risk{
			BaseURL:   getEnv("RISK_URL", ""),
			Threshold: getEnvInt("RISK_THRESHOLD", 70),
			Timeout:   time.Duration(getEnvInt("RISK_TIMEOUT_SEC", 10)) * time.Second,
		},
		Oracle: Oracle{
			ContractAddr: getEnv("CONTRACT_ADDR", ""),
			WalletLabel:  getEnv("ORACLE_WALLET", "Oracle"),
			WalletsFile:  getEnv("WALLETS_FILE", ""),
			NonceTTL:     time.Duration(getEnvInt("NONCE_TTL_HOURS", 24)) * time.Hour,
		},
		DB: DB{
			URL:             getEnv("DB_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 30)) * time.Minute,
		},
		Redis: Redis{
			URL: getEnv("REDIS_URL", ""),
		},
		Server: Server{
			Port:    getEnvInt("PORT", 3001),
			OpsPort: getEnvInt("OPS_PORT", 9091),
		},
		Alert: Alert{
			SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
			WebhookURL:      getEnv("ALERT_WEBHOOK_URL", ""),
			CooldownMin:     getEnvInt("ALERT_COOLDOWN_MIN", 5),
		},
		Trace: Trace{
			Enabled:      getEnvBool("TRACING_ENABLED", false),
			OTLPEndpoint: getEnv("OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio:  getEnvFloat("TRACE_SAMPLE_RATIO", 1.0),
		},
		Log: Log{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Ledger.RPCURL == "" {
		return fmt.Errorf("RPC_URL is required")
	}
	if c.Ledger.RESTURL == "" {
		return fmt.Errorf("REST_URL is required")
	}
	if c.Risk.Threshold < 0 || c.Risk.Threshold > 100 {
		return fmt.Errorf("RISK_THRESHOLD must be between 0 and 100")
	}
	if c.Server.Port == c.Server.OpsPort {
		return fmt.Errorf("PORT and OPS_PORT must differ")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
