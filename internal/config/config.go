package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Storage StorageConfig
	Goals   GoalsConfig
	Price   PriceConfig
	Ledger  LedgerConfig
	Trace   TraceConfig
}

type ServerConfig struct {
	Port int
	// APIToken, when set, is required as a bearer token on /agents routes.
	APIToken string
}

type LogConfig struct {
	Level string
}

type StorageConfig struct {
	DataDir string
}

type GoalsConfig struct {
	Backend string // "sqlite" or "memory"
}

type PriceConfig struct {
	BaseURL       string
	CacheTTL      time.Duration
	RatePerSecond float64
}

type LedgerConfig struct {
	RPCURL          string
	ContractAddress string
	PrivateKey      string
	ConfirmTimeout  time.Duration
}

type TraceConfig struct {
	APIKey    string
	Project   string
	Workspace string
	BaseURL   string
}

const (
	GoalsBackendSQLite = "sqlite"
	GoalsBackendMemory = "memory"
)

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4100,
		},
		Log: LogConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Goals: GoalsConfig{
			Backend: GoalsBackendSQLite,
		},
		Price: PriceConfig{
			BaseURL:       "https://api.coingecko.com/api/v3",
			CacheTTL:      30 * time.Second,
			RatePerSecond: 5,
		},
		Ledger: LedgerConfig{
			RPCURL:         "https://api.avax-test.network/ext/bc/C/rpc",
			ConfirmTimeout: 2 * time.Minute,
		},
		Trace: TraceConfig{
			Project: "commit-coach",
			BaseURL: "https://www.comet.com/opik/api",
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/coach/config.json, then a .env file in the working
// directory, then environment variables.
//
// Environment variables (COACH_*) override file values. Secrets are never
// read from the file backend; they come from the environment or .env only.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Goals.Backend {
	case GoalsBackendSQLite, GoalsBackendMemory:
	default:
		return fmt.Errorf("invalid goals.backend %q: want %q or %q", c.Goals.Backend, GoalsBackendSQLite, GoalsBackendMemory)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Price.CacheTTL < 0 {
		return fmt.Errorf("invalid price.cache_ttl %s: must not be negative", c.Price.CacheTTL)
	}
	if c.Ledger.ConfirmTimeout <= 0 {
		return fmt.Errorf("invalid ledger.confirm_timeout %s: must be positive", c.Ledger.ConfirmTimeout)
	}
	return nil
}
