package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kFloat
	kDuration
)

type keySpec struct {
	key    string
	typ    keyType
	env    string
	secret bool
	// aliases are unprefixed env vars consulted when env is unset.
	aliases []string
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "COACH_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.api_token", typ: kString, env: "COACH_API_TOKEN", secret: true,
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "log.level", typ: kString, env: "COACH_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "storage.data_dir", typ: kString, env: "COACH_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "goals.backend", typ: kString, env: "COACH_GOALS_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Goals.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Goals.Backend },
	},
	{
		key: "price.base_url", typ: kString, env: "COACH_PRICE_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Price.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Price.BaseURL },
	},
	{
		key: "price.cache_ttl", typ: kDuration, env: "COACH_PRICE_CACHE_TTL",
		apply:   func(cfg *Config, v any) { cfg.Price.CacheTTL = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Price.CacheTTL },
	},
	{
		key: "price.rate_per_second", typ: kFloat, env: "COACH_PRICE_RATE_PER_SECOND",
		apply:   func(cfg *Config, v any) { cfg.Price.RatePerSecond = v.(float64) },
		extract: func(cfg Config) any { return cfg.Price.RatePerSecond },
	},
	{
		key: "ledger.rpc_url", typ: kString, env: "COACH_LEDGER_RPC_URL", aliases: []string{"RPC_URL"},
		apply:   func(cfg *Config, v any) { cfg.Ledger.RPCURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Ledger.RPCURL },
	},
	{
		key: "ledger.contract_address", typ: kString, env: "COACH_LEDGER_CONTRACT_ADDRESS", aliases: []string{"CONTRACT_ADDRESS"},
		apply:   func(cfg *Config, v any) { cfg.Ledger.ContractAddress = v.(string) },
		extract: func(cfg Config) any { return cfg.Ledger.ContractAddress },
	},
	{
		key: "ledger.private_key", typ: kString, env: "COACH_LEDGER_PRIVATE_KEY", secret: true, aliases: []string{"PRIVATE_KEY"},
		apply:   func(cfg *Config, v any) { cfg.Ledger.PrivateKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Ledger.PrivateKey },
	},
	{
		key: "ledger.confirm_timeout", typ: kDuration, env: "COACH_LEDGER_CONFIRM_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Ledger.ConfirmTimeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Ledger.ConfirmTimeout },
	},
	{
		key: "trace.api_key", typ: kString, env: "COACH_TRACE_API_KEY", secret: true, aliases: []string{"OPIK_API_KEY"},
		apply:   func(cfg *Config, v any) { cfg.Trace.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Trace.APIKey },
	},
	{
		key: "trace.project", typ: kString, env: "COACH_TRACE_PROJECT", aliases: []string{"OPIK_PROJECT_ID"},
		apply:   func(cfg *Config, v any) { cfg.Trace.Project = v.(string) },
		extract: func(cfg Config) any { return cfg.Trace.Project },
	},
	{
		key: "trace.workspace", typ: kString, env: "COACH_TRACE_WORKSPACE", aliases: []string{"OPIK_WORKSPACE"},
		apply:   func(cfg *Config, v any) { cfg.Trace.Workspace = v.(string) },
		extract: func(cfg Config) any { return cfg.Trace.Workspace },
	},
	{
		key: "trace.base_url", typ: kString, env: "COACH_TRACE_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Trace.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Trace.BaseURL },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		if s.typ == kInt {
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
			continue
		}
		v, ok, err := b.GetString(s.key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if !ok || v == "" {
			continue
		}
		parsed, err := parseValue(s.typ, v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not parse config key %s=%q: %v. Using default value.\n", s.key, v, err)
			continue
		}
		s.apply(cfg, parsed)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		name, raw := s.lookupEnv()
		if raw == "" {
			continue
		}
		v, err := parseValue(s.typ, raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not parse env var %s=%q: %v. Using default value.\n", name, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
}

func (s keySpec) lookupEnv() (name, value string) {
	if s.env != "" {
		if v := os.Getenv(s.env); v != "" {
			return s.env, v
		}
	}
	for _, a := range s.aliases {
		if v := os.Getenv(a); v != "" {
			return a, v
		}
	}
	return "", ""
}

func parseValue(typ keyType, raw string) (any, error) {
	switch typ {
	case kInt:
		return strconv.Atoi(raw)
	case kBool:
		return strconv.ParseBool(raw)
	case kFloat:
		return strconv.ParseFloat(raw, 64)
	case kDuration:
		return time.ParseDuration(raw)
	default:
		return raw, nil
	}
}
