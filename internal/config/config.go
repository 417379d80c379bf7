// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type Config struct {
	Network                string   `mapstructure:"network"`
	RPCURL                 string   `mapstructure:"rpc_url"`
	WebSocketURL           string   `mapstructure:"websocket_url"`
	Commitment             string   `mapstructure:"commitment"`
	ChunkSize              int      `mapstructure:"chunk_size"`
	RPCRateLimit           float64  `mapstructure:"rpc_rate_limit"`
	RPCBurst               int      `mapstructure:"rpc_burst"`
	SwapProgramID          string   `mapstructure:"swap_program_id"`
	LegacyProgramIDs       []string `mapstructure:"legacy_program_ids"`
	ProgramOwnerFeeAccount string   `mapstructure:"program_owner_fee_account"`
	HostFeeOwner           string   `mapstructure:"host_fee_owner"`
	Slippage               float64  `mapstructure:"slippage"`
	Priority               string   `mapstructure:"priority"`
	PriorityFee            uint64   `mapstructure:"priority_fee"`
	ComputeUnits           uint32   `mapstructure:"compute_units"`
	DebugLogging           bool     `mapstructure:"debug_logging"`
	LogFile                string   `mapstructure:"log_file"`
	Retries                int      `mapstructure:"retries"`
	Keypair                string   `mapstructure:"keypair"`
}

const (
	DefaultNetwork    = "mainnet-beta"
	DefaultCommitment = "confirmed"
	DefaultChunkSize  = 99
	DefaultRPCBurst   = 1
	DefaultSlippage   = 0.25
	DefaultRetries    = 3
	DefaultLogFile    = "tokenswap.log"

	// EnvPrefix prefixes every environment override (TOKENSWAP_RPC_URL, ...).
	EnvPrefix = "TOKENSWAP"
)

var defaultRPC = map[string]string{
	"mainnet-beta": "https://api.mainnet-beta.solana.com",
	"testnet":      "https://api.testnet.solana.com",
	"devnet":       "https://api.devnet.solana.com",
	"localnet":     "http://127.0.0.1:8899",
}

var validCommitments = map[string]bool{
	"processed": true,
	"confirmed": true,
	"finalized": true,
}

// LoadConfig reads path when it is non-empty, then applies TOKENSWAP_*
// environment overrides. A missing file is an error only when path is set.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	defaults := map[string]interface{}{
		"network":        DefaultNetwork,
		"commitment":     DefaultCommitment,
		"chunk_size":     DefaultChunkSize,
		"rpc_rate_limit": 0,
		"rpc_burst":      DefaultRPCBurst,
		"slippage":       DefaultSlippage,
		"priority":       "none",
		"retries":        DefaultRetries,
		"log_file":       DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about.
	for _, key := range []string{
		"rpc_url", "websocket_url", "swap_program_id", "legacy_program_ids",
		"program_owner_fee_account", "host_fee_owner", "priority_fee",
		"compute_units", "debug_logging", "keypair",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.LegacyProgramIDs = splitList(cfg.LegacyProgramIDs)
	return Normalize(&cfg)
}

// Normalize fills endpoint defaults for the network and validates cfg. It is
// applied again by callers that override fields after loading; the config is
// returned even when invalid.
func Normalize(cfg *Config) (*Config, error) {
	cfg.Network = strings.ToLower(strings.TrimSpace(cfg.Network))
	if cfg.RPCURL == "" {
		cfg.RPCURL = defaultRPC[cfg.Network]
	}
	if cfg.WebSocketURL == "" && cfg.RPCURL != "" {
		cfg.WebSocketURL = websocketFor(cfg.RPCURL)
	}
	return cfg, validateConfig(cfg)
}

func validateConfig(cfg *Config) error {
	if _, ok := defaultRPC[cfg.Network]; !ok {
		return fmt.Errorf("unknown network %q", cfg.Network)
	}
	if cfg.RPCURL == "" {
		return errors.New("rpc_url is empty")
	}
	if err := validateURLWithCache(cfg.RPCURL, "http"); err != nil {
		return errors.New("invalid RPC URL protocol")
	}
	if cfg.WebSocketURL != "" {
		if err := validateURLWithCache(cfg.WebSocketURL, "ws"); err != nil {
			return errors.New("invalid WebSocket URL protocol")
		}
	}
	if !validCommitments[cfg.Commitment] {
		return fmt.Errorf("invalid commitment %q", cfg.Commitment)
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.ChunkSize <= 0 || cfg.ChunkSize > 100 {
		return errors.New("invalid chunk_size")
	}
	if cfg.RPCRateLimit < 0 {
		return errors.New("invalid rpc_rate_limit")
	}
	if cfg.RPCBurst <= 0 {
		return errors.New("invalid rpc_burst")
	}
	if cfg.Slippage < 0 || cfg.Slippage >= 1 {
		return errors.New("invalid slippage")
	}
	if cfg.Retries < 0 {
		return errors.New("invalid retries count")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

// websocketFor derives the pubsub endpoint of an RPC URL. Local validators
// listen one port above the RPC port.
func websocketFor(rpcURL string) string {
	parsed, err := url.Parse(rpcURL)
	if err != nil {
		return ""
	}
	switch parsed.Scheme {
	case "https":
		parsed.Scheme = "wss"
	default:
		parsed.Scheme = "ws"
	}
	if parsed.Port() == "8899" {
		parsed.Host = parsed.Hostname() + ":8900"
	}
	return parsed.String()
}

// splitList accepts both YAML lists and a comma-separated env value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if clean := strings.TrimSpace(part); clean != "" {
				out = append(out, clean)
			}
		}
	}
	return out
}
