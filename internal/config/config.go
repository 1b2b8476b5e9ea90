// Package config defines the top-level configuration for whalebot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StreamHardLimit is the number of streams the futures websocket accepts on a
// single combined connection.
const StreamHardLimit = 200

// Config is the root configuration structure. Fields are populated from an
// optional TOML file and then overridden by WHALEBOT_* environment variables.
type Config struct {
	Binance  BinanceConfig `toml:"binance"`
	Monitor  MonitorConfig `toml:"monitor"`
	Notify   NotifyConfig  `toml:"notify"`
	Redis    RedisConfig   `toml:"redis"`
	Server   ServerConfig  `toml:"server"`
	LogLevel string        `toml:"log_level"`
}

// BinanceConfig holds the futures endpoints and the discovery filter.
type BinanceConfig struct {
	RestBaseURL   string `toml:"rest_base_url"`
	StreamBaseURL string `toml:"stream_base_url"`
	ContractType  string `toml:"contract_type"`
	QuoteAsset    string `toml:"quote_asset"`
	// MaxStreamsPerConnection is the provider's documented cap. BatchSize must
	// stay strictly below it.
	MaxStreamsPerConnection int `toml:"max_streams_per_connection"`
}

// MonitorConfig holds the ingestion and reconnect parameters.
type MonitorConfig struct {
	BatchSize         int      `toml:"batch_size"`
	MinNotional       float64  `toml:"min_notional"`
	ReconnectDelay    duration `toml:"reconnect_delay"`
	Backoff           string   `toml:"backoff"` // "constant" or "exponential"
	MaxReconnectDelay duration `toml:"max_reconnect_delay"`
	BackoffJitter     float64  `toml:"backoff_jitter"`
}

// Threshold returns MinNotional as a decimal for exact comparisons.
func (m MonitorConfig) Threshold() decimal.Decimal {
	return decimal.NewFromFloat(m.MinNotional)
}

// duration wraps time.Duration so that it can be decoded from a TOML string
// such as "3s" or "1m30s".
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// NotifyConfig holds notification channel credentials and delivery tuning.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	TelegramAPIURL    string   `toml:"telegram_api_url"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	QueueSize         int      `toml:"queue_size"`
	Workers           int      `toml:"workers"`
	SendTimeout       duration `toml:"send_timeout"`
}

// RedisConfig holds the optional Redis pub/sub alert sink.
type RedisConfig struct {
	Enabled      bool   `toml:"enabled"`
	Addr         string `toml:"addr"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	PoolSize     int    `toml:"pool_size"`
	MaxRetries   int    `toml:"max_retries"`
	TLSEnabled   bool   `toml:"tls_enabled"`
	AlertChannel string `toml:"alert_channel"`
}

// ServerConfig holds the observability HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// Defaults returns a Config populated with the production endpoints, a
// 500k notional threshold, and a constant 3s reconnect delay.
func Defaults() Config {
	return Config{
		Binance: BinanceConfig{
			RestBaseURL:             "https://fapi.binance.com",
			StreamBaseURL:           "wss://fstream.binance.com/stream?streams=",
			ContractType:            "PERPETUAL",
			QuoteAsset:              "USDT",
			MaxStreamsPerConnection: StreamHardLimit,
		},
		Monitor: MonitorConfig{
			BatchSize:         100,
			MinNotional:       500_000,
			ReconnectDelay:    duration{3 * time.Second},
			Backoff:           "constant",
			MaxReconnectDelay: duration{time.Minute},
			BackoffJitter:     0,
		},
		Notify: NotifyConfig{
			TelegramAPIURL: "https://api.telegram.org",
			QueueSize:      1024,
			Workers:        4,
			SendTimeout:    duration{10 * time.Second},
		},
		Redis: RedisConfig{
			Enabled:      false,
			Addr:         "localhost:6379",
			PoolSize:     10,
			MaxRetries:   3,
			AlertChannel: "whalebot:alerts",
		},
		Server: ServerConfig{
			Enabled: false,
			Port:    8000,
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validBackoffs enumerates the accepted values for MonitorConfig.Backoff.
var validBackoffs = map[string]bool{
	"constant":    true,
	"exponential": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Binance
	if c.Binance.RestBaseURL == "" {
		errs = append(errs, "binance: rest_base_url must not be empty")
	}
	if c.Binance.StreamBaseURL == "" {
		errs = append(errs, "binance: stream_base_url must not be empty")
	}
	if c.Binance.QuoteAsset == "" {
		errs = append(errs, "binance: quote_asset must not be empty")
	}
	if c.Binance.MaxStreamsPerConnection <= 0 {
		errs = append(errs, "binance: max_streams_per_connection must be positive")
	}

	// Monitor
	if c.Monitor.BatchSize <= 0 {
		errs = append(errs, "monitor: batch_size must be positive")
	} else if c.Monitor.BatchSize >= c.Binance.MaxStreamsPerConnection {
		errs = append(errs, fmt.Sprintf("monitor: batch_size %d must be below the provider limit of %d streams",
			c.Monitor.BatchSize, c.Binance.MaxStreamsPerConnection))
	}
	if c.Monitor.MinNotional < 0 {
		errs = append(errs, "monitor: min_notional must not be negative")
	}
	if c.Monitor.ReconnectDelay.Duration <= 0 {
		errs = append(errs, "monitor: reconnect_delay must be positive")
	}
	if !validBackoffs[strings.ToLower(c.Monitor.Backoff)] {
		errs = append(errs, fmt.Sprintf("monitor: unknown backoff %q (valid: constant, exponential)", c.Monitor.Backoff))
	}
	if strings.EqualFold(c.Monitor.Backoff, "exponential") &&
		c.Monitor.MaxReconnectDelay.Duration < c.Monitor.ReconnectDelay.Duration {
		errs = append(errs, "monitor: max_reconnect_delay must not be below reconnect_delay")
	}
	if c.Monitor.BackoffJitter < 0 || c.Monitor.BackoffJitter > 1 {
		errs = append(errs, "monitor: backoff_jitter must be within [0, 1]")
	}

	// Notify: token and chat ID travel together.
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}
	if c.Notify.QueueSize <= 0 {
		errs = append(errs, "notify: queue_size must be positive")
	}
	if c.Notify.Workers <= 0 {
		errs = append(errs, "notify: workers must be positive")
	}
	if c.Notify.SendTimeout.Duration <= 0 {
		errs = append(errs, "notify: send_timeout must be positive")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.AlertChannel == "" {
			errs = append(errs, "redis: alert_channel must not be empty when enabled")
		}
	}

	// Server
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
