package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load starts from the built-in defaults, decodes the TOML file at path on top
// of them (skipped when path is empty), applies WHALEBOT_* environment
// variable overrides, and returns the final Config. The returned Config has
// NOT been validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known environment variables and overwrites the
// corresponding Config fields when a variable is set (i.e. not empty). The
// bare TELEGRAM_* names are read first so that the WHALEBOT_* forms win when
// both are present.
func applyEnvOverrides(cfg *Config) {
	// ── Binance ──
	setStr(&cfg.Binance.RestBaseURL, "WHALEBOT_BINANCE_REST_BASE_URL")
	setStr(&cfg.Binance.StreamBaseURL, "WHALEBOT_BINANCE_STREAM_BASE_URL")
	setStr(&cfg.Binance.ContractType, "WHALEBOT_BINANCE_CONTRACT_TYPE")
	setStr(&cfg.Binance.QuoteAsset, "WHALEBOT_BINANCE_QUOTE_ASSET")
	setInt(&cfg.Binance.MaxStreamsPerConnection, "WHALEBOT_BINANCE_MAX_STREAMS_PER_CONNECTION")

	// ── Monitor ──
	setInt(&cfg.Monitor.BatchSize, "WHALEBOT_MONITOR_BATCH_SIZE")
	setFloat64(&cfg.Monitor.MinNotional, "WHALEBOT_MONITOR_MIN_NOTIONAL")
	setDuration(&cfg.Monitor.ReconnectDelay, "WHALEBOT_MONITOR_RECONNECT_DELAY")
	setStr(&cfg.Monitor.Backoff, "WHALEBOT_MONITOR_BACKOFF")
	setDuration(&cfg.Monitor.MaxReconnectDelay, "WHALEBOT_MONITOR_MAX_RECONNECT_DELAY")
	setFloat64(&cfg.Monitor.BackoffJitter, "WHALEBOT_MONITOR_BACKOFF_JITTER")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "TELEGRAM_BOT_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "TELEGRAM_CHANNEL_ID")
	setStr(&cfg.Notify.TelegramToken, "WHALEBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "WHALEBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.TelegramAPIURL, "WHALEBOT_NOTIFY_TELEGRAM_API_URL")
	setStr(&cfg.Notify.DiscordWebhookURL, "WHALEBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setInt(&cfg.Notify.QueueSize, "WHALEBOT_NOTIFY_QUEUE_SIZE")
	setInt(&cfg.Notify.Workers, "WHALEBOT_NOTIFY_WORKERS")
	setDuration(&cfg.Notify.SendTimeout, "WHALEBOT_NOTIFY_SEND_TIMEOUT")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "WHALEBOT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "WHALEBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "WHALEBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "WHALEBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "WHALEBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "WHALEBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "WHALEBOT_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.AlertChannel, "WHALEBOT_REDIS_ALERT_CHANNEL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "WHALEBOT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "WHALEBOT_SERVER_PORT")
	if v := os.Getenv("WHALEBOT_SERVER_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitCSV(v)
	}

	// ── Top-level ──
	setStr(&cfg.LogLevel, "WHALEBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

// splitCSV splits a comma-separated list, dropping empty entries.
func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
