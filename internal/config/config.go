package config

import (
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

const (
	DefaultPort             = "8080"
	DefaultDataPath         = "data/db.json"
	DefaultLichessBaseURL   = "https://lichess.org/api"
	DefaultFeedTimeout      = 10 * time.Second
	DefaultMaxGames         = 200
	DefaultMinSyncInterval  = 30 * time.Second
	DefaultLookback         = 30 * 24 * time.Hour
	DefaultSyncInterval     = 60 * time.Second
	DefaultFetchConcurrency = 4
)

// Load reads configuration from environment variables and .env file.
// Every setting has a default; unparsable values fall back to it with a warning.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from a lookup function such as os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) Config {
	getEnv := func(key, fallback string) string {
		if value, ok := lookup(key); ok && value != "" {
			return value
		}
		return fallback
	}
	getDuration := func(key string, fallback time.Duration) time.Duration {
		raw, ok := lookup(key)
		if !ok || raw == "" {
			return fallback
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			log.Warn("Invalid duration in environment, using default", "key", key, "value", raw, "default", fallback)
			return fallback
		}
		return d
	}
	getInt := func(key string, fallback int) int {
		raw, ok := lookup(key)
		if !ok || raw == "" {
			return fallback
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			log.Warn("Invalid integer in environment, using default", "key", key, "value", raw, "default", fallback)
			return fallback
		}
		return n
	}

	return Config{
		Port:     getEnv("PORT", DefaultPort),
		DataPath: getEnv("DATA_PATH", DefaultDataPath),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Lichess: LichessConfig{
			BaseURL:  getEnv("LICHESS_BASE_URL", DefaultLichessBaseURL),
			Timeout:  getDuration("FEED_TIMEOUT", DefaultFeedTimeout),
			MaxGames: getInt("LICHESS_MAX_GAMES", DefaultMaxGames),
		},
		Sync: SyncConfig{
			MinInterval:      getDuration("SYNC_MIN_INTERVAL", DefaultMinSyncInterval),
			DefaultLookback:  getDuration("SYNC_DEFAULT_LOOKBACK", DefaultLookback),
			Interval:         getDuration("SYNC_INTERVAL", DefaultSyncInterval),
			FetchConcurrency: getInt("SYNC_FETCH_CONCURRENCY", DefaultFetchConcurrency),
		},
		Slack: SlackConfig{
			Token:     getEnv("SLACK_BOT_TOKEN", ""),
			ChannelID: getEnv("SLACK_CHANNEL_ID", ""),
		},
		ProjectID: getEnv("GCP_PROJECT", ""),
	}
}
