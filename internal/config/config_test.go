package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv(envMap(nil))

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultDataPath, cfg.DataPath)
	assert.Equal(t, DefaultLichessBaseURL, cfg.Lichess.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Lichess.Timeout)
	assert.Equal(t, 200, cfg.Lichess.MaxGames)
	assert.Equal(t, 30*time.Second, cfg.Sync.MinInterval)
	assert.Equal(t, 30*24*time.Hour, cfg.Sync.DefaultLookback)
	assert.Equal(t, 60*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 4, cfg.Sync.FetchConcurrency)
	assert.Empty(t, cfg.Slack.Token)
	assert.Empty(t, cfg.ProjectID)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg := FromEnv(envMap(map[string]string{
		"PORT":                   "9000",
		"DATA_PATH":              "/tmp/duels.json",
		"FEED_TIMEOUT":           "3s",
		"SYNC_MIN_INTERVAL":      "1m",
		"SYNC_INTERVAL":          "0s",
		"SYNC_FETCH_CONCURRENCY": "8",
		"SLACK_BOT_TOKEN":        "xoxb-1",
		"SLACK_CHANNEL_ID":       "C1",
		"GCP_PROJECT":            "proj",
	}))

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "/tmp/duels.json", cfg.DataPath)
	assert.Equal(t, 3*time.Second, cfg.Lichess.Timeout)
	assert.Equal(t, time.Minute, cfg.Sync.MinInterval)
	assert.Equal(t, time.Duration(0), cfg.Sync.Interval, "zero disables the scheduler")
	assert.Equal(t, 8, cfg.Sync.FetchConcurrency)
	assert.Equal(t, "xoxb-1", cfg.Slack.Token)
	assert.Equal(t, "C1", cfg.Slack.ChannelID)
	assert.Equal(t, "proj", cfg.ProjectID)
}

func TestFromEnvInvalidValuesFallBack(t *testing.T) {
	cfg := FromEnv(envMap(map[string]string{
		"FEED_TIMEOUT":           "soon",
		"SYNC_FETCH_CONCURRENCY": "-2",
		"LICHESS_MAX_GAMES":      "lots",
	}))

	assert.Equal(t, DefaultFeedTimeout, cfg.Lichess.Timeout)
	assert.Equal(t, DefaultFetchConcurrency, cfg.Sync.FetchConcurrency)
	assert.Equal(t, DefaultMaxGames, cfg.Lichess.MaxGames)
}
