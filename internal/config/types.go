package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	Port      string
	DataPath  string
	LogLevel  string
	Lichess   LichessConfig
	Sync      SyncConfig
	Slack     SlackConfig
	ProjectID string
}

type LichessConfig struct {
	BaseURL  string
	Timeout  time.Duration
	MaxGames int
}

type SyncConfig struct {
	// MinInterval is how old the last pass must be before an unforced trigger runs a new one.
	MinInterval     time.Duration
	DefaultLookback time.Duration
	// Interval drives the background scheduler. Zero disables it.
	Interval         time.Duration
	FetchConcurrency int
}

type SlackConfig struct {
	Token     string
	ChannelID string
}
