package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
type Service struct {
	SyncPasses         prometheus.Counter
	SyncThrottled      prometheus.Counter
	FeedFetches        prometheus.Counter
	FeedFailures       prometheus.Counter
	GamesFolded        prometheus.Counter
	GamesDiscarded     prometheus.Counter
	SyncDuration       prometheus.Histogram
	StoreWriteFailures prometheus.Counter
	SlackNotifSent     prometheus.Counter
	SlackNotifFailed   prometheus.Counter
	StartupTimeSeconds prometheus.Gauge
}
