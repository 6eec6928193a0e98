package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncSyncPasses()
	IncSyncThrottled()
	IncFeedFetches()
	IncFeedFailures()
	AddGamesFolded(n int)
	AddGamesDiscarded(n int)
	ObserveSyncDuration(duration float64)
	IncStoreWriteFailures()
	IncSlackNotifSent()
	IncSlackNotifFailed()
	SetStartupTime(duration float64)
}
