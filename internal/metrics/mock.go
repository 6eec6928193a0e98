package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                 sync.Mutex
	syncPasses         int
	syncThrottled      int
	feedFetches        int
	feedFailures       int
	gamesFolded        int
	gamesDiscarded     int
	syncDurations      []float64
	storeWriteFailures int
	slackNotifSent     int
	slackNotifFailed   int
	startupTime        float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		syncDurations: make([]float64, 0),
	}
}

func (m *Mock) IncSyncPasses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncPasses++
}

func (m *Mock) IncSyncThrottled() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncThrottled++
}

func (m *Mock) IncFeedFetches() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedFetches++
}

func (m *Mock) IncFeedFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedFailures++
}

func (m *Mock) AddGamesFolded(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gamesFolded += n
}

func (m *Mock) AddGamesDiscarded(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gamesDiscarded += n
}

func (m *Mock) ObserveSyncDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncDurations = append(m.syncDurations, duration)
}

func (m *Mock) IncStoreWriteFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storeWriteFailures++
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// SyncPasses returns the number of times IncSyncPasses was called.
func (m *Mock) SyncPasses() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncPasses
}

// SyncThrottled returns the number of times IncSyncThrottled was called.
func (m *Mock) SyncThrottled() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncThrottled
}

// FeedFetches returns the number of times IncFeedFetches was called.
func (m *Mock) FeedFetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.feedFetches
}

// FeedFailures returns the number of times IncFeedFailures was called.
func (m *Mock) FeedFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.feedFailures
}

// GamesFolded returns the accumulated AddGamesFolded total.
func (m *Mock) GamesFolded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gamesFolded
}

// GamesDiscarded returns the accumulated AddGamesDiscarded total.
func (m *Mock) GamesDiscarded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gamesDiscarded
}

// SyncDurations returns a copy of every observed pass duration.
func (m *Mock) SyncDurations() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float64, len(m.syncDurations))
	copy(out, m.syncDurations)
	return out
}

// StoreWriteFailures returns the number of times IncStoreWriteFailures was called.
func (m *Mock) StoreWriteFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeWriteFailures
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}
