package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		SyncPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chessduels_sync_passes_total",
			Help: "The total number of duels sync passes that ran.",
		}),
		SyncThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chessduels_sync_throttled_total",
			Help: "The total number of sync triggers skipped because the last pass was recent.",
		}),
		FeedFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chessduels_feed_fetches_total",
			Help: "The total number of game feed requests made to Lichess.",
		}),
		FeedFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chessduels_feed_failures_total",
			Help: "The total number of game feed requests that failed.",
		}),
		GamesFolded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chessduels_games_folded_total",
			Help: "The total number of games folded into the duels ledger.",
		}),
		GamesDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chessduels_games_discarded_total",
			Help: "The total number of fetched games that were not folded.",
		}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chessduels_sync_pass_duration_seconds",
			Help:    "The duration of duels sync passes.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		StoreWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chessduels_store_write_failures_total",
			Help: "The total number of sync passes whose result could not be persisted.",
		}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chessduels_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chessduels_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chessduels_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.SyncPasses,
		s.SyncThrottled,
		s.FeedFetches,
		s.FeedFailures,
		s.GamesFolded,
		s.GamesDiscarded,
		s.SyncDuration,
		s.StoreWriteFailures,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncSyncPasses()         { s.SyncPasses.Inc() }
func (s *Service) IncSyncThrottled()      { s.SyncThrottled.Inc() }
func (s *Service) IncFeedFetches()        { s.FeedFetches.Inc() }
func (s *Service) IncFeedFailures()       { s.FeedFailures.Inc() }
func (s *Service) IncStoreWriteFailures() { s.StoreWriteFailures.Inc() }
func (s *Service) IncSlackNotifSent()     { s.SlackNotifSent.Inc() }
func (s *Service) IncSlackNotifFailed()   { s.SlackNotifFailed.Inc() }

func (s *Service) AddGamesFolded(n int) {
	s.GamesFolded.Add(float64(n))
}

func (s *Service) AddGamesDiscarded(n int) {
	s.GamesDiscarded.Add(float64(n))
}

func (s *Service) ObserveSyncDuration(duration float64) {
	s.SyncDuration.Observe(duration)
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
