package http

import (
	"net/http"
	"time"

	"github.com/mauv0809/chess-duels/internal/chat"
	"github.com/mauv0809/chess-duels/internal/config"
	"github.com/mauv0809/chess-duels/internal/duels"
	"github.com/mauv0809/chess-duels/internal/metrics"
	"github.com/mauv0809/chess-duels/internal/notifier"
	"github.com/mauv0809/chess-duels/internal/pubsub"
	"github.com/mauv0809/chess-duels/internal/registry"
)

func NewServer(reg *registry.Service, chatSvc *chat.Service, syncer *duels.Syncer, notifier notifier.Notifier, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Registry:       reg,
		Chat:           chatSvc,
		Syncer:         syncer,
		Notifier:       notifier,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Router:         http.NewServeMux(),
		pubsub:         pubsub,
		now:            time.Now,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// e.g. Chain(s.MyHandler(), paramsMiddleware, authMiddleware)
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("GET /health", Chain(s.HealthCheckHandler(), paramsMiddleware))

	s.Router.Handle("GET /api/users", Chain(s.ListUsersHandler(), paramsMiddleware))
	s.Router.Handle("POST /api/users", Chain(s.RegisterUserHandler(), paramsMiddleware))
	s.Router.Handle("POST /api/users/{username}/lichess", Chain(s.LinkLichessHandler(), paramsMiddleware))
	s.Router.Handle("DELETE /api/users/{username}/lichess", Chain(s.UnlinkLichessHandler(), paramsMiddleware))

	s.Router.Handle("GET /api/duels", Chain(s.DuelsMatrixHandler(), paramsMiddleware))
	s.Router.Handle("POST /api/duels/sync", Chain(s.SyncDuelsHandler(), paramsMiddleware))
	s.Router.Handle("POST /api/duels/announce", Chain(s.AnnounceStandingsHandler(), paramsMiddleware))

	s.Router.Handle("GET /api/chat", Chain(s.ListChatHandler(), paramsMiddleware))
	s.Router.Handle("POST /api/chat", Chain(s.PostChatHandler(), paramsMiddleware))

	s.Router.Handle("POST /pubsub/sync", Chain(s.PubSubSyncHandler(), paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
