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
	"github.com/mauv0809/chess-duels/internal/store"
)

type Server struct {
	Registry       *registry.Service
	Chat           *chat.Service
	Syncer         *duels.Syncer
	Notifier       notifier.Notifier
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Router         *http.ServeMux
	pubsub         pubsub.PubSubClient
	now            func() time.Time
}

// publicUser is the API shape of a registered user.
type publicUser struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	LichessUsername *string    `json:"lichessUsername"`
	LinkedAt        *time.Time `json:"linkedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func toPublicUser(u store.User) publicUser {
	out := publicUser{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
	if u.Lichess != nil {
		handle := u.Lichess.Username
		linkedAt := u.Lichess.LinkedAt
		out.LichessUsername = &handle
		out.LinkedAt = &linkedAt
	}
	return out
}

type registerRequest struct {
	Username string `json:"username"`
}

// linkRequest carries either a handle to link directly or a personal API
// token that is resolved to the account's handle.
type linkRequest struct {
	LichessUsername string `json:"lichessUsername"`
	Token           string `json:"token"`
}

type chatRequest struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

// pushRequest is the body Pub/Sub push subscriptions deliver.
type pushRequest struct {
	Subscription string `json:"subscription"`
	Message      struct {
		Data      string `json:"data"` // base64-encoded message payload
		MessageID string `json:"messageId"`
	} `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}
