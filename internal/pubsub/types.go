package pubsub

import (
	"time"

	"cloud.google.com/go/pubsub"
)

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub.
// It doubles as the topic name.
type EventType string

const (
	// EventDuelsUpdated is published after a sync pass folds at least one game.
	EventDuelsUpdated EventType = "duels-updated"
	// EventSyncRequested carries a SyncRequest to the /pubsub/sync push endpoint.
	EventSyncRequested EventType = "sync-requested"
)

// DuelsUpdated is the payload of EventDuelsUpdated.
type DuelsUpdated struct {
	Folded     int       `msgpack:"folded"`
	Accounts   int       `msgpack:"accounts"`
	Failed     []string  `msgpack:"failed"`
	FinishedAt time.Time `msgpack:"finished_at"`
}

// SyncRequest is the payload of EventSyncRequested.
type SyncRequest struct {
	Force bool `msgpack:"force"`
}
