// Package chat is the append-only message log kept in the shared document.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/chess-duels/internal/store"
)

const (
	MaxTextLength = 280
	// KeepMessages bounds the persisted log.
	KeepMessages = 200
	// ListLimit is how many of the most recent messages readers get.
	ListLimit = 100
)

var (
	ErrEmptyMessage   = errors.New("empty message")
	ErrMessageTooLong = errors.New("message too long (max 280)")
	ErrUnknownUser    = errors.New("user not found")
)

type Service struct {
	store store.DocumentStore
	now   func() time.Time
}

func New(st store.DocumentStore) *Service {
	return &Service{store: st, now: time.Now}
}

// List returns the most recent messages, oldest first.
func (s *Service) List(ctx context.Context) ([]store.ChatMessage, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return tail(doc.Chat.Messages, ListLimit), nil
}

// Post appends a message from a registered user and returns the stored
// message together with the updated recent list.
func (s *Service) Post(ctx context.Context, username, text string) (store.ChatMessage, []store.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return store.ChatMessage{}, nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return store.ChatMessage{}, nil, ErrMessageTooLong
	}

	var msg store.ChatMessage
	doc, err := s.store.Mutate(ctx, func(doc *store.Document) error {
		i, ok := doc.FindUser(username)
		if !ok {
			return ErrUnknownUser
		}
		msg = store.ChatMessage{
			ID:        uuid.NewString(),
			UserID:    doc.Users[i].ID,
			Username:  doc.Users[i].Username,
			Text:      text,
			CreatedAt: s.now().UTC(),
		}
		doc.Chat.Messages = tail(append(doc.Chat.Messages, msg), KeepMessages)
		return nil
	})
	if err != nil {
		return store.ChatMessage{}, nil, err
	}
	log.Debug("Chat message posted", "username", msg.Username, "id", msg.ID)
	return msg, tail(doc.Chat.Messages, ListLimit), nil
}

func tail(msgs []store.ChatMessage, n int) []store.ChatMessage {
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]store.ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}
