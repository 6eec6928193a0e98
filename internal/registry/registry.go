// Package registry manages registered users and their linked Lichess accounts.
package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/chess-duels/internal/lichess"
	"github.com/mauv0809/chess-duels/internal/store"
)

// Service implements registration and account linking on top of the document store.
type Service struct {
	store   store.DocumentStore
	lichess lichess.LichessClient
	now     func() time.Time
}

// New creates a registry. client is only used by LinkWithToken and may be nil.
func New(st store.DocumentStore, client lichess.LichessClient) *Service {
	return &Service{store: st, lichess: client, now: time.Now}
}

// Register adds a new user. Usernames are unique case-insensitively.
func (s *Service) Register(ctx context.Context, username string) (store.User, error) {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return store.User{}, ErrInvalidUsername
	}

	var created store.User
	_, err := s.store.Mutate(ctx, func(doc *store.Document) error {
		if _, ok := doc.FindUser(username); ok {
			return ErrUsernameTaken
		}
		created = store.User{
			ID:        uuid.NewString(),
			Username:  username,
			CreatedAt: s.now().UTC(),
		}
		doc.Users = append(doc.Users, created)
		return nil
	})
	if err != nil {
		return store.User{}, err
	}
	log.Info("Registered user", "username", created.Username, "id", created.ID)
	return created, nil
}

// List returns every registered user in registration order.
func (s *Service) List(ctx context.Context) ([]store.User, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Users, nil
}

// Get looks a user up by username.
func (s *Service) Get(ctx context.Context, username string) (store.User, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return store.User{}, err
	}
	i, ok := doc.FindUser(username)
	if !ok {
		return store.User{}, ErrUserNotFound
	}
	return doc.Users[i], nil
}

// Link attaches a Lichess handle to username. A handle belongs to at most one
// user; relinking the same handle to the same user keeps the original link time.
func (s *Service) Link(ctx context.Context, username, handle string) (store.User, error) {
	handle = strings.TrimSpace(handle)
	if !handlePattern.MatchString(handle) {
		return store.User{}, ErrInvalidHandle
	}

	var updated store.User
	_, err := s.store.Mutate(ctx, func(doc *store.Document) error {
		i, ok := doc.FindUser(username)
		if !ok {
			return ErrUserNotFound
		}
		for j, u := range doc.Users {
			if j != i && strings.EqualFold(u.LichessUsername(), handle) {
				return ErrLichessLinked
			}
		}
		me := &doc.Users[i]
		if me.Lichess == nil || !strings.EqualFold(me.Lichess.Username, handle) {
			me.Lichess = &store.LichessLink{Username: handle, LinkedAt: s.now().UTC()}
		}
		updated = *me
		return nil
	})
	if err != nil {
		return store.User{}, err
	}
	log.Info("Linked lichess account", "username", updated.Username, "lichess", handle)
	return updated, nil
}

// LinkWithToken resolves a personal API token to its Lichess account and links it.
func (s *Service) LinkWithToken(ctx context.Context, username, token string) (store.User, error) {
	if s.lichess == nil {
		return store.User{}, fmt.Errorf("token linking unavailable: %w", lichess.ErrUnexpectedResponse)
	}
	account, err := s.lichess.Account(ctx, token)
	if err != nil {
		return store.User{}, err
	}
	return s.Link(ctx, username, account.Username)
}

// Unlink removes the user's Lichess link. Duel history already folded is kept.
func (s *Service) Unlink(ctx context.Context, username string) (store.User, error) {
	var updated store.User
	_, err := s.store.Mutate(ctx, func(doc *store.Document) error {
		i, ok := doc.FindUser(username)
		if !ok {
			return ErrUserNotFound
		}
		doc.Users[i].Lichess = nil
		updated = doc.Users[i]
		return nil
	})
	if err != nil {
		return store.User{}, err
	}
	log.Info("Unlinked lichess account", "username", updated.Username)
	return updated, nil
}
