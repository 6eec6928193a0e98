package store

import (
	"time"

	"github.com/mauv0809/chess-duels/internal/ledger"
)

// LichessLink is a user's linked external account.
type LichessLink struct {
	Username string    `json:"username"`
	LinkedAt time.Time `json:"linkedAt"`
}

// User is a registered user.
type User struct {
	ID        string       `json:"id"`
	Username  string       `json:"username"`
	CreatedAt time.Time    `json:"createdAt"`
	Lichess   *LichessLink `json:"lichess"`
}

// LichessUsername returns the linked handle or an empty string.
func (u User) LichessUsername() string {
	if u.Lichess == nil {
		return ""
	}
	return u.Lichess.Username
}

// ChatMessage is one entry of the chat log.
type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Chat is the append-only chat log.
type Chat struct {
	Messages []ChatMessage `json:"messages"`
}

// Document is the whole persisted state.
type Document struct {
	Users []User         `json:"users"`
	Duels *ledger.Ledger `json:"duels"`
	Chat  Chat           `json:"chat"`
}

// TransformFunc mutates a document in place. Returning an error aborts the write.
type TransformFunc func(doc *Document) error
