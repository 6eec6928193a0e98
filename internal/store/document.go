package store

import (
	"strings"

	"github.com/mauv0809/chess-duels/internal/ledger"
)

// NewDocument returns the empty-but-valid document written for a fresh store.
func NewDocument() *Document {
	return &Document{
		Users: []User{},
		Duels: ledger.New(),
		Chat:  Chat{Messages: []ChatMessage{}},
	}
}

func (d *Document) normalize() {
	if d.Users == nil {
		d.Users = []User{}
	}
	if d.Duels == nil {
		d.Duels = ledger.New()
	}
	d.Duels.Normalize()
	if d.Chat.Messages == nil {
		d.Chat.Messages = []ChatMessage{}
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{
		Users: make([]User, len(d.Users)),
		Chat:  Chat{Messages: append([]ChatMessage{}, d.Chat.Messages...)},
	}
	for i, u := range d.Users {
		if u.Lichess != nil {
			link := *u.Lichess
			u.Lichess = &link
		}
		out.Users[i] = u
	}
	if d.Duels != nil {
		out.Duels = d.Duels.Clone()
	} else {
		out.Duels = ledger.New()
	}
	return out
}

// FindUser looks a user up by username, case-insensitively.
func (d *Document) FindUser(username string) (int, bool) {
	for i, u := range d.Users {
		if strings.EqualFold(u.Username, username) {
			return i, true
		}
	}
	return -1, false
}

// LinkedAccounts maps each linked external handle to its username.
func (d *Document) LinkedAccounts() map[string]string {
	links := make(map[string]string)
	for _, u := range d.Users {
		if h := u.LichessUsername(); h != "" {
			links[h] = u.Username
		}
	}
	return links
}

// Members returns the users in registration order for the matrix view.
func (d *Document) Members() []ledger.Member {
	out := make([]ledger.Member, 0, len(d.Users))
	for _, u := range d.Users {
		m := ledger.Member{Username: u.Username}
		if h := u.LichessUsername(); h != "" {
			m.LichessUsername = &h
		}
		out = append(out, m)
	}
	return out
}
