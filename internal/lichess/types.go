package lichess

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Account is the subset of /api/account we use.
type Account struct {
	Username string
}

var (
	// ErrMissingToken is returned when linking is attempted without a token.
	ErrMissingToken = errors.New("missing lichess token")
	// ErrInvalidToken is returned when Lichess rejects the token.
	ErrInvalidToken = errors.New("invalid lichess token")
	// ErrUnexpectedResponse is returned when the account payload has no username.
	ErrUnexpectedResponse = errors.New("unexpected lichess response")
)

// FeedFetchError is returned when the games feed answers with a non-2xx status.
type FeedFetchError struct {
	Username   string
	StatusCode int
	Body       string
}

func (e *FeedFetchError) Error() string {
	return fmt.Sprintf("lichess games fetch failed for %s (%d): %s", e.Username, e.StatusCode, e.Body)
}

// gameLine is one NDJSON line of the games export. Everything is optional on
// the wire; normalizeGame turns it into a ledger.Game.
type gameLine struct {
	ID        string          `json:"id"`
	CreatedAt json.RawMessage `json:"createdAt"`
	Winner    string          `json:"winner"`
	Players   struct {
		White playerSide `json:"white"`
		Black playerSide `json:"black"`
	} `json:"players"`
}

type playerSide struct {
	User *struct {
		Name string `json:"name"`
	} `json:"user"`
}

func (p playerSide) name() string {
	if p.User == nil {
		return ""
	}
	return p.User.Name
}

// accountResponse defines the JSON response of /api/account.
type accountResponse struct {
	Username string `json:"username"`
}
