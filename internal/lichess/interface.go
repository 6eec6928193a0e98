package lichess

import (
	"context"

	"github.com/mauv0809/chess-duels/internal/ledger"
)

// LichessClient defines the interface for interacting with the Lichess API.
// This allows for mock implementations to be used in tests.
type LichessClient interface {
	GamesSince(ctx context.Context, username string, sinceMs int64) ([]ledger.Game, error)
	Account(ctx context.Context, token string) (Account, error)
}
