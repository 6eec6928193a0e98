package notifier

import (
	"time"

	"github.com/mauv0809/chess-duels/internal/ledger"
)

// DuelResult is one newly folded game between two registered users.
type DuelResult struct {
	GameID   string
	White    string
	Black    string
	Winner   ledger.Winner
	PlayedAt time.Time
}

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// After a sync pass folded new games
	SendDuelResults(results []DuelResult, dryRun bool) error
	// On demand, the head-to-head table
	SendStandings(matrix ledger.Matrix, dryRun bool) error
}

// Nop discards every notification. Used when no provider is configured.
type Nop struct{}

var _ Notifier = Nop{}

func (Nop) SendDuelResults([]DuelResult, bool) error { return nil }
func (Nop) SendStandings(ledger.Matrix, bool) error  { return nil }
