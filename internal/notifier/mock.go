package notifier

import (
	"sync"

	"github.com/mauv0809/chess-duels/internal/ledger"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies
	SendDuelResultsFunc func(results []DuelResult, dryRun bool) error
	SendStandingsFunc   func(matrix ledger.Matrix, dryRun bool) error

	// Call records
	SendDuelResultsCalls [][]DuelResult
	SendStandingsCalls   []ledger.Matrix
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendDuelResultsCalls = nil
	m.SendStandingsCalls = nil
}

func (m *Mock) SendDuelResults(results []DuelResult, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendDuelResultsCalls = append(m.SendDuelResultsCalls, results)
	if m.SendDuelResultsFunc != nil {
		return m.SendDuelResultsFunc(results, dryRun)
	}
	return nil
}

func (m *Mock) SendStandings(matrix ledger.Matrix, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendStandingsCalls = append(m.SendStandingsCalls, matrix)
	if m.SendStandingsFunc != nil {
		return m.SendStandingsFunc(matrix, dryRun)
	}
	return nil
}

// DuelResultsCalls returns a copy of the recorded SendDuelResults batches.
func (m *Mock) DuelResultsCalls() [][]DuelResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]DuelResult, len(m.SendDuelResultsCalls))
	copy(out, m.SendDuelResultsCalls)
	return out
}
