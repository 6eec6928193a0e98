package lichess

import (
	"context"
	"sync"

	"github.com/mauv0809/chess-duels/internal/ledger"
)

// GamesSinceCall records one GamesSince invocation.
type GamesSinceCall struct {
	Username string
	SinceMs  int64
}

// MockClient is a mock implementation of the LichessClient interface for testing.
// It is safe for concurrent use.
type MockClient struct {
	mu sync.Mutex

	// Spies for method calls
	GamesSinceFunc func(ctx context.Context, username string, sinceMs int64) ([]ledger.Game, error)
	AccountFunc    func(ctx context.Context, token string) (Account, error)

	// Call records
	GamesSinceCalls []GamesSinceCall
	AccountCalls    []string
}

// NewMockClient creates a new mock instance.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Reset clears all call records.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GamesSinceCalls = nil
	m.AccountCalls = nil
}

// Calls returns a snapshot of the recorded GamesSince calls.
func (m *MockClient) Calls() []GamesSinceCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]GamesSinceCall, len(m.GamesSinceCalls))
	copy(out, m.GamesSinceCalls)
	return out
}

func (m *MockClient) GamesSince(ctx context.Context, username string, sinceMs int64) ([]ledger.Game, error) {
	m.mu.Lock()
	m.GamesSinceCalls = append(m.GamesSinceCalls, GamesSinceCall{Username: username, SinceMs: sinceMs})
	fn := m.GamesSinceFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, username, sinceMs)
	}
	return []ledger.Game{}, nil
}

func (m *MockClient) Account(ctx context.Context, token string) (Account, error) {
	m.mu.Lock()
	m.AccountCalls = append(m.AccountCalls, token)
	fn := m.AccountFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, token)
	}
	return Account{}, ErrInvalidToken
}
