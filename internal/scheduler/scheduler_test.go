package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mauv0809/chess-duels/internal/duels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTrigger struct {
	calls  atomic.Int32
	forced atomic.Int32
	err    error
}

func (c *countingTrigger) SyncIfNeeded(ctx context.Context, force bool) (duels.PassResult, error) {
	c.calls.Add(1)
	if force {
		c.forced.Add(1)
	}
	return duels.PassResult{Ran: true}, c.err
}

func TestSchedulerTriggersUnforcedPasses(t *testing.T) {
	trigger := &countingTrigger{}
	s, err := New(20*time.Millisecond, trigger)
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return trigger.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Shutdown())

	assert.Zero(t, trigger.forced.Load(), "ticks never force a pass")
}

func TestSchedulerSurvivesSyncErrors(t *testing.T) {
	trigger := &countingTrigger{err: errors.New("disk full")}
	s, err := New(20*time.Millisecond, trigger)
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return trigger.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Shutdown())
}

func TestNewRejectsInvalidInterval(t *testing.T) {
	_, err := New(0, &countingTrigger{})
	assert.Error(t, err)
}
