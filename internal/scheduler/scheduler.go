// Package scheduler triggers periodic duels sync passes.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/mauv0809/chess-duels/internal/duels"
)

// SyncTrigger is the part of duels.Syncer the scheduler drives.
type SyncTrigger interface {
	SyncIfNeeded(ctx context.Context, force bool) (duels.PassResult, error)
}

// Scheduler runs an unforced sync pass every interval. The staleness check in
// the syncer decides whether a tick actually fetches.
type Scheduler struct {
	sched    gocron.Scheduler
	interval time.Duration
}

// New registers the periodic sync job. The first run happens immediately
// after Start.
func New(interval time.Duration, syncer SyncTrigger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			res, err := syncer.SyncIfNeeded(context.Background(), false)
			if err != nil {
				log.Error("[Scheduler] Duels sync failed", "error", err)
				return
			}
			if res.Ran {
				log.Debug("[Scheduler] Duels sync pass ran", "folded", res.Folded, "failed", len(res.Failed))
			}
		}),
		gocron.WithName("duels-sync"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to register sync job: %w", err)
	}
	return &Scheduler{sched: sched, interval: interval}, nil
}

func (s *Scheduler) Start() {
	log.Info("Starting periodic duels sync", "interval", s.interval)
	s.sched.Start()
}

// Shutdown stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
