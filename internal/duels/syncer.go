// Package duels runs the incremental sync of Lichess games into the duels ledger
// and serves the head-to-head matrix.
package duels

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/chess-duels/internal/ledger"
	"github.com/mauv0809/chess-duels/internal/lichess"
	"github.com/mauv0809/chess-duels/internal/metrics"
	"github.com/mauv0809/chess-duels/internal/notifier"
	"github.com/mauv0809/chess-duels/internal/pubsub"
	"github.com/mauv0809/chess-duels/internal/store"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const passKey = "duels-sync"

// Syncer owns the sync pass. At most one pass runs at a time; concurrent
// triggers wait for and share the pass in flight.
type Syncer struct {
	store    store.DocumentStore
	feed     lichess.LichessClient
	metrics  metrics.Metrics
	notifier notifier.Notifier
	pubsub   pubsub.PubSubClient
	opts     Options

	now   func() time.Time
	group singleflight.Group
}

// NewSyncer wires the orchestrator. notifier and pubsub may be nil.
func NewSyncer(st store.DocumentStore, feed lichess.LichessClient, m metrics.Metrics, n notifier.Notifier, ps pubsub.PubSubClient, opts Options) *Syncer {
	if n == nil {
		n = notifier.Nop{}
	}
	if ps == nil {
		ps = pubsub.NewLocal()
	}
	return &Syncer{
		store:    st,
		feed:     feed,
		metrics:  m,
		notifier: n,
		pubsub:   ps,
		opts:     opts.withDefaults(),
		now:      time.Now,
	}
}

// SyncIfNeeded runs a pass when forced or when the last pass is older than
// MinInterval. Account fetch failures are reported in the result, not as an
// error; only a failure to persist the pass is returned.
//
// The pass itself is detached from ctx: a caller that gives up stops waiting
// but the pass runs to completion.
func (s *Syncer) SyncIfNeeded(ctx context.Context, force bool) (PassResult, error) {
	if !force {
		if res, fresh, err := s.throttled(ctx); err != nil || fresh {
			return res, err
		}
	}

	passCtx := context.WithoutCancel(ctx)
	for {
		ch := s.group.DoChan(passKey, func() (any, error) {
			if !force {
				// A pass may have finished after the check above.
				if res, fresh, err := s.throttled(passCtx); err != nil || fresh {
					return res, err
				}
			}
			return s.runPass(passCtx)
		})

		select {
		case res := <-ch:
			if res.Err != nil {
				return PassResult{}, res.Err
			}
			out := res.Val.(PassResult)
			if force && !out.Ran {
				// Joined an unforced trigger that found the state fresh.
				continue
			}
			out.Shared = res.Shared
			return out, nil
		case <-ctx.Done():
			return PassResult{}, ctx.Err()
		}
	}
}

// throttled reports whether the last pass is recent enough to skip a new one.
func (s *Syncer) throttled(ctx context.Context) (PassResult, bool, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return PassResult{}, false, err
	}
	last := doc.Duels.LastSyncPassAt
	if last == nil || s.now().Sub(*last) > s.opts.MinInterval {
		return PassResult{}, false, nil
	}
	s.metrics.IncSyncThrottled()
	log.Debug("Sync pass throttled", "lastSyncPassAt", last, "minInterval", s.opts.MinInterval)
	at := *last
	return PassResult{LastSyncPassAt: &at, Failed: []string{}}, true, nil
}

// runPass fetches every linked account, then folds and persists everything
// in a single mutation.
func (s *Syncer) runPass(ctx context.Context) (PassResult, error) {
	start := s.now()
	doc, err := s.store.Load(ctx)
	if err != nil {
		return PassResult{}, fmt.Errorf("failed to load document: %w", err)
	}

	handles := linkedHandles(doc)
	log.Info("Starting duels sync pass", "accounts", len(handles))

	fetched := s.fetchAll(ctx, doc.Duels, handles, start)

	result := PassResult{Ran: true, Accounts: len(handles), Failed: []string{}}
	var announced []notifier.DuelResult

	_, err = s.store.Mutate(ctx, func(doc *store.Document) error {
		links := doc.LinkedAccounts()
		resolve := ledger.ResolverFromLinks(links)
		duels := doc.Duels

		for _, f := range fetched {
			if f.err != nil {
				result.Failed = append(result.Failed, f.handle)
				continue
			}
			result.Fetched += len(f.games)

			var maxCreatedAt int64
			for _, g := range f.games {
				if g.CreatedAt > maxCreatedAt {
					maxCreatedAt = g.CreatedAt
				}
				if duels.HasSeen(g.ID) {
					result.Duplicates++
					continue
				}
				if !duels.ApplyGame(g, resolve) {
					result.Discarded++
					continue
				}
				duels.Remember(g)
				result.Folded++
				announced = append(announced, toDuelResult(g, resolve))
			}
			if maxCreatedAt > 0 {
				duels.AdvanceCursor(f.handle, maxCreatedAt+1)
			}
		}

		duels.PruneSeen(s.seenFloor(duels, start), ledger.MaxSeen)
		duels.MarkPass(s.now())
		finished := *duels.LastSyncPassAt
		result.LastSyncPassAt = &finished
		return nil
	})
	if err != nil {
		s.metrics.IncStoreWriteFailures()
		log.Error("Failed to persist duels sync pass", "error", err)
		return PassResult{}, fmt.Errorf("failed to persist sync pass: %w", err)
	}

	elapsed := s.now().Sub(start)
	s.metrics.IncSyncPasses()
	s.metrics.AddGamesFolded(result.Folded)
	s.metrics.AddGamesDiscarded(result.Discarded + result.Duplicates)
	s.metrics.ObserveSyncDuration(elapsed.Seconds())
	log.Info("Duels sync pass finished",
		"accounts", result.Accounts,
		"fetched", result.Fetched,
		"folded", result.Folded,
		"discarded", result.Discarded,
		"duplicates", result.Duplicates,
		"failed", len(result.Failed),
		"duration", elapsed,
	)

	if result.Folded > 0 {
		s.announce(announced, result)
	}
	return result, nil
}

// fetchAll pulls every account's games with bounded parallelism. Results keep
// the order of handles; a failed fetch is recorded, never returned.
func (s *Syncer) fetchAll(ctx context.Context, duels *ledger.Ledger, handles []string, now time.Time) []fetchResult {
	results := make([]fetchResult, len(handles))
	g := new(errgroup.Group)
	g.SetLimit(s.opts.FetchConcurrency)

	for i, handle := range handles {
		since := s.since(duels, handle, now)
		g.Go(func() error {
			s.metrics.IncFeedFetches()
			games, err := s.feed.GamesSince(ctx, handle, since)
			if err != nil {
				s.metrics.IncFeedFailures()
				var fetchErr *lichess.FeedFetchError
				if errors.As(err, &fetchErr) {
					log.Warn("Lichess feed rejected request, skipping account", "lichess", handle, "status", fetchErr.StatusCode)
				} else {
					log.Warn("Failed to fetch games, skipping account", "lichess", handle, "error", err)
				}
				results[i] = fetchResult{handle: handle, err: err}
				return nil
			}
			log.Debug("Fetched games", "lichess", handle, "since", since, "count", len(games))
			results[i] = fetchResult{handle: handle, games: games}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Syncer) since(duels *ledger.Ledger, handle string, now time.Time) int64 {
	if cur, ok := duels.Cursor(handle); ok {
		return cur
	}
	return now.Add(-s.opts.DefaultLookback).UnixMilli()
}

// seenFloor is the oldest createdAt any account could still be served: the
// lookback start of an account without a cursor, or the lowest cursor kept.
// Cursors of unlinked accounts count too, since the account may be relinked.
func (s *Syncer) seenFloor(duels *ledger.Ledger, now time.Time) int64 {
	floor := now.Add(-s.opts.DefaultLookback).UnixMilli()
	for _, cur := range duels.Cursors {
		if cur < floor {
			floor = cur
		}
	}
	return floor
}

func (s *Syncer) announce(results []notifier.DuelResult, pass PassResult) {
	if err := s.notifier.SendDuelResults(results, false); err != nil {
		log.Error("Failed to announce duel results", "error", err)
	}
	event := pubsub.DuelsUpdated{
		Folded:   pass.Folded,
		Accounts: pass.Accounts,
		Failed:   pass.Failed,
	}
	if pass.LastSyncPassAt != nil {
		event.FinishedAt = *pass.LastSyncPassAt
	}
	if err := s.pubsub.SendMessage(pubsub.EventDuelsUpdated, event); err != nil {
		log.Error("Failed to publish duels update", "error", err)
	}
}

// Matrix returns the head-to-head view. Unless a snapshot is requested it
// first syncs when stale (or always, when forced). A failed sync is logged and
// the last persisted state is served.
func (s *Syncer) Matrix(ctx context.Context, opts MatrixOptions) (ledger.Matrix, error) {
	if !opts.Snapshot {
		if _, err := s.SyncIfNeeded(ctx, opts.Force); err != nil {
			log.Error("Sync before matrix read failed, serving last known state", "error", err)
		}
	}
	doc, err := s.store.Load(ctx)
	if err != nil {
		return ledger.Matrix{}, err
	}
	return doc.Duels.ProjectMatrix(doc.Members()), nil
}

func linkedHandles(doc *store.Document) []string {
	links := doc.LinkedAccounts()
	handles := make([]string, 0, len(links))
	for h := range links {
		handles = append(handles, h)
	}
	sort.Strings(handles)
	return handles
}

func toDuelResult(g ledger.Game, resolve ledger.Resolver) notifier.DuelResult {
	white, _ := resolve(g.White)
	black, _ := resolve(g.Black)
	r := notifier.DuelResult{GameID: g.ID, White: white, Black: black, Winner: g.Winner}
	if g.CreatedAt > 0 {
		r.PlayedAt = time.UnixMilli(g.CreatedAt).UTC()
	}
	return r
}
