package duels

import (
	"time"

	"github.com/mauv0809/chess-duels/internal/ledger"
)

const (
	DefaultMinInterval      = 30 * time.Second
	DefaultLookback         = 30 * 24 * time.Hour
	DefaultFetchConcurrency = 4
)

// Options tune the sync orchestrator. Zero values take the defaults above.
type Options struct {
	MinInterval      time.Duration
	DefaultLookback  time.Duration
	FetchConcurrency int
}

func (o Options) withDefaults() Options {
	if o.MinInterval <= 0 {
		o.MinInterval = DefaultMinInterval
	}
	if o.DefaultLookback <= 0 {
		o.DefaultLookback = DefaultLookback
	}
	if o.FetchConcurrency <= 0 {
		o.FetchConcurrency = DefaultFetchConcurrency
	}
	return o
}

// PassResult summarizes a sync trigger. Ran is false when the trigger was
// throttled; Shared is true when the caller joined a pass started by another trigger.
type PassResult struct {
	Ran            bool       `json:"ran"`
	Shared         bool       `json:"shared"`
	Accounts       int        `json:"accounts"`
	Fetched        int        `json:"fetched"`
	Folded         int        `json:"folded"`
	Discarded      int        `json:"discarded"`
	Duplicates     int        `json:"duplicates"`
	Failed         []string   `json:"failed"`
	LastSyncPassAt *time.Time `json:"lastSyncPassAt"`
}

// MatrixOptions control sync-on-read. Snapshot wins over Force.
type MatrixOptions struct {
	Force    bool
	Snapshot bool
}

// fetchResult is one account's outcome before folding.
type fetchResult struct {
	handle string
	games  []ledger.Game
	err    error
}
