package ledger

import "sort"

// MaxSeen caps the number of remembered game ids.
const MaxSeen = 5000

// HasSeen reports whether a game id was already folded.
func (l *Ledger) HasSeen(gameID string) bool {
	if gameID == "" {
		return false
	}
	_, ok := l.Seen[gameID]
	return ok
}

// Remember records a game id as handled.
func (l *Ledger) Remember(g Game) {
	if g.ID == "" {
		return
	}
	l.Normalize()
	l.Seen[g.ID] = g.CreatedAt
}

// PruneSeen drops ids of games created before floor, which no account can be
// served again, then trims the window to limit entries keeping the newest.
func (l *Ledger) PruneSeen(floor int64, limit int) int {
	removed := 0
	for id, createdAt := range l.Seen {
		if createdAt < floor {
			delete(l.Seen, id)
			removed++
		}
	}
	if limit <= 0 || len(l.Seen) <= limit {
		return removed
	}

	type entry struct {
		id string
		at int64
	}
	entries := make([]entry, 0, len(l.Seen))
	for id, at := range l.Seen {
		entries = append(entries, entry{id, at})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].at != entries[j].at {
			return entries[i].at < entries[j].at
		}
		return entries[i].id < entries[j].id
	})
	for _, e := range entries[:len(entries)-limit] {
		delete(l.Seen, e.id)
		removed++
	}
	return removed
}
