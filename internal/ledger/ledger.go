package ledger

import (
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// New returns an empty ledger with all maps allocated.
func New() *Ledger {
	l := &Ledger{}
	l.Normalize()
	return l
}

// Normalize allocates any nil maps, e.g. after decoding an older document.
func (l *Ledger) Normalize() {
	if l.Cursors == nil {
		l.Cursors = make(map[string]int64)
	}
	if l.Pairs == nil {
		l.Pairs = make(map[string]*PairRecord)
	}
	if l.Seen == nil {
		l.Seen = make(map[string]int64)
	}
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	out := &Ledger{
		Cursors: make(map[string]int64, len(l.Cursors)),
		Pairs:   make(map[string]*PairRecord, len(l.Pairs)),
		Seen:    make(map[string]int64, len(l.Seen)),
	}
	if l.LastSyncPassAt != nil {
		t := *l.LastSyncPassAt
		out.LastSyncPassAt = &t
	}
	for k, v := range l.Cursors {
		out.Cursors[k] = v
	}
	for k, p := range l.Pairs {
		cp := *p
		if p.LastGameAt != nil {
			ts := *p.LastGameAt
			cp.LastGameAt = &ts
		}
		out.Pairs[k] = &cp
	}
	for k, v := range l.Seen {
		out.Seen[k] = v
	}
	return out
}

// PairKey returns the canonical, order-independent key for two usernames.
func PairKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}

// CursorKey is the lookup key for an external handle's sync cursor.
func CursorKey(externalHandle string) string {
	return strings.ToLower(strings.TrimSpace(externalHandle))
}

// Cursor returns the stored cursor for an external handle.
func (l *Ledger) Cursor(externalHandle string) (int64, bool) {
	v, ok := l.Cursors[CursorKey(externalHandle)]
	return v, ok
}

// AdvanceCursor moves an account's cursor forward. It never moves it backwards.
func (l *Ledger) AdvanceCursor(externalHandle string, to int64) {
	key := CursorKey(externalHandle)
	if cur, ok := l.Cursors[key]; ok && cur >= to {
		return
	}
	l.Cursors[key] = to
}

// MarkPass records the end of a sync pass.
func (l *Ledger) MarkPass(at time.Time) {
	t := at.UTC()
	l.LastSyncPassAt = &t
}

func (l *Ledger) ensurePair(a, b string) *PairRecord {
	key := PairKey(a, b)
	if p, ok := l.Pairs[key]; ok {
		return p
	}
	if b < a {
		a, b = b, a
	}
	p := &PairRecord{A: a, B: b}
	l.Pairs[key] = p
	return p
}

// ApplyGame folds one game into the ledger and reports whether it was counted.
// Games with an unresolvable side, or with both sides resolving to the same
// user, leave the ledger untouched. The caller guarantees a game is never applied twice.
func (l *Ledger) ApplyGame(g Game, resolve Resolver) bool {
	if g.White == "" || g.Black == "" {
		return false
	}
	white, ok := resolve(g.White)
	if !ok {
		return false
	}
	black, ok := resolve(g.Black)
	if !ok {
		return false
	}
	if white == black {
		log.Debug("Discarding game against self", "gameID", g.ID, "user", white)
		return false
	}

	l.Normalize()
	pair := l.ensurePair(white, black)
	pair.Games++
	if g.CreatedAt > 0 && (pair.LastGameAt == nil || g.CreatedAt > *pair.LastGameAt) {
		ts := g.CreatedAt
		pair.LastGameAt = &ts
	}

	switch g.Winner {
	case WinnerWhite:
		pair.addWin(white)
	case WinnerBlack:
		pair.addWin(black)
	default:
		pair.Draws++
	}
	return true
}

func (p *PairRecord) addWin(username string) {
	if p.A == username {
		p.AWins++
		return
	}
	p.BWins++
}

// ResolverFromLinks builds a case-insensitive resolver from external handle to username.
func ResolverFromLinks(links map[string]string) Resolver {
	lower := make(map[string]string, len(links))
	for ext, user := range links {
		lower[CursorKey(ext)] = user
	}
	return func(externalHandle string) (string, bool) {
		u, ok := lower[CursorKey(externalHandle)]
		return u, ok
	}
}
