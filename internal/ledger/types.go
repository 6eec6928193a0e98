package ledger

import "time"

// Winner is the side that won a game. The zero value means a draw.
type Winner string

const (
	WinnerNone  Winner = ""
	WinnerWhite Winner = "white"
	WinnerBlack Winner = "black"
)

// Game is a normalized game from the external feed. It is never persisted raw.
type Game struct {
	ID        string
	White     string
	Black     string
	Winner    Winner
	CreatedAt int64 // epoch millis, 0 when unknown
}

// PairRecord holds the head-to-head statistics between two users.
// A and B are kept in lexicographic order so a pair has exactly one record.
type PairRecord struct {
	A          string `json:"a"`
	B          string `json:"b"`
	AWins      int    `json:"aWins"`
	BWins      int    `json:"bWins"`
	Draws      int    `json:"draws"`
	Games      int    `json:"games"`
	LastGameAt *int64 `json:"lastGameAt"`
}

// Ledger is the persisted duels section of the document.
type Ledger struct {
	LastSyncPassAt *time.Time             `json:"lastSyncPassAt"`
	Cursors        map[string]int64       `json:"cursors"`
	Pairs          map[string]*PairRecord `json:"pairs"`
	// Seen maps recently folded game ids to their creation time.
	Seen map[string]int64 `json:"seen"`
}

// Resolver maps an external handle to a registered username.
type Resolver func(externalHandle string) (string, bool)

// Member is a registered user as seen by the matrix projection.
type Member struct {
	Username        string  `json:"username"`
	LichessUsername *string `json:"lichessUsername"`
}

// Cell is one directional entry of the matrix, from the row user's point of view.
type Cell struct {
	W          int    `json:"w"`
	L          int    `json:"l"`
	D          int    `json:"d"`
	Games      int    `json:"games"`
	LastGameAt *int64 `json:"lastGameAt"`
}

// Matrix is the full N×N duels view. Diagonal cells are nil.
type Matrix struct {
	UpdatedAt *time.Time                  `json:"updatedAt"`
	Users     []Member                    `json:"users"`
	Names     []string                    `json:"names"`
	Cells     map[string]map[string]*Cell `json:"cells"`
}
