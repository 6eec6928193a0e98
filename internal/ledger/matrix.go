package ledger

// ProjectMatrix builds the full matrix for the given members. Every member
// appears as a row and a column even without any games. The ledger is not modified.
func (l *Ledger) ProjectMatrix(members []Member) Matrix {
	names := make([]string, 0, len(members))
	cells := make(map[string]map[string]*Cell, len(members))
	for _, m := range members {
		names = append(names, m.Username)
	}
	for _, r := range names {
		row := make(map[string]*Cell, len(names))
		for _, c := range names {
			if r == c {
				row[c] = nil
				continue
			}
			row[c] = &Cell{}
		}
		cells[r] = row
	}

	for _, p := range l.Pairs {
		rowA, okA := cells[p.A]
		rowB, okB := cells[p.B]
		if !okA || !okB || p.A == p.B {
			continue
		}
		rowA[p.B] = &Cell{W: p.AWins, L: p.BWins, D: p.Draws, Games: p.Games, LastGameAt: copyTS(p.LastGameAt)}
		rowB[p.A] = &Cell{W: p.BWins, L: p.AWins, D: p.Draws, Games: p.Games, LastGameAt: copyTS(p.LastGameAt)}
	}

	view := Matrix{
		Users: append([]Member{}, members...),
		Names: names,
		Cells: cells,
	}
	if l.LastSyncPassAt != nil {
		t := *l.LastSyncPassAt
		view.UpdatedAt = &t
	}
	return view
}

func copyTS(ts *int64) *int64 {
	if ts == nil {
		return nil
	}
	v := *ts
	return &v
}
