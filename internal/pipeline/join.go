package pipeline

// JoinMode controls what happens to left rows without a match.
type JoinMode int

const (
	// Inner drops left rows that have no match.
	Inner JoinMode = iota
	// LeftOuter keeps unmatched left rows with an empty right side.
	LeftOuter
)

func (m JoinMode) String() string {
	if m == LeftOuter {
		return "left-outer"
	}
	return "inner"
}

// Pair is one joined result. Right is nil for an unmatched left-outer row.
// Index is the position of Left in the left input.
type Pair struct {
	Index int
	Left  Row
	Right Row
}

// Join pairs every left row with each right row whose rightField equals its
// leftField. Output follows left order; multiple matches follow right order.
func Join(left, right []Row, leftField, rightField string, mode JoinMode) []Pair {
	matches := matchAll(left, right, leftField, rightField)

	pairs := make([]Pair, 0, len(left))
	for i, l := range left {
		if len(matches[i]) == 0 {
			if mode == LeftOuter {
				pairs = append(pairs, Pair{Index: i, Left: l})
			}
			continue
		}
		for _, r := range matches[i] {
			pairs = append(pairs, Pair{Index: i, Left: l, Right: r})
		}
	}
	return pairs
}

// matchAll returns, for each left row by position, its matching right rows.
func matchAll(left, right []Row, leftField, rightField string) [][]Row {
	idx := buildIndex(right, rightField)

	out := make([][]Row, len(left))
	for i, l := range left {
		key, ok := Key(l.Get(leftField))
		if !ok {
			continue
		}
		out[i] = idx[key]
	}
	return out
}

func buildIndex(rows []Row, field string) map[string][]Row {
	idx := make(map[string][]Row, len(rows))
	for _, r := range rows {
		key, ok := Key(r.Get(field))
		if !ok {
			continue
		}
		idx[key] = append(idx[key], r)
	}
	return idx
}
