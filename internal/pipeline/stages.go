package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Stage transforms a sequence of rows. Stages never mutate their input rows.
type Stage interface {
	Name() string
	Apply(rows []Row) []Row
}

// Lookup joins every input row against From and attaches the matches as a
// []Row under As. With Inner mode rows without matches are dropped.
type Lookup struct {
	From         []Row
	LocalField   string
	ForeignField string
	As           string
	Mode         JoinMode
}

func (s Lookup) Name() string {
	return fmt.Sprintf("lookup(%s=%s as %s, %s)", s.LocalField, s.ForeignField, s.As, s.Mode)
}

func (s Lookup) Apply(rows []Row) []Row {
	pairs := Join(rows, s.From, s.LocalField, s.ForeignField, s.Mode)

	out := make([]Row, 0, len(rows))
	var matched []Row
	for i, p := range pairs {
		if p.Right != nil {
			matched = append(matched, p.Right)
		}
		if i+1 < len(pairs) && pairs[i+1].Index == p.Index {
			continue
		}
		out = append(out, p.Left.With(s.As, append([]Row{}, matched...)))
		matched = nil
	}
	return out
}

// Unwind emits one row per element of the array at Path. Rows whose array is
// empty or missing are dropped unless PreserveEmpty is set, in which case they
// are kept once with Path set to nil. A dotted Path replaces the nested field.
type Unwind struct {
	Path          string
	PreserveEmpty bool
}

func (s Unwind) Name() string { return "unwind(" + s.Path + ")" }

func (s Unwind) Apply(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		items := asRows(r.Get(s.Path))
		if len(items) == 0 {
			if s.PreserveEmpty {
				out = append(out, r.With(s.Path, nil))
			}
			continue
		}
		for _, item := range items {
			out = append(out, r.With(s.Path, item))
		}
	}
	return out
}

// Match keeps rows for which Predicate holds.
type Match struct {
	Label     string
	Predicate func(Row) bool
}

func (s Match) Name() string { return "match(" + s.Label + ")" }

func (s Match) Apply(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if s.Predicate(r) {
			out = append(out, r)
		}
	}
	return out
}

// NonEmpty matches rows whose array at path has at least one element.
func NonEmpty(path string) Match {
	return Match{
		Label: path + " non-empty",
		Predicate: func(r Row) bool {
			return len(asRows(r.Get(path))) > 0
		},
	}
}

// Equals matches rows whose field equals value under identifier comparison.
func Equals(path string, value any) Match {
	want, ok := Key(value)
	return Match{
		Label: path + " = " + want,
		Predicate: func(r Row) bool {
			got, found := Key(r.Get(path))
			return ok && found && got == want
		},
	}
}

// Project maps each row to a new row. The row count never changes.
type Project struct {
	Fn func(Row) Row
}

func (s Project) Name() string { return "project" }

func (s Project) Apply(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = s.Fn(r)
	}
	return out
}

// Sort is a stable single-key sort. Nil values sort after everything else in
// either direction.
type Sort struct {
	By   string
	Desc bool
}

func (s Sort) Name() string {
	if s.Desc {
		return "sort(" + s.By + " desc)"
	}
	return "sort(" + s.By + " asc)"
}

func (s Sort) Apply(rows []Row) []Row {
	out := append([]Row{}, rows...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Get(s.By), out[j].Get(s.By)
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		c := compare(a, b)
		if s.Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func compare(a, b any) int {
	_, aStr := a.(string)
	_, bStr := b.(string)
	if !aStr && !bStr {
		fa, errA := cast.ToFloat64E(a)
		fb, errB := cast.ToFloat64E(b)
		if errA == nil && errB == nil {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(cast.ToString(a), cast.ToString(b))
}

// Limit keeps the first N rows. A negative N keeps everything.
type Limit struct {
	N int
}

func (s Limit) Name() string { return fmt.Sprintf("limit(%d)", s.N) }

func (s Limit) Apply(rows []Row) []Row {
	if s.N < 0 || len(rows) <= s.N {
		return rows
	}
	return rows[:s.N]
}

// Dedupe collapses rows sharing a key to the first-seen row.
type Dedupe struct {
	By string
}

func (s Dedupe) Name() string { return "dedupe(" + s.By + ")" }

func (s Dedupe) Apply(rows []Row) []Row {
	seen := make(map[string]struct{}, len(rows))
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		key, ok := Key(r.Get(s.By))
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
