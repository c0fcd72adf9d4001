package pipeline

import (
	"fmt"
	"strings"
)

// AccumulatorOp is a reducer applied within a group partition.
type AccumulatorOp int

const (
	OpSum AccumulatorOp = iota
	OpCount
	OpFirst
	OpAvg
)

func (op AccumulatorOp) String() string {
	switch op {
	case OpSum:
		return "sum"
	case OpCount:
		return "count"
	case OpFirst:
		return "first"
	case OpAvg:
		return "avg"
	default:
		return "unknown"
	}
}

// Accumulator writes the reduction of Field into the output field As.
type Accumulator struct {
	As    string
	Op    AccumulatorOp
	Field string
}

func Sum(as, field string) Accumulator   { return Accumulator{As: as, Op: OpSum, Field: field} }
func Count(as, field string) Accumulator { return Accumulator{As: as, Op: OpCount, Field: field} }
func First(as, field string) Accumulator { return Accumulator{As: as, Op: OpFirst, Field: field} }
func Avg(as, field string) Accumulator   { return Accumulator{As: as, Op: OpAvg, Field: field} }

// GroupIDField holds the group key in every row emitted by Group.
const GroupIDField = "_id"

// Group partitions rows by the identifier at By and emits one row per
// partition, in first-seen order. Rows without a key are skipped.
//
// Sum and Count treat missing or nil fields as 0. Count with an empty Field
// counts rows. Avg over no values yields nil rather than 0.
type Group struct {
	By           string
	Accumulators []Accumulator
}

func (s Group) Name() string {
	parts := make([]string, 0, len(s.Accumulators))
	for _, acc := range s.Accumulators {
		parts = append(parts, fmt.Sprintf("%s=%s(%s)", acc.As, acc.Op, acc.Field))
	}
	return "group(" + s.By + ": " + strings.Join(parts, ", ") + ")"
}

type partition struct {
	key    any
	states []reducer
}

func (s Group) Apply(rows []Row) []Row {
	order := make([]string, 0)
	parts := make(map[string]*partition)

	for _, r := range rows {
		raw := r.Get(s.By)
		key, ok := Key(raw)
		if !ok {
			continue
		}
		p, exists := parts[key]
		if !exists {
			p = &partition{key: raw, states: newReducers(s.Accumulators)}
			parts[key] = p
			order = append(order, key)
		}
		for i, acc := range s.Accumulators {
			p.states[i].add(r, acc.Field)
		}
	}

	out := make([]Row, 0, len(order))
	for _, key := range order {
		p := parts[key]
		row := Row{GroupIDField: p.key}
		for i, acc := range s.Accumulators {
			row[acc.As] = p.states[i].result()
		}
		out = append(out, row)
	}
	return out
}

type reducer interface {
	add(r Row, field string)
	result() any
}

func newReducers(accs []Accumulator) []reducer {
	out := make([]reducer, len(accs))
	for i, acc := range accs {
		switch acc.Op {
		case OpSum:
			out[i] = &sumReducer{integral: true}
		case OpCount:
			out[i] = &countReducer{}
		case OpFirst:
			out[i] = &firstReducer{}
		case OpAvg:
			out[i] = &avgReducer{}
		default:
			panic(fmt.Sprintf("pipeline: unknown accumulator %d", acc.Op))
		}
	}
	return out
}

type sumReducer struct {
	total    float64
	integral bool
}

func (s *sumReducer) add(r Row, field string) {
	v, ok := Float(r.Get(field))
	if !ok {
		return
	}
	if v != float64(int64(v)) {
		s.integral = false
	}
	s.total += v
}

func (s *sumReducer) result() any {
	if s.integral {
		return int64(s.total)
	}
	return s.total
}

type countReducer struct {
	n int64
}

func (c *countReducer) add(r Row, field string) {
	if field == "" || r.Get(field) != nil {
		c.n++
	}
}

func (c *countReducer) result() any { return c.n }

type firstReducer struct {
	seen  bool
	value any
}

func (f *firstReducer) add(r Row, field string) {
	if f.seen {
		return
	}
	f.seen = true
	f.value = r.Get(field)
}

func (f *firstReducer) result() any { return f.value }

type avgReducer struct {
	values []float64
}

func (a *avgReducer) add(r Row, field string) {
	if v, ok := Float(r.Get(field)); ok {
		a.values = append(a.values, v)
	}
}

func (a *avgReducer) result() any {
	mean, ok := Mean(a.values)
	if !ok {
		return nil
	}
	return mean
}
