// Package pipeline evaluates aggregation pipelines over in-memory documents:
// joins on identifier fields, unwinds, filters, group-reduces, projections,
// stable sorts, limits and dedupes, applied left to right.
package pipeline

// Observer is told the row count before and after every stage.
type Observer func(stage string, in, out int)

type Pipeline struct {
	stages   []Stage
	observer Observer
}

func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

func (p *Pipeline) WithObserver(o Observer) *Pipeline {
	p.observer = o
	return p
}

// Run evaluates every stage in order. The result is never nil.
func (p *Pipeline) Run(rows []Row) []Row {
	cur := rows
	for _, s := range p.stages {
		next := s.Apply(cur)
		if p.observer != nil {
			p.observer(s.Name(), len(cur), len(next))
		}
		cur = next
	}
	if cur == nil {
		return []Row{}
	}
	return cur
}
