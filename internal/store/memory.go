package store

import (
	"context"
	"fmt"
	"sync"

	"clothing-store/internal/models"
	"clothing-store/internal/pipeline"

	"github.com/google/btree"
	"github.com/google/uuid"
)

type memEntry struct {
	seq uint64
	id  string
	doc Document
}

func memEntryLess(a, b memEntry) bool { return a.seq < b.seq }

type memCollection struct {
	order *btree.BTreeG[memEntry]
	byID  map[string]memEntry
}

// MemoryStore is an in-process store. Documents are kept in insertion order
// and every read returns copies, so callers see a consistent snapshot.
type MemoryStore struct {
	mu    sync.RWMutex
	seq   uint64
	colls map[Collection]*memCollection
}

func NewMemoryStore() *MemoryStore {
	colls := make(map[Collection]*memCollection, len(Collections))
	for _, c := range Collections {
		colls[c] = &memCollection{
			order: btree.NewG[memEntry](16, memEntryLess),
			byID:  make(map[string]memEntry),
		}
	}
	return &MemoryStore{colls: colls}
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Find(ctx context.Context, coll Collection, filter Filter) ([]Document, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]Document, 0, s.colls[coll].order.Len())
	s.colls[coll].order.Ascend(func(e memEntry) bool {
		if matches(e.doc, filter) {
			docs = append(docs, e.doc.Clone())
		}
		return true
	})
	return docs, nil
}

func (s *MemoryStore) FindOne(ctx context.Context, coll Collection, id string) (Document, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.colls[coll].byID[canonicalID(id)]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", coll, id, ErrNotFound)
	}
	return e.doc.Clone(), nil
}

func (s *MemoryStore) Insert(ctx context.Context, coll Collection, doc Document) (string, error) {
	if err := checkCollection(coll); err != nil {
		return "", err
	}

	body := doc.Clone()
	id := pipeline.IDString(body[IDField])
	if id == "" {
		id = uuid.New().String()
	}
	body[IDField] = id

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.colls[coll]
	if _, exists := c.byID[id]; exists {
		return "", fmt.Errorf("%s %s: %w", coll, id, ErrDuplicateID)
	}

	s.seq++
	e := memEntry{seq: s.seq, id: id, doc: body}
	c.order.ReplaceOrInsert(e)
	c.byID[id] = e
	return id, nil
}

func (s *MemoryStore) Update(ctx context.Context, coll Collection, id string, patch Document) (int64, error) {
	if err := checkCollection(coll); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id = canonicalID(id)
	c := s.colls[coll]
	e, ok := c.byID[id]
	if !ok {
		return 0, nil
	}

	merged := e.doc.Clone()
	for k, v := range patch {
		if k == IDField {
			continue
		}
		merged[k] = v
	}
	e.doc = merged
	c.order.ReplaceOrInsert(e)
	c.byID[id] = e
	return 1, nil
}

func (s *MemoryStore) Delete(ctx context.Context, coll Collection, id string) (int64, error) {
	if err := checkCollection(coll); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id = canonicalID(id)
	c := s.colls[coll]
	e, ok := c.byID[id]
	if !ok {
		return 0, nil
	}
	c.order.Delete(e)
	delete(c.byID, id)
	return 1, nil
}

func matches(doc Document, filter Filter) bool {
	row := pipeline.Row(doc)
	for field, want := range filter {
		if day, ok := want.(DayMatch); ok {
			got, found := models.SaleDay(row.Get(field))
			if !found || got != day.Day {
				return false
			}
			continue
		}
		wantKey, ok := pipeline.Key(want)
		if !ok {
			if row.Get(field) != nil {
				return false
			}
			continue
		}
		got, found := pipeline.Key(row.Get(field))
		if !found || got != wantKey {
			return false
		}
	}
	return true
}
