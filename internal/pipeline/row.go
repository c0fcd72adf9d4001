package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Row is a single document flowing through a pipeline. Joined documents are
// nested under their own field so dotted paths like "product.brand_id" reach them.
type Row map[string]any

// Rows wraps documents of any map-shaped type as pipeline rows.
func Rows[T ~map[string]any](docs []T) []Row {
	rows := make([]Row, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, Row(doc))
	}
	return rows
}

// Get resolves a dotted path. Missing segments resolve to nil.
func (r Row) Get(path string) any {
	var cur any = r
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// With returns a copy of r with the dotted path set to v. Maps along the path
// are copied rather than mutated, and missing ones are created.
func (r Row) With(path string, v any) Row {
	out := r.Clone()
	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		out[head] = v
		return out
	}
	child, _ := asMap(r[head])
	out[head] = Row(child).With(rest, v)
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case Row:
		return m, true
	case map[string]any:
		return m, true
	case primitive.M:
		return m, true
	default:
		return nil, false
	}
}

func asRows(v any) []Row {
	switch s := v.(type) {
	case nil:
		return nil
	case []Row:
		return s
	case []any:
		return toRows(s)
	case primitive.A:
		return toRows(s)
	default:
		return nil
	}
}

func toRows(items []any) []Row {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		if m, ok := asMap(item); ok {
			rows = append(rows, Row(m))
		}
	}
	return rows
}

// Key returns the canonical comparable form of an identifier. A native
// ObjectID and its hex string produce the same key, as do numeric ids in
// different widths. Nil has no key and never matches anything.
func Key(v any) (string, bool) {
	switch id := v.(type) {
	case nil:
		return "", false
	case primitive.ObjectID:
		return id.Hex(), true
	case *primitive.ObjectID:
		if id == nil {
			return "", false
		}
		return id.Hex(), true
	case string:
		if primitive.IsValidObjectID(id) {
			return strings.ToLower(id), true
		}
		return id, true
	case time.Time:
		return id.UTC().Format(time.RFC3339Nano), true
	case fmt.Stringer:
		return id.String(), true
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v), true
	}
	return s, true
}

// IDString renders an identifier for callers outside the engine.
func IDString(v any) string {
	key, _ := Key(v)
	return key
}
