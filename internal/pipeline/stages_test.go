package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(rows []Row, field string) []any {
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Get(field))
	}
	return out
}

func TestLookupAttachesMatchesUnderNamespace(t *testing.T) {
	products := []Row{{"_id": "p1", "name": "Air Max"}}
	sales := []Row{
		{"_id": "s1", "product_id": "p1", "quantity": 2},
		{"_id": "s2", "product_id": "p1", "quantity": 3},
	}

	out := Lookup{From: sales, LocalField: "_id", ForeignField: "product_id", As: "sales", Mode: Inner}.Apply(products)

	require.Len(t, out, 1)
	assert.Equal(t, "Air Max", out[0]["name"])
	assert.Len(t, out[0]["sales"], 2)
	assert.NotContains(t, products[0], "sales")
}

func TestLookupLeftOuterKeepsEveryRowInOrder(t *testing.T) {
	users := []Row{{"_id": "u1"}, {"_id": "u2"}, {"_id": "u3"}}
	sales := []Row{
		{"_id": "s1", "user_id": "u3"},
		{"_id": "s2", "user_id": "u1"},
		{"_id": "s3", "user_id": "u3"},
	}

	out := Lookup{From: sales, LocalField: "_id", ForeignField: "user_id", As: "sale", Mode: LeftOuter}.Apply(users)

	require.Len(t, out, 3)
	assert.Equal(t, []any{"u1", "u2", "u3"}, ids(out, "_id"))
	assert.Len(t, out[0]["sale"], 1)
	assert.Equal(t, []Row{}, out[1]["sale"])
	assert.Equal(t, []Row{sales[0], sales[2]}, out[2]["sale"])
}

func TestUnwindDropsEmptyUnlessPreserved(t *testing.T) {
	rows := []Row{
		{"_id": "a", "items": []Row{{"v": 1}, {"v": 2}}},
		{"_id": "b", "items": []Row{}},
	}

	out := Unwind{Path: "items"}.Apply(rows)
	assert.Equal(t, []any{1, 2}, ids(out, "items.v"))

	kept := Unwind{Path: "items", PreserveEmpty: true}.Apply(rows)
	require.Len(t, kept, 3)
	assert.Equal(t, "b", kept[2]["_id"])
	assert.Nil(t, kept[2]["items"])
}

func TestUnwindNestedPath(t *testing.T) {
	rows := []Row{
		{"_id": "a", "order": Row{"id": "o1", "items": []Row{{"v": 1}, {"v": 2}}}},
		{"_id": "b", "order": Row{"id": "o2"}},
	}

	out := Unwind{Path: "order.items", PreserveEmpty: true}.Apply(rows)

	require.Len(t, out, 3)
	assert.Equal(t, []any{1, 2, nil}, ids(out, "order.items.v"))
	assert.Equal(t, "o1", out[1].Get("order.id"))
	assert.NotContains(t, out[0], "order.items")
	assert.Nil(t, out[2].Get("order.items"))
	assert.Len(t, rows[0].Get("order.items"), 2, "input must not be modified")
}

func TestRowWithCopiesAlongPath(t *testing.T) {
	r := Row{"a": map[string]any{"b": 1, "c": 2}}

	out := r.With("a.b", 3).With("x.y", "new")

	assert.Equal(t, 3, out.Get("a.b"))
	assert.Equal(t, 2, out.Get("a.c"))
	assert.Equal(t, "new", out.Get("x.y"))
	assert.Equal(t, 1, r.Get("a.b"))
	assert.NotContains(t, r, "x")
}

func TestGroupReducers(t *testing.T) {
	rows := []Row{
		{"k": "x", "q": 2, "name": "first"},
		{"k": "y", "q": nil, "name": "lonely"},
		{"k": "x", "q": 3, "name": "second"},
	}

	out := Group{
		By: "k",
		Accumulators: []Accumulator{
			Sum("total", "q"),
			Count("n", "q"),
			First("name", "name"),
			Avg("avg", "q"),
		},
	}.Apply(rows)

	require.Len(t, out, 2)
	assert.Equal(t, "x", out[0][GroupIDField])
	assert.Equal(t, int64(5), out[0]["total"])
	assert.Equal(t, int64(2), out[0]["n"])
	assert.Equal(t, "first", out[0]["name"])
	assert.Equal(t, 2.5, out[0]["avg"])

	assert.Equal(t, int64(0), out[1]["total"])
	assert.Equal(t, int64(0), out[1]["n"])
	assert.Nil(t, out[1]["avg"])
}

func TestGroupSumKeepsFractions(t *testing.T) {
	rows := []Row{{"k": 1, "v": 0.5}, {"k": 1, "v": 1}}

	out := Group{By: "k", Accumulators: []Accumulator{Sum("s", "v")}}.Apply(rows)

	assert.Equal(t, 1.5, out[0]["s"])
}

func TestSortIsStableAndPutsNilLast(t *testing.T) {
	rows := []Row{
		{"id": "a", "v": 1},
		{"id": "b", "v": nil},
		{"id": "c", "v": 3},
		{"id": "d", "v": 1},
		{"id": "e", "v": 3.0},
	}

	desc := Sort{By: "v", Desc: true}.Apply(rows)
	assert.Equal(t, []any{"c", "e", "a", "d", "b"}, ids(desc, "id"))

	asc := Sort{By: "v"}.Apply(rows)
	assert.Equal(t, []any{"a", "d", "c", "e", "b"}, ids(asc, "id"))

	assert.Equal(t, "a", rows[0]["id"], "input must not be reordered")
}

func TestLimit(t *testing.T) {
	rows := []Row{{"i": 1}, {"i": 2}, {"i": 3}}

	assert.Len(t, Limit{N: 2}.Apply(rows), 2)
	assert.Len(t, Limit{N: 10}.Apply(rows), 3)
	assert.Len(t, Limit{N: 0}.Apply(rows), 0)
	assert.Len(t, Limit{N: -1}.Apply(rows), 3)
}

func TestDedupeKeepsFirstSeen(t *testing.T) {
	rows := []Row{
		{"b": "1", "n": "first"},
		{"b": "2", "n": "other"},
		{"b": "1", "n": "second"},
	}

	out := Dedupe{By: "b"}.Apply(rows)

	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0]["n"])
}

func TestMatchHelpers(t *testing.T) {
	rows := []Row{
		{"d": "2025-07-10", "xs": []Row{{}}},
		{"d": "2025-07-11", "xs": []Row{}},
	}

	assert.Len(t, NonEmpty("xs").Apply(rows), 1)
	assert.Len(t, Equals("d", "2025-07-11").Apply(rows), 1)
	assert.Empty(t, Equals("d", nil).Apply(rows))
}

func TestPipelineRunObservesStages(t *testing.T) {
	var seen []string
	p := New(
		Match{Label: "even", Predicate: func(r Row) bool { v, _ := Int(r["i"]); return v%2 == 0 }},
		Limit{N: 1},
	).WithObserver(func(stage string, in, out int) {
		seen = append(seen, stage)
	})

	out := p.Run([]Row{{"i": 1}, {"i": 2}, {"i": 4}})

	assert.Equal(t, []any{2}, ids(out, "i"))
	assert.Equal(t, []string{"match(even)", "limit(1)"}, seen)
	assert.NotNil(t, New().Run(nil))
}

func TestFloatRejectsNonFinite(t *testing.T) {
	for _, v := range []any{"Inf", "-Inf", "NaN", math.Inf(1), math.NaN(), nil, "abc"} {
		_, ok := Float(v)
		assert.False(t, ok, "%v", v)
	}

	f, ok := Float("4.5")
	require.True(t, ok)
	assert.Equal(t, 4.5, f)
}

func TestAvgIgnoresInfiniteValues(t *testing.T) {
	rows := []Row{{"k": "p", "r": 4}, {"k": "p", "r": "Inf"}, {"k": "p", "r": 5}}

	out := Group{By: "k", Accumulators: []Accumulator{Avg("avg", "r")}}.Apply(rows)

	require.Len(t, out, 1)
	assert.Equal(t, 4.5, out[0]["avg"])
	assert.Equal(t, 4.5, Round(out[0]["avg"].(float64), 2))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 4.0, Round(4, 2))
	assert.Equal(t, 3.67, Round(11.0/3.0, 2))
	assert.Equal(t, 2.5, Round(2.499999, 1))
}
