package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestJoinInnerDropsUnmatched(t *testing.T) {
	left := []Row{
		{"_id": "b1", "name": "Nike"},
		{"_id": "b2", "name": "Adidas"},
	}
	right := []Row{
		{"_id": "p1", "brand_id": "b1"},
	}

	pairs := Join(left, right, "_id", "brand_id", Inner)

	require.Len(t, pairs, 1)
	assert.Equal(t, "Nike", pairs[0].Left["name"])
	assert.Equal(t, "p1", pairs[0].Right["_id"])
}

func TestJoinLeftOuterKeepsUnmatchedOnce(t *testing.T) {
	left := []Row{
		{"_id": "b1"},
		{"_id": "b2"},
	}
	right := []Row{
		{"_id": "p1", "brand_id": "b1"},
	}

	pairs := Join(left, right, "_id", "brand_id", LeftOuter)

	require.Len(t, pairs, 2)
	assert.Equal(t, "b2", pairs[1].Left["_id"])
	assert.Nil(t, pairs[1].Right)
}

func TestJoinFanOutPreservesOrder(t *testing.T) {
	left := []Row{{"_id": "a"}, {"_id": "b"}}
	right := []Row{
		{"_id": "s1", "ref": "b"},
		{"_id": "s2", "ref": "a"},
		{"_id": "s3", "ref": "b"},
		{"_id": "s4", "ref": "a"},
	}

	pairs := Join(left, right, "_id", "ref", Inner)

	got := make([]string, 0, len(pairs))
	indexes := make([]int, 0, len(pairs))
	for _, p := range pairs {
		got = append(got, p.Left["_id"].(string)+":"+p.Right["_id"].(string))
		indexes = append(indexes, p.Index)
	}
	assert.Equal(t, []string{"a:s2", "a:s4", "b:s1", "b:s3"}, got)
	assert.Equal(t, []int{0, 0, 1, 1}, indexes)
}

func TestJoinMatchesNativeAndStringIdentifiers(t *testing.T) {
	oid := primitive.NewObjectID()
	left := []Row{{"_id": oid}}
	right := []Row{{"_id": "r1", "ref": oid.Hex()}}

	pairs := Join(left, right, "_id", "ref", Inner)

	require.Len(t, pairs, 1)
	assert.Equal(t, "r1", pairs[0].Right["_id"])
}

func TestJoinNilKeysNeverMatch(t *testing.T) {
	left := []Row{{"_id": nil}}
	right := []Row{{"ref": nil}}

	assert.Empty(t, Join(left, right, "_id", "ref", Inner))
	pairs := Join(left, right, "_id", "ref", LeftOuter)
	require.Len(t, pairs, 1)
	assert.Nil(t, pairs[0].Right)
}

func TestKeyNormalisesNumbers(t *testing.T) {
	a, ok := Key(int64(7))
	require.True(t, ok)
	b, _ := Key(float64(7))
	c, _ := Key("7")
	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestKeyOfTimestamp(t *testing.T) {
	key, ok := Key(time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, "2025-07-10T00:00:00Z", key)
}

func TestKeyFoldsObjectIDCase(t *testing.T) {
	oid := primitive.NewObjectID()
	upper, _ := Key(strings.ToUpper(oid.Hex()))
	native, _ := Key(oid)
	assert.Equal(t, native, upper)
}

func TestRowGetNestedPath(t *testing.T) {
	r := Row{"product": Row{"brand": map[string]any{"name": "Puma"}}}

	assert.Equal(t, "Puma", r.Get("product.brand.name"))
	assert.Nil(t, r.Get("product.missing.name"))
	assert.Nil(t, r.Get("nothing"))
}
