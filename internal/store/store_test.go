package store

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id, err := s.Insert(ctx, Brands, Document{"name": "Nike", "country": "USA"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	doc, err := s.FindOne(ctx, Brands, id)
	require.NoError(t, err)
	assert.Equal(t, "Nike", doc["name"])
	assert.Equal(t, id, doc[IDField])

	matched, err := s.Update(ctx, Brands, id, Document{"country": "US", IDField: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)

	doc, err = s.FindOne(ctx, Brands, id)
	require.NoError(t, err)
	assert.Equal(t, "US", doc["country"])
	assert.Equal(t, id, doc[IDField])

	deleted, err := s.Delete(ctx, Brands, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = s.FindOne(ctx, Brands, id)
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err = s.Delete(ctx, Brands, id)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestMemoryStoreFindPreservesInsertionOrderAndFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, d := range []Document{
		{IDField: "s1", "sale_date": "2025-07-10", "quantity": 5},
		{IDField: "s2", "sale_date": "2025-07-11", "quantity": 3},
		{IDField: "s3", "sale_date": "2025-07-10", "quantity": 7},
	} {
		_, err := s.Insert(ctx, Sales, d)
		require.NoError(t, err)
	}

	all, err := s.Find(ctx, Sales, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "s1", all[0][IDField])
	assert.Equal(t, "s3", all[2][IDField])

	onDay, err := s.Find(ctx, Sales, Filter{"sale_date": "2025-07-10"})
	require.NoError(t, err)
	require.Len(t, onDay, 2)
	assert.Equal(t, "s3", onDay[1][IDField])

	none, err := s.Find(ctx, Sales, Filter{"sale_date": "1999-01-01"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id, err := s.Insert(ctx, Products, Document{"name": "Air Max", "stock": 50})
	require.NoError(t, err)

	docs, err := s.Find(ctx, Products, nil)
	require.NoError(t, err)
	docs[0]["stock"] = 0

	doc, err := s.FindOne(ctx, Products, id)
	require.NoError(t, err)
	assert.Equal(t, 50, doc["stock"])
}

func TestMemoryStoreRejectsDuplicatesAndUnknownCollections(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Insert(ctx, Users, Document{IDField: "u1"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, Users, Document{IDField: "u1"})
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, err = s.Find(ctx, Collection("orders"), nil)
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestMemoryStoreUpdateMissingMatchesNothing(t *testing.T) {
	matched, err := NewMemoryStore().Update(context.Background(), Reviews, "missing", Document{"rating": 5})
	require.NoError(t, err)
	assert.Zero(t, matched)
}

func TestMemoryStoreFoldsObjectIDCase(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	upper := strings.ToUpper(primitive.NewObjectID().Hex())

	id, err := s.Insert(ctx, Brands, Document{IDField: upper, "name": "Nike"})
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(upper), id)

	doc, err := s.FindOne(ctx, Brands, upper)
	require.NoError(t, err)
	assert.Equal(t, "Nike", doc["name"])

	matched, err := s.Update(ctx, Brands, upper, Document{"country": "USA"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)

	deleted, err := s.Delete(ctx, Brands, upper)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestMemoryStoreDayFilter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, date := range []any{
		"2025-07-10",
		"2025-07-10 14:30:00",
		time.Date(2025, 7, 10, 23, 59, 0, 0, time.UTC),
		primitive.NewDateTimeFromTime(time.Date(2025, 7, 10, 8, 0, 0, 0, time.UTC)),
		"2025-07-11",
		time.Date(2025, 7, 11, 0, 0, 0, 0, time.UTC),
		"yesterday",
		nil,
	} {
		_, err := s.Insert(ctx, Sales, Document{"sale_date": date})
		require.NoError(t, err)
	}

	found, err := s.Find(ctx, Sales, Filter{"sale_date": OnDay(time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC))})
	require.NoError(t, err)
	assert.Len(t, found, 4)
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Integration test - requires database")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(url)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.EnsureSchema(ctx))

	id, err := s.Insert(ctx, Brands, Document{"name": "Puma", "country": "Germany"})
	require.NoError(t, err)
	defer s.Delete(ctx, Brands, id)

	found, err := s.Find(ctx, Brands, Filter{"name": "Puma"})
	require.NoError(t, err)
	assert.NotEmpty(t, found)

	saleID, err := s.Insert(ctx, Sales, Document{"sale_date": "2031-02-03", "quantity": 1})
	require.NoError(t, err)
	defer s.Delete(ctx, Sales, saleID)

	sales, err := s.Find(ctx, Sales, Filter{"sale_date": OnDay(time.Date(2031, 2, 3, 0, 0, 0, 0, time.UTC))})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, saleID, sales[0][IDField])

	matched, err := s.Update(ctx, Brands, id, Document{"country": "DE"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)
}

func TestMongoStoreRoundTrip(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("Integration test - requires mongo")
	}

	ctx := context.Background()
	s, err := NewMongoStore(ctx, uri, "clothing_store_test")
	require.NoError(t, err)
	defer s.Close()

	id, err := s.Insert(ctx, Brands, Document{"name": "Reebok", "country": "USA"})
	require.NoError(t, err)
	defer s.Delete(ctx, Brands, id)

	doc, err := s.FindOne(ctx, Brands, id)
	require.NoError(t, err)
	assert.Equal(t, "Reebok", doc["name"])

	_, err = s.FindOne(ctx, Brands, "not-an-object-id")
	assert.ErrorIs(t, err, ErrNotFound)

	day := time.Date(2031, 2, 3, 0, 0, 0, 0, time.UTC)
	var saleIDs []string
	for _, date := range []any{primitive.NewDateTimeFromTime(day.Add(10 * time.Hour)), "2031-02-03", "2031-02-04"} {
		saleID, err := s.Insert(ctx, Sales, Document{"sale_date": date, "quantity": 1})
		require.NoError(t, err)
		saleIDs = append(saleIDs, saleID)
	}
	defer func() {
		for _, saleID := range saleIDs {
			s.Delete(ctx, Sales, saleID)
		}
	}()

	sales, err := s.Find(ctx, Sales, Filter{"sale_date": OnDay(day)})
	require.NoError(t, err)
	assert.Len(t, sales, 2)
}
