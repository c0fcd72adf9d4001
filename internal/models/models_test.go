package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSaleToDocument(t *testing.T) {
	sale := &Sale{
		ProductID: "p1",
		UserID:    "u1",
		SaleDate:  "2025-07-10",
		Quantity:  5,
		Total:     decimal.RequireFromString("600.50"),
	}

	doc := sale.ToDocument()

	assert.NotContains(t, doc, "_id")
	assert.Equal(t, 5, doc["quantity"])
	assert.Equal(t, 600.5, doc["total"])
	assert.Equal(t, "2025-07-10", doc["sale_date"])
}

func TestUserToDocumentDefaultsCreatedAt(t *testing.T) {
	doc := (&User{ID: "u1", Username: "juan01"}).ToDocument()

	assert.Equal(t, "u1", doc["_id"])
	_, err := time.Parse(time.RFC3339, doc["created_at"].(string))
	assert.NoError(t, err)
}

func TestDecodeDocuments(t *testing.T) {
	oid := primitive.NewObjectID()
	docs := []map[string]any{
		{
			"_id":        oid,
			"product_id": "p1",
			"user_id":    "u1",
			"sale_date":  "2025-07-10",
			"quantity":   float64(3),
			"total":      450.0,
		},
	}

	var sales []Sale
	require.NoError(t, DecodeDocuments(docs, &sales))

	require.Len(t, sales, 1)
	assert.Equal(t, oid.Hex(), sales[0].ID)
	assert.Equal(t, 3, sales[0].Quantity)
	assert.True(t, decimal.NewFromInt(450).Equal(sales[0].Total))
}

func TestDecodeDocumentsParsesTimes(t *testing.T) {
	docs := []map[string]any{
		{"_id": "r1", "rating": 4, "review_date": "2025-07-06T00:00:00Z"},
	}

	var reviews []Review
	require.NoError(t, DecodeDocuments(docs, &reviews))

	assert.Equal(t, 2025, reviews[0].ReviewDate.Year())
	assert.Equal(t, 4, reviews[0].Rating)
}

func TestDecodeDocumentFromRequestPayload(t *testing.T) {
	var p Product
	err := DecodeDocument(map[string]any{
		"name":     "Air Max",
		"brand_id": primitive.NewObjectIDFromTimestamp(time.Unix(0, 0)),
		"price":    "120.50",
		"stock":    float64(50),
	}, &p)
	require.NoError(t, err)
	assert.Equal(t, "000000000000000000000000", p.BrandID)
	assert.Equal(t, "120.5", p.Price.String())
	assert.Equal(t, 50, p.Stock)
	assert.Equal(t, map[string]string{"brands": p.BrandID}, p.References())

	err = DecodeDocument(map[string]any{"stock": "lots"}, &p)
	assert.Error(t, err)
}

func TestSaleDay(t *testing.T) {
	for _, v := range []any{
		"2025-07-10",
		"2025-07-10 14:30",
		"2025-07-10T23:00:00Z",
		time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC),
		primitive.NewDateTimeFromTime(time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)),
	} {
		day, ok := SaleDay(v)
		require.True(t, ok, "%v", v)
		assert.Equal(t, "2025-07-10", day)
	}

	_, ok := SaleDay("yesterday")
	assert.False(t, ok)
	_, ok = SaleDay(nil)
	assert.False(t, ok)
}

func TestDecodeSaleWithTimestampDate(t *testing.T) {
	var sales []Sale
	err := DecodeDocuments([]map[string]any{
		{"_id": "s1", "sale_date": time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC), "quantity": 5},
		{"_id": "s2", "sale_date": primitive.NewDateTimeFromTime(time.Date(2025, 7, 11, 0, 0, 0, 0, time.UTC))},
	}, &sales)

	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "2025-07-10", sales[0].SaleDate)
	assert.Equal(t, "2025-07-11", sales[1].SaleDate)
}
