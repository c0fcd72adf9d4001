package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SaleDateLayout is the canonical form of Sale.SaleDate.
const SaleDateLayout = "2006-01-02"

var dayLayouts = []string{
	SaleDateLayout,
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDay reads a calendar day from text, dropping any time of day.
func ParseDay(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// SaleDay returns the canonical day of a stored sale date. Dates written as
// BSON timestamps resolve the same as their textual form.
func SaleDay(v any) (string, bool) {
	switch d := v.(type) {
	case string:
		t, ok := ParseDay(d)
		if !ok {
			return "", false
		}
		return t.Format(SaleDateLayout), true
	case time.Time:
		return d.UTC().Format(SaleDateLayout), true
	case primitive.DateTime:
		return d.Time().UTC().Format(SaleDateLayout), true
	default:
		return "", false
	}
}
