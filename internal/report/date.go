package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"clothing-store/internal/models"
)

var (
	// ErrInvalidArgument marks input rejected before any report runs.
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDateRequired    = fmt.Errorf("%w: date is required", ErrInvalidArgument)
	ErrInvalidDate     = fmt.Errorf("%w: invalid date", ErrInvalidArgument)
)

// ParseDate reads a sale date from user input. Only the calendar day is kept.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrDateRequired
	}

	if day, ok := models.ParseDay(raw); ok {
		return day, nil
	}
	return time.Time{}, fmt.Errorf("%w %q, expected YYYY-MM-DD", ErrInvalidDate, raw)
}
