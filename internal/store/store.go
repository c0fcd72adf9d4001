package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clothing-store/config"
	"clothing-store/internal/models"
	"clothing-store/internal/pipeline"
)

// Collection names one of the five document collections.
type Collection string

const (
	Brands   Collection = "brands"
	Products Collection = "products"
	Users    Collection = "users"
	Reviews  Collection = "reviews"
	Sales    Collection = "sales"
)

// Collections lists every collection in a stable order.
var Collections = []Collection{Brands, Products, Users, Reviews, Sales}

// Valid reports whether c is one of the known collections.
func (c Collection) Valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}

// IDField is the document field holding its identifier.
const IDField = "_id"

// Document is a schemaless record. References to other collections are
// plain identifier fields and are never enforced.
type Document map[string]any

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Filter matches documents whose fields equal the given values. A DayMatch
// value matches a date field by calendar day instead.
type Filter map[string]any

// DayMatch matches a date field falling on Day, whether the field holds a
// textual date or a timestamp.
type DayMatch struct {
	Day string
}

// OnDay builds a DayMatch for the UTC day of t.
func OnDay(t time.Time) DayMatch {
	return DayMatch{Day: t.UTC().Format(models.SaleDateLayout)}
}

var (
	ErrNotFound          = errors.New("document not found")
	ErrUnavailable       = errors.New("store unavailable")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrDuplicateID       = errors.New("duplicate document id")
)

// CollectionStore is the storage contract shared by every backend.
type CollectionStore interface {
	Find(ctx context.Context, coll Collection, filter Filter) ([]Document, error)
	FindOne(ctx context.Context, coll Collection, id string) (Document, error)
	Insert(ctx context.Context, coll Collection, doc Document) (string, error)
	Update(ctx context.Context, coll Collection, id string, patch Document) (int64, error)
	Delete(ctx context.Context, coll Collection, id string) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (CollectionStore, error) {
	switch cfg.Driver {
	case config.StoreDriverPostgres:
		s, err := NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case config.StoreDriverMongo:
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.StoreDriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// canonicalID folds hex ObjectID strings to lower case, matching how
// reports compare identifiers.
func canonicalID(id string) string {
	return pipeline.IDString(id)
}

func checkCollection(coll Collection) error {
	if !coll.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, coll)
	}
	return nil
}

func unavailable(op string, coll Collection, err error) error {
	return fmt.Errorf("%s %s: %w: %w", op, coll, ErrUnavailable, err)
}
