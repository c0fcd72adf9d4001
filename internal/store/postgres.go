package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"clothing-store/internal/pipeline"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresStore keeps each collection in its own table as JSONB documents.
type PostgresStore struct {
	db *sqlx.DB
}

type documentRecord struct {
	ID  string `db:"id"`
	Doc []byte `db:"doc"`
}

// NewPostgresStore creates a new database store
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w: %w", ErrUnavailable, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w: %w", ErrUnavailable, err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the collection tables when they are missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, coll := range Collections {
		stmt := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %[1]s (
				id         TEXT PRIMARY KEY,
				doc        JSONB NOT NULL DEFAULT '{}'::jsonb,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS %[1]s_doc_gin ON %[1]s USING GIN (doc jsonb_path_ops);`, coll)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", coll, err)
		}
	}
	return nil
}

// Find returns every document containing the filter, in insertion order.
func (s *PostgresStore) Find(ctx context.Context, coll Collection, filter Filter) ([]Document, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}

	contains := Filter{}
	where := []string{"doc @> $1::jsonb"}
	args := []any{nil}
	for field, want := range filter {
		day, ok := want.(DayMatch)
		if !ok {
			contains[field] = want
			continue
		}
		// Textual dates start with their calendar day.
		args = append(args, field, day.Day)
		where = append(where, fmt.Sprintf("left(doc->>$%d, 10) = $%d", len(args)-1, len(args)))
	}

	filterJSON, err := json.Marshal(contains)
	if err != nil {
		return nil, fmt.Errorf("failed to encode filter: %w", err)
	}
	args[0] = filterJSON

	query := fmt.Sprintf("SELECT id, doc FROM %s WHERE %s ORDER BY created_at, id", coll, strings.Join(where, " AND "))

	var records []documentRecord
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, unavailable("find", coll, err)
	}

	docs := make([]Document, 0, len(records))
	for _, rec := range records {
		doc, err := rec.document()
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s %s: %w", coll, rec.ID, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// FindOne retrieves a document by ID
func (s *PostgresStore) FindOne(ctx context.Context, coll Collection, id string) (Document, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}

	var rec documentRecord
	err := s.db.GetContext(ctx, &rec, fmt.Sprintf("SELECT id, doc FROM %s WHERE id = $1", coll), canonicalID(id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s %s: %w", coll, id, ErrNotFound)
	}
	if err != nil {
		return nil, unavailable("find one", coll, err)
	}
	return rec.document()
}

// Insert stores a document, keeping a caller-supplied _id when present.
func (s *PostgresStore) Insert(ctx context.Context, coll Collection, doc Document) (string, error) {
	if err := checkCollection(coll); err != nil {
		return "", err
	}

	body := doc.Clone()
	id := pipeline.IDString(body[IDField])
	if id == "" {
		id = uuid.New().String()
	}
	delete(body, IDField)

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	query := fmt.Sprintf("INSERT INTO %s (id, doc) VALUES ($1, $2::jsonb) ON CONFLICT (id) DO NOTHING", coll)
	res, err := s.db.ExecContext(ctx, query, id, payload)
	if err != nil {
		return "", unavailable("insert", coll, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", fmt.Errorf("%s %s: %w", coll, id, ErrDuplicateID)
	}
	return id, nil
}

// Update merges patch into the stored document and returns the matched count.
func (s *PostgresStore) Update(ctx context.Context, coll Collection, id string, patch Document) (int64, error) {
	if err := checkCollection(coll); err != nil {
		return 0, err
	}

	body := patch.Clone()
	delete(body, IDField)
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to encode patch: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET doc = doc || $1::jsonb WHERE id = $2", coll),
		payload, canonicalID(id))
	if err != nil {
		return 0, unavailable("update", coll, err)
	}
	return res.RowsAffected()
}

// Delete removes a document and returns the deleted count.
func (s *PostgresStore) Delete(ctx context.Context, coll Collection, id string) (int64, error) {
	if err := checkCollection(coll); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", coll), canonicalID(id))
	if err != nil {
		return 0, unavailable("delete", coll, err)
	}
	return res.RowsAffected()
}

func (r documentRecord) document() (Document, error) {
	doc := Document{}
	if len(r.Doc) > 0 {
		if err := json.Unmarshal(r.Doc, &doc); err != nil {
			return nil, err
		}
	}
	doc[IDField] = r.ID
	return doc, nil
}
