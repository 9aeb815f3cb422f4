// package repositories provides the metadata cache backends.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/yunx/internal/models"
	"github.com/goccy/go-json"
)

const upsertDocumentQuery = `
	INSERT INTO documents (collection, id, body, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(collection, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
`

// DocumentStore keeps JSON documents keyed by (collection, id) in SQLite.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore creates a new DocumentStore with the given database connection
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Get decodes the document stored under collection and id into v.
//
// It reports false without error when no document exists.
func (s *DocumentStore) Get(ctx context.Context, collection, id string, v any) (bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = ? AND id = ?", collection, id,
	).Scan(&body)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, models.CacheErr("get "+collection, err)
	}

	if err := json.Unmarshal([]byte(body), v); err != nil {
		return false, models.CacheErr("decode "+collection, err)
	}
	return true, nil
}

// Put upserts a single document.
func (s *DocumentStore) Put(ctx context.Context, collection string, doc models.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return models.CacheErr("encode "+collection, err)
	}

	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, upsertDocumentQuery, collection, doc.DocumentID(), string(body), now, now); err != nil {
		return models.CacheErr("put "+collection, err)
	}
	return nil
}

// PutDocuments upserts docs in a single transaction.
//
// All documents are encoded before the transaction starts, so an encoding
// failure writes nothing.
func PutDocuments[T models.Document](ctx context.Context, s *DocumentStore, collection string, docs []T) error {
	if len(docs) == 0 {
		return nil
	}

	bodies := make([]string, len(docs))
	for i, doc := range docs {
		body, err := json.Marshal(doc)
		if err != nil {
			return models.CacheErr("encode "+collection, err)
		}
		bodies[i] = string(body)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.CacheErr("begin "+collection, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertDocumentQuery)
	if err != nil {
		return models.CacheErr("prepare "+collection, err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, doc := range docs {
		if _, err := stmt.ExecContext(ctx, collection, doc.DocumentID(), bodies[i], now, now); err != nil {
			return models.CacheErr(fmt.Sprintf("put %s %s", collection, doc.DocumentID()), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.CacheErr("commit "+collection, err)
	}
	return nil
}

// Count returns the number of documents in collection.
func (s *DocumentStore) Count(ctx context.Context, collection string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE collection = ?", collection).Scan(&n); err != nil {
		return 0, models.CacheErr("count "+collection, err)
	}
	return n, nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE collection = ? AND id = ?", collection, id); err != nil {
		return models.CacheErr("delete "+collection, err)
	}
	return nil
}
