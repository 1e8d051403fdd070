// Package docstore persists JSON documents keyed by kind and key in a SQL
// table. The Postgres and SQLite packages supply the connection, the DDL
// and the placeholder style.
package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Table is the documents table name.
const Table = "documents"

type Document struct {
	Kind      string
	Key       string
	Version   int64
	Body      []byte
	UpdatedAt time.Time
}

// Store is the persistence contract used by the API storage.
type Store interface {
	Put(ctx context.Context, doc Document) error
	Delete(ctx context.Context, kind, key string) error
	All(ctx context.Context, kind string) ([]Document, error)
	Close() error
}

// Placeholder renders the n-th (1-based) bind parameter.
type Placeholder func(n int) string

// Dollar renders Postgres-style $n parameters.
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// Question renders ? parameters.
func Question(int) string { return "?" }

// SQLStore implements Store over database/sql.
type SQLStore struct {
	db *sql.DB
	ph Placeholder
}

func NewSQL(db *sql.DB, ph Placeholder) *SQLStore {
	return &SQLStore{db: db, ph: ph}
}

func (s *SQLStore) bind(q string) string {
	n := 0
	var b strings.Builder
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString(s.ph(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Put(ctx context.Context, doc Document) error {
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}
	q := s.bind(`insert into ` + Table + ` (kind, key, version, body, updated_at)
values (?, ?, ?, ?, ?)
on conflict (kind, key) do update set
  version = excluded.version, body = excluded.body, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, q, doc.Kind, doc.Key, doc.Version, string(doc.Body), doc.UpdatedAt); err != nil {
		return fmt.Errorf("put %s/%s: %w", doc.Kind, doc.Key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, kind, key string) error {
	q := s.bind(`delete from ` + Table + ` where kind = ? and key = ?`)
	if _, err := s.db.ExecContext(ctx, q, kind, key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", kind, key, err)
	}
	return nil
}

func (s *SQLStore) All(ctx context.Context, kind string) ([]Document, error) {
	q := s.bind(`select kind, key, version, body, updated_at from ` + Table + ` where kind = ? order by key`)
	rows, err := s.db.QueryContext(ctx, q, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var (
			d    Document
			body string
		)
		if err := rows.Scan(&d.Kind, &d.Key, &d.Version, &body, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		d.Body = []byte(body)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLStore) Close() error { return s.db.Close() }
