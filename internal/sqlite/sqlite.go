// Package sqlite provides a single-file document store for local use.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"armybuilder/internal/docstore"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) the database file at path.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `pragma busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	return db, nil
}

func Schema() map[string]string {
	t := docstore.Table
	return map[string]string{
		"01_" + t: fmt.Sprintf(`create table if not exists %s (
  kind       text      not null,
  key        text      not null,
  version    integer   not null default 1,
  body       text      not null,
  updated_at timestamp not null,
  primary key (kind, key)
)`, t),
		"02_" + t + "_updated": fmt.Sprintf(`create index if not exists %s_updated_idx on %s (kind, updated_at)`, t, t),
	}
}

// ApplyDDL runs the schema statements in name order.
func ApplyDDL(ctx context.Context, db *sql.DB, ddl map[string]string) error {
	keys := make([]string, 0, len(ddl))
	for k := range ddl {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := db.ExecContext(ctx, ddl[k]); err != nil {
			return fmt.Errorf("apply ddl %s: %w", k, err)
		}
	}
	return nil
}

func NewStore(db *sql.DB) *docstore.SQLStore {
	return docstore.NewSQL(db, docstore.Question)
}
