package pg

import (
	"database/sql"
	"fmt"

	"armybuilder/internal/docstore"
)

// Schema returns the DDL for the documents table keyed by statement name.
func Schema() map[string]string {
	t := docstore.Table
	return map[string]string{
		"01_" + t: fmt.Sprintf(`create table if not exists %s (
  kind       text        not null,
  key        text        not null,
  version    bigint      not null default 1,
  body       jsonb       not null,
  updated_at timestamptz not null default now(),
  primary key (kind, key)
)`, t),
		"02_" + t + "_updated": fmt.Sprintf(`create index if not exists %s_updated_idx on %s (kind, updated_at desc)`, t, t),
	}
}

// NewStore wraps db as a document store.
func NewStore(db *sql.DB) *docstore.SQLStore {
	return docstore.NewSQL(db, docstore.Dollar)
}
