package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ApplyDDL runs the statements of ddl ordered by name. Statements are expected
// to be idempotent; duplicate_object errors are skipped.
func ApplyDDL(ctx context.Context, db *sql.DB, ddl map[string]string, log *zap.Logger) error {
	keys := make([]string, 0, len(ddl))
	for k := range ddl {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	for _, k := range keys {
		sqlText := strings.TrimSpace(ddl[k])
		if sqlText == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, sqlText); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "42710" {
				log.Info("ddl skipped, already exists", zap.String("stmt", k), zap.String("detail", strings.TrimSpace(pgErr.Message)))
				continue
			}
			e := strings.ToLower(err.Error())
			if strings.Contains(e, "already exists") || strings.Contains(e, "duplicate") {
				log.Info("ddl skipped, already exists", zap.String("stmt", k), zap.Error(err))
				continue
			}
			return fmt.Errorf("apply ddl %s: %w", k, err)
		}
		log.Debug("ddl applied", zap.String("stmt", k))
	}
	return nil
}
