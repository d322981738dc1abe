package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Log is an append-only Postgres record of submitted element sets. It is an
// optional persistence backend: the server replays it into an in-memory
// Store at boot and appends every accepted ingestion to it. Rows are never
// updated or deleted.
type Log struct {
	pool *pgxpool.Pool
}

// OpenLog connects a pgx pool against dsn and ensures the schema exists.
func OpenLog(ctx context.Context, dsn string) (*Log, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: connect: %w", err)
	}

	l := &Log{pool: pool}
	if err := l.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return l, nil
}

// Close releases the connection pool.
func (l *Log) Close() {
	l.pool.Close()
}

func (l *Log) ensureSchema(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS satellites (
			norad_cat_id INTEGER PRIMARY KEY,
			name         TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS element_sets (
			id           BIGSERIAL PRIMARY KEY,
			norad_cat_id INTEGER NOT NULL REFERENCES satellites (norad_cat_id),
			epoch        TIMESTAMPTZ NOT NULL,
			line1        TEXT NOT NULL,
			line2        TEXT NOT NULL,
			received_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS element_sets_object_epoch
			ON element_sets (norad_cat_id, epoch);
	`)
	if err != nil {
		return fmt.Errorf("catalog: ensure schema: %w", err)
	}
	return nil
}

// Append persists one validated element set. The caller is expected to have
// run the record through Store.Put (or tle.Validate) first; the log stores
// lines verbatim.
func (l *Log) Append(ctx context.Context, noradID int, name string, epoch time.Time, line1, line2 string) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO satellites (norad_cat_id, name)
		VALUES ($1, $2)
		ON CONFLICT (norad_cat_id) DO NOTHING
	`, noradID, name); err != nil {
		return fmt.Errorf("catalog: insert satellite: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO element_sets (norad_cat_id, epoch, line1, line2)
		VALUES ($1, $2, $3, $4)
	`, noradID, epoch, line1, line2); err != nil {
		return fmt.Errorf("catalog: insert element set: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("catalog: commit: %w", err)
	}
	return nil
}

// Replay loads every persisted element set into store, ordered by epoch.
// Rows that no longer validate are skipped and counted rather than aborting
// the whole warm start.
func (l *Log) Replay(ctx context.Context, store *Store) (loaded, skipped int, err error) {
	rows, err := l.pool.Query(ctx, `
		SELECT e.norad_cat_id, s.name, e.line1, e.line2
		FROM element_sets e
		JOIN satellites s ON s.norad_cat_id = e.norad_cat_id
		ORDER BY e.norad_cat_id, e.epoch
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("catalog: replay query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			noradID      int
			name         string
			line1, line2 string
		)
		if err := rows.Scan(&noradID, &name, &line1, &line2); err != nil {
			return loaded, skipped, fmt.Errorf("catalog: replay scan: %w", err)
		}
		if _, err := store.Put(noradID, name, line1, line2); err != nil {
			skipped++
			continue
		}
		loaded++
	}
	if err := rows.Err(); err != nil {
		return loaded, skipped, fmt.Errorf("catalog: replay rows: %w", err)
	}
	return loaded, skipped, nil
}
