// Package postgres provides a PostgreSQL-backed implementation of the
// indicator history store.
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn)
//	if err != nil { … }
//	defer store.Close()
//
//	snaps, _ := store.Recent(ctx, userID, 30)
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maeumlabs/maeum/pkg/history"
	"github.com/maeumlabs/maeum/pkg/types"
)

const ddlIndicatorSnapshots = `
CREATE TABLE IF NOT EXISTS indicator_snapshots (
    id        BIGSERIAL        PRIMARY KEY,
    user_id   TEXT             NOT NULL,
    taken_at  TIMESTAMPTZ      NOT NULL DEFAULT now(),
    dri       DOUBLE PRECISION NOT NULL,
    sdi       DOUBLE PRECISION NOT NULL,
    cfl       DOUBLE PRECISION NOT NULL,
    es        DOUBLE PRECISION NOT NULL,
    ov        DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_indicator_snapshots_user_taken
    ON indicator_snapshots (user_id, taken_at);
`

// Store is the PostgreSQL-backed indicator history. All operations are safe
// for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store, establishes a connection pool to the PostgreSQL
// database at dsn, and runs [Migrate] to ensure the snapshot table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("history store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history store: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Migrate ensures the snapshot table and its indexes exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlIndicatorSnapshots); err != nil {
		return fmt.Errorf("apply indicator_snapshots DDL: %w", err)
	}
	return nil
}

// Close releases all connections held by the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Recent implements [history.Store].
func (s *Store) Recent(ctx context.Context, userID string, days int) ([]types.IndicatorSnapshot, error) {
	const q = `
		SELECT taken_at, dri, sdi, cfl, es, ov
		FROM indicator_snapshots
		WHERE user_id = $1 AND taken_at >= $2
		ORDER BY taken_at ASC`

	rows, err := s.pool.Query(ctx, q, userID, history.Window(time.Now(), days))
	if err != nil {
		return nil, fmt.Errorf("history store: recent: %w", err)
	}

	snaps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.IndicatorSnapshot, error) {
		var (
			snap                  types.IndicatorSnapshot
			dri, sdi, cfl, es, ov float64
		)
		if err := row.Scan(&snap.Timestamp, &dri, &sdi, &cfl, &es, &ov); err != nil {
			return snap, err
		}
		snap.Values = types.Scores{
			types.DRI: dri,
			types.SDI: sdi,
			types.CFL: cfl,
			types.ES:  es,
			types.OV:  ov,
		}
		return snap, nil
	})
	if err != nil {
		return nil, fmt.Errorf("history store: scan snapshots: %w", err)
	}
	return snaps, nil
}

// Append implements [history.Store].
func (s *Store) Append(ctx context.Context, userID string, snap types.IndicatorSnapshot) error {
	const q = `
		INSERT INTO indicator_snapshots (user_id, taken_at, dri, sdi, cfl, es, ov)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	ts := snap.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := s.pool.Exec(ctx, q,
		userID,
		ts,
		snap.Values[types.DRI],
		snap.Values[types.SDI],
		snap.Values[types.CFL],
		snap.Values[types.ES],
		snap.Values[types.OV],
	)
	if err != nil {
		return fmt.Errorf("history store: append: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ history.Store = (*Store)(nil)
