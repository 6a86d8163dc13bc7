// Package database implements the record store contracts on postgres. The
// place/astro-record relation lives in a single join table, so symmetry holds
// by construction no matter which side writes it.
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkarev/suntrack/internal/config"
	"github.com/mkarev/suntrack/internal/domain"
)

type DB struct {
	pool   *pgxpool.Pool
	tables config.Tables
}

func New(pool *pgxpool.Pool, t config.Tables) *DB {
	return &DB{pool: pool, tables: t}
}

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Places returns the place-side repository view.
func (d *DB) Places() domain.PlaceRepository { return &placeRepo{d} }

// Records returns the record-side repository view.
func (d *DB) Records() domain.AstroRecordRepository { return &recordRepo{d} }

func (d *DB) qt(tbl string) string {
	return fmt.Sprintf(`"%s"."%s"`, d.tables.Schema, tbl)
}

// Migrate creates the schema objects if they do not exist yet. The join table
// cascades on both sides so deleting an entity drops its relation rows.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			country TEXT
		)`, d.qt(d.tables.Place)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			date DATE NOT NULL,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			sunrise TIMESTAMPTZ,
			sunset TIMESTAMPTZ
		)`, d.qt(d.tables.Record)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			place_id INT NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			record_id INT NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			PRIMARY KEY (place_id, record_id)
		)`, d.qt(d.tables.Relation), d.qt(d.tables.Place), d.qt(d.tables.Record)),
	}
	for _, stmt := range stmts {
		if _, err := d.pool.Exec(ctx, stmt); err != nil {
			return storeErr("migrate", err)
		}
	}
	return nil
}

// storeErr wraps persistence failures while letting the business sentinels
// and context cancellation pass through untouched.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &domain.StoreError{Op: op, Err: err}
}
