package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spigell/hire-labor/internal/registry"
)

const postgresListWorkers = `SELECT id::text, name, skill, phone, available, lat, lng FROM workers ORDER BY position`

// rowQuerier is the part of *pgxpool.Pool the store reads through.
type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore reads workers from a "workers" table in insertion order:
//
//	CREATE TABLE workers (
//	    position  bigserial PRIMARY KEY,
//	    id        text,
//	    name      text,
//	    skill     text,
//	    phone     text,
//	    available boolean,
//	    lat       double precision,
//	    lng       double precision
//	);
//
// Any column but position may be NULL.
type PostgresStore struct {
	pool *pgxpool.Pool
	db   rowQuerier
}

// ConnectPostgres establishes a connection pool and verifies it.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool, db: pool}, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) FetchAll(ctx context.Context) ([]registry.RawRecord, error) {
	rows, err := s.db.Query(ctx, postgresListWorkers)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	defer rows.Close()

	records := []registry.RawRecord{}
	for rows.Next() {
		var (
			r                      registry.RawRecord
			id, name, skill, phone *string
		)
		if err := rows.Scan(&id, &name, &skill, &phone, &r.Available, &r.Lat, &r.Lng); err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		r.ID = deref(id)
		r.Name = deref(name)
		r.Skill = deref(skill)
		r.Phone = deref(phone)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workers: %w", err)
	}

	return records, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
