package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/spigell/hire-labor/internal/registry"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS workers (
    position INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL DEFAULT '',
    skill TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL DEFAULT '',
    available INTEGER,
    lat REAL,
    lng REAL
);
CREATE INDEX IF NOT EXISTS idx_workers_id ON workers(id);
`

// SQLiteStore keeps workers in a local SQLite database. Rows are returned in
// insertion order; duplicate ids are left to registry.Normalize.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database at dataSourceName and creates the schema.
func OpenSQLite(ctx context.Context, dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases alive between calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) FetchAll(ctx context.Context) ([]registry.RawRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, skill, phone, available, lat, lng FROM workers ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	defer rows.Close()

	records := []registry.RawRecord{}
	for rows.Next() {
		var (
			r         registry.RawRecord
			available sql.NullBool
			lat, lng  sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Skill, &r.Phone, &available, &lat, &lng); err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		if available.Valid {
			r.Available = boolPtr(available.Bool)
		}
		if lat.Valid {
			r.Lat = floatPtr(lat.Float64)
		}
		if lng.Valid {
			r.Lng = floatPtr(lng.Float64)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workers: %w", err)
	}

	return records, nil
}

// Seed replaces all stored workers with records in a single transaction.
func (s *SQLiteStore) Seed(ctx context.Context, records []registry.RawRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM workers`); err != nil {
		return fmt.Errorf("failed to clear workers: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO workers (id, name, skill, phone, available, lat, lng) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.ID, r.Name, r.Skill, r.Phone, nullBool(r.Available), nullFloat(r.Lat), nullFloat(r.Lng)); err != nil {
			return fmt.Errorf("failed to insert worker %q: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
