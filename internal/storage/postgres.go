package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS plate_records (
	id         BIGSERIAL PRIMARY KEY,
	text       TEXT NOT NULL,
	timestamp  TIMESTAMPTZ NOT NULL DEFAULT now(),
	is_allowed BOOLEAN NOT NULL DEFAULT TRUE,
	image_name TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS plate_records_timestamp_idx ON plate_records (timestamp DESC);
CREATE TABLE IF NOT EXISTS blacklist (
	id         BIGSERIAL PRIMARY KEY,
	plate_text TEXT NOT NULL UNIQUE
);`

// PostgresStore keeps history and the disallow list in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to databaseURL and verifies the connection.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Migrate creates the tables when they do not exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// SaveRecord inserts rec and returns it with the generated ID.
func (p *PostgresStore) SaveRecord(ctx context.Context, rec PlateRecord) (PlateRecord, error) {
	query := `INSERT INTO plate_records (text, timestamp, is_allowed, image_name)
	          VALUES ($1, $2, $3, $4) RETURNING id`
	rec.Timestamp = rec.Timestamp.UTC()
	err := p.db.QueryRowContext(ctx, query, rec.Text, rec.Timestamp, rec.Allowed, rec.ImageName).Scan(&rec.ID)
	if err != nil {
		return PlateRecord{}, fmt.Errorf("failed to save plate record: %w", err)
	}
	return rec, nil
}

// RecentRecords returns up to limit records ordered by timestamp, newest first.
func (p *PostgresStore) RecentRecords(ctx context.Context, limit int) ([]PlateRecord, error) {
	query := `SELECT id, text, timestamp, is_allowed, image_name
	          FROM plate_records ORDER BY timestamp DESC, id DESC LIMIT $1`
	rows, err := p.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query plate records: %w", err)
	}
	defer rows.Close()

	var out []PlateRecord
	for rows.Next() {
		var rec PlateRecord
		if err := rows.Scan(&rec.ID, &rec.Text, &rec.Timestamp, &rec.Allowed, &rec.ImageName); err != nil {
			return nil, fmt.Errorf("failed to scan plate record: %w", err)
		}
		rec.Timestamp = rec.Timestamp.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read plate records: %w", err)
	}
	return out, nil
}

// ListBlacklist returns all entries ordered by ID.
func (p *PostgresStore) ListBlacklist(ctx context.Context) ([]BlacklistEntry, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, plate_text FROM blacklist ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query blacklist: %w", err)
	}
	defer rows.Close()

	var out []BlacklistEntry
	for rows.Next() {
		var e BlacklistEntry
		if err := rows.Scan(&e.ID, &e.PlateText); err != nil {
			return nil, fmt.Errorf("failed to scan blacklist entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read blacklist: %w", err)
	}
	return out, nil
}

// AddBlacklist inserts text. A unique violation returns the existing row
// with created set to false.
func (p *PostgresStore) AddBlacklist(ctx context.Context, text string) (BlacklistEntry, bool, error) {
	e := BlacklistEntry{PlateText: text}
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO blacklist (plate_text) VALUES ($1) RETURNING id`, text,
	).Scan(&e.ID)
	if err == nil {
		return e, true, nil
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code.Name() != "unique_violation" {
		return BlacklistEntry{}, false, fmt.Errorf("failed to add blacklist entry: %w", err)
	}

	err = p.db.QueryRowContext(ctx,
		`SELECT id FROM blacklist WHERE plate_text = $1`, text,
	).Scan(&e.ID)
	if err != nil {
		return BlacklistEntry{}, false, fmt.Errorf("failed to load existing blacklist entry: %w", err)
	}
	return e, false, nil
}

// RemoveBlacklist deletes the entry with id, or returns ErrNotFound.
func (p *PostgresStore) RemoveBlacklist(ctx context.Context, id int64) error {
	result, err := p.db.ExecContext(ctx, `DELETE FROM blacklist WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to remove blacklist entry: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check removed rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the connection pool.
func (p *PostgresStore) Close() error {
	return p.db.Close()
}
