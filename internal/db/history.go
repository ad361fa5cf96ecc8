package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const createExports = `CREATE TABLE IF NOT EXISTS exports (
	id         VARCHAR PRIMARY KEY,
	frame      VARCHAR NOT NULL,
	effect     VARCHAR NOT NULL,
	width      INTEGER NOT NULL,
	height     INTEGER NOT NULL,
	bytes      INTEGER NOT NULL,
	filename   VARCHAR NOT NULL,
	created_at TIMESTAMP NOT NULL
)`

// ExportRecord is one row of the exports table.
type ExportRecord struct {
	ID        string    `json:"id" doc:"Export ID (ULID)"`
	Frame     string    `json:"frame" doc:"Frame style"`
	Effect    string    `json:"effect" doc:"Colour effect"`
	Width     int       `json:"width" doc:"Width in pixels"`
	Height    int       `json:"height" doc:"Height in pixels"`
	Bytes     int       `json:"bytes" doc:"PNG size in bytes"`
	Filename  string    `json:"filename" doc:"Download filename"`
	CreatedAt time.Time `json:"createdAt" doc:"When the export finished"`
}

// ExportHistory stores finished exports.
type ExportHistory struct {
	db *sql.DB
}

// NewExportHistory creates the exports table if needed.
func NewExportHistory(ctx context.Context, conn *sql.DB) (*ExportHistory, error) {
	if _, err := conn.ExecContext(ctx, createExports); err != nil {
		return nil, fmt.Errorf("creating exports table: %w", err)
	}
	return &ExportHistory{db: conn}, nil
}

// Record inserts one export.
func (h *ExportHistory) Record(ctx context.Context, r ExportRecord) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO exports (id, frame, effect, width, height, bytes, filename, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Frame, r.Effect, r.Width, r.Height, r.Bytes, r.Filename, r.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording export %s: %w", r.ID, err)
	}
	return nil
}

// Count returns the number of recorded exports.
func (h *ExportHistory) Count(ctx context.Context) (int, error) {
	var n int
	if err := h.db.QueryRowContext(ctx, `SELECT count(*) FROM exports`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting exports: %w", err)
	}
	return n, nil
}

// List returns the most recent exports first, skipping offset rows.
// limit <= 0 means 50.
func (h *ExportHistory) List(ctx context.Context, offset, limit int) ([]ExportRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, frame, effect, width, height, bytes, filename, created_at
		 FROM exports ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing exports: %w", err)
	}
	defer rows.Close()

	out := []ExportRecord{}
	for rows.Next() {
		var r ExportRecord
		if err := rows.Scan(&r.ID, &r.Frame, &r.Effect, &r.Width, &r.Height, &r.Bytes, &r.Filename, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning export: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
