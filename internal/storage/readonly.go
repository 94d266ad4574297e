package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// ReadHandle is a freshly opened, read-only view of the directory database.
// Background work uses it instead of the interactive Store so that a slow or
// malformed query can never hold a lock the interactive layer needs. The
// query_only pragma is a second enforcement layer on top of the statement
// prefix check: even a SELECT-shaped statement with a mutating side effect
// fails at the connection.
type ReadHandle struct {
	db *sql.DB
}

// OpenReadOnly opens a new read-only handle on the database in dataDir.
// Callers own the handle and must Close it when the work unit finishes.
func OpenReadOnly(dataDir string) (*ReadHandle, error) {
	dsn, err := dsnFor(dataDir, false)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening read handle: %w", err)
	}

	// Single connection so the pragma below covers every statement.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA query_only = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting query_only: %w", err)
	}

	return &ReadHandle{db: db}, nil
}

// Close releases the handle's connection.
func (h *ReadHandle) Close() error {
	return h.db.Close()
}

// SearchProducers performs the retriever's keyword lookup on this handle.
func (h *ReadHandle) SearchProducers(ctx context.Context, keywords []string, limit int) ([]Producer, error) {
	return searchProducers(ctx, h.db, keywords, limit)
}

// Select runs an arbitrary read statement and returns column names plus all
// rows rendered as strings. NULLs come back as empty strings.
func (h *ReadHandle) Select(ctx context.Context, query string) ([]string, [][]string, error) {
	rows, err := h.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		raw := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range raw {
			row[i] = v.String
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}
