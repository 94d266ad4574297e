package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SaveInteraction appends one assistant exchange to the log.
func (s *Store) SaveInteraction(ctx context.Context, i Interaction) error {
	createdAt := i.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interactions (id, created_at, kind, question, outcome, reply_text, search_query, sql_text, error_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, createdAt.UTC().Format(time.RFC3339), i.Kind, i.Question, i.Outcome,
		i.ReplyText, i.SearchQuery, i.SQL, i.ErrorText,
	)
	return err
}

// GetInteraction returns one logged exchange by id.
func (s *Store) GetInteraction(ctx context.Context, id string) (Interaction, error) {
	var i Interaction
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, kind, question, outcome, reply_text, search_query, sql_text, error_text
		FROM interactions WHERE id = ?`, id,
	).Scan(&i.ID, &createdAt, &i.Kind, &i.Question, &i.Outcome, &i.ReplyText, &i.SearchQuery, &i.SQL, &i.ErrorText)
	if err == sql.ErrNoRows {
		return Interaction{}, ErrNotFound
	}
	if err != nil {
		return Interaction{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Interaction{}, fmt.Errorf("parsing created_at: %w", err)
	}
	i.CreatedAt = t
	return i, nil
}

// GetRecentInteractions returns up to limit exchanges, newest first.
func (s *Store) GetRecentInteractions(ctx context.Context, limit int) ([]Interaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, kind, question, outcome, reply_text, search_query, sql_text, error_text
		FROM interactions ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Interaction
	for rows.Next() {
		var i Interaction
		var createdAt string
		if err := rows.Scan(&i.ID, &createdAt, &i.Kind, &i.Question, &i.Outcome, &i.ReplyText, &i.SearchQuery, &i.SQL, &i.ErrorText); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		i.CreatedAt = t
		results = append(results, i)
	}
	return results, rows.Err()
}

// DeleteInteraction removes one logged exchange.
func (s *Store) DeleteInteraction(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM interactions WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
