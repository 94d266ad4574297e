package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CreateProducer inserts a new producer and returns its assigned id.
// Names are unique; inserting a duplicate name fails with a constraint error.
func (s *Store) CreateProducer(ctx context.Context, p Producer) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO producers (name, contact, address, products, category)
		VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Contact, p.Address, p.Products, p.Category,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetProducer returns the producer with the given id.
func (s *Store) GetProducer(ctx context.Context, id int64) (Producer, error) {
	var p Producer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, contact, address, products, category
		FROM producers WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Contact, &p.Address, &p.Products, &p.Category)
	if err == sql.ErrNoRows {
		return Producer{}, ErrNotFound
	}
	return p, err
}

// ProducerExists reports whether a producer with the given name is present.
func (s *Store) ProducerExists(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM producers WHERE name = ?", name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// ListProducers returns producers in insertion order, optionally filtered by a
// substring match on name or category. searchBy is "name" or "category"; an
// empty search term returns everything.
func (s *Store) ListProducers(ctx context.Context, search, searchBy string) ([]Producer, error) {
	query := "SELECT id, name, contact, address, products, category FROM producers"
	var params []any

	if search != "" {
		switch searchBy {
		case "", "name":
			query += " WHERE name LIKE ?"
		case "category":
			query += " WHERE category LIKE ?"
		default:
			return nil, fmt.Errorf("unknown search field %q", searchBy)
		}
		params = append(params, "%"+search+"%")
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Producer
	for rows.Next() {
		var p Producer
		if err := rows.Scan(&p.ID, &p.Name, &p.Contact, &p.Address, &p.Products, &p.Category); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// UpdateProducer replaces all fields of the producer with p.ID.
func (s *Store) UpdateProducer(ctx context.Context, p Producer) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE producers SET name = ?, contact = ?, address = ?, products = ?, category = ?
		WHERE id = ?`,
		p.Name, p.Contact, p.Address, p.Products, p.Category, p.ID,
	)
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

// DeleteProducer removes the producer with the given id.
func (s *Store) DeleteProducer(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM producers WHERE id = ?", id)
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

// searchProducers builds one disjunctive LIKE filter across the name, products
// and category columns for every keyword, capped at limit rows to bound the
// prompt size downstream. Results follow insertion order; no ranking.
func searchProducers(ctx context.Context, db *sql.DB, keywords []string, limit int) ([]Producer, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	var clauses []string
	var params []any
	for _, kw := range keywords {
		clauses = append(clauses, "name LIKE ? OR products LIKE ? OR category LIKE ?")
		like := "%" + kw + "%"
		params = append(params, like, like, like)
	}
	params = append(params, limit)

	query := `SELECT id, name, contact, address, products, category FROM producers
		WHERE ` + strings.Join(clauses, " OR ") + " LIMIT ?"

	rows, err := db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Producer
	for rows.Next() {
		var p Producer
		if err := rows.Scan(&p.ID, &p.Name, &p.Contact, &p.Address, &p.Products, &p.Category); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// SearchProducers performs the retriever's keyword lookup on the main handle.
func (s *Store) SearchProducers(ctx context.Context, keywords []string, limit int) ([]Producer, error) {
	return searchProducers(ctx, s.db, keywords, limit)
}
