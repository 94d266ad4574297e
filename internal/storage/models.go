package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Producer is one row of the energy-producer directory.
type Producer struct {
	ID       int64
	Name     string
	Contact  string
	Address  string
	Products string
	Category string
}

// Interaction records one assistant exchange, either a grounded chat turn
// or a natural-language structured query.
type Interaction struct {
	ID          string
	CreatedAt   time.Time
	Kind        string // "chat" or "query"
	Question    string
	Outcome     string // "grounded", "fallback", "rows", "rejected", "error"
	ReplyText   string
	SearchQuery string
	SQL         string
	ErrorText   string
}
