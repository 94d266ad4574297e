// Package translator turns natural-language questions into candidate SQL and
// gates execution behind a read-only allow-list. Model output is untrusted
// text; nothing that fails validation may ever reach a store handle.
package translator

import (
	"context"
	"fmt"
	"strings"

	"github.com/ipetrenko/enerdex/internal/llm"
)

// invalidMarker is what the model is told to emit when it cannot produce a
// read query. It fails validation like any other non-SELECT shape.
const invalidMarker = "INVALID_QUERY"

// readPrefix is the only statement prefix the allow-list accepts.
const readPrefix = "SELECT"

// ValidationState tags a candidate query's position in its lifecycle.
type ValidationState int

const (
	Unvalidated ValidationState = iota
	Valid
	Rejected
)

func (s ValidationState) String() string {
	switch s {
	case Valid:
		return "valid"
	case Rejected:
		return "rejected"
	default:
		return "unvalidated"
	}
}

// CandidateQuery is a model-produced statement pending the read-only check.
// Each user request produces exactly one; candidates are never retried.
type CandidateQuery struct {
	SQL   string
	State ValidationState
}

// Column pairs a column name with its semantic role, used only for prompting.
type Column struct {
	Name string
	Role string
}

// Schema is an immutable description of the queryable table. It is supplied
// once at startup and only ever rendered into prompts, never executed.
type Schema struct {
	Table       string
	Columns     []Column
	Description string
}

// Executor runs a validated read statement. *storage.ReadHandle satisfies it.
type Executor interface {
	Select(ctx context.Context, query string) (columns []string, rows [][]string, err error)
}

// BuildPrompt renders the schema and question into the translation prompt.
func BuildPrompt(schema Schema, question string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Given the SQLite table '%s' with columns:\n", schema.Table)
	for _, col := range schema.Columns {
		fmt.Fprintf(&sb, "  - %s: %s\n", col.Name, col.Role)
	}
	fmt.Fprintf(&sb, "\nTable description: %s\n\n", schema.Description)

	sb.WriteString("Convert the following natural language query into a valid SQLite SQL SELECT statement. ")
	sb.WriteString("Only provide the SQL query, nothing else. Do not add any backticks or extra formatting. ")
	fmt.Fprintf(&sb, "If the query cannot be translated to a SELECT statement, respond with '%s'.\n\n", invalidMarker)
	fmt.Fprintf(&sb, "Natural language query: '%s'\n\nSQL:", question)

	return sb.String()
}

// Translate asks the model for a single read statement and validates the
// response. The returned candidate is Valid or Rejected, never Unvalidated.
func Translate(ctx context.Context, gen llm.Generator, schema Schema, question string) (CandidateQuery, error) {
	raw, err := gen.Generate(ctx, BuildPrompt(schema, question))
	if err != nil {
		return CandidateQuery{}, err
	}
	return Validate(raw), nil
}

// Validate applies the allow-list: the trimmed response must case-insensitively
// begin with SELECT. Everything else, including the model's own INVALID_QUERY
// marker, is Rejected. This is a syntactic prefix check, not a parser; the
// read-only connection mode on the execution handle is the second layer.
func Validate(raw string) CandidateQuery {
	stmt := strings.TrimSpace(raw)
	if len(stmt) >= len(readPrefix) && strings.EqualFold(stmt[:len(readPrefix)], readPrefix) {
		return CandidateQuery{SQL: stmt, State: Valid}
	}
	return CandidateQuery{SQL: stmt, State: Rejected}
}

// Execute runs a Valid candidate on the given handle. Candidates in any other
// state are refused without touching the store.
func Execute(ctx context.Context, exec Executor, cq CandidateQuery) ([]string, [][]string, error) {
	if cq.State != Valid {
		return nil, nil, fmt.Errorf("refusing to execute %s candidate query", cq.State)
	}
	return exec.Select(ctx, cq.SQL)
}
