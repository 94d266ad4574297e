// Package assistant orchestrates the two natural-language flows over the
// producer directory: retrieval-grounded chat and translated structured
// queries. Per request the steps are strictly sequential; concurrency lives
// in the dispatch layer that invokes this package.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ipetrenko/enerdex/internal/llm"
	"github.com/ipetrenko/enerdex/internal/responder"
	"github.com/ipetrenko/enerdex/internal/retrieval"
	"github.com/ipetrenko/enerdex/internal/storage"
	"github.com/ipetrenko/enerdex/internal/translator"
)

const defaultTimeout = 30 * time.Second

// ProducersSchema describes the queryable directory table for prompt
// building. Built once at startup, read-only thereafter.
func ProducersSchema() translator.Schema {
	return translator.Schema{
		Table: "producers",
		Columns: []translator.Column{
			{Name: "id", Role: "integer primary key"},
			{Name: "name", Role: "unique producer name"},
			{Name: "contact", Role: "contact details"},
			{Name: "address", Role: "postal address"},
			{Name: "products", Role: "products the producer offers"},
			{Name: "category", Role: "energy category (e.g. Solar, Wind, Hydro, Biofuel, Geothermal, Nuclear, Fossil Fuel)"},
		},
		Description: "Stores information about global energy producers including their name, " +
			"contact details, address, products they offer, and their energy category.",
	}
}

// ReadOpener yields a fresh read-only store handle. Each invocation that
// touches the store opens and closes its own handle; the interactive layer's
// handle is never shared into assistant work.
type ReadOpener func() (*storage.ReadHandle, error)

// ChatResult is the outcome of one grounded chat turn.
type ChatResult struct {
	Reply     responder.Reply
	Context   retrieval.Context
	SearchURL string // set only for fallback replies
}

// QueryResult is the outcome of one translated structured query.
type QueryResult struct {
	Candidate translator.CandidateQuery
	Columns   []string
	Rows      [][]string
}

// Assistant wires the retriever, translator and responder to a model
// capability and the directory store.
type Assistant struct {
	gen      llm.Generator // nil when no model is configured
	schema   translator.Schema
	openRead ReadOpener
	timeout  time.Duration
	limit    int
}

// New creates an Assistant. gen may be nil, in which case every operation
// fails fast with ErrModelUnavailable. timeout bounds each model call
// (default 30s if <= 0); limit caps retrieved context rows.
func New(gen llm.Generator, schema translator.Schema, openRead ReadOpener, timeout time.Duration, limit int) *Assistant {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Assistant{
		gen:      gen,
		schema:   schema,
		openRead: openRead,
		timeout:  timeout,
		limit:    limit,
	}
}

// Schema returns the immutable schema descriptor the assistant prompts with.
func (a *Assistant) Schema() translator.Schema {
	return a.schema
}

// Chat answers a question grounded in freshly retrieved directory context.
// Retrieval failures degrade to an advisory context; model failures map to
// the error taxonomy.
func (a *Assistant) Chat(ctx context.Context, question string) (ChatResult, error) {
	if a.gen == nil {
		return ChatResult{}, ErrModelUnavailable
	}

	rctx := a.retrieveContext(ctx, question)

	genCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	reply, err := responder.Answer(genCtx, a.gen, question, rctx)
	if err != nil {
		return ChatResult{}, mapModelError(err)
	}

	result := ChatResult{Reply: reply, Context: rctx}
	if reply.Kind == responder.FallbackSuggested {
		result.SearchURL = responder.SearchURL(reply.SearchQuery)
	}
	return result, nil
}

// Query translates the question into a candidate read query, validates it, and
// executes it on a fresh read-only handle. Rejected candidates never touch the
// store; execution failures surface as StoreExecutionError.
func (a *Assistant) Query(ctx context.Context, question string) (QueryResult, error) {
	if a.gen == nil {
		return QueryResult{}, ErrModelUnavailable
	}

	genCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	candidate, err := translator.Translate(genCtx, a.gen, a.schema, question)
	if err != nil {
		return QueryResult{}, mapModelError(err)
	}

	if candidate.State != translator.Valid {
		return QueryResult{Candidate: candidate}, &TranslationRejectedError{Raw: candidate.SQL}
	}

	handle, err := a.openRead()
	if err != nil {
		return QueryResult{Candidate: candidate}, &StoreExecutionError{SQL: candidate.SQL, Err: err}
	}
	defer handle.Close()

	columns, rows, err := translator.Execute(ctx, handle, candidate)
	if err != nil {
		return QueryResult{Candidate: candidate}, &StoreExecutionError{SQL: candidate.SQL, Err: err}
	}

	return QueryResult{Candidate: candidate, Columns: columns, Rows: rows}, nil
}

// retrieveContext opens a dedicated read handle for this request and builds
// the grounding block. Any failure degrades to an advisory context.
func (a *Assistant) retrieveContext(ctx context.Context, question string) retrieval.Context {
	handle, err := a.openRead()
	if err != nil {
		slog.Warn("opening read handle for retrieval failed", "error", err)
		return retrieval.Degraded()
	}
	defer handle.Close()

	return retrieval.NewRetriever(handle, a.limit).Retrieve(ctx, question)
}

// mapModelError folds transport-level model failures into the taxonomy:
// deadline hits become ErrTimedOut, everything else ErrModelUnavailable.
// Retryable and fatal causes are deliberately not distinguished.
func mapModelError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimedOut
	}
	return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
}
