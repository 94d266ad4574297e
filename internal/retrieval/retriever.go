// Package retrieval assembles the grounding context block for the assistant:
// keyword lookup over the producer directory rendered into compact text.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ipetrenko/enerdex/internal/intent"
	"github.com/ipetrenko/enerdex/internal/storage"
)

// DefaultLimit caps how many producer rows feed a single context block.
const DefaultLimit = 5

const (
	headerLine = "Relevant producer information from the directory:"

	adviceNoMatches  = "No specific producer data found in the directory for this question."
	adviceStoreError = "An error occurred while retrieving producer information from the directory."

	projectDescription = "General information about the directory: it centralizes data on " +
		"global energy producers and their products (e.g. solar, wind, oil, gas) alongside " +
		"contact details and energy categories."
)

// Searcher is the slice of the producer store the retriever needs.
type Searcher interface {
	SearchProducers(ctx context.Context, keywords []string, limit int) ([]storage.Producer, error)
}

// Context is an ordered grounding block built fresh per request. It always
// contains at least one line, so the responder prompt never sees an empty
// context section.
type Context struct {
	Lines []string
	// Advisory is true when no producer row contributed, either because
	// nothing matched or because the lookup failed.
	Advisory bool
}

// Render joins the block into the text form embedded in prompts.
func (c Context) Render() string {
	return strings.Join(c.Lines, "\n")
}

// Degraded returns the context used when the store could not be reached at
// all. The assistant still attempts an answer against it.
func Degraded() Context {
	return Context{
		Lines:    []string{adviceStoreError, projectDescription},
		Advisory: true,
	}
}

// Retriever builds grounding context from the producer directory.
type Retriever struct {
	store Searcher
	limit int
}

// NewRetriever creates a Retriever over the given store view. If limit <= 0,
// DefaultLimit applies.
func NewRetriever(store Searcher, limit int) *Retriever {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Retriever{store: store, limit: limit}
}

// Retrieve extracts keywords from the question and renders matching producers
// into one line each. Lookup failures are downgraded to an advisory line so
// the caller can still attempt a degraded answer; they never propagate.
func (r *Retriever) Retrieve(ctx context.Context, question string) Context {
	keywords := intent.Keywords(question)

	var lines []string
	advisory := true

	if len(keywords) > 0 {
		producers, err := r.store.SearchProducers(ctx, keywords, r.limit)
		switch {
		case err != nil:
			slog.Warn("context retrieval failed", "error", err)
			lines = append(lines, adviceStoreError)
		case len(producers) > 0:
			lines = append(lines, headerLine)
			for _, p := range producers {
				lines = append(lines, formatProducer(p))
			}
			advisory = false
		}
	}

	if len(lines) == 0 {
		lines = append(lines, adviceNoMatches)
	}
	lines = append(lines, projectDescription)

	return Context{Lines: lines, Advisory: advisory}
}

func formatProducer(p storage.Producer) string {
	return fmt.Sprintf("- Name: %s, Products: %s, Category: %s",
		p.Name, orNA(p.Products), orNA(p.Category))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
