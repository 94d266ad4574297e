// Package responder produces grounded conversational answers and parses the
// fallback marker out of raw model text. The tagged Reply it returns is the
// only value the rest of the system consumes; no other component re-parses
// model output.
package responder

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/ipetrenko/enerdex/internal/llm"
	"github.com/ipetrenko/enerdex/internal/retrieval"
)

// Kind discriminates the two Reply variants.
type Kind int

const (
	// Grounded is an answer derived solely from retrieved context.
	Grounded Kind = iota
	// FallbackSuggested means the context was insufficient and the model
	// derived an external search query instead.
	FallbackSuggested
)

// Reply is the assistant's answer to one chat turn. Exactly one variant is
// populated: SearchQuery is set only when Kind is FallbackSuggested.
type Reply struct {
	Kind        Kind
	Text        string
	SearchQuery string
}

// markerPattern tolerantly matches the in-text fallback tag the prompt asks
// the model to embed when the context cannot answer the question.
var markerPattern = regexp.MustCompile(`\[WEB_SEARCH_SUGGESTION:\s*([^\]]*?)\s*\]`)

// BuildPrompt renders the grounding context and question into the chat prompt.
// The marker the model is told to emit carries a search query derived from
// the question itself.
func BuildPrompt(question, contextBlock string) string {
	var sb strings.Builder

	sb.WriteString("You are a helpful assistant providing information about global energy producers. ")
	sb.WriteString("Answer the following question concisely based ONLY on the provided context about producers. ")
	sb.WriteString("If the answer is not available in the context, respond with: ")
	fmt.Fprintf(&sb, "'I don't have that specific information in my directory. You might find it by searching online. [WEB_SEARCH_SUGGESTION: %s global energy]' ", question)
	sb.WriteString("Otherwise, provide the answer directly from the context.")
	fmt.Fprintf(&sb, "\n\nContext:\n%s\n\nQuestion: %s", contextBlock, question)

	return sb.String()
}

// Answer sends the question with its grounding context to the model and
// parses the response into a Reply.
func Answer(ctx context.Context, gen llm.Generator, question string, rctx retrieval.Context) (Reply, error) {
	raw, err := gen.Generate(ctx, BuildPrompt(question, rctx.Render()))
	if err != nil {
		return Reply{}, err
	}
	return Parse(raw), nil
}

// Parse extracts the fallback marker from raw model text. A marker with an
// empty query is malformed and treated as a grounded reply with the text
// unchanged. When stripping the marker leaves nothing to display, a canned
// explanatory sentence substitutes for it.
func Parse(raw string) Reply {
	loc := markerPattern.FindStringSubmatchIndex(raw)
	if loc == nil {
		return Reply{Kind: Grounded, Text: strings.TrimSpace(raw)}
	}

	query := strings.TrimSpace(raw[loc[2]:loc[3]])
	if query == "" {
		return Reply{Kind: Grounded, Text: strings.TrimSpace(raw)}
	}

	text := strings.TrimSpace(raw[:loc[0]] + raw[loc[1]:])
	if text == "" {
		text = fmt.Sprintf("I couldn't find a direct answer in the directory, but a web search for %q may help.", query)
	}

	return Reply{Kind: FallbackSuggested, Text: text, SearchQuery: query}
}

// SearchURL derives the external search destination for a fallback query.
// Callers decide whether to open it; the responder never navigates anywhere.
func SearchURL(query string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(query)
}
