package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/ipetrenko/enerdex/internal/storage"
)

// Sentinels the suggestion prompt asks the model to emit when it cannot infer
// a field. The parser folds them into empty suggestions.
const (
	unknownCategory = "Unknown"
	noProducts      = "None"

	noIssuesFound = "No issues found"
)

// FieldSuggestion carries model-inferred values for the fields a new producer
// record left blank. An empty field means the model had nothing to offer.
type FieldSuggestion struct {
	Category string
	Products string
}

// Empty reports whether the model offered nothing for either field.
func (s FieldSuggestion) Empty() bool {
	return s.Category == "" && s.Products == ""
}

// BuildSuggestPrompt renders the field-suggestion prompt from the known parts
// of a producer record.
func BuildSuggestPrompt(p storage.Producer) string {
	return fmt.Sprintf("Given the producer name '%s', contact '%s', and address '%s', "+
		"suggest a suitable category (e.g., 'Solar', 'Wind', 'Hydro', 'Biofuel', 'Geothermal', 'Nuclear', 'Fossil Fuel') "+
		"and representative products. Format as 'Category: [category], Products: [product1, product2]'. "+
		"If no information is sufficient, state 'Category: %s, Products: %s'.",
		p.Name, p.Contact, p.Address, unknownCategory, noProducts)
}

// ParseFieldSuggestion extracts the Category:/Products: pair from raw model
// text. Missing markers or the explicit sentinels yield empty fields; the
// caller decides whether an empty suggestion is worth reporting.
func ParseFieldSuggestion(raw string) FieldSuggestion {
	catIdx := strings.Index(raw, "Category:")
	prodIdx := strings.Index(raw, "Products:")
	if catIdx < 0 || prodIdx < catIdx {
		return FieldSuggestion{}
	}

	category := cleanSuggestedValue(raw[catIdx+len("Category:") : prodIdx])
	products := cleanSuggestedValue(raw[prodIdx+len("Products:"):])

	var s FieldSuggestion
	if !strings.EqualFold(category, unknownCategory) {
		s.Category = category
	}
	if !strings.EqualFold(products, noProducts) {
		s.Products = products
	}
	return s
}

// cleanSuggestedValue strips the decoration models wrap around a suggested
// value: whitespace, trailing commas, and the prompt's example brackets.
func cleanSuggestedValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimSuffix(v, ",")
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "[")
	v = strings.TrimSuffix(v, "]")
	return strings.TrimSpace(v)
}

// SuggestFields asks the model to fill in the category and products of a
// producer record from its name, contact and address. Fields the record
// already has are never overwritten here; applying the suggestion is the
// caller's decision.
func (a *Assistant) SuggestFields(ctx context.Context, p storage.Producer) (FieldSuggestion, error) {
	if a.gen == nil {
		return FieldSuggestion{}, ErrModelUnavailable
	}

	genCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.gen.Generate(genCtx, BuildSuggestPrompt(p))
	if err != nil {
		return FieldSuggestion{}, mapModelError(err)
	}
	return ParseFieldSuggestion(raw), nil
}

// BuildReviewPrompt renders the record-review prompt for an updated producer.
func BuildReviewPrompt(p storage.Producer) string {
	return fmt.Sprintf("Review the following producer data for potential issues or suggestions: "+
		"Name: %s, Contact: %s, Address: %s, Products: %s, Category: %s. "+
		"Provide a brief assessment or suggest improvements if any. If no issues, state '%s'.",
		p.Name, p.Contact, p.Address, p.Products, p.Category, noIssuesFound)
}

// ReviewProducer asks the model to assess an updated record. The returned
// assessment is empty when the model found nothing to flag; it is advisory
// text for display, never applied to the record.
func (a *Assistant) ReviewProducer(ctx context.Context, p storage.Producer) (string, error) {
	if a.gen == nil {
		return "", ErrModelUnavailable
	}

	genCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.gen.Generate(genCtx, BuildReviewPrompt(p))
	if err != nil {
		return "", mapModelError(err)
	}

	assessment := strings.TrimSpace(raw)
	if strings.EqualFold(strings.TrimSuffix(assessment, "."), noIssuesFound) {
		return "", nil
	}
	return assessment, nil
}
