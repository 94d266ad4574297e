// Package llm abstracts the language model behind the single capability the
// assistant needs: one prompt in, one completion out. Consumers depend on
// Generator instead of any vendor SDK.
package llm

import "context"

// Generator produces a completion for a prompt. Implementations are expected
// to honor ctx cancellation and deadlines.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface. Used by tests
// to stub deterministic model behavior.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
