package assistant

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable means no language model capability is configured or the
// configured one is unreachable. It short-circuits before any prompt is built
// when unconfigured.
var ErrModelUnavailable = errors.New("language model not configured or reachable")

// ErrTimedOut means a model call exceeded the assistant's bounded wait.
var ErrTimedOut = errors.New("language model call timed out")

// TranslationRejectedError reports model output that failed the read-only
// allow-list. It is surfaced verbatim to the caller and never retried.
type TranslationRejectedError struct {
	Raw string
}

func (e *TranslationRejectedError) Error() string {
	return "the model could not produce a valid read-only query for this question"
}

// StoreExecutionError reports a validated query that failed at execution time,
// e.g. a reference to a nonexistent column that passed the prefix check.
type StoreExecutionError struct {
	SQL string
	Err error
}

func (e *StoreExecutionError) Error() string {
	return fmt.Sprintf("executing translated query: %v", e.Err)
}

func (e *StoreExecutionError) Unwrap() error {
	return e.Err
}
