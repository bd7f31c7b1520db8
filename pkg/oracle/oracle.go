// Package oracle defines the generative text capability used for sketch
// generation, fix suggestions, and library metadata queries.
//
// The core packages never talk to a model provider directly. They depend on
// the [Oracle] interface, which has exactly one production adapter ([Gemini])
// and can be stubbed with [Func] in tests. This keeps the compile-fix state
// machine and the dependency cascade testable without network calls.
package oracle

import (
	"context"
	"errors"
)

// Sentinel errors for oracle operations.
var (
	// ErrEmptyResponse is returned when the model replies with no usable text.
	ErrEmptyResponse = errors.New("oracle: empty response")
)

// Oracle generates free-form text for a prompt.
//
// Implementations may fail with transport or quota errors; no retry is built
// into the call itself. Retry pressure comes from the callers (the compile-fix
// loop treats a failed call as a consumed attempt).
type Oracle interface {
	// Generate sends prompt to the model and returns the raw response text.
	//
	// Returns ErrEmptyResponse if the model produced no text, or a wrapped
	// transport error. Implementations must respect context cancellation.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to the Oracle interface.
// Useful for deterministic test doubles.
type Func func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
