package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnresolved matches every AggregateError.
	ErrUnresolved = errors.New("fragments unresolved after retries")

	// ErrMalformedResult marks a single item whose result was empty or
	// invalid. It is consumed by the round loop and never returned from Run.
	ErrMalformedResult = errors.New("malformed result")

	// ErrResultCount indicates the service returned a different number of
	// results than fragments sent. The round is retried as a call failure.
	ErrResultCount = errors.New("result count mismatch")

	// ErrInvalidBatchSize indicates a batch size below one.
	ErrInvalidBatchSize = errors.New("batch size must be positive")

	// ErrNilDependency indicates a required collaborator was nil.
	ErrNilDependency = errors.New("required dependency is nil")
)

// AggregateError names every fragment of a document still unresolved after
// the retry budget was spent. Every other fragment of the document has been
// persisted by the time it is returned.
type AggregateError struct {
	Document string
	Keys     []string
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("%s: %d fragment(s) unresolved after retries: %s",
		e.Document, len(e.Keys), strings.Join(e.Keys, ", "))
}

// Is reports whether target is ErrUnresolved.
func (e *AggregateError) Is(target error) bool {
	return target == ErrUnresolved
}
