package orchestrator

import "errors"

var (
	// ErrRunnerRequired is returned when no pipeline runner is provided.
	ErrRunnerRequired = errors.New("pipeline runner required")

	// ErrInvalidWorkers is returned for a worker count below one.
	ErrInvalidWorkers = errors.New("worker count must be positive")

	// ErrWorkerPanic wraps a panic recovered while running a document.
	ErrWorkerPanic = errors.New("document worker panicked")
)
