// Package orchestrator runs the pipelines of many documents concurrently.
//
// Documents are handed to a fixed-size worker pool. Each one runs to
// completion independently; a failing document never cancels the others.
// RunAll waits for every document and reports the first failure it
// observed along with the outcome of each document.
package orchestrator
