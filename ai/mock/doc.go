// Package mock provides test double implementations of the ai interfaces.
//
// MockTransformer lets tests script the transformation service per call:
// fail a whole batch, mark single items malformed for a number of rounds,
// or count how many requests each fragment received. It is safe for
// concurrent use so it can back several pipelines at once.
//
// # Usage in Tests
//
//	// Default behavior: every fragment succeeds
//	m := mock.NewMockTransformer()
//
//	// Fail fragment "b" on its first two requests
//	m.WithItemFunc(mock.FailFirst(2, "b"))
//
//	// Check call counts
//	batches := m.BatchCallCount()
//
// # Default Behavior
//
// Every fragment yields a Shortcode named after the fragment with the
// fragment's HTML as its template, and every request reports DefaultUsage.
package mock
