// Package dedup decides whether a fragment has already been transformed.
//
// A fragment is first reduced to its Skeleton: markup with scripts, styles,
// comments, text, and volatile attributes removed, and whitespace collapsed.
// The skeleton's fingerprint gives an exact lookup; when that misses, the
// Matcher falls back to a similarity scan over every stored skeleton and
// accepts the first one scoring at or above its threshold.
//
// Example:
//
//	m, err := dedup.NewMatcher(store, dedup.WithThreshold(95))
//	match, err := m.Lookup(ctx, fragment.HTML)
//	if match.Hit {
//	    // reuse match.Record.Result
//	}
package dedup
