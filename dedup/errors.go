package dedup

import "errors"

var (
	// ErrInvalidThreshold indicates a similarity threshold outside [0, 100].
	ErrInvalidThreshold = errors.New("threshold must be between 0 and 100")

	// ErrNilStore indicates a matcher was built without a fingerprint store.
	ErrNilStore = errors.New("fingerprint store is required")

	// ErrParseFragment indicates the fragment markup could not be parsed.
	ErrParseFragment = errors.New("failed to parse fragment")
)
