package file

import "errors"

var (
	// ErrCorruptOutput indicates an output file exists but cannot be parsed.
	// Output files are never reset automatically since they hold finished work.
	ErrCorruptOutput = errors.New("corrupt output file")

	errEmptyFile = errors.New("empty file")
)
