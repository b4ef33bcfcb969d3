package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// The cache returns it on a fingerprint miss.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCacheConflict indicates a content-addressing violation: a Put
	// carried different records for a fingerprint that already has an
	// entry. This should never happen if normalisation is deterministic,
	// so it is surfaced loudly instead of silently resolved.
	ErrCacheConflict = errors.New("cache conflict: fingerprint already bound to different content")

	// ErrInferenceFailed indicates a terminal inference failure for a
	// chunk: every parse, repair and re-prompt attempt was exhausted.
	// It is never masked by an empty result.
	ErrInferenceFailed = errors.New("inference failed")

	// ErrBackendUnavailable indicates the model backend did not answer a
	// startup connectivity check. This is a setup-level error.
	ErrBackendUnavailable = errors.New("inference backend unavailable")

	// ErrUnsupportedInput indicates a file with no registered reader.
	ErrUnsupportedInput = errors.New("unsupported input type")

	// ErrEmptyConversation indicates an input unit with no usable text.
	ErrEmptyConversation = errors.New("empty conversation")
)
