// Package domain defines the core business entities for chat-cleaner.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawTranscript: One conversation's raw text as discovered from an input
//   - ChatRecord: One structured {time, speaker, role, message} output unit
//   - Chunk: A bounded, possibly overlapping slice of normalised text
//   - ConversationResult: The merged, duplicate-free record sequence
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
