package driven

import (
	"context"
	"encoding/json"
)

// LLMService is the capability interface over one loaded model backend.
// The runtime behind it is a shared, stateful resource: adapters are safe
// to call concurrently, but the parsing service bounds in-flight calls to
// the configured slot count.
//
// Implementations may include:
//   - Ollama (local models, /api/generate with a format constraint)
//   - OpenAI-compatible servers (response_format json_schema)
type LLMService interface {
	// Generate produces a text completion from a prompt. When opts.Format
	// is set, the raw output is constrained to conform to that JSON
	// schema; the output is still untrusted text until it passes parsing
	// and validation downstream.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request. Used at startup before committing to a batch.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness. The parsing pipeline always uses
	// zero for fully deterministic decoding.
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string

	// Format is a JSON schema the raw output must conform to.
	// Nil means unconstrained generation.
	Format json.RawMessage
}
