package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/swimanni/chat-cleaner/internal/core/domain"
	"github.com/swimanni/chat-cleaner/internal/core/ports/driven"
	"github.com/swimanni/chat-cleaner/internal/logger"
)

// Ensure Parser can take customised prompts.
var _ driven.PromptStoreAware = (*Parser)(nil)

// Default generation bounds for one chunk.
const (
	defaultMaxTokens = 2048

	// maxModelCalls bounds the repair state machine: the initial call
	// plus one corrective re-prompt.
	maxModelCalls = 2

	// maxTransientRetries bounds retries of a failed backend request
	// (timeout, connection refused, 5xx) within a single model call.
	maxTransientRetries = 2

	transientBackoff = 500 * time.Millisecond
)

// defaultParseSystemPrompt carries the fixed parsing rules. The chunk text
// is the sole variable content of the final instruction, so the instruction
// is deterministic per chunk.
const defaultParseSystemPrompt = `You are a chat log parser. Convert raw conversation text into a JSON array of messages.
Do not add commentary. Output only JSON that starts with '[' and ends with ']'.

Each object MUST include exactly these keys: "time", "speaker", "role", "message".

Use "role": "Agent" for internal/agent/rep participants, "User" for external/customer/guest participants, and "Unknown" when the side is unclear.
If a timestamp or speaker is missing, use null for time and "Unknown" for speaker.

Very important: sometimes multiple people talk in one text line.
If a line looks like:
  "ok. since when? neha- today only"
then that is actually two messages:
  - Agent Ravi: "ok. since when?"
  - User Neha: "today only"

Split such lines when you see punctuation, dashes, or names indicating a reply.
Each record carries only its own speaker's utterance text.
Preserve exact punctuation and emojis. Do not summarize or merge messages.`

// defaultParseUserPrompt wraps the chunk text. Expects one %s placeholder.
const defaultParseUserPrompt = `Raw conversation:
%s

Produce the JSON array now. No markdown, no explanations.
Follow the exact key order in every object: "time", "speaker", "role", "message"`

// defaultRepairCorrection is appended to the instruction on the corrective
// re-prompt after the first output failed to parse.
const defaultRepairCorrection = `Your previous output was not valid JSON.
Re-emit ONLY a valid JSON array of {time, speaker, role, message} objects for the same conversation. Nothing else.`

// Parser is the structured inference client: it drives one constrained,
// zero-temperature model call per chunk and coerces the untrusted output
// into validated records through a bounded repair loop. This is the
// pipeline's central reliability mechanism.
type Parser struct {
	llm         driven.LLMService
	gate        *Gate
	promptStore driven.PromptStore
	schema      json.RawMessage
	maxTokens   int
}

// ParserOption configures the parser.
type ParserOption func(*Parser)

// WithMaxTokens overrides the per-chunk generation budget.
func WithMaxTokens(n int) ParserOption {
	return func(p *Parser) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// NewParser creates a structured inference client over the given backend.
// The gate serialises backend access and may be shared with other services.
func NewParser(llm driven.LLMService, gate *Gate, opts ...ParserOption) (*Parser, error) {
	schema, err := recordArraySchema()
	if err != nil {
		return nil, fmt.Errorf("build schema constraint: %w", err)
	}

	p := &Parser{
		llm:       llm,
		gate:      gate,
		schema:    schema,
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// SetPromptStore sets the prompt store for loading customisable prompts.
// If not set, the parser uses hardcoded default prompts.
func (p *Parser) SetPromptStore(store driven.PromptStore) {
	p.promptStore = store
}

// ModelName returns the backend model identifier, recorded on cache entries.
func (p *Parser) ModelName() string {
	return p.llm.ModelName()
}

// ParseChunk converts one chunk of transcript text into validated records,
// or returns a terminal inference failure wrapping domain.ErrInferenceFailed.
//
// The attempt sequence is an explicit bounded loop, not recursion:
// call -> parse -> textual repair -> reparse -> corrective re-prompt ->
// repair -> fail. An empty-but-valid array is a legitimate "no dialogue"
// result and is returned as such; a failure is never replaced by one.
func (p *Parser) ParseChunk(ctx context.Context, chunkText string) ([]domain.ChatRecord, error) {
	system := loadPrompt(p.promptStore, driven.PromptParseSystem, defaultParseSystemPrompt)
	userTmpl := loadPrompt(p.promptStore, driven.PromptParseUser, defaultParseUserPrompt)
	basePrompt := system + "\n\n" + fmt.Sprintf(userTmpl, chunkText)

	var lastErr error
	for call := 1; call <= maxModelCalls; call++ {
		prompt := basePrompt
		if call > 1 {
			correction := loadPrompt(p.promptStore, driven.PromptRepairCorrection, defaultRepairCorrection)
			prompt = basePrompt + "\n\n" + correction
		}

		raw, err := generateWithRetry(ctx, p.llm, p.gate, prompt, driven.GenerateOptions{
			MaxTokens:   p.maxTokens,
			Temperature: 0,
			Format:      p.schema,
		})
		if err != nil {
			return nil, fmt.Errorf("backend call %d: %w: %w", call, err, domain.ErrInferenceFailed)
		}

		records, err := decodeWireRecords(raw)
		if err != nil {
			logger.Debug("parse failed on call %d (%v), applying textual repair", call, err)
			records, err = decodeWireRecords(repairJSON(raw))
		}
		if err == nil {
			return validateRecords(records), nil
		}

		lastErr = err
		logger.Warn("chunk output still invalid after repair on call %d: %v", call, err)
	}

	return nil, fmt.Errorf("output invalid after %d calls with repair (%v): %w",
		maxModelCalls, lastErr, domain.ErrInferenceFailed)
}

// decodeWireRecords extracts and parses the JSON array from raw output.
func decodeWireRecords(raw string) ([]wireRecord, error) {
	arr := extractArray(raw)
	if arr == "" {
		return nil, errors.New("no JSON array in output")
	}

	var records []wireRecord
	if err := json.Unmarshal([]byte(arr), &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// validateRecords coerces parsed objects into domain records. Unknown role
// values map to Unknown rather than rejecting the whole array; a record
// missing its message is dropped with a warning, not fatal.
func validateRecords(records []wireRecord) []domain.ChatRecord {
	out := make([]domain.ChatRecord, 0, len(records))
	for i, w := range records {
		if w.Message == nil || strings.TrimSpace(*w.Message) == "" {
			logger.Warn("dropping record %d: missing message", i)
			continue
		}

		speaker := strings.TrimSpace(w.Speaker)
		if speaker == "" {
			speaker = "Unknown"
		}

		var ts *string
		if w.Time != nil {
			if trimmed := strings.TrimSpace(*w.Time); trimmed != "" && !strings.EqualFold(trimmed, "null") {
				ts = &trimmed
			}
		}

		out = append(out, domain.ChatRecord{
			Time:    ts,
			Speaker: speaker,
			Role:    domain.NormaliseRole(w.Role),
			Message: strings.TrimSpace(*w.Message),
		})
	}
	return out
}

// generateWithRetry performs one gated backend call, retrying transient
// request failures with a short backoff before escalating.
func generateWithRetry(
	ctx context.Context,
	llm driven.LLMService,
	gate *Gate,
	prompt string,
	opts driven.GenerateOptions,
) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxTransientRetries; attempt++ {
		if attempt > 0 {
			logger.Debug("retrying backend request (attempt %d): %v", attempt, lastErr)
			select {
			case <-time.After(time.Duration(attempt) * transientBackoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		release, err := gate.acquire(ctx)
		if err != nil {
			return "", err
		}
		raw, err := llm.Generate(ctx, prompt, opts)
		release()

		if err == nil {
			return raw, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}

	return "", fmt.Errorf("backend request failed after %d retries: %w", maxTransientRetries, lastErr)
}

// loadPrompt loads a prompt from the store, falling back to the default if
// unavailable.
func loadPrompt(store driven.PromptStore, name, fallback string) string {
	if store == nil {
		return fallback
	}
	prompt, err := store.Load(name)
	if err != nil || strings.TrimSpace(prompt) == "" {
		return fallback
	}
	return prompt
}
