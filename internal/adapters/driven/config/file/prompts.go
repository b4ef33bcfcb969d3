package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/swimanni/chat-cleaner/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for
// new files. The parsing and segmentation services carry the same text as
// their hardcoded fallback, so behaviour is identical with or without a
// prompt store.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptParseSystem: `You are a chat log parser. Convert raw conversation text into a JSON array of messages.
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
Preserve exact punctuation and emojis. Do not summarize or merge messages.`,

	driven.PromptParseUser: `Raw conversation:
%s

Produce the JSON array now. No markdown, no explanations.
Follow the exact key order in every object: "time", "speaker", "role", "message"`,

	driven.PromptRepairCorrection: `Your previous output was not valid JSON.
Re-emit ONLY a valid JSON array of {time, speaker, role, message} objects for the same conversation. Nothing else.`,

	driven.PromptSegment: `You are a conversation separator. The input text may contain multiple customer support chats, one after another.

Split the text into distinct conversations. Detect boundaries where the context clearly resets: a new greeting, a new timestamp, a new customer name.
Return only a JSON array of strings, each string being one full conversation.
Do not summarize, do not label, just cleanly separate them.

TEXT:
%s`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.chatclean/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".chatclean", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# chatclean Prompts

This directory contains customisable prompts used by chatclean's cleaning
pipeline.

## Files

- ` + "`parse_system.txt`" + ` - Parsing rules for converting raw chat text to records
- ` + "`parse_user.txt`" + ` - Wraps each chunk of transcript text
- ` + "`repair_correction.txt`" + ` - Appended when the model's previous output was invalid
- ` + "`segment.txt`" + ` - Splits concatenated conversations in plain-text input

## Customisation

Edit any file to customise model behaviour. Changes take effect on the next
run.

Caution: parsed results are cached by input content only. After changing
parsing prompts, clear the cache database or previously seen chunks will
keep their old results.

## Format Placeholders

Some prompts use Go fmt placeholders:
- ` + "`%s`" + ` - String (the chunk or raw text)

Ensure customised prompts maintain placeholders in the correct positions.
`
	return os.WriteFile(path, []byte(content), 0600)
}
