package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Returns the prompt content and any error encountered.
	// If the prompt is not found, implementations should return a sensible
	// default or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptParseSystem carries the fixed parsing rules: the four expected
	// keys, the role taxonomy, and the multi-speaker split requirement.
	// No format placeholders.
	PromptParseSystem = "parse_system"

	// PromptParseUser wraps the chunk text. Expects one %s placeholder.
	PromptParseUser = "parse_user"

	// PromptRepairCorrection is appended to the instruction when the
	// previous output failed to parse as JSON. No format placeholders.
	PromptRepairCorrection = "repair_correction"

	// PromptSegment asks the model to split concatenated conversations.
	// Expects one %s placeholder for the raw text.
	PromptSegment = "segment"
)

// PromptStoreAware is an optional interface for services that can use custom
// prompts. Services implementing it can have their templates customised by
// injecting a PromptStore after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable
	// prompts. If not set, the service uses hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
