package driven

// ConfigStore provides persistent key-value configuration storage.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	// Returns empty string if key doesn't exist or isn't a string.
	GetString(key string) string

	// GetInt retrieves an integer configuration value.
	// Returns 0 if key doesn't exist or isn't an integer.
	GetInt(key string) int

	// GetFloat retrieves a numeric configuration value. Whole numbers
	// written as TOML integers are read too. Returns 0 if the key
	// doesn't exist or isn't numeric.
	GetFloat(key string) float64

	// Set stores a configuration value.
	// The value is persisted immediately.
	Set(key string, value any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}

// Well-known configuration keys. Nested TOML tables flatten to
// dot-notation, so [llm] backend = "ollama" reads as "llm.backend".
const (
	// ConfigLLMBackend selects the inference adapter: "ollama" or "openai".
	ConfigLLMBackend = "llm.backend"

	// ConfigLLMModel is the model identifier passed to the backend.
	ConfigLLMModel = "llm.model"

	// ConfigLLMBaseURL overrides the backend API base URL.
	ConfigLLMBaseURL = "llm.base_url"

	// ConfigLLMAPIKey is the API key for hosted backends.
	ConfigLLMAPIKey = "llm.api_key"

	// ConfigLLMSlots bounds concurrent inference calls in flight.
	ConfigLLMSlots = "llm.slots"

	// ConfigLLMRateLimit caps backend calls per second for hosted
	// backends. Zero or unset disables throttling.
	ConfigLLMRateLimit = "llm.rate_limit"

	// ConfigPipelineWorkers is the conversation worker pool size.
	ConfigPipelineWorkers = "pipeline.workers"

	// ConfigChunkMinSize and ConfigChunkMaxSize bound the chunk window.
	ConfigChunkMinSize = "pipeline.chunk_min_size"
	ConfigChunkMaxSize = "pipeline.chunk_max_size"

	// ConfigChunkOverlap is the chunk overlap size in bytes.
	ConfigChunkOverlap = "pipeline.chunk_overlap"

	// ConfigMergeThreshold is the near-duplicate similarity threshold.
	ConfigMergeThreshold = "pipeline.merge_threshold"

	// ConfigCacheDir overrides the cache database directory.
	ConfigCacheDir = "cache.dir"

	// ConfigOutputDir is the default directory for cleaned artifacts.
	ConfigOutputDir = "output.dir"
)
