// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to function:
//
//   - LLMService: The model backend (Ollama, OpenAI-compatible)
//   - ResultCache: Durable fingerprint -> records store (SQLite)
//   - TranscriptReader / ReaderRegistry: Input discovery per file type
//   - ResultWriter: Output artifact emission (CSV)
//
// # Optional Interfaces
//
//   - PromptStore: Overrides for the built-in prompt templates. When nil,
//     the hardcoded defaults are used.
//   - ConfigStore: Persistent settings; flags and built-in defaults cover
//     a missing store.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or reader package
package driven
