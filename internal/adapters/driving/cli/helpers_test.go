package cli

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/swimanni/chat-cleaner/internal/core/domain"
	"github.com/swimanni/chat-cleaner/internal/core/ports/driven"
)

// fakeLLM returns a fixed output for every Generate call.
type fakeLLM struct {
	mu      sync.Mutex
	output  string
	pingErr error
	calls   int
}

func (f *fakeLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.output, nil
}

func (f *fakeLLM) ModelName() string { return "fake-model" }

func (f *fakeLLM) Ping(_ context.Context) error { return f.pingErr }

func (f *fakeLLM) Close() error { return nil }

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeCache is an in-memory ResultCache with the append-only conflict rule.
type fakeCache struct {
	mu       sync.Mutex
	records  map[string][]domain.ChatRecord
	segments map[string][]string
	path     string
	closed   bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		records:  make(map[string][]domain.ChatRecord),
		segments: make(map[string][]string),
		path:     "/tmp/fake-cache.db",
	}
}

func (c *fakeCache) GetRecords(_ context.Context, fingerprint string) ([]domain.ChatRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	records, ok := c.records[fingerprint]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return records, nil
}

func (c *fakeCache) PutRecords(_ context.Context, fingerprint string, records []domain.ChatRecord, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.records[fingerprint]; ok {
		if !reflect.DeepEqual(existing, records) {
			return domain.ErrCacheConflict
		}
		return nil
	}
	c.records[fingerprint] = records
	return nil
}

func (c *fakeCache) GetSegments(_ context.Context, fingerprint string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	segments, ok := c.segments[fingerprint]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return segments, nil
}

func (c *fakeCache) PutSegments(_ context.Context, fingerprint string, segments []string, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.segments[fingerprint]; ok {
		if !reflect.DeepEqual(existing, segments) {
			return domain.ErrCacheConflict
		}
		return nil
	}
	c.segments[fingerprint] = segments
	return nil
}

func (c *fakeCache) Stats(_ context.Context) (driven.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return driven.CacheStats{
		RecordEntries:  len(c.records),
		SegmentEntries: len(c.segments),
		Path:           c.path,
	}, nil
}

func (c *fakeCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// fakeConfigStore is a map-backed ConfigStore.
type fakeConfigStore struct {
	values map[string]any
}

func newFakeConfigStore() *fakeConfigStore {
	return &fakeConfigStore{values: make(map[string]any)}
}

func (s *fakeConfigStore) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *fakeConfigStore) GetString(key string) string {
	if v, ok := s.values[key].(string); ok {
		return v
	}
	return ""
}

func (s *fakeConfigStore) GetInt(key string) int {
	switch v := s.values[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

func (s *fakeConfigStore) GetFloat(key string) float64 {
	switch v := s.values[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func (s *fakeConfigStore) Set(key string, value any) error {
	s.values[key] = value
	return nil
}

func (s *fakeConfigStore) Save() error { return nil }

func (s *fakeConfigStore) Load() error { return nil }

func (s *fakeConfigStore) Path() string { return "/tmp/fake-config.toml" }

// setupTestServices swaps the injected stores and builders for fakes and
// returns a cleanup restoring the originals.
func setupTestServices(llm driven.LLMService, cache driven.ResultCache) func() {
	origConfig := configStore
	origPrompt := promptStore
	origBuild := buildLLM
	origOpen := openCache

	configStore = newFakeConfigStore()
	promptStore = nil
	buildLLM = func(_, _, _, _ string) (driven.LLMService, error) {
		if llm == nil {
			return nil, fmt.Errorf("no backend configured for test")
		}
		return llm, nil
	}
	openCache = func(_ string) (driven.ResultCache, error) {
		return cache, nil
	}

	return func() {
		configStore = origConfig
		promptStore = origPrompt
		buildLLM = origBuild
		openCache = origOpen
	}
}
