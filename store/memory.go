// --- quizdeck-server/store/memory.go ---
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Memory is an in-process Store with the same semantics as the Postgres
// backend: whole-collection reads and last-write-wins writes. Used in tests
// and as a standalone mock backend.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string][]byte)}
}

// ReadAll loads the named collection into out. Missing collections read as empty.
func (s *Memory) ReadAll(ctx context.Context, collection string, out any) error {
	s.mu.RLock()
	data, ok := s.collections[collection]
	s.mu.RUnlock()
	if !ok {
		data = []byte("[]")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode collection %s: %w", collection, err)
	}
	return nil
}

// WriteAll replaces the named collection with records.
func (s *Memory) WriteAll(ctx context.Context, collection string, records any) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode collection %s: %w", collection, err)
	}
	s.mu.Lock()
	s.collections[collection] = data
	s.mu.Unlock()
	return nil
}
