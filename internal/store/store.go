// Package store implements the persistent per-user key-value store that tool
// implementations use for transient blob storage. The orchestration core
// never touches it.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Pair is one key/value entry as returned by ListAll.
type Pair struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Store is a file-backed KV map. Writes persist immediately; the file is a
// single JSON object, human-inspectable.
type Store struct {
	path string

	mu     sync.Mutex
	values map[string]any
}

// Open loads (or creates) the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	s := &Store{path: path, values: map[string]any{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read store %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("parse store %s: %w", path, err)
	}
	return s, nil
}

// Get returns the value for key, or nil when absent.
func (s *Store) Get(key string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// Put stores value under key and persists.
func (s *Store) Put(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flushLocked()
}

// Delete removes key and persists. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flushLocked()
}

// ListAll returns every entry whose key passes filter (nil matches all),
// sorted by key.
func (s *Store) ListAll(filter func(key string) bool) []Pair {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Pair, 0, len(s.values))
	for k, v := range s.values {
		if filter != nil && !filter(k) {
			continue
		}
		out = append(out, Pair{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (s *Store) flushLocked() error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.values); err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write store %s: %w", s.path, err)
	}
	return nil
}
