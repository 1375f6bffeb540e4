package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
)

// MemoryStore keeps all values in memory and mirrors them to a JSON file so
// state survives a process restart. It is the default backend.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]json.RawMessage
	path string
}

// NewMemoryStore creates a store backed by the given file path. An empty
// path disables the file mirror entirely. A pre-existing file is loaded;
// a corrupt or missing file starts the store empty.
func NewMemoryStore(path string) *MemoryStore {
	s := &MemoryStore{
		data: make(map[string]json.RawMessage),
		path: path,
	}
	s.load()
	return s
}

func (s *MemoryStore) load() {
	if s.path == "" {
		return
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}
	s.data = data
}

// save writes the full map to disk. Callers must hold s.mu.
func (s *MemoryStore) save() error {
	if s.path == "" {
		return nil
	}
	raw, err := json.Marshal(s.data)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, raw, 0644)
}

func (s *MemoryStore) Get(key string, v any) (bool, error) {
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if v == nil {
		return true, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("store: decoding %q: %w", key, err)
	}
	return true, nil
}

func (s *MemoryStore) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encoding %q: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = raw
	return s.save()
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.save()
}

// Push treats the value at key as a JSON array and appends v to it. The
// read-append-write runs under the store lock so concurrent pushes to the
// same key cannot lose entries.
func (s *MemoryStore) Push(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []json.RawMessage
	if raw, ok := s.data[key]; ok {
		if err := json.Unmarshal(raw, &list); err != nil {
			return fmt.Errorf("store: %q is not a list: %w", key, err)
		}
	}

	item, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encoding %q: %w", key, err)
	}
	list = append(list, item)

	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	s.data[key] = raw
	return s.save()
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}
