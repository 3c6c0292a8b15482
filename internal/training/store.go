package training

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/quasilyte/gdata/v2"
)

// Key names the persisted sample set.
const Key = "training"

const examplesProperty = "examples"

// Store persists the whole sample set. Save always replaces what was there.
type Store interface {
	Save(examples []Example) error
	Load() ([]Example, error)
}

// GdataStore keeps samples in the per-user application data directory.
type GdataStore struct {
	manager *gdata.Manager
}

// NewGdataStore opens the data directory for appName.
func NewGdataStore(appName string) (*GdataStore, error) {
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("open data dir for %s: %w", appName, err)
	}
	return &GdataStore{manager: manager}, nil
}

// Save replaces the stored set with examples.
func (s *GdataStore) Save(examples []Example) error {
	data, err := encodeExamples(examples)
	if err != nil {
		return err
	}
	if err := s.manager.SaveObjectProp(Key, examplesProperty, data); err != nil {
		return fmt.Errorf("save training data: %w", err)
	}
	return nil
}

// Load returns the stored set, or nil if nothing was saved yet.
func (s *GdataStore) Load() ([]Example, error) {
	if !s.manager.ObjectPropExists(Key, examplesProperty) {
		return nil, nil
	}
	data, err := s.manager.LoadObjectProp(Key, examplesProperty)
	if err != nil {
		return nil, fmt.Errorf("load training data: %w", err)
	}
	return DecodeExamples(data)
}

// MemoryStore holds the encoded set in memory.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(examples []Example) error {
	data, err := encodeExamples(examples)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.saves++
	return nil
}

func (s *MemoryStore) Load() ([]Example, error) {
	s.mu.Lock()
	data := s.data
	s.mu.Unlock()
	if data == nil {
		return nil, nil
	}
	return DecodeExamples(data)
}

// Raw returns the last encoded set.
func (s *MemoryStore) Raw() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}

// Saves counts Save calls.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func encodeExamples(examples []Example) ([]byte, error) {
	if examples == nil {
		examples = []Example{}
	}
	data, err := json.Marshal(examples)
	if err != nil {
		return nil, fmt.Errorf("encode training data: %w", err)
	}
	return data, nil
}

// DecodeExamples parses a dataset JSON array.
func DecodeExamples(data []byte) ([]Example, error) {
	var examples []Example
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("decode training data: %w", err)
	}
	return examples, nil
}
