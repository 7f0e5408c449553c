package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Storage keys, one per collection.
const (
	EntriesKey   = "relief_entries"
	LocationsKey = "relief_locations"
)

// FormatVersion is the version tag written with every saved collection.
// Version 0 is the untagged JSON array written by the browser board.
const FormatVersion = 1

var (
	// ErrPersist wraps a failed save. The in-memory mutation still happened.
	ErrPersist = errors.New("persisting board state")
	// ErrUnsupportedVersion is returned when stored data was written by a
	// newer format than this build understands.
	ErrUnsupportedVersion = errors.New("unsupported storage format version")
)

// Persister is the synchronous key/value storage behind the store.
// Load returns nil data and a nil error when the key is absent.
type Persister interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
}

type document[T any] struct {
	Version int `json:"version"`
	Items   []T `json:"items"`
}

// Encode serialises a collection in the versioned storage format.
func Encode[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(document[T]{Version: FormatVersion, Items: items})
}

// Decode parses a stored collection. Both the versioned document and the
// legacy bare array are accepted; the returned version says which was read.
func Decode[T any](data []byte) ([]T, int, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("decoding collection: empty document")
	}

	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, 0, fmt.Errorf("decoding legacy collection: %w", err)
		}
		return items, 0, nil
	}

	var doc document[T]
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("decoding collection: %w", err)
	}
	if doc.Version > FormatVersion {
		return nil, doc.Version, fmt.Errorf("%w: %d (supported: %d)", ErrUnsupportedVersion, doc.Version, FormatVersion)
	}
	return doc.Items, doc.Version, nil
}

func save[T any](p Persister, key string, items []T) error {
	data, err := Encode(items)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", ErrPersist, key, err)
	}
	if err := p.Save(key, data); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// MemoryPersister keeps state in a map. Useful for tests and dry runs.
type MemoryPersister struct {
	Data map[string][]byte
	// Err, when set, is returned from every Save.
	Err error
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{Data: make(map[string][]byte)}
}

func (m *MemoryPersister) Load(key string) ([]byte, error) {
	return m.Data[key], nil
}

func (m *MemoryPersister) Save(key string, data []byte) error {
	if m.Err != nil {
		return m.Err
	}
	m.Data[key] = append([]byte(nil), data...)
	return nil
}
