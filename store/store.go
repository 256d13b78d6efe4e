// Package store is the persistence boundary for machine-state
// snapshots. The engine hands it opaque byte buffers; implementations
// decide where they live.
package store

import "errors"

// ErrKeyNotFound is returned when a key has no stored value.
var ErrKeyNotFound = errors.New("store: key not found")

// Storage is the narrow interface the engine's collaborators persist
// snapshots through.
type Storage interface {
	Store(key string, value []byte) error
	Retrieve(key string) ([]byte, error)
	Delete(key string) error
	ListKeys() ([]string, error)
	Exists(key string) (bool, error)
	Clear() error
}
