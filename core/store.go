package core

import "errors"

// ErrKeyNotFound is returned by KV.Get when a key has never been written.
var ErrKeyNotFound = errors.New("key not found")

// KV is the flat key/value store all persisted collections live in.
// Values are JSON documents; the store itself knows nothing about their shape.
// Reads and writes are synchronous; there are no transactions. Last write wins.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}
