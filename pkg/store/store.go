// Package store provides the key/value persistence layer used to survive
// process restarts. Keys follow a hierarchical dotted convention
// (e.g. "nodes.<id>.sessionId", "queues.<guildId>"); a missing key is
// "no prior state", never an error.
package store

// Store is the persistence contract the client core talks to.
// Get decodes the stored value into v and reports whether the key existed.
// Push appends v to the list stored at key, creating the list if absent.
type Store interface {
	Get(key string, v any) (bool, error)
	Set(key string, v any) error
	Delete(key string) error
	Push(key string, v any) error
	Close() error
}
