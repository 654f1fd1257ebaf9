package userdict

import (
	"context"
	"iter"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Entry is a stored word and its ID.
type Entry struct {
	ID   string
	Word Word
}

// Store persists words keyed by ID.
type Store interface {
	// Get returns the word with the given ID, or ErrWordNotFound.
	Get(ctx context.Context, id string) (Word, error)

	// Put stores a word, replacing any word with the same ID.
	Put(ctx context.Context, id string, w Word) error

	// PutAll atomically stores several words.
	PutAll(ctx context.Context, entries []Entry) error

	// Delete removes a word. No error if the ID does not exist.
	Delete(ctx context.Context, id string) error

	// List iterates over all words in ID order.
	List(ctx context.Context) iter.Seq2[Entry, error]

	// Close releases any resources held by the store.
	Close() error
}

// keyPrefix namespaces word keys inside the underlying database.
const keyPrefix = "word:"

func wordKey(id string) []byte { return []byte(keyPrefix + id) }

func wordID(key []byte) string { return strings.TrimPrefix(string(key), keyPrefix) }

func encodeWord(w Word) ([]byte, error) { return msgpack.Marshal(w) }

func decodeWord(data []byte) (Word, error) {
	var w Word
	err := msgpack.Unmarshal(data, &w)
	return w, err
}
