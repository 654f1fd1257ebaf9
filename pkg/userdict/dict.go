package userdict

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Reloader is implemented by analyzers that can recompile their user
// dictionary from MeCab CSV source.
type Reloader interface {
	Reload(ctx context.Context, csv []byte) error
}

// Dict is the user dictionary. Every mutation is persisted to the store and
// then handed to the reloader as CSV. Dict is safe for concurrent use.
type Dict struct {
	store    Store
	reloader Reloader
	newID    func() string

	// mu orders mutations so reloads see them in sequence.
	mu sync.Mutex
}

// Option configures a Dict.
type Option func(*Dict)

// WithReloader sets the analyzer to reload after every mutation.
func WithReloader(r Reloader) Option {
	return func(d *Dict) { d.reloader = r }
}

// WithIDFunc replaces the word ID generator. The default generates random
// UUIDs.
func WithIDFunc(f func() string) Option {
	return func(d *Dict) { d.newID = f }
}

// New creates a dictionary over store.
func New(store Store, opts ...Option) *Dict {
	d := &Dict{store: store, newID: uuid.NewString}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Store returns the underlying store.
func (d *Dict) Store() Store { return d.store }

// Words returns every word keyed by ID.
func (d *Dict) Words(ctx context.Context) (map[string]Word, error) {
	out := make(map[string]Word)
	for e, err := range d.store.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("userdict: list: %w", err)
		}
		out[e.ID] = e.Word
	}
	return out, nil
}

// Get returns one word.
func (d *Dict) Get(ctx context.Context, id string) (Word, error) {
	return d.store.Get(ctx, id)
}

// Add registers a new word and returns its ID.
func (d *Dict) Add(ctx context.Context, req WordRequest) (string, error) {
	w, err := NewWord(req)
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.newID()
	if err := d.store.Put(ctx, id, w); err != nil {
		return "", fmt.Errorf("userdict: add: %w", err)
	}
	slog.Info("userdict: word added", "id", id, "surface", w.Surface)
	return id, d.reload(ctx)
}

// Rewrite replaces an existing word.
func (d *Dict) Rewrite(ctx context.Context, id string, req WordRequest) error {
	w, err := NewWord(req)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.store.Get(ctx, id); err != nil {
		return err
	}
	if err := d.store.Put(ctx, id, w); err != nil {
		return fmt.Errorf("userdict: rewrite: %w", err)
	}
	slog.Info("userdict: word rewritten", "id", id, "surface", w.Surface)
	return d.reload(ctx)
}

// Delete removes a word. It returns ErrWordNotFound for unknown IDs.
func (d *Dict) Delete(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.store.Get(ctx, id); err != nil {
		return err
	}
	if err := d.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("userdict: delete: %w", err)
	}
	slog.Info("userdict: word deleted", "id", id)
	return d.reload(ctx)
}

// Import adds words keyed by ID. Existing IDs are replaced when override
// is set and kept otherwise. Every imported word and ID is validated before
// anything is written.
func (d *Dict) Import(ctx context.Context, words map[string]Word, override bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	entries := make([]Entry, 0, len(words))
	for id, w := range words {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("%w: id %q: %v", ErrInvalidWord, id, err)
		}
		if err := w.Check(); err != nil {
			return fmt.Errorf("word %s: %w", id, err)
		}
		if !override {
			if _, err := d.store.Get(ctx, id); err == nil {
				continue
			}
		}
		entries = append(entries, Entry{ID: id, Word: w})
	}
	if err := d.store.PutAll(ctx, entries); err != nil {
		return fmt.Errorf("userdict: import: %w", err)
	}
	slog.Info("userdict: imported", "words", len(entries), "override", override)
	return d.reload(ctx)
}

// CSV renders the whole dictionary as MeCab CSV source, one word per line
// in ID order.
func (d *Dict) CSV(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer
	for e, err := range d.store.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("userdict: list: %w", err)
		}
		line, err := e.Word.CSV()
		if err != nil {
			return nil, fmt.Errorf("word %s: %w", e.ID, err)
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Sync hands the current dictionary to the reloader. Call it once at
// startup so the analyzer sees words stored by earlier runs.
func (d *Dict) Sync(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reload(ctx)
}

func (d *Dict) reload(ctx context.Context) error {
	if d.reloader == nil {
		return nil
	}
	csv, err := d.CSV(ctx)
	if err != nil {
		return err
	}
	if err := d.reloader.Reload(ctx, csv); err != nil {
		return fmt.Errorf("userdict: reload analyzer: %w", err)
	}
	return nil
}
