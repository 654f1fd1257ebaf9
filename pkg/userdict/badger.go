package userdict

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

// Badger is a Store backed by BadgerDB v4.
type Badger struct {
	db *badger.DB
}

// BadgerOptions configures the BadgerDB store.
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files. Required unless
	// InMemory is set.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool

	// Logger receives badger's warnings and errors. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// NewBadger opens a BadgerDB-backed Store.
func NewBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("userdict: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dbOpts = dbOpts.WithLogger(slogLogger{logger.With("component", "badger")})
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("userdict: open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(_ context.Context, id string) (Word, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(wordKey(id))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Word{}, fmt.Errorf("%w: %s", ErrWordNotFound, id)
	}
	if err != nil {
		return Word{}, err
	}
	return decodeWord(val)
}

func (b *Badger) Put(_ context.Context, id string, w Word) error {
	data, err := encodeWord(w)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(wordKey(id), data)
	})
}

func (b *Badger) PutAll(_ context.Context, entries []Entry) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, e := range entries {
		data, err := encodeWord(e.Word)
		if err != nil {
			return err
		}
		if err := wb.Set(wordKey(e.ID), data); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (b *Badger) Delete(_ context.Context, id string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(wordKey(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (b *Badger) List(_ context.Context) iter.Seq2[Entry, error] {
	prefix := []byte(keyPrefix)
	return func(yield func(Entry, error) bool) {
		err := b.db.View(func(txn *badger.Txn) error {
			iterOpts := badger.DefaultIteratorOptions
			iterOpts.Prefix = prefix
			it := txn.NewIterator(iterOpts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				item := it.Item()
				id := wordID(item.KeyCopy(nil))
				val, err := item.ValueCopy(nil)
				if err != nil {
					if !yield(Entry{ID: id}, err) {
						return nil
					}
					continue
				}
				w, err := decodeWord(val)
				if !yield(Entry{ID: id, Word: w}, err) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(Entry{}, err)
		}
	}
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// slogLogger routes badger's log output into slog. Info and debug messages
// are logged at debug level.
type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Errorf(f string, v ...any) { s.l.Error(trimLog(f, v)) }

func (s slogLogger) Warningf(f string, v ...any) { s.l.Warn(trimLog(f, v)) }

func (s slogLogger) Infof(f string, v ...any) { s.l.Debug(trimLog(f, v)) }

func (s slogLogger) Debugf(f string, v ...any) { s.l.Debug(trimLog(f, v)) }

func trimLog(f string, v []any) string {
	return strings.TrimRight(fmt.Sprintf(f, v...), "\n")
}
