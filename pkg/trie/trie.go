// Package trie provides a generic rune trie for dictionary lookups over text:
//   - exact key lookup ("キャ")
//   - longest-prefix match against the head of a string ("キャット" → "キャ")
//
// The kana notation parser uses it to resolve runs of mora symbols.
package trie

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrEmptyKey is returned when storing a value under the empty key.
var ErrEmptyKey = errors.New("trie: empty key")

// Trie is a generic trie keyed by runes. Each node may hold a value of type
// T; a node holding no value only exists as a prefix of longer keys.
type Trie[T any] struct {
	children map[rune]*Trie[T] // next rune -> child
	set      bool              // whether this node has a value set
	value    T                 // the value stored at this node
}

// New creates a new empty Trie.
func New[T any]() *Trie[T] {
	return &Trie[T]{}
}

func (t *Trie[T]) setFunc(fn func(ptr *T, existed bool) error) error {
	if err := fn(&t.value, t.set); err != nil {
		return err
	}
	t.set = true
	return nil
}

// Set stores a value at key using the provided setFunc. The setFunc is called
// with a pointer to the value and a boolean indicating whether a value already
// existed at this key.
func (t *Trie[T]) Set(key string, setFunc func(ptr *T, existed bool) error) error {
	if key == "" {
		return ErrEmptyKey
	}
	node := t
	for _, r := range key {
		if node.children == nil {
			node.children = make(map[rune]*Trie[T])
		}
		ch, ok := node.children[r]
		if !ok {
			ch = &Trie[T]{}
			node.children[r] = ch
		}
		node = ch
	}
	return node.setFunc(setFunc)
}

// SetValue is a convenience method that stores a value at key.
// It is equivalent to Set(key, func(ptr *T, _ bool) error { *ptr = value; return nil }).
func (t *Trie[T]) SetValue(key string, value T) error {
	return t.Set(key, func(ptr *T, _ bool) error {
		*ptr = value
		return nil
	})
}

// Get retrieves the value stored at exactly key.
// Returns the value and true if found, nil and false otherwise.
func (t *Trie[T]) Get(key string) (*T, bool) {
	node := t
	for _, r := range key {
		if node.children == nil {
			return nil, false
		}
		ch, ok := node.children[r]
		if !ok {
			return nil, false
		}
		node = ch
	}
	if !node.set {
		return nil, false
	}
	return &node.value, true
}

// GetValue retrieves the value stored at exactly key.
// Returns the value and true if found, zero value and false otherwise.
func (t *Trie[T]) GetValue(key string) (T, bool) {
	ptr, ok := t.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	return *ptr, true
}

// LongestPrefix finds the longest key that is a prefix of s. It returns the
// matched key, its value and true, or false when no key prefixes s.
func (t *Trie[T]) LongestPrefix(s string) (key string, value T, ok bool) {
	node := t
	end := -1
	var best *Trie[T]
	for i, r := range s {
		if node.children == nil {
			break
		}
		ch, found := node.children[r]
		if !found {
			break
		}
		node = ch
		if node.set {
			best = node
			end = i + len(string(r))
		}
	}
	if best == nil {
		var zero T
		return "", zero, false
	}
	return s[:end], best.value, true
}

// Walk calls the given function for each node in the trie, children first.
func (t *Trie[T]) Walk(f func(key string, value T, set bool)) {
	t.walkWithKey(nil, func(key []rune, node *Trie[T]) {
		f(string(key), node.value, node.set)
	})
}

func (t *Trie[T]) walkWithKey(key []rune, f func([]rune, *Trie[T])) {
	for r, ch := range t.children {
		ch.walkWithKey(append(key, r), f)
	}
	f(key, t)
}

// String returns a string representation of the stored keys and values,
// sorted alphabetically. Useful for debugging.
func (t *Trie[T]) String() string {
	var lines []string
	t.walkWithKey(nil, func(key []rune, node *Trie[T]) {
		if node.set {
			lines = append(lines, fmt.Sprintf("%s: %v", string(key), node.value))
		}
	})
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// Len returns the number of values stored in the trie.
func (t *Trie[T]) Len() int {
	count := 0
	t.Walk(func(_ string, _ T, set bool) {
		if set {
			count++
		}
	})
	return count
}
