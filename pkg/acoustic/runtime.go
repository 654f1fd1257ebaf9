package acoustic

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/haivivi/koe/pkg/trie"
)

// Options configures a runtime when opening a core.
type Options struct {
	// ModelDir holds the runtime's model files.
	ModelDir string
	// Threads bounds the runtime's intra-op parallelism; 0 lets it choose.
	Threads int
}

// Opener opens a core for a runtime.
type Opener func(opts Options) (Core, error)

var (
	runtimesMu sync.RWMutex
	runtimes   = trie.New[Opener]()
)

// Register makes a runtime available to Open. Typically called from init().
func Register(name string, open Opener) {
	runtimesMu.Lock()
	defer runtimesMu.Unlock()
	_ = runtimes.Set(name, func(ptr *Opener, existed bool) error {
		*ptr = open
		if existed {
			slog.Warn("acoustic: runtime already registered", "name", name)
		}
		return nil
	})
}

// Open opens a core with the named runtime.
func Open(name string, opts Options) (Core, error) {
	runtimesMu.RLock()
	open, ok := runtimes.GetValue(name)
	runtimesMu.RUnlock()
	if !ok || open == nil {
		return nil, fmt.Errorf("acoustic: runtime %q not registered (have %v)", name, Runtimes())
	}
	core, err := open(opts)
	if err != nil {
		return nil, fmt.Errorf("acoustic: open %s: %w", name, err)
	}
	return core, nil
}

// Runtimes returns the registered runtime names, sorted.
func Runtimes() []string {
	runtimesMu.RLock()
	defer runtimesMu.RUnlock()
	var names []string
	runtimes.Walk(func(name string, _ Opener, set bool) {
		if set {
			names = append(names, name)
		}
	})
	sort.Strings(names)
	return names
}
