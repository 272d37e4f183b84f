package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// indexFile is the name of the identifier index inside the system directory.
const indexFile = "index.json"

// counters represents the persistent index state: the next identifier of every
// model type stored under the root.
type counters struct {
	Version int            `json:"version"`
	Next    map[string]int `json:"next"`
	dirty   bool
	mu      sync.RWMutex
}

// index manages the loading, updating, and saving of the identifier counters.
type index struct {
	Path  string
	state *counters
}

// newIndex initializes an index at {root}/{systemDir}/index.json.
func newIndex(root, systemDir string) *index {
	return &index{
		Path: filepath.Join(root, systemDir, indexFile),
		state: &counters{
			Version: 1,
			Next:    make(map[string]int),
		},
	}
}

// Load reads the index from disk. A missing or corrupted file yields an empty index.
func (x *index) Load() error {
	x.state.mu.Lock()
	defer x.state.mu.Unlock()

	data, err := os.ReadFile(x.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	if err := json.Unmarshal(data, x.state); err != nil || x.state.Next == nil {
		// Counters are rebuilt from the directory listing on demand.
		x.state.Next = make(map[string]int)
	}
	x.state.dirty = false
	return nil
}

// Save persists the index if it changed since the last Load or Save.
func (x *index) Save() error {
	x.state.mu.RLock()
	if !x.state.dirty {
		x.state.mu.RUnlock()
		return nil
	}
	data, err := json.MarshalIndent(x.state, "", "  ")
	x.state.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(x.Path), 0755); err != nil {
		return err
	}
	if err := writeFileAtomic(x.Path, data, 0644); err != nil {
		return err
	}

	x.state.mu.Lock()
	x.state.dirty = false
	x.state.mu.Unlock()
	return nil
}

// Peek returns the next identifier of model, and whether the index knows model.
func (x *index) Peek(model string) (int, bool) {
	x.state.mu.RLock()
	defer x.state.mu.RUnlock()
	n, ok := x.state.Next[model]
	return n, ok
}

// Take hands out the next identifier of model. floor seeds a counter the index
// does not know yet.
func (x *index) Take(model string, floor int) int {
	x.state.mu.Lock()
	defer x.state.mu.Unlock()

	n, ok := x.state.Next[model]
	if !ok || n < floor {
		n = floor
	}
	x.state.Next[model] = n + 1
	x.state.dirty = true
	return n
}

// Observe moves the counter of model past id.
func (x *index) Observe(model string, id int) {
	x.state.mu.Lock()
	defer x.state.mu.Unlock()

	if n, ok := x.state.Next[model]; !ok || n <= id {
		x.state.Next[model] = id + 1
		x.state.dirty = true
	}
}

// Snapshot returns a copy of every counter.
func (x *index) Snapshot() map[string]int {
	x.state.mu.RLock()
	defer x.state.mu.RUnlock()

	out := make(map[string]int, len(x.state.Next))
	for k, v := range x.state.Next {
		out[k] = v
	}
	return out
}
