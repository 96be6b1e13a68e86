// Package explain remembers which diagnostic codes ship a long-form
// explanation. Some output modes omit the explanation body, so observations
// from earlier runs are cached on disk and let the renderer attach
// learn-more links anyway.
package explain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when payload format changes
const cacheSchemaVersion uint16 = 1

const cacheFileName = "explain.mp"

type payload struct {
	Schema uint16
	Codes  map[string]bool
}

// Registry is the in-memory view of the cache. Thread-safe.
type Registry struct {
	mu    sync.RWMutex
	codes map[string]bool
	path  string // "" for a purely in-memory registry
	dirty bool
}

// NewRegistry creates an in-memory registry without disk backing.
func NewRegistry() *Registry {
	return &Registry{codes: make(map[string]bool)}
}

// Open loads the registry from the standard cache location
// ($XDG_CACHE_HOME/<app> or ~/.cache/<app>), creating it when missing.
func Open(app string) (*Registry, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	r := &Registry{
		codes: make(map[string]bool),
		path:  filepath.Join(dir, cacheFileName),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) load() error {
	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			fmt.Printf("failed to close explain cache: %v", closeErr)
		}
	}()

	var p payload
	if err := msgpack.NewDecoder(f).Decode(&p); err != nil {
		// Повреждённый кеш — просто начинаем заново.
		return nil
	}
	if p.Schema != cacheSchemaVersion {
		return nil
	}
	for code, has := range p.Codes {
		r.codes[code] = has
	}
	return nil
}

// Observe records that a code arrived with an explanation body. Negative
// observations are not stored: an explanation, once seen, exists.
func (r *Registry) Observe(code string, hasExplanation bool) {
	if code == "" || !hasExplanation {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.codes[code] {
		r.codes[code] = true
		r.dirty = true
	}
}

// Known reports whether a long-form explanation is known to exist for code.
func (r *Registry) Known(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.codes[code]
}

// Save writes the registry back to disk when anything changed. Atomic
// replace: encode into a temp file, then rename.
func (r *Registry) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.path == "" || !r.dirty {
		return nil
	}

	f, err := os.CreateTemp(filepath.Dir(r.path), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()

	p := payload{Schema: cacheSchemaVersion, Codes: r.codes}
	if err := msgpack.NewEncoder(f).Encode(&p); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(f.Name(), r.path); err != nil {
		return err
	}
	r.dirty = false
	return nil
}
