package tool

import (
	"path/filepath"
	"sync"
)

// pathLocks provides mutual exclusion per canonical file path, so the
// backup-then-overwrite sequence for one target never interleaves with a
// concurrent apply or rollback on the same file.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for path's canonical form and returns the
// unlock function. Locks are never removed from the map; the set of
// distinct target paths per process is small.
func (p *pathLocks) lock(path string) func() {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}
	key = filepath.Clean(key)

	p.mu.Lock()
	m, ok := p.locks[key]
	if !ok {
		m = &sync.Mutex{}
		p.locks[key] = m
	}
	p.mu.Unlock()

	m.Lock()
	return m.Unlock
}
