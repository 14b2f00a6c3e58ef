package cli

import "sync"

// groupLocks serializes runs that write to the same log group. A run only
// knows which streams it claimed itself, so two runs sharing a group could
// each claim the other's newest stream.
type groupLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newGroupLocks() *groupLocks {
	return &groupLocks{locks: make(map[string]*sync.Mutex)}
}

func (g *groupLocks) get(group string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()

	m, ok := g.locks[group]
	if !ok {
		m = &sync.Mutex{}
		g.locks[group] = m
	}
	return m
}
