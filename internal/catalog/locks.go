package catalog

import "sync"

// toneLocks hands out one writer mutex per tone name. Names are unique and
// never change, so a tone that does not exist yet can be locked before the
// transaction that creates it. Entries are never removed; the registry grows
// with the number of tones written by this process.
type toneLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newToneLocks() *toneLocks {
	return &toneLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the writer lock for toneName and returns its release func
func (l *toneLocks) lock(toneName string) func() {
	l.mu.Lock()
	m, ok := l.locks[toneName]
	if !ok {
		m = &sync.Mutex{}
		l.locks[toneName] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
