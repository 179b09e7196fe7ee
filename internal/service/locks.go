package service

import "sync"

// ProjectLocks is a keyed mutex: one lock per project id. Entries are
// reference counted and dropped once nobody holds or waits on them.
type ProjectLocks struct {
	mu    sync.Mutex
	locks map[string]*projectLock
}

type projectLock struct {
	mu   sync.Mutex
	refs int
}

func NewProjectLocks() *ProjectLocks {
	return &ProjectLocks{locks: make(map[string]*projectLock)}
}

// Lock blocks until the project's lock is held and returns the matching
// unlock function.
func (l *ProjectLocks) Lock(projectID string) (unlock func()) {
	l.mu.Lock()
	pl, ok := l.locks[projectID]
	if !ok {
		pl = &projectLock{}
		l.locks[projectID] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()
	return func() {
		pl.mu.Unlock()
		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, projectID)
		}
		l.mu.Unlock()
	}
}

// size returns the number of live entries.
func (l *ProjectLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
