package session

import "sync"

// Gate serializes jobs per user. Locks are created lazily and kept for the
// life of the process.
type Gate struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
	held  map[int64]bool
}

// NewGate constructs an empty Gate.
func NewGate() *Gate {
	return &Gate{
		locks: make(map[int64]*sync.Mutex),
		held:  make(map[int64]bool),
	}
}

// TryBegin admits a job for user when none is running. The returned release
// function is safe to call more than once; only the first call unlocks.
func (g *Gate) TryBegin(user int64) (release func(), ok bool) {
	lock := g.lockFor(user)
	if !lock.TryLock() {
		return nil, false
	}
	g.mu.Lock()
	g.held[user] = true
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, user)
			g.mu.Unlock()
			lock.Unlock()
		})
	}, true
}

// Busy reports whether user has a job in flight.
func (g *Gate) Busy(user int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held[user]
}

// Active returns the number of users with a job in flight.
func (g *Gate) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.held)
}

// ActiveUsers returns the ids of users with a job in flight.
func (g *Gate) ActiveUsers() []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	users := make([]int64, 0, len(g.held))
	for user := range g.held {
		users = append(users, user)
	}
	return users
}

func (g *Gate) lockFor(user int64) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.locks[user]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[user] = lock
	}
	return lock
}
