package status

import (
	"context"
	"sync"
)

// MemoryRegistry is a process-local Registry for runs without a user database.
type MemoryRegistry struct {
	mu          sync.Mutex
	messages    map[int64]int
	deactivated map[int64]bool
}

// NewMemoryRegistry constructs an empty MemoryRegistry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		messages:    make(map[int64]int),
		deactivated: make(map[int64]bool),
	}
}

// StatusMessageID returns the recorded message id for user.
func (m *MemoryRegistry) StatusMessageID(_ context.Context, user int64) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.messages[user]
	return id, ok, nil
}

// SetStatusMessageID records the message id for user.
func (m *MemoryRegistry) SetStatusMessageID(_ context.Context, user int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[user] = messageID
	return nil
}

// Deactivate marks user unreachable and forgets their message.
func (m *MemoryRegistry) Deactivate(_ context.Context, user int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.messages, user)
	m.deactivated[user] = true
	return nil
}

// Deactivated reports whether user was marked unreachable.
func (m *MemoryRegistry) Deactivated(user int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deactivated[user]
}
