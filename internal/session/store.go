package session

import (
	"sync"

	"clipper/internal/media"
)

// Session is the pending request of one user.
type Session struct {
	UserID          int64
	SourceRef       string
	Title           string
	Duration        int
	Kind            media.Kind
	Mode            media.Mode
	SourceMessageID int
	MenuMessageID   int
}

// Store holds at most one Session per user.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Get returns a copy of the user's session.
func (s *Store) Get(user int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[user]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// GetOrCreate returns the user's session, creating one with defaults
// (audio, by timestamps) when absent.
func (s *Store) GetOrCreate(user int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.getOrCreateLocked(user)
}

// Update applies fn to the user's session under the store lock, creating the
// session first if needed, and returns the updated copy.
func (s *Store) Update(user int64, fn func(*Session)) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreateLocked(user)
	if fn != nil {
		fn(sess)
	}
	sess.UserID = user
	return *sess
}

// ToggleKind flips between audio and video.
func (s *Store) ToggleKind(user int64) Session {
	return s.Update(user, func(sess *Session) {
		if sess.Kind == media.KindAudio {
			sess.Kind = media.KindVideo
		} else {
			sess.Kind = media.KindAudio
		}
	})
}

// ToggleMode flips between whole-file and by-timestamps delivery.
func (s *Store) ToggleMode(user int64) Session {
	return s.Update(user, func(sess *Session) {
		if sess.Mode == media.ModeByTimestamps {
			sess.Mode = media.ModeWhole
		} else {
			sess.Mode = media.ModeByTimestamps
		}
	})
}

// Clear removes the user's session. Safe when absent.
func (s *Store) Clear(user int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, user)
}

func (s *Store) getOrCreateLocked(user int64) *Session {
	sess, ok := s.sessions[user]
	if !ok {
		sess = &Session{UserID: user, Kind: media.KindAudio, Mode: media.ModeByTimestamps}
		s.sessions[user] = sess
	}
	return sess
}
