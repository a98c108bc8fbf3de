package utils

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// Session kinds
const (
	SessionBlackjack = "blackjack"
	SessionBuilder   = "builder"
)

// Session is a live multi-step interaction owned by one user. Handlers lock
// it while they mutate Data.
type Session struct {
	sync.Mutex

	ID          string
	Kind        string
	UserID      string
	Interaction *discordgo.Interaction
	Data        any
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Timeout     time.Duration
	// OnExpire runs once, outside the manager lock, when the session times out
	OnExpire func(*Session)

	ended atomic.Bool
}

// Ended reports whether the session was finished by End
func (s *Session) Ended() bool {
	return s.ended.Load()
}

type sessionKey struct {
	kind   string
	userID string
}

// SessionManager tracks sessions by ID and by (kind, user)
type SessionManager struct {
	byID   map[string]*Session
	byUser map[sessionKey]string
	mutex  sync.RWMutex
	now    func() time.Time
}

// Global session manager
var Sessions = NewSessionManager()

func NewSessionManager() *SessionManager {
	return &SessionManager{
		byID:   make(map[string]*Session),
		byUser: make(map[sessionKey]string),
		now:    time.Now,
	}
}

// Register adds a session. A user may hold only one live session per kind.
func (sm *SessionManager) Register(s *Session) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	now := sm.now()
	key := sessionKey{kind: s.Kind, userID: s.UserID}
	if id, exists := sm.byUser[key]; exists {
		if existing := sm.byID[id]; existing != nil && now.Before(existing.ExpiresAt) {
			return ErrAlreadyExists
		}
	}

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = now
	s.ExpiresAt = now.Add(s.Timeout)
	sm.byID[s.ID] = s
	sm.byUser[key] = s.ID
	return nil
}

// Get returns a live session
func (sm *SessionManager) Get(id string) (*Session, error) {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	s, exists := sm.byID[id]
	if !exists || !sm.now().Before(s.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	return s, nil
}

// Authorize returns the session if userID owns it
func (sm *SessionManager) Authorize(id, userID string) (*Session, error) {
	s, err := sm.Get(id)
	if err != nil {
		return nil, err
	}
	if s.UserID != userID {
		return nil, ErrForbidden
	}
	return s, nil
}

// ForUser returns the user's live session of kind
func (sm *SessionManager) ForUser(kind, userID string) (*Session, bool) {
	sm.mutex.RLock()
	id, exists := sm.byUser[sessionKey{kind: kind, userID: userID}]
	sm.mutex.RUnlock()
	if !exists {
		return nil, false
	}
	s, err := sm.Get(id)
	return s, err == nil
}

// Touch extends a session by its timeout
func (sm *SessionManager) Touch(id string) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	if s, exists := sm.byID[id]; exists {
		s.ExpiresAt = sm.now().Add(s.Timeout)
	}
}

// End removes a session without running OnExpire
func (sm *SessionManager) End(id string) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	if s, exists := sm.byID[id]; exists {
		s.ended.Store(true)
	}
	sm.remove(id)
}

func (sm *SessionManager) remove(id string) *Session {
	s, exists := sm.byID[id]
	if !exists {
		return nil
	}
	delete(sm.byID, id)
	key := sessionKey{kind: s.Kind, userID: s.UserID}
	if sm.byUser[key] == id {
		delete(sm.byUser, key)
	}
	return s
}

// Sweep expires sessions past their deadline and runs their OnExpire
// callbacks. The deadline is checked again under the session lock, so a
// handler that extends the session while holding it keeps it alive.
func (sm *SessionManager) Sweep() int {
	sm.mutex.RLock()
	now := sm.now()
	var due []*Session
	for _, s := range sm.byID {
		if !now.Before(s.ExpiresAt) {
			due = append(due, s)
		}
	}
	sm.mutex.RUnlock()

	expired := 0
	for _, s := range due {
		if sm.expire(s) {
			expired++
		}
	}
	if expired > 0 {
		slog.Debug("expired sessions swept", "count", expired)
	}
	return expired
}

func (sm *SessionManager) expire(s *Session) bool {
	s.Lock()
	defer s.Unlock()

	sm.mutex.Lock()
	due := sm.byID[s.ID] == s && !sm.now().Before(s.ExpiresAt)
	if due {
		sm.remove(s.ID)
	}
	sm.mutex.Unlock()
	if !due || s.Ended() {
		return false
	}

	s.ended.Store(true)
	if s.OnExpire != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("session expiry callback panicked", "session_id", s.ID, "kind", s.Kind, "panic", r)
				}
			}()
			s.OnExpire(s)
		}()
	}
	return true
}

// Stats returns live session counts by kind plus "total"
func (sm *SessionManager) Stats() map[string]int {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	stats := make(map[string]int)
	for _, s := range sm.byID {
		stats[s.Kind]++
	}
	stats["total"] = len(sm.byID)
	return stats
}

// Count returns the number of tracked sessions
func (sm *SessionManager) Count() int {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return len(sm.byID)
}
