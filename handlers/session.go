package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"student-manager-go/manager"
)

// SessionCookie names the cookie carrying the page session id.
const SessionCookie = "sm_session"

type session struct {
	manager  *manager.StudentManager
	lastSeen time.Time
}

// SessionStore keeps one StudentManager per browser session in memory.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	factory  func() *manager.StudentManager
	now      func() time.Time
	// OnCount, when set, is told the session count after it changes.
	OnCount func(n int)
}

// NewSessionStore creates managers with factory on first visit.
func NewSessionStore(factory func() *manager.StudentManager) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session),
		factory:  factory,
		now:      time.Now,
	}
}

// Manager returns the session manager for the request, starting a new
// session (and setting its cookie) when the request carries none.
func (s *SessionStore) Manager(c *gin.Context) *manager.StudentManager {
	id, err := c.Cookie(SessionCookie)
	if err == nil {
		if m := s.touch(id); m != nil {
			return m
		}
	}

	id = uuid.NewString()
	m := s.factory()

	s.mu.Lock()
	s.sessions[id] = &session{manager: m, lastSeen: s.now()}
	n := len(s.sessions)
	s.mu.Unlock()
	s.report(n)

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return m
}

func (s *SessionStore) touch(id string) *manager.StudentManager {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	sess.lastSeen = s.now()
	return sess.manager
}

// Prune drops sessions idle for longer than maxIdle and returns how many
// were dropped.
func (s *SessionStore) Prune(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	dropped := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			dropped++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if dropped > 0 {
		s.report(n)
	}
	return dropped
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) report(n int) {
	if s.OnCount != nil {
		s.OnCount(n)
	}
}
