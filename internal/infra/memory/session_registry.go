package memory

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"livequiz-service/internal/app"
)

// SessionRegistry is the in-process implementation of app.Registry: live
// sessions keyed by 4-digit join code plus the connection-to-session
// bindings. Codes are unique among active sessions only and free up for
// reuse on removal.
type SessionRegistry struct {
	mu       sync.RWMutex
	rnd      *rand.Rand
	sessions map[string]*app.Session
	conns    map[string]string // connID -> join code
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		sessions: make(map[string]*app.Session),
		conns:    make(map[string]string),
	}
}

func (r *SessionRegistry) Insert(s *app.Session) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		code := fmt.Sprintf("%d", 1000+r.rnd.Intn(9000))
		if _, taken := r.sessions[code]; taken {
			continue
		}
		s.SetJoinCode(code)
		r.sessions[code] = s
		return code
	}
}

func (r *SessionRegistry) Get(code string) (*app.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[code]
	return s, ok
}

func (r *SessionRegistry) Bind(connID, code string) {
	r.mu.Lock()
	r.conns[connID] = code
	r.mu.Unlock()
}

func (r *SessionRegistry) Unbind(connID string) {
	r.mu.Lock()
	delete(r.conns, connID)
	r.mu.Unlock()
}

func (r *SessionRegistry) ByConn(connID string) (*app.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	code, ok := r.conns[connID]
	if !ok {
		return nil, false
	}
	s, ok := r.sessions[code]
	return s, ok
}

func (r *SessionRegistry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, code)
	for connID, c := range r.conns {
		if c == code {
			delete(r.conns, connID)
		}
	}
}
