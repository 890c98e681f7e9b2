package session

import (
	"sync"
	"time"

	"github.com/gobancho/server/internal/persist"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Registry indexes live sessions by token, user id, and safe name.
// One session per user: a second login supersedes the first.
type Registry struct {
	mu         sync.RWMutex
	byToken    map[string]*Session
	byUserID   map[int32]*Session
	bySafeName map[string]*Session
	log        *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		byToken:    make(map[string]*Session),
		byUserID:   make(map[int32]*Session),
		bySafeName: make(map[string]*Session),
		log:        log,
	}
}

// Create registers a fresh session for the user and returns it, along with
// the superseded session for the same user id if one was online.
func (reg *Registry) Create(user *persist.User) (*Session, *Session) {
	s := New(uuid.NewString(), user)

	reg.mu.Lock()
	old := reg.byUserID[user.ID]
	if old != nil {
		delete(reg.byToken, old.Token)
	}
	reg.byToken[s.Token] = s
	reg.byUserID[s.UserID] = s
	reg.bySafeName[s.SafeName] = s
	reg.mu.Unlock()

	if old != nil {
		reg.log.Info("session superseded",
			zap.Int32("user_id", user.ID),
			zap.String("username", user.Username),
		)
	}
	return s, old
}

// RegisterBot inserts a synthetic session that is never swept.
func (reg *Registry) RegisterBot(s *Session) {
	reg.mu.Lock()
	reg.byToken[s.Token] = s
	reg.byUserID[s.UserID] = s
	reg.bySafeName[s.SafeName] = s
	reg.mu.Unlock()
}

func (reg *Registry) ByToken(token string) *Session {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.byToken[token]
}

func (reg *Registry) ByUserID(id int32) *Session {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.byUserID[id]
}

// ByName resolves a session by display or safe name.
func (reg *Registry) ByName(name string) *Session {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.bySafeName[persist.SafeName(name)]
}

// Unregister removes the session from all indexes. It is a no-op if the
// session was already superseded by a newer login for the same user.
func (reg *Registry) Unregister(s *Session) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.byToken[s.Token] != s {
		return
	}
	delete(reg.byToken, s.Token)
	if reg.byUserID[s.UserID] == s {
		delete(reg.byUserID, s.UserID)
	}
	if reg.bySafeName[s.SafeName] == s {
		delete(reg.bySafeName, s.SafeName)
	}
}

// All returns a snapshot of every live session.
func (reg *Registry) All() []*Session {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*Session, 0, len(reg.byToken))
	for _, s := range reg.byToken {
		out = append(out, s)
	}
	return out
}

func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.byToken)
}

// Broadcast enqueues a framed packet to every live session.
func (reg *Registry) Broadcast(data []byte) {
	for _, s := range reg.All() {
		s.Enqueue(data)
	}
}

// Idle returns sessions silent for longer than the timeout, excluding the
// given user id (the resident bot).
func (reg *Registry) Idle(timeout time.Duration, exceptUserID int32) []*Session {
	var out []*Session
	for _, s := range reg.All() {
		if s.UserID == exceptUserID {
			continue
		}
		if s.IdleSince(timeout) {
			out = append(out, s)
		}
	}
	return out
}
