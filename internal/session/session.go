package session

import (
	"sync"
	"time"

	"github.com/gobancho/server/internal/packet"
	"github.com/gobancho/server/internal/persist"
)

// Session is one logged-in client. The tunnel is request/response: handlers
// append outbound packets to the queue, and the transport drains the queue
// into the body of the next HTTP response for this token.
type Session struct {
	Token    string
	UserID   int32
	Username string
	SafeName string

	Privileges persist.Privileges
	Country    string

	UTCOffset        int8
	ShowLocation     bool
	BlockNonFriendPM bool
	ClientVersion    string

	// mu guards everything below. Requests for the same token can race the
	// sweep and other users' fan-out, so all mutable state stays behind it.
	mu    sync.Mutex
	queue []byte

	status      packet.Status
	awayMessage string
	friends     map[int32]struct{}

	// matchID is -1 outside a room. spectatingID is 0 when not spectating.
	matchID      int32
	spectatingID int32
	spectators   map[int32]struct{}
	inLobby      bool

	lastPing time.Time
	rlWindow time.Time
	rlCount  int
}

func New(token string, user *persist.User) *Session {
	return &Session{
		Token:      token,
		UserID:     user.ID,
		Username:   user.Username,
		SafeName:   user.SafeName,
		Privileges: user.Privileges,
		Country:    user.Country,
		friends:    make(map[int32]struct{}),
		matchID:    -1,
		spectators: make(map[int32]struct{}),
		lastPing:   time.Now(),
	}
}

// Enqueue appends an already-framed packet to the outbound queue.
func (s *Session) Enqueue(data []byte) {
	s.mu.Lock()
	s.queue = append(s.queue, data...)
	s.mu.Unlock()
}

// Drain returns the queued bytes and resets the queue.
func (s *Session) Drain() []byte {
	s.mu.Lock()
	out := s.queue
	s.queue = nil
	s.mu.Unlock()
	return out
}

// Touch records activity for timeout sweeping.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastPing = time.Now()
	s.mu.Unlock()
}

// IdleSince reports whether the session has been silent longer than d.
func (s *Session) IdleSince(d time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastPing) > d
}

// AllowPacket charges one inbound packet against the per-second budget and
// reports whether it fits. A zero or negative limit always allows.
func (s *Session) AllowPacket(perSecond int) bool {
	if perSecond <= 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if now.Sub(s.rlWindow) >= time.Second {
		s.rlWindow = now
		s.rlCount = 0
	}
	s.rlCount++
	return s.rlCount <= perSecond
}

// Status returns a copy of the client's current action block.
func (s *Session) Status() packet.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) SetStatus(st packet.Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

func (s *Session) AwayMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awayMessage
}

func (s *Session) SetAwayMessage(msg string) {
	s.mu.Lock()
	s.awayMessage = msg
	s.mu.Unlock()
}

// MatchID returns the occupied room id, or -1.
func (s *Session) MatchID() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchID
}

func (s *Session) SetMatchID(id int32) {
	s.mu.Lock()
	s.matchID = id
	s.mu.Unlock()
}

// Spectating returns the watched host's user id, or 0.
func (s *Session) Spectating() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spectatingID
}

func (s *Session) SetSpectating(id int32) {
	s.mu.Lock()
	s.spectatingID = id
	s.mu.Unlock()
}

func (s *Session) InLobby() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inLobby
}

func (s *Session) SetInLobby(v bool) {
	s.mu.Lock()
	s.inLobby = v
	s.mu.Unlock()
}

func (s *Session) IsFriend(userID int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.friends[userID]
	return ok
}

func (s *Session) AddFriend(userID int32) {
	s.mu.Lock()
	s.friends[userID] = struct{}{}
	s.mu.Unlock()
}

func (s *Session) RemoveFriend(userID int32) {
	s.mu.Lock()
	delete(s.friends, userID)
	s.mu.Unlock()
}

func (s *Session) FriendList() []int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int32, 0, len(s.friends))
	for id := range s.friends {
		out = append(out, id)
	}
	return out
}

// AddSpectator registers a watcher by user id.
func (s *Session) AddSpectator(userID int32) {
	s.mu.Lock()
	s.spectators[userID] = struct{}{}
	s.mu.Unlock()
}

func (s *Session) RemoveSpectator(userID int32) {
	s.mu.Lock()
	delete(s.spectators, userID)
	s.mu.Unlock()
}

func (s *Session) Spectators() []int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int32, 0, len(s.spectators))
	for id := range s.spectators {
		out = append(out, id)
	}
	return out
}

func (s *Session) HasSpectators() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spectators) > 0
}
