package multiplayer

import (
	"strings"
	"sync"

	"github.com/gobancho/server/internal/packet"
	"go.uber.org/zap"
)

// privateMarker at the end of a creation password hides the room from the
// public listing. It is stripped before the password is stored.
const privateMarker = "//private"

// NormalizePassword applies the creation-time password rules: the trailing
// private marker toggles listing privacy and is removed, spaces become
// underscores so the password survives the join string, and an empty result
// means no password.
func NormalizePassword(raw string) (password string, private bool) {
	if strings.HasSuffix(raw, privateMarker) {
		private = true
		raw = strings.TrimSuffix(raw, privateMarker)
	}
	return strings.ReplaceAll(raw, " ", "_"), private
}

// Registry owns all live rooms and the lobby membership set.
type Registry struct {
	mu        sync.RWMutex
	matches   map[int32]*Match
	userMatch map[int32]int32
	lobby     map[int32]struct{}
	nextID    int32
	log       *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		matches:   make(map[int32]*Match),
		userMatch: make(map[int32]int32),
		lobby:     make(map[int32]struct{}),
		nextID:    1,
		log:       log,
	}
}

// Create allocates a room from the creation snapshot and seats the creator
// as host in slot 0.
func (reg *Registry) Create(hostID int32, data packet.MatchData) *Match {
	password, private := NormalizePassword(data.Password)

	reg.mu.Lock()
	id := reg.nextID
	reg.nextID++
	m := newMatch(id, hostID, data, password, private)
	reg.matches[id] = m
	reg.userMatch[hostID] = id
	reg.mu.Unlock()

	reg.log.Info("match created",
		zap.Int32("match_id", id),
		zap.Int32("host_id", hostID),
		zap.String("name", data.Name),
		zap.Bool("private", private),
	)
	return m
}

func (reg *Registry) Get(id int32) *Match {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.matches[id]
}

// MatchOf returns the room the user occupies, or nil. A mapping pointing at
// a destroyed room is dropped on sight.
func (reg *Registry) MatchOf(userID int32) *Match {
	reg.mu.RLock()
	id, ok := reg.userMatch[userID]
	m := reg.matches[id]
	reg.mu.RUnlock()
	if !ok {
		return nil
	}
	if m == nil {
		reg.mu.Lock()
		if cur, ok := reg.userMatch[userID]; ok && cur == id && reg.matches[id] == nil {
			delete(reg.userMatch, userID)
		}
		reg.mu.Unlock()
	}
	return m
}

// Join seats the user in the room. The user must not be in another room.
func (reg *Registry) Join(userID, matchID int32, password string) (*Match, int, error) {
	m := reg.Get(matchID)
	if m == nil {
		return nil, -1, ErrNotInMatch
	}
	slot, err := m.join(userID, password)
	if err != nil {
		return nil, -1, err
	}
	reg.mu.Lock()
	if _, live := reg.matches[matchID]; !live {
		// Lost the race with the room's destruction.
		reg.mu.Unlock()
		m.leave(userID)
		return nil, -1, ErrNotInMatch
	}
	reg.userMatch[userID] = matchID
	reg.mu.Unlock()
	return m, slot, nil
}

// LeaveResult describes what a leave changed.
type LeaveResult struct {
	Left        bool
	Destroyed   bool
	HostChanged bool
}

// Leave vacates the user's room, transferring host or destroying the room
// as needed. A no-op when the user is not in any room.
func (reg *Registry) Leave(userID int32) (*Match, LeaveResult) {
	m := reg.MatchOf(userID)
	if m == nil {
		return nil, LeaveResult{}
	}
	left, empty, hostChanged := m.leave(userID)
	if !left {
		// Slot already vacated (lock eviction); drop the stale mapping.
		reg.mu.Lock()
		delete(reg.userMatch, userID)
		reg.mu.Unlock()
		return m, LeaveResult{}
	}

	reg.mu.Lock()
	delete(reg.userMatch, userID)
	if empty {
		delete(reg.matches, m.ID)
	}
	reg.mu.Unlock()

	if empty {
		reg.log.Info("match destroyed", zap.Int32("match_id", m.ID))
	}
	return m, LeaveResult{Left: true, Destroyed: empty, HostChanged: hostChanged}
}

// Evict removes a kicked occupant, with the same cleanup as Leave.
func (reg *Registry) Evict(userID int32) (*Match, LeaveResult) {
	return reg.Leave(userID)
}

// All returns every live room.
func (reg *Registry) All() []*Match {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*Match, 0, len(reg.matches))
	for _, m := range reg.matches {
		out = append(out, m)
	}
	return out
}

// Listed returns the rooms shown in the public lobby listing.
func (reg *Registry) Listed() []*Match {
	var out []*Match
	for _, m := range reg.All() {
		if !m.Private {
			out = append(out, m)
		}
	}
	return out
}

// JoinLobby adds the user to the room-listing broadcast group.
func (reg *Registry) JoinLobby(userID int32) {
	reg.mu.Lock()
	reg.lobby[userID] = struct{}{}
	reg.mu.Unlock()
}

func (reg *Registry) LeaveLobby(userID int32) {
	reg.mu.Lock()
	delete(reg.lobby, userID)
	reg.mu.Unlock()
}

// LobbyMembers returns the user ids watching the room listing.
func (reg *Registry) LobbyMembers() []int32 {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]int32, 0, len(reg.lobby))
	for id := range reg.lobby {
		out = append(out, id)
	}
	return out
}
