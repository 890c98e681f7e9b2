package multiplayer

import (
	"errors"
	"sync"

	"github.com/gobancho/server/internal/packet"
)

// Slot status values. Occupied statuses are everything except Open and
// Locked.
const (
	SlotOpen     byte = 1 << 0
	SlotLocked   byte = 1 << 1
	SlotNotReady byte = 1 << 2
	SlotReady    byte = 1 << 3
	SlotNoMap    byte = 1 << 4
	SlotPlaying  byte = 1 << 5
	SlotComplete byte = 1 << 6
)

const occupiedMask = SlotNotReady | SlotReady | SlotNoMap | SlotPlaying | SlotComplete

var (
	ErrWrongPassword = errors.New("wrong password")
	ErrMatchFull     = errors.New("match is full")
	ErrNotInMatch    = errors.New("not in this match")
	ErrInvalidSlot   = errors.New("invalid slot")
	ErrSlotOccupied  = errors.New("slot is occupied")
	ErrSlotLocked    = errors.New("slot is locked")
	ErrNotHost       = errors.New("not the host")
	ErrInProgress    = errors.New("match is in progress")
	ErrNotInProgress = errors.New("match is not in progress")
)

// Slot is one seat in a room.
type Slot struct {
	Status byte
	Team   byte
	Mods   uint32
	UserID int32

	// Round-scoped flags, cleared when the room returns to idle.
	loaded    bool
	skipped   bool
	failed    bool
	completed bool
}

func (s *Slot) occupied() bool {
	return s.Status&occupiedMask != 0
}

func (s *Slot) clear() {
	*s = Slot{Status: SlotOpen}
}

// Match is one multiplayer room. All state transitions go through methods
// holding the match's own lock; packet fan-out is the caller's job, driven
// by the returned snapshots and flags.
type Match struct {
	ID      int32
	Private bool

	mu           sync.Mutex
	name         string
	password     string
	beatmapName  string
	beatmapID    int32
	beatmapMD5   string
	mods         uint32
	mode         byte
	matchType    byte
	winCondition byte
	teamType     byte
	freeMod      bool
	seed         int32
	hostID       int32
	inProgress   bool
	slots        [packet.MaxSlots]Slot
}

func newMatch(id int32, hostID int32, data packet.MatchData, password string, private bool) *Match {
	m := &Match{
		ID:           id,
		Private:      private,
		name:         data.Name,
		password:     password,
		beatmapName:  data.BeatmapName,
		beatmapID:    data.BeatmapID,
		beatmapMD5:   data.BeatmapMD5,
		mods:         data.Mods,
		mode:         data.Mode,
		matchType:    data.MatchType,
		winCondition: data.WinCondition,
		teamType:     data.TeamType,
		freeMod:      data.FreeMod,
		seed:         data.Seed,
		hostID:       hostID,
	}
	for i := range m.slots {
		m.slots[i].Status = SlotOpen
	}
	m.slots[0] = Slot{Status: SlotNotReady, UserID: hostID}
	return m
}

// Snapshot returns the wire representation of the room.
func (m *Match) Snapshot() packet.MatchData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Match) snapshotLocked() packet.MatchData {
	d := packet.MatchData{
		MatchID:      uint16(m.ID),
		InProgress:   m.inProgress,
		MatchType:    m.matchType,
		Mods:         m.mods,
		Name:         m.name,
		Password:     m.password,
		BeatmapName:  m.beatmapName,
		BeatmapID:    m.beatmapID,
		BeatmapMD5:   m.beatmapMD5,
		HostID:       m.hostID,
		Mode:         m.mode,
		WinCondition: m.winCondition,
		TeamType:     m.teamType,
		FreeMod:      m.freeMod,
		Seed:         m.seed,
	}
	for i, s := range m.slots {
		d.SlotStatuses[i] = s.Status
		d.SlotTeams[i] = s.Team
		d.SlotMods[i] = s.Mods
		if s.occupied() {
			d.SlotUserIDs = append(d.SlotUserIDs, s.UserID)
		}
	}
	return d
}

func (m *Match) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

func (m *Match) HostID() int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hostID
}

func (m *Match) IsHost(userID int32) bool {
	return m.HostID() == userID
}

func (m *Match) InProgress() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inProgress
}

// Occupants returns the user ids currently seated, in slot order.
func (m *Match) Occupants() []int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int32
	for _, s := range m.slots {
		if s.occupied() {
			out = append(out, s.UserID)
		}
	}
	return out
}

func (m *Match) slotOf(userID int32) int {
	for i := range m.slots {
		if m.slots[i].occupied() && m.slots[i].UserID == userID {
			return i
		}
	}
	return -1
}

// SlotOf returns the user's slot index, or -1.
func (m *Match) SlotOf(userID int32) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slotOf(userID)
}

// join seats the user in the first open slot. Caller holds no lock.
func (m *Match) join(userID int32, password string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.password != "" && password != m.password {
		// The stored password is normalized at creation; accept the raw
		// creation-time form too.
		if norm, _ := NormalizePassword(password); norm != m.password {
			return -1, ErrWrongPassword
		}
	}
	for i := range m.slots {
		if m.slots[i].Status == SlotOpen {
			m.slots[i] = Slot{Status: SlotNotReady, UserID: userID}
			return i, nil
		}
	}
	return -1, ErrMatchFull
}

// leave vacates the user's slot. Reports whether they were seated, whether
// the room is now empty, and whether host moved to a remaining occupant.
func (m *Match) leave(userID int32) (left, empty, hostChanged bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.slotOf(userID)
	if idx < 0 {
		return false, false, false
	}
	m.slots[idx].clear()

	occupied := -1
	for i := range m.slots {
		if m.slots[i].occupied() {
			occupied = i
			break
		}
	}
	if occupied < 0 {
		return true, true, false
	}
	if m.hostID == userID {
		m.hostID = m.slots[occupied].UserID
		return true, false, true
	}
	return true, false, false
}

// Move relocates the user to the target slot. The target must be open.
func (m *Match) Move(userID int32, target int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if target < 0 || target >= packet.MaxSlots {
		return ErrInvalidSlot
	}
	idx := m.slotOf(userID)
	if idx < 0 {
		return ErrNotInMatch
	}
	if idx == target {
		return nil
	}
	dst := &m.slots[target]
	if dst.Status == SlotLocked {
		return ErrSlotLocked
	}
	if dst.occupied() {
		return ErrSlotOccupied
	}
	*dst = m.slots[idx]
	m.slots[idx].clear()
	return nil
}

// ToggleLock flips a slot between Open and Locked. Locking an occupied slot
// evicts the occupant; their id is returned so the caller can notify them.
func (m *Match) ToggleLock(target int) (evicted int32, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if target < 0 || target >= packet.MaxSlots {
		return 0, ErrInvalidSlot
	}
	s := &m.slots[target]
	switch {
	case s.Status == SlotLocked:
		s.Status = SlotOpen
	case s.occupied():
		evicted = s.UserID
		s.clear()
		s.Status = SlotLocked
	default:
		s.Status = SlotLocked
	}
	return evicted, nil
}

// ChangeSettings overwrites the host-editable room settings. A team-type
// change resets team assignments to alternating red/blue for team modes.
func (m *Match) ChangeSettings(d packet.MatchData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	teamsChanged := m.teamType != d.TeamType
	m.name = d.Name
	m.beatmapName = d.BeatmapName
	m.beatmapID = d.BeatmapID
	m.beatmapMD5 = d.BeatmapMD5
	m.mods = d.Mods
	m.mode = d.Mode
	m.matchType = d.MatchType
	m.winCondition = d.WinCondition
	m.teamType = d.TeamType
	m.freeMod = d.FreeMod
	m.seed = d.Seed
	if teamsChanged {
		n := 0
		for i := range m.slots {
			if !m.slots[i].occupied() {
				continue
			}
			if m.teamType == 2 || m.teamType == 3 { // team-vs, tag-team-vs
				m.slots[i].Team = byte(n%2) + 1
			} else {
				m.slots[i].Team = 0
			}
			n++
		}
	}
}

// SetStatus moves the user's slot to the given ready/map status.
func (m *Match) SetStatus(userID int32, status byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.slotOf(userID)
	if idx < 0 {
		return ErrNotInMatch
	}
	m.slots[idx].Status = status
	return nil
}

// ChangeMods sets the user's per-slot mods when free mod is on; the host's
// change also updates the global mods.
func (m *Match) ChangeMods(userID int32, mods uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.slotOf(userID)
	if idx < 0 {
		return ErrNotInMatch
	}
	if m.freeMod {
		m.slots[idx].Mods = mods
		return nil
	}
	if userID != m.hostID {
		return ErrNotHost
	}
	m.mods = mods
	return nil
}

// ToggleTeam flips the user between red and blue.
func (m *Match) ToggleTeam(userID int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.slotOf(userID)
	if idx < 0 {
		return ErrNotInMatch
	}
	if m.slots[idx].Team == 1 {
		m.slots[idx].Team = 2
	} else {
		m.slots[idx].Team = 1
	}
	return nil
}

func (m *Match) ChangeTeam(userID int32, team byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.slotOf(userID)
	if idx < 0 {
		return ErrNotInMatch
	}
	m.slots[idx].Team = team
	return nil
}

// ChangePassword replaces the join password. The same normalization as at
// creation applies.
func (m *Match) ChangePassword(raw string) {
	pw, _ := NormalizePassword(raw)
	m.mu.Lock()
	m.password = pw
	m.mu.Unlock()
}

func (m *Match) Password() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.password
}

// TransferHostSlot reassigns host privilege to the occupant of the slot.
func (m *Match) TransferHostSlot(target int) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if target < 0 || target >= packet.MaxSlots {
		return 0, ErrInvalidSlot
	}
	if !m.slots[target].occupied() {
		return 0, ErrInvalidSlot
	}
	m.hostID = m.slots[target].UserID
	return m.hostID, nil
}

// TransferHostUser reassigns host privilege to the given occupant.
func (m *Match) TransferHostUser(userID int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slotOf(userID) < 0 {
		return ErrNotInMatch
	}
	m.hostID = userID
	return nil
}

// Start transitions the room into a round. Ready occupants always play;
// not-ready occupants are pulled in only when forceNotReady is set. NoMap
// occupants never play. Returns the playing user ids.
func (m *Match) Start(forceNotReady bool) ([]int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inProgress {
		return nil, ErrInProgress
	}
	var playing []int32
	for i := range m.slots {
		s := &m.slots[i]
		if !s.occupied() || s.Status == SlotNoMap {
			continue
		}
		if s.Status == SlotReady || (forceNotReady && s.Status == SlotNotReady) {
			s.Status = SlotPlaying
			s.loaded, s.skipped, s.failed, s.completed = false, false, false, false
			playing = append(playing, s.UserID)
		}
	}
	if len(playing) == 0 {
		return nil, ErrNotInProgress
	}
	m.inProgress = true
	return playing, nil
}

// Abort ends an in-progress round without results, resetting every playing
// slot to not-ready.
func (m *Match) Abort() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inProgress {
		return ErrNotInProgress
	}
	m.finishRoundLocked()
	return nil
}

func (m *Match) finishRoundLocked() {
	m.inProgress = false
	for i := range m.slots {
		s := &m.slots[i]
		if s.Status == SlotPlaying || s.Status == SlotComplete {
			s.Status = SlotNotReady
		}
		s.loaded, s.skipped, s.failed, s.completed = false, false, false, false
	}
}

// PlayerLoaded marks the user's round load done. Reports whether every
// playing occupant has now loaded.
func (m *Match) PlayerLoaded(userID int32) (all bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.slotOf(userID)
	if idx < 0 {
		return false, ErrNotInMatch
	}
	m.slots[idx].loaded = true
	return m.everyPlayingLocked(func(s *Slot) bool { return s.loaded }), nil
}

// PlayerSkipped marks a skip request. Reports the slot index and whether all
// playing occupants have skipped.
func (m *Match) PlayerSkipped(userID int32) (slot int, all bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.slotOf(userID)
	if idx < 0 {
		return -1, false, ErrNotInMatch
	}
	m.slots[idx].skipped = true
	return idx, m.everyPlayingLocked(func(s *Slot) bool { return s.skipped }), nil
}

// PlayerFailed records a fail; the slot keeps playing (the client keeps
// streaming frames) but the fail is fanned out to the room.
func (m *Match) PlayerFailed(userID int32) (slot int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.slotOf(userID)
	if idx < 0 {
		return -1, ErrNotInMatch
	}
	m.slots[idx].failed = true
	return idx, nil
}

// PlayerCompleted marks the user's round finished. When every playing
// occupant has completed or failed, the room returns to idle and the method
// reports finished=true.
func (m *Match) PlayerCompleted(userID int32) (finished bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.slotOf(userID)
	if idx < 0 {
		return false, ErrNotInMatch
	}
	m.slots[idx].completed = true
	m.slots[idx].Status = SlotComplete
	if !m.everyPlayingLocked(func(s *Slot) bool { return s.completed || s.failed }) {
		return false, nil
	}
	m.finishRoundLocked()
	return true, nil
}

// everyPlayingLocked reports whether pred holds for every slot that entered
// the current round.
func (m *Match) everyPlayingLocked(pred func(*Slot) bool) bool {
	any := false
	for i := range m.slots {
		s := &m.slots[i]
		if s.Status != SlotPlaying && s.Status != SlotComplete {
			continue
		}
		any = true
		if !pred(s) {
			return false
		}
	}
	return any
}
