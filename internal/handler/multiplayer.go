package handler

import (
	"github.com/gobancho/server/internal/chat"
	"github.com/gobancho/server/internal/command"
	"github.com/gobancho/server/internal/multiplayer"
	"github.com/gobancho/server/internal/packet"
	"github.com/gobancho/server/internal/session"
	"go.uber.org/zap"
)

// HandleJoinLobby subscribes the caller to the room listing and sends the
// current public rooms.
func HandleJoinLobby(s *session.Session, r *packet.Reader, d *Deps) {
	d.Matches.JoinLobby(s.UserID)
	s.SetInLobby(true)
	for _, m := range d.Matches.Listed() {
		s.Enqueue(packet.MatchPacket(packet.ServerMatchNew, m.Snapshot(), false))
	}
}

func HandlePartLobby(s *session.Session, r *packet.Reader, d *Deps) {
	d.Matches.LeaveLobby(s.UserID)
	s.SetInLobby(false)
}

// HandleCreateMatch builds a room from the client snapshot, seats the
// creator as host, and opens the room's chat channel.
func HandleCreateMatch(s *session.Session, r *packet.Reader, d *Deps) {
	data := packet.ReadMatchData(r)

	// One room per session; a stale membership is vacated first.
	d.leaveMatch(s)

	m := d.Matches.Create(s.UserID, data)
	s.SetMatchID(m.ID)

	ch := chat.NewChannel(command.MatchChannelName(m.ID), "multiplayer room "+m.Name())
	ch.Instanced = true
	d.Channels.Add(ch)
	joinChannel(s, ch, "#multiplayer")

	s.Enqueue(packet.MatchPacket(packet.ServerMatchJoinSuccess, m.Snapshot(), true))
	d.AnnounceMatch(m)

	d.Log.Info("match created by client",
		zap.Int32("match_id", m.ID),
		zap.Int32("user_id", s.UserID),
	)
}

// HandleJoinMatch seats the caller in a room; failures answer the caller
// only.
func HandleJoinMatch(s *session.Session, r *packet.Reader, d *Deps) {
	req := packet.ReadJoinRequest(r)

	d.leaveMatch(s)

	m, _, err := d.Matches.Join(s.UserID, req.MatchID, req.Password)
	if err != nil {
		s.Enqueue(packet.Empty(packet.ServerMatchJoinFail))
		return
	}
	s.SetMatchID(m.ID)

	if ch := d.Channels.Get(command.MatchChannelName(m.ID)); ch != nil {
		joinChannel(s, ch, "#multiplayer")
	}
	s.Enqueue(packet.MatchPacket(packet.ServerMatchJoinSuccess, m.Snapshot(), true))
	d.BroadcastMatch(m)
}

func HandlePartMatch(s *session.Session, r *packet.Reader, d *Deps) {
	d.leaveMatch(s)
}

// matchOf resolves the caller's room; packets arriving while not in one are
// dropped.
func matchOf(s *session.Session, d *Deps) *multiplayer.Match {
	return d.Matches.MatchOf(s.UserID)
}

func HandleMatchChangeSlot(s *session.Session, r *packet.Reader, d *Deps) {
	m := matchOf(s, d)
	if m == nil {
		return
	}
	if err := m.Move(s.UserID, int(r.ReadI32())); err != nil {
		return
	}
	d.BroadcastMatch(m)
}

func HandleMatchReady(s *session.Session, r *packet.Reader, d *Deps) {
	setOwnStatus(s, d, multiplayer.SlotReady)
}

func HandleMatchNotReady(s *session.Session, r *packet.Reader, d *Deps) {
	setOwnStatus(s, d, multiplayer.SlotNotReady)
}

func HandleMatchNoBeatmap(s *session.Session, r *packet.Reader, d *Deps) {
	setOwnStatus(s, d, multiplayer.SlotNoMap)
}

func HandleMatchHasBeatmap(s *session.Session, r *packet.Reader, d *Deps) {
	setOwnStatus(s, d, multiplayer.SlotNotReady)
}

func setOwnStatus(s *session.Session, d *Deps, status byte) {
	m := matchOf(s, d)
	if m == nil {
		return
	}
	if err := m.SetStatus(s.UserID, status); err != nil {
		return
	}
	d.BroadcastMatch(m)
}

func HandleMatchLock(s *session.Session, r *packet.Reader, d *Deps) {
	m := matchOf(s, d)
	if m == nil || !m.IsHost(s.UserID) {
		return
	}
	evicted, err := m.ToggleLock(int(r.ReadI32()))
	if err != nil {
		return
	}
	if evicted != 0 {
		if target := d.Sessions.ByUserID(evicted); target != nil {
			d.KickFromMatch(target, m)
		}
	}
	d.BroadcastMatch(m)
}

func HandleMatchChangeSettings(s *session.Session, r *packet.Reader, d *Deps) {
	m := matchOf(s, d)
	if m == nil || !m.IsHost(s.UserID) {
		return
	}
	m.ChangeSettings(packet.ReadMatchData(r))
	d.BroadcastMatch(m)
}

func HandleMatchChangePassword(s *session.Session, r *packet.Reader, d *Deps) {
	m := matchOf(s, d)
	if m == nil || !m.IsHost(s.UserID) {
		return
	}
	data := packet.ReadMatchData(r)
	m.ChangePassword(data.Password)

	w := packet.NewWriter(packet.ServerMatchChangePassword)
	w.WriteString(m.Password())
	d.sendToUsers(m.Occupants(), w.Finish())
	d.BroadcastMatch(m)
}

func HandleMatchChangeMods(s *session.Session, r *packet.Reader, d *Deps) {
	m := matchOf(s, d)
	if m == nil {
		return
	}
	if err := m.ChangeMods(s.UserID, r.ReadU32()); err != nil {
		return
	}
	d.BroadcastMatch(m)
}

func HandleMatchChangeTeam(s *session.Session, r *packet.Reader, d *Deps) {
	m := matchOf(s, d)
	if m == nil {
		return
	}
	if err := m.ToggleTeam(s.UserID); err != nil {
		return
	}
	d.BroadcastMatch(m)
}

func HandleMatchTransferHost(s *session.Session, r *packet.Reader, d *Deps) {
	m := matchOf(s, d)
	if m == nil || !m.IsHost(s.UserID) {
		return
	}
	newHost, err := m.TransferHostSlot(int(r.ReadI32()))
	if err != nil {
		return
	}
	if target := d.Sessions.ByUserID(newHost); target != nil {
		target.Enqueue(packet.Empty(packet.ServerMatchTransferHost))
	}
	d.BroadcastMatch(m)
}

func HandleMatchStart(s *session.Session, r *packet.Reader, d *Deps) {
	m := matchOf(s, d)
	if m == nil || !m.IsHost(s.UserID) {
		return
	}
	playing, err := m.Start(d.Config.Multiplayer.ForceStartNotReady)
	if err != nil {
		s.Enqueue(packet.Notification("The match could not be started."))
		return
	}
	d.StartRound(m, playing)
}

func HandleMatchLoadComplete(s *session.Session, r *packet.Reader, d *Deps) {
	m := matchOf(s, d)
	if m == nil {
		return
	}
	all, err := m.PlayerLoaded(s.UserID)
	if err != nil || !all {
		return
	}
	d.sendToUsers(m.Occupants(), packet.Empty(packet.ServerMatchAllPlayersLoaded))
}

func HandleMatchSkipRequest(s *session.Session, r *packet.Reader, d *Deps) {
	m := matchOf(s, d)
	if m == nil {
		return
	}
	slot, all, err := m.PlayerSkipped(s.UserID)
	if err != nil {
		return
	}
	w := packet.NewWriter(packet.ServerMatchPlayerSkipped)
	w.WriteI32(int32(slot))
	d.sendToUsers(m.Occupants(), w.Finish())
	if all {
		d.sendToUsers(m.Occupants(), packet.Empty(packet.ServerMatchSkip))
	}
}

// HandleMatchScoreUpdate relays a live score frame to the other occupants,
// rewriting the slot id to the sender's actual seat.
func HandleMatchScoreUpdate(s *session.Session, r *packet.Reader, d *Deps) {
	m := matchOf(s, d)
	if m == nil {
		return
	}
	slot := m.SlotOf(s.UserID)
	if slot < 0 {
		return
	}
	frame := packet.ReadScoreFrame(r)
	frame.SlotID = byte(slot)

	w := packet.NewWriter(packet.ServerMatchScoreUpdate)
	packet.WriteScoreFrame(w, frame)
	data := w.Finish()
	for _, id := range m.Occupants() {
		if id == s.UserID {
			continue
		}
		if target := d.Sessions.ByUserID(id); target != nil {
			target.Enqueue(data)
		}
	}
}

func HandleMatchFailed(s *session.Session, r *packet.Reader, d *Deps) {
	m := matchOf(s, d)
	if m == nil {
		return
	}
	slot, err := m.PlayerFailed(s.UserID)
	if err != nil {
		return
	}
	w := packet.NewWriter(packet.ServerMatchPlayerFailed)
	w.WriteI32(int32(slot))
	d.sendToUsers(m.Occupants(), w.Finish())
}

func HandleMatchComplete(s *session.Session, r *packet.Reader, d *Deps) {
	m := matchOf(s, d)
	if m == nil {
		return
	}
	finished, err := m.PlayerCompleted(s.UserID)
	if err != nil || !finished {
		return
	}
	d.FinishRound(m)
}

// HandleMatchInvite sends a match invite through the same rate limit as the
// chat command.
func HandleMatchInvite(s *session.Session, r *packet.Reader, d *Deps) {
	m := matchOf(s, d)
	if m == nil {
		return
	}
	if !d.Commands.InviteAllowed(s.UserID) {
		return
	}
	target := d.Sessions.ByUserID(r.ReadI32())
	if target == nil {
		return
	}
	d.Commands.SendInvite(s, target, m)
}
