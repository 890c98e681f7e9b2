package handler

import (
	"github.com/gobancho/server/internal/command"
	"github.com/gobancho/server/internal/multiplayer"
	"github.com/gobancho/server/internal/packet"
	"github.com/gobancho/server/internal/session"
)

// PresencePacket frames the identity block other clients use to render a
// user in lists.
func PresencePacket(s *session.Session) []byte {
	w := packet.NewWriter(packet.ServerUserPresence)
	w.WriteI32(s.UserID)
	w.WriteString(s.Username)
	w.WriteU8(byte(s.UTCOffset) + 24)
	w.WriteU8(0) // country index, not tracked
	w.WriteU8(byte(s.Privileges))
	if s.ShowLocation {
		w.WriteF32(0) // longitude
		w.WriteF32(0) // latitude
	} else {
		w.WriteF32(0)
		w.WriteF32(0)
	}
	w.WriteI32(0) // global rank, not tracked
	return w.Finish()
}

// StatsPacket frames the live status block. Score statistics are zero; the
// ranking side of the system lives elsewhere.
func StatsPacket(s *session.Session) []byte {
	w := packet.NewWriter(packet.ServerUserStats)
	w.WriteI32(s.UserID)
	packet.WriteStatus(w, s.Status())
	w.WriteI64(0) // ranked score
	w.WriteF32(0) // accuracy
	w.WriteI32(0) // playcount
	w.WriteI64(0) // total score
	w.WriteI32(0) // global rank
	w.WriteU16(0) // pp
	return w.Finish()
}

// LogoutPacket announces a user going offline.
func LogoutPacket(userID int32) []byte {
	w := packet.NewWriter(packet.ServerUserLogout)
	w.WriteI32(userID)
	w.WriteU8(0)
	return w.Finish()
}

// sendToUsers enqueues data on each listed user's session, skipping ids
// that are no longer online.
func (d *Deps) sendToUsers(ids []int32, data []byte) {
	for _, id := range ids {
		if s := d.Sessions.ByUserID(id); s != nil {
			s.Enqueue(data)
		}
	}
}

// BroadcastStats pushes the user's refreshed stats block to everyone.
func (d *Deps) BroadcastStats(s *session.Session) {
	d.Sessions.Broadcast(StatsPacket(s))
}

// BroadcastMatch fans the room snapshot out: occupants see the password,
// lobby watchers see it masked.
func (d *Deps) BroadcastMatch(m *multiplayer.Match) {
	snap := m.Snapshot()
	d.sendToUsers(m.Occupants(), packet.MatchPacket(packet.ServerMatchUpdate, snap, true))
	d.sendToUsers(d.Matches.LobbyMembers(), packet.MatchPacket(packet.ServerMatchUpdate, snap, false))
}

// AnnounceMatch advertises a new room to the lobby.
func (d *Deps) AnnounceMatch(m *multiplayer.Match) {
	if m.Private {
		return
	}
	data := packet.MatchPacket(packet.ServerMatchNew, m.Snapshot(), false)
	d.sendToUsers(d.Matches.LobbyMembers(), data)
}

// DisbandMatch tells the lobby the room is gone and retires its channel.
func (d *Deps) DisbandMatch(m *multiplayer.Match) {
	w := packet.NewWriter(packet.ServerMatchDisband)
	w.WriteI32(m.ID)
	d.sendToUsers(d.Matches.LobbyMembers(), w.Finish())
	d.Channels.Remove(command.MatchChannelName(m.ID))
}

// StartRound sends match-start to the playing occupants and refreshes the
// snapshot for everyone else.
func (d *Deps) StartRound(m *multiplayer.Match, playing []int32) {
	d.sendToUsers(playing, packet.MatchPacket(packet.ServerMatchStart, m.Snapshot(), true))
	d.BroadcastMatch(m)
}

// FinishRound sends match-complete to the occupants and refreshes the
// snapshot.
func (d *Deps) FinishRound(m *multiplayer.Match) {
	d.sendToUsers(m.Occupants(), packet.Empty(packet.ServerMatchComplete))
	d.BroadcastMatch(m)
}

// KickFromMatch removes the target from the room with a user-visible
// notice.
func (d *Deps) KickFromMatch(target *session.Session, m *multiplayer.Match) {
	d.leaveMatch(target)
	w := packet.NewWriter(packet.ServerMatchDisband)
	w.WriteI32(m.ID)
	target.Enqueue(w.Finish())
	target.Enqueue(packet.Notification("You have been removed from the match."))
}

// Disconnect tears the target's session down with a reason notice.
func (d *Deps) Disconnect(target *session.Session, reason string) {
	target.Enqueue(packet.Notification(reason))
	DestroySession(target, d)
}
