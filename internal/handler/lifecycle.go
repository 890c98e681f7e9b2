package handler

import (
	"github.com/gobancho/server/internal/command"
	"github.com/gobancho/server/internal/packet"
	"github.com/gobancho/server/internal/session"
	"go.uber.org/zap"
)

// DestroySession performs the cascading teardown: vacate the match slot,
// unlink spectate relations, leave every channel, drop the registry entry,
// and announce the logout. Safe to call for an already-superseded session.
func DestroySession(s *session.Session, d *Deps) {
	d.leaveMatch(s)
	d.stopSpectating(s)

	// Anyone watching this session loses their target.
	for _, id := range s.Spectators() {
		if sp := d.Sessions.ByUserID(id); sp != nil {
			sp.SetSpectating(0)
			sp.Enqueue(packet.Notification("The player you were spectating has gone offline."))
		}
		s.RemoveSpectator(id)
	}
	d.Channels.Remove(command.SpectatorChannelName(s.UserID))

	d.Channels.PartAll(s.UserID)
	d.Sessions.Unregister(s)
	d.Sessions.Broadcast(LogoutPacket(s.UserID))

	d.Log.Info("session destroyed",
		zap.Int32("user_id", s.UserID),
		zap.String("username", s.Username),
	)
}

// leaveMatch vacates the session's room, if any, and fans out the result.
func (d *Deps) leaveMatch(s *session.Session) {
	m, res := d.Matches.Leave(s.UserID)
	s.SetMatchID(-1)
	if m == nil {
		return
	}
	if ch := d.Channels.Get(command.MatchChannelName(m.ID)); ch != nil {
		ch.Part(s.UserID)
	}
	if !res.Left {
		return
	}
	if res.Destroyed {
		d.DisbandMatch(m)
		return
	}
	d.BroadcastMatch(m)
}

// stopSpectating unlinks the session from the host it is watching.
func (d *Deps) stopSpectating(s *session.Session) {
	hostID := s.Spectating()
	if hostID == 0 {
		return
	}
	s.SetSpectating(0)

	host := d.Sessions.ByUserID(hostID)
	if host == nil {
		return
	}
	host.RemoveSpectator(s.UserID)

	left := packet.NewWriter(packet.ServerSpectatorLeft)
	left.WriteI32(s.UserID)
	host.Enqueue(left.Finish())

	fellow := packet.NewWriter(packet.ServerFellowSpectatorLeft)
	fellow.WriteI32(s.UserID)
	d.sendToUsers(host.Spectators(), fellow.Finish())

	name := command.SpectatorChannelName(hostID)
	if ch := d.Channels.Get(name); ch != nil {
		ch.Part(s.UserID)
		if !host.HasSpectators() {
			ch.Part(host.UserID)
			d.Channels.Remove(name)
		}
	}
}

// HandleLogout tears the session down on the client's explicit goodbye.
func HandleLogout(s *session.Session, r *packet.Reader, d *Deps) {
	DestroySession(s, d)
}

// HandlePing answers the keep-alive.
func HandlePing(s *session.Session, r *packet.Reader, d *Deps) {
	s.Enqueue(packet.Empty(packet.ServerPong))
}
