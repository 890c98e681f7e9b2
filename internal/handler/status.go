package handler

import (
	"github.com/gobancho/server/internal/packet"
	"github.com/gobancho/server/internal/session"
)

// HandleChangeAction updates the session's activity block and pushes the
// refreshed stats to everyone.
func HandleChangeAction(s *session.Session, r *packet.Reader, d *Deps) {
	s.SetStatus(packet.ReadStatus(r))
	d.BroadcastStats(s)
}

// HandleRequestStatusUpdate re-sends the caller their own stats block.
func HandleRequestStatusUpdate(s *session.Session, r *packet.Reader, d *Deps) {
	s.Enqueue(StatsPacket(s))
}

// HandleUserStatsRequest answers a batch stats query for the listed users.
func HandleUserStatsRequest(s *session.Session, r *packet.Reader, d *Deps) {
	for _, id := range r.ReadI32List() {
		if id == s.UserID {
			continue
		}
		if target := d.Sessions.ByUserID(id); target != nil {
			s.Enqueue(StatsPacket(target))
		}
	}
}

// HandleSetAwayMessage stores the away text replied to private messages.
func HandleSetAwayMessage(s *session.Session, r *packet.Reader, d *Deps) {
	msg := packet.ReadMessage(r)
	s.SetAwayMessage(msg.Text)
	if msg.Text == "" {
		s.Enqueue(packet.Notification("You are no longer marked as away."))
		return
	}
	s.Enqueue(packet.Notification("You are now marked as away: " + msg.Text))
}
