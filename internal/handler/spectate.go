package handler

import (
	"github.com/gobancho/server/internal/chat"
	"github.com/gobancho/server/internal/command"
	"github.com/gobancho/server/internal/packet"
	"github.com/gobancho/server/internal/session"
)

// HandleStartSpectating attaches the caller to the target's frame stream
// and seats both in the host's spectator channel.
func HandleStartSpectating(s *session.Session, r *packet.Reader, d *Deps) {
	targetID := r.ReadI32()
	host := d.Sessions.ByUserID(targetID)
	if host == nil || targetID == s.UserID {
		return
	}

	d.stopSpectating(s)
	s.SetSpectating(targetID)
	host.AddSpectator(s.UserID)

	joined := packet.NewWriter(packet.ServerSpectatorJoined)
	joined.WriteI32(s.UserID)
	host.Enqueue(joined.Finish())

	fellow := packet.NewWriter(packet.ServerFellowSpectatorJoined)
	fellow.WriteI32(s.UserID)
	for _, id := range host.Spectators() {
		if id == s.UserID {
			continue
		}
		if sp := d.Sessions.ByUserID(id); sp != nil {
			sp.Enqueue(fellow.Finish())
		}
	}

	name := command.SpectatorChannelName(targetID)
	ch := d.Channels.Get(name)
	if ch == nil {
		ch = chat.NewChannel(name, "spectator chat for "+host.Username)
		ch.Instanced = true
		d.Channels.Add(ch)
		joinChannel(host, ch, "#spectator")
	}
	joinChannel(s, ch, "#spectator")
}

// HandleStopSpectating detaches the caller from their target.
func HandleStopSpectating(s *session.Session, r *packet.Reader, d *Deps) {
	d.stopSpectating(s)
}

// HandleSpectateFrames relays the host's raw replay frames to every
// watcher.
func HandleSpectateFrames(s *session.Session, r *packet.Reader, d *Deps) {
	if !s.HasSpectators() {
		return
	}
	w := packet.NewWriter(packet.ServerSpectateFrames)
	w.WriteBytes(r.ReadBytes(r.Remaining()))
	d.sendToUsers(s.Spectators(), w.Finish())
}

// HandleCantSpectate tells the host and fellow watchers the caller lacks
// the beatmap.
func HandleCantSpectate(s *session.Session, r *packet.Reader, d *Deps) {
	hostID := s.Spectating()
	if hostID == 0 {
		return
	}
	host := d.Sessions.ByUserID(hostID)
	if host == nil {
		return
	}
	w := packet.NewWriter(packet.ServerSpectatorCantSpectate)
	w.WriteI32(s.UserID)
	data := w.Finish()
	host.Enqueue(data)
	d.sendToUsers(host.Spectators(), data)
}
