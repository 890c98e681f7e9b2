package handler

import (
	"context"
	"strings"

	"github.com/gobancho/server/internal/chat"
	"github.com/gobancho/server/internal/command"
	"github.com/gobancho/server/internal/packet"
	"github.com/gobancho/server/internal/session"
	"go.uber.org/zap"
)

// resolveChannelAlias maps the client's virtual channel names onto the
// session's instanced channels.
func resolveChannelAlias(s *session.Session, name string, d *Deps) string {
	switch name {
	case "#multiplayer":
		if m := d.Matches.MatchOf(s.UserID); m != nil {
			return command.MatchChannelName(m.ID)
		}
	case "#spectator":
		if hostID := s.Spectating(); hostID != 0 {
			return command.SpectatorChannelName(hostID)
		}
		return command.SpectatorChannelName(s.UserID)
	}
	return name
}

// HandlePublicMessage broadcasts a channel message to the other members and
// feeds it through the command engine.
func HandlePublicMessage(s *session.Session, r *packet.Reader, d *Deps) {
	msg := packet.ReadMessage(r)
	name := resolveChannelAlias(s, msg.Target, d)

	ch := d.Channels.Get(name)
	if ch == nil || !ch.Has(s.UserID) {
		return
	}
	if !ch.CanWrite(s.Privileges) {
		s.Enqueue(packet.Notification("You can't talk in this channel."))
		return
	}

	out := packet.SendMessage(packet.Message{
		Sender:   s.Username,
		Text:     msg.Text,
		Target:   msg.Target,
		SenderID: s.UserID,
	})
	for _, id := range ch.Members() {
		if id == s.UserID || id == session.BotUserID {
			continue
		}
		if target := d.Sessions.ByUserID(id); target != nil {
			target.Enqueue(out)
		}
	}

	d.Commands.HandleChatMessage(context.Background(), s, name, msg.Text)
}

// HandlePrivateMessage delivers a direct message, honoring the target's
// privacy flag and away message. Messages at the bot run the command engine
// instead.
func HandlePrivateMessage(s *session.Session, r *packet.Reader, d *Deps) {
	msg := packet.ReadMessage(r)

	if strings.EqualFold(msg.Target, d.Config.Chat.BotName) {
		d.Commands.HandleChatMessage(context.Background(), s, msg.Target, msg.Text)
		return
	}

	target := d.Sessions.ByName(msg.Target)
	if target == nil {
		s.Enqueue(packet.Notification("User not found."))
		return
	}
	if target.BlockNonFriendPM && !target.IsFriend(s.UserID) {
		s.Enqueue(packet.Notification(target.Username + " only accepts messages from friends."))
		return
	}

	target.Enqueue(packet.SendMessage(packet.Message{
		Sender:   s.Username,
		Text:     msg.Text,
		Target:   target.Username,
		SenderID: s.UserID,
	}))

	if away := target.AwayMessage(); away != "" {
		s.Enqueue(packet.SendMessage(packet.Message{
			Sender:   target.Username,
			Text:     "\x01ACTION is away: " + away + "\x01",
			Target:   s.Username,
			SenderID: target.UserID,
		}))
	}
}

// HandleChannelJoin adds the caller to a channel, answering with join
// success or a kick so the client closes the tab.
func HandleChannelJoin(s *session.Session, r *packet.Reader, d *Deps) {
	requested := r.ReadString()
	name := resolveChannelAlias(s, requested, d)

	ch := d.Channels.Get(name)
	if ch == nil || !ch.CanRead(s.Privileges) {
		kick := packet.NewWriter(packet.ServerChannelKick)
		kick.WriteString(requested)
		s.Enqueue(kick.Finish())
		return
	}
	joinChannel(s, ch, requested)
	d.Log.Debug("channel join",
		zap.String("channel", name),
		zap.Int32("user_id", s.UserID),
	)
}

// joinChannel seats the user and acknowledges under the name the client
// asked for, which may be a virtual alias.
func joinChannel(s *session.Session, ch *chat.Channel, clientName string) {
	ch.Join(s.UserID)
	w := packet.NewWriter(packet.ServerChannelJoinSuccess)
	w.WriteString(clientName)
	s.Enqueue(w.Finish())
}

// HandleChannelPart removes the caller from a channel.
func HandleChannelPart(s *session.Session, r *packet.Reader, d *Deps) {
	name := resolveChannelAlias(s, r.ReadString(), d)
	if ch := d.Channels.Get(name); ch != nil {
		ch.Part(s.UserID)
	}
}
