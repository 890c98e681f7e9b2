package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gobancho/server/internal/chat"
	"github.com/gobancho/server/internal/config"
	"github.com/gobancho/server/internal/multiplayer"
	"github.com/gobancho/server/internal/packet"
	"github.com/gobancho/server/internal/persist"
	"github.com/gobancho/server/internal/scripting"
	"github.com/gobancho/server/internal/session"
	"go.uber.org/zap"
)

// actionPrefix marks a synthetic "now playing" client action message.
const actionPrefix = "\x01ACTION"

// Invocation carries one command call. Channel is nil when the command was
// sent as a private message to the bot.
type Invocation struct {
	Session *session.Session
	Channel *chat.Channel
	Args    []string
}

// HandlerFunc runs a command and returns the reply text ("" for none).
type HandlerFunc func(inv *Invocation) string

// Spec is one registered command. Name may be a folded group key such as
// "mp start". Priv must be fully contained in the caller's privilege set.
// Global commands may be used from public channels; non-global ones only in
// a private message to the bot.
type Spec struct {
	Name   string
	Help   string
	Priv   persist.Privileges
	Global bool
	Fn     HandlerFunc
}

// Engine resolves and runs bot commands from chat messages. The registry is
// built once at startup and never mutated afterwards.
type Engine struct {
	prefix  string
	botName string

	registry map[string]*Spec
	groups   map[string]struct{}

	sessions *session.Registry
	matches  *multiplayer.Registry
	channels *chat.Registry
	users    *persist.UserRepo
	scripts  *scripting.Engine
	cfg      *config.Config
	log      *zap.Logger

	invites *SlidingWindow

	// Effects is wired by the handler layer so match fan-out and session
	// teardown live in one place.
	Effects Effects
}

// Effects is the packet fan-out surface commands borrow from the handler
// layer.
type Effects interface {
	BroadcastMatch(m *multiplayer.Match)
	StartRound(m *multiplayer.Match, playing []int32)
	FinishRound(m *multiplayer.Match)
	KickFromMatch(target *session.Session, m *multiplayer.Match)
	Disconnect(target *session.Session, reason string)
}

func NewEngine(
	sessions *session.Registry,
	matches *multiplayer.Registry,
	channels *chat.Registry,
	users *persist.UserRepo,
	scripts *scripting.Engine,
	cfg *config.Config,
	log *zap.Logger,
) *Engine {
	e := &Engine{
		prefix:   cfg.Chat.CommandPrefix,
		botName:  cfg.Chat.BotName,
		registry: make(map[string]*Spec),
		groups:   make(map[string]struct{}),
		sessions: sessions,
		matches:  matches,
		channels: channels,
		users:    users,
		scripts:  scripts,
		cfg:      cfg,
		log:      log,
		invites:  NewSlidingWindow(cfg.RateLimit.InviteBurst, cfg.RateLimit.InviteWindow),
	}
	e.registerBuiltins()
	e.registerScripted()
	return e
}

// Register adds a command to the static table. Folded names ("mp start")
// implicitly register their group prefix.
func (e *Engine) Register(s *Spec) {
	e.registry[s.Name] = s
	if group, _, ok := strings.Cut(s.Name, " "); ok {
		e.groups[group] = struct{}{}
	}
}

// registerScripted exposes every Lua command under its script name.
func (e *Engine) registerScripted() {
	if e.scripts == nil {
		return
	}
	for _, c := range e.scripts.Commands() {
		c := c
		e.Register(&Spec{
			Name:   c.Name,
			Help:   c.Help,
			Priv:   persist.PrivNormal,
			Global: true,
			Fn: func(inv *Invocation) string {
				out, err := e.scripts.Invoke(c.Name, inv.Session.Username, inv.Args)
				if err != nil {
					e.log.Error("lua command failed", zap.String("command", c.Name), zap.Error(err))
					return "Command failed."
				}
				return out
			},
		})
	}
}

// HandleChatMessage inspects one chat message and runs it as a command when
// it is one. Reports whether the message was consumed as a command attempt.
func (e *Engine) HandleChatMessage(ctx context.Context, s *session.Session, target, text string) bool {
	toBot := strings.EqualFold(target, e.botName)

	// A "now playing" action to the bot becomes a beatmap lookup.
	if toBot && strings.HasPrefix(text, actionPrefix) {
		if translated, ok := translateAction(text); ok {
			text = e.prefix + translated
		} else {
			return true
		}
	}

	if !strings.HasPrefix(text, e.prefix) {
		if !toBot {
			return false
		}
		// Plain text at the bot still gets command treatment.
		text = e.prefix + text
	}

	fields := strings.Fields(strings.TrimPrefix(text, e.prefix))
	if len(fields) == 0 {
		return toBot
	}
	key := fields[0]
	args := fields[1:]

	// Fold a group prefix and its sub-command into one registry key.
	if _, ok := e.groups[key]; ok && len(args) > 0 {
		key = key + " " + args[0]
		args = args[1:]
	}

	spec, ok := e.registry[key]
	if !ok {
		if toBot {
			e.reply(s, nil, e.suggest(key))
			return true
		}
		// Ordinary chat that happened to start with the prefix.
		return false
	}

	if !spec.Global && !toBot {
		return false
	}

	// Privilege is read fresh from the user directory, not from the session
	// snapshot taken at login. Without a directory the snapshot stands.
	priv := s.Privileges
	if e.users != nil {
		if user, err := e.users.GetByID(ctx, s.UserID); err == nil && user != nil {
			priv = user.Privileges
		}
	}
	if !priv.Has(spec.Priv) {
		e.reply(s, nil, "You don't have permission to use this command.")
		return true
	}

	var channel *chat.Channel
	if !toBot {
		channel = e.channels.Get(target)
	}

	if strings.HasPrefix(spec.Name, "mp ") {
		m := e.matches.MatchOf(s.UserID)
		if m == nil {
			e.reply(s, channel, "You must be in a multiplayer lobby to use this command.")
			return true
		}
		if !toBot && (channel == nil || channel.Name != MatchChannelName(m.ID)) {
			e.reply(s, channel, "This command can only be used in the match's own channel.")
			return true
		}
	}

	inv := &Invocation{Session: s, Channel: channel, Args: args}
	if out := spec.Fn(inv); out != "" {
		e.reply(s, channel, out)
	}
	return true
}

// translateAction turns a now-playing action into a beatmap command.
// Malformed actions (fewer than 6 slash-delimited segments) are dropped.
func translateAction(text string) (string, bool) {
	parts := strings.Split(text, "/")
	if len(parts) < 6 {
		return "", false
	}
	idPart := parts[5]
	end := 0
	for end < len(idPart) && idPart[end] >= '0' && idPart[end] <= '9' {
		end++
	}
	if end == 0 {
		return "", false
	}
	cmd := "beatmap " + idPart[:end]
	if i := strings.LastIndex(text, "]"); i >= 0 && i+1 < len(text) {
		if mods := strings.TrimSpace(strings.TrimSuffix(text[i+1:], "\x01")); mods != "" {
			cmd += " " + mods
		}
	}
	return cmd, true
}

// suggest builds a "did you mean" reply for an unknown command name.
func (e *Engine) suggest(key string) string {
	var hits []string
	for name := range e.registry {
		if strings.Contains(name, key) {
			hits = append(hits, e.prefix+name)
		}
	}
	if len(hits) == 0 {
		return "Command not found. Try " + e.prefix + "help."
	}
	sort.Strings(hits)
	return "Command not found. Did you mean: " + strings.Join(hits, ", ") + "?"
}

// reply sends the bot's answer to the channel the command came from, or
// privately to the caller.
func (e *Engine) reply(s *session.Session, channel *chat.Channel, text string) {
	msg := packet.Message{
		Sender:   e.botName,
		Text:     text,
		SenderID: session.BotUserID,
	}
	if channel == nil {
		msg.Target = s.Username
		s.Enqueue(packet.SendMessage(msg))
		return
	}
	msg.Target = channel.Name
	data := packet.SendMessage(msg)
	for _, id := range channel.Members() {
		if id == session.BotUserID {
			continue
		}
		if target := e.sessions.ByUserID(id); target != nil {
			target.Enqueue(data)
		}
	}
}

// MatchChannelName is the instanced chat channel for a room.
func MatchChannelName(matchID int32) string {
	return fmt.Sprintf("#multi_%d", matchID)
}

// SpectatorChannelName is the instanced chat channel around a host being
// watched.
func SpectatorChannelName(hostUserID int32) string {
	return fmt.Sprintf("#spect_%d", hostUserID)
}
