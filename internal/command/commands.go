package command

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/gobancho/server/internal/multiplayer"
	"github.com/gobancho/server/internal/packet"
	"github.com/gobancho/server/internal/persist"
	"github.com/gobancho/server/internal/session"
)

// registerBuiltins assembles the static command table.
func (e *Engine) registerBuiltins() {
	for _, s := range []*Spec{
		{Name: "help", Help: "list available commands", Priv: persist.PrivNormal, Global: true, Fn: e.cmdHelp},
		{Name: "roll", Help: "roll a number, optionally up to a maximum", Priv: persist.PrivNormal, Global: true, Fn: e.cmdRoll},
		{Name: "beatmap", Help: "link a beatmap by id", Priv: persist.PrivNormal, Global: true, Fn: e.cmdBeatmap},
		{Name: "invite", Help: "invite a player to your match", Priv: persist.PrivNormal, Global: true, Fn: e.cmdInvite},
		{Name: "away", Help: "set or clear your away message", Priv: persist.PrivNormal, Fn: e.cmdAway},
		{Name: "online", Help: "show who is online", Priv: persist.PrivNormal, Fn: e.cmdOnline},

		{Name: "announce", Help: "broadcast a notification to everyone", Priv: persist.PrivNormal | persist.PrivAdmin, Fn: e.cmdAnnounce},
		{Name: "kick", Help: "disconnect a player", Priv: persist.PrivNormal | persist.PrivModerator, Fn: e.cmdKick},

		{Name: "mp start", Help: "start the match", Priv: persist.PrivNormal, Global: true, Fn: e.cmdMpStart},
		{Name: "mp abort", Help: "abort the match in progress", Priv: persist.PrivNormal, Global: true, Fn: e.cmdMpAbort},
		{Name: "mp host", Help: "give host to a player", Priv: persist.PrivNormal, Global: true, Fn: e.cmdMpHost},
		{Name: "mp kick", Help: "remove a player from the match", Priv: persist.PrivNormal, Global: true, Fn: e.cmdMpKick},
		{Name: "mp lock", Help: "lock or unlock a slot", Priv: persist.PrivNormal, Global: true, Fn: e.cmdMpLock},
		{Name: "mp move", Help: "move a player to a slot", Priv: persist.PrivNormal, Global: true, Fn: e.cmdMpMove},
		{Name: "mp password", Help: "set or clear the match password", Priv: persist.PrivNormal, Global: true, Fn: e.cmdMpPassword},
		{Name: "mp name", Help: "rename the match", Priv: persist.PrivNormal, Global: true, Fn: e.cmdMpName},
		{Name: "mp invite", Help: "invite a player to the match", Priv: persist.PrivNormal, Global: true, Fn: e.cmdMpInvite},
	} {
		e.Register(s)
	}
}

func (e *Engine) cmdHelp(inv *Invocation) string {
	names := make([]string, 0, len(e.registry))
	for name := range e.registry {
		names = append(names, e.prefix+name)
	}
	sort.Strings(names)
	return "Available commands: " + strings.Join(names, ", ")
}

func (e *Engine) cmdRoll(inv *Invocation) string {
	max := 100
	if len(inv.Args) > 0 {
		if n, err := strconv.Atoi(inv.Args[0]); err == nil && n > 0 {
			max = n
		}
	}
	return fmt.Sprintf("%s rolls %d point(s)", inv.Session.Username, rand.Intn(max)+1)
}

func (e *Engine) cmdBeatmap(inv *Invocation) string {
	if len(inv.Args) == 0 {
		return "Usage: " + e.prefix + "beatmap <id>"
	}
	id, err := strconv.Atoi(inv.Args[0])
	if err != nil || id <= 0 {
		return "Invalid beatmap id."
	}
	reply := fmt.Sprintf("Beatmap: https://osu.ppy.sh/b/%d", id)
	if len(inv.Args) > 1 {
		reply += " +" + strings.Join(inv.Args[1:], " ")
	}
	return reply
}

func (e *Engine) cmdAway(inv *Invocation) string {
	msg := strings.Join(inv.Args, " ")
	inv.Session.SetAwayMessage(msg)
	if msg == "" {
		return "Away message cleared."
	}
	return "Away message set: " + msg
}

func (e *Engine) cmdOnline(inv *Invocation) string {
	n := e.sessions.Count()
	return fmt.Sprintf("There are %d player(s) online.", n)
}

// cmdInvite sends a match invite. Over the rate limit the attempt is
// silently dropped.
func (e *Engine) cmdInvite(inv *Invocation) string {
	if len(inv.Args) == 0 {
		return "Usage: " + e.prefix + "invite <username>"
	}
	m := e.matches.MatchOf(inv.Session.UserID)
	if m == nil {
		return "You must be in a multiplayer lobby to use this command."
	}
	if !e.invites.Allow(inv.Session.UserID) {
		return ""
	}
	target := e.sessions.ByName(strings.Join(inv.Args, " "))
	if target == nil {
		return "User not found."
	}
	e.SendInvite(inv.Session, target, m)
	return ""
}

// SendInvite enqueues the invite packet on the target. Shared with the
// invite packet path, which applies the same rate limit.
func (e *Engine) SendInvite(from, to *session.Session, m *multiplayer.Match) {
	w := packet.NewWriter(packet.ServerMatchInvite)
	packet.WriteMessage(w, packet.Message{
		Sender:   from.Username,
		Text:     fmt.Sprintf("Come join my match: [osu://mp/%d %s]", m.ID, m.Name()),
		Target:   to.Username,
		SenderID: from.UserID,
	})
	to.Enqueue(w.Finish())
}

// InviteAllowed applies the invite rate limit for the packet path.
func (e *Engine) InviteAllowed(userID int32) bool {
	return e.invites.Allow(userID)
}

func (e *Engine) cmdAnnounce(inv *Invocation) string {
	if len(inv.Args) == 0 {
		return "Usage: " + e.prefix + "announce <message>"
	}
	e.sessions.Broadcast(packet.Notification(strings.Join(inv.Args, " ")))
	return ""
}

func (e *Engine) cmdKick(inv *Invocation) string {
	if len(inv.Args) == 0 {
		return "Usage: " + e.prefix + "kick <username>"
	}
	target := e.sessions.ByName(strings.Join(inv.Args, " "))
	if target == nil {
		return "User not found."
	}
	e.Effects.Disconnect(target, "You have been kicked from the server.")
	return target.Username + " has been kicked."
}

const hostOnly = "This command can only be used by the host of the room."

// matchOf returns the caller's room; the engine already guaranteed it
// exists before dispatching an mp command.
func (e *Engine) matchOf(inv *Invocation) *multiplayer.Match {
	return e.matches.MatchOf(inv.Session.UserID)
}

func (e *Engine) cmdMpStart(inv *Invocation) string {
	m := e.matchOf(inv)
	if !m.IsHost(inv.Session.UserID) {
		return hostOnly
	}
	playing, err := m.Start(e.cfg.Multiplayer.ForceStartNotReady)
	switch err {
	case nil:
	case multiplayer.ErrInProgress:
		return "The match is already in progress."
	default:
		return "No players are ready."
	}
	e.Effects.StartRound(m, playing)
	return "Match started. Good luck!"
}

func (e *Engine) cmdMpAbort(inv *Invocation) string {
	m := e.matchOf(inv)
	if !m.IsHost(inv.Session.UserID) {
		return hostOnly
	}
	if err := m.Abort(); err != nil {
		return "The match is not in progress."
	}
	e.Effects.FinishRound(m)
	return "Match aborted."
}

func (e *Engine) cmdMpHost(inv *Invocation) string {
	m := e.matchOf(inv)
	if !m.IsHost(inv.Session.UserID) {
		return hostOnly
	}
	if len(inv.Args) == 0 {
		return "Usage: " + e.prefix + "mp host <username>"
	}
	target := e.sessions.ByName(strings.Join(inv.Args, " "))
	if target == nil || m.SlotOf(target.UserID) < 0 {
		return "User not found."
	}
	if err := m.TransferHostUser(target.UserID); err != nil {
		return "User not found."
	}
	e.Effects.BroadcastMatch(m)
	return target.Username + " is now the host."
}

func (e *Engine) cmdMpKick(inv *Invocation) string {
	m := e.matchOf(inv)
	if !m.IsHost(inv.Session.UserID) {
		return hostOnly
	}
	if len(inv.Args) == 0 {
		return "Usage: " + e.prefix + "mp kick <username>"
	}
	target := e.sessions.ByName(strings.Join(inv.Args, " "))
	if target == nil || m.SlotOf(target.UserID) < 0 {
		return "User not found."
	}
	e.Effects.KickFromMatch(target, m)
	return target.Username + " has been removed from the match."
}

func (e *Engine) cmdMpLock(inv *Invocation) string {
	m := e.matchOf(inv)
	if !m.IsHost(inv.Session.UserID) {
		return hostOnly
	}
	if len(inv.Args) == 0 {
		return "Usage: " + e.prefix + "mp lock <slot>"
	}
	slot, err := strconv.Atoi(inv.Args[0])
	if err != nil {
		return "Invalid slot."
	}
	evicted, err := m.ToggleLock(slot)
	if err != nil {
		return "Invalid slot."
	}
	if evicted != 0 {
		if target := e.sessions.ByUserID(evicted); target != nil {
			e.Effects.KickFromMatch(target, m)
		}
	}
	e.Effects.BroadcastMatch(m)
	return ""
}

func (e *Engine) cmdMpMove(inv *Invocation) string {
	m := e.matchOf(inv)
	if !m.IsHost(inv.Session.UserID) {
		return hostOnly
	}
	if len(inv.Args) < 2 {
		return "Usage: " + e.prefix + "mp move <username> <slot>"
	}
	slot, err := strconv.Atoi(inv.Args[len(inv.Args)-1])
	if err != nil {
		return "Invalid slot."
	}
	name := strings.Join(inv.Args[:len(inv.Args)-1], " ")
	target := e.sessions.ByName(name)
	if target == nil || m.SlotOf(target.UserID) < 0 {
		return "User not found."
	}
	if err := m.Move(target.UserID, slot); err != nil {
		return "Invalid slot."
	}
	e.Effects.BroadcastMatch(m)
	return ""
}

func (e *Engine) cmdMpPassword(inv *Invocation) string {
	m := e.matchOf(inv)
	if !m.IsHost(inv.Session.UserID) {
		return hostOnly
	}
	m.ChangePassword(strings.Join(inv.Args, " "))
	e.Effects.BroadcastMatch(m)
	if m.Password() == "" {
		return "Password removed."
	}
	return "Password changed."
}

func (e *Engine) cmdMpName(inv *Invocation) string {
	m := e.matchOf(inv)
	if !m.IsHost(inv.Session.UserID) {
		return hostOnly
	}
	if len(inv.Args) == 0 {
		return "Usage: " + e.prefix + "mp name <new name>"
	}
	d := m.Snapshot()
	d.Name = strings.Join(inv.Args, " ")
	m.ChangeSettings(d)
	e.Effects.BroadcastMatch(m)
	return ""
}

func (e *Engine) cmdMpInvite(inv *Invocation) string {
	m := e.matchOf(inv)
	if len(inv.Args) == 0 {
		return "Usage: " + e.prefix + "mp invite <username>"
	}
	if !e.invites.Allow(inv.Session.UserID) {
		return ""
	}
	target := e.sessions.ByName(strings.Join(inv.Args, " "))
	if target == nil {
		return "User not found."
	}
	e.SendInvite(inv.Session, target, m)
	return ""
}
