package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gobancho/server/internal/chat"
	"github.com/gobancho/server/internal/command"
	"github.com/gobancho/server/internal/config"
	"github.com/gobancho/server/internal/multiplayer"
	"github.com/gobancho/server/internal/packet"
	"github.com/gobancho/server/internal/persist"
	"github.com/gobancho/server/internal/session"
)

func newDeps(t *testing.T) (*Deps, *packet.Registry) {
	t.Helper()
	log := zap.NewNop()
	cfg := &config.Config{
		Server:      config.ServerConfig{Name: "gobancho"},
		Chat:        config.ChatConfig{CommandPrefix: "!", BotName: "BanchoBot"},
		Multiplayer: config.MultiplayerConfig{ForceStartNotReady: false},
		RateLimit:   config.RateLimitConfig{InviteBurst: 6, InviteWindow: 4 * time.Second},
	}
	d := &Deps{
		Sessions: session.NewRegistry(log),
		Matches:  multiplayer.NewRegistry(log),
		Channels: chat.NewRegistry(log),
		Config:   cfg,
		Log:      log,
	}
	d.Commands = command.NewEngine(d.Sessions, d.Matches, d.Channels, nil, nil, cfg, log)
	reg := packet.NewRegistry(log)
	RegisterAll(reg, d)
	return d, reg
}

func login(t *testing.T, d *Deps, id int32, name string) *session.Session {
	t.Helper()
	s, _ := d.Sessions.Create(&persist.User{
		ID: id, Username: name, SafeName: persist.SafeName(name), Privileges: persist.PrivNormal,
	})
	return s
}

func dispatch(t *testing.T, reg *packet.Registry, s *session.Session, data []byte) {
	t.Helper()
	frames, err := packet.Decode(data)
	require.NoError(t, err)
	for _, f := range frames {
		require.NoError(t, reg.Dispatch(s, f))
	}
}

func queuedTypes(t *testing.T, s *session.Session) []packet.Type {
	t.Helper()
	frames, err := packet.Decode(s.Drain())
	require.NoError(t, err)
	out := make([]packet.Type, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Type)
	}
	return out
}

func createMatchPacket(name string) []byte {
	w := packet.NewWriter(packet.ClientCreateMatch)
	packet.WriteMatchData(w, packet.MatchData{Name: name}, true)
	return w.Finish()
}

func TestCreateJoinStartCompleteFlow(t *testing.T) {
	d, reg := newDeps(t)
	host := login(t, d, 1001, "host")
	guest := login(t, d, 1002, "guest")

	dispatch(t, reg, host, createMatchPacket("flow room"))
	m := d.Matches.MatchOf(host.UserID)
	require.NotNil(t, m)
	assert.Contains(t, queuedTypes(t, host), packet.ServerMatchJoinSuccess)

	// Guest joins through the packet path.
	join := packet.NewWriter(packet.ClientJoinMatch)
	join.WriteI32(m.ID)
	join.WriteString("")
	dispatch(t, reg, guest, join.Finish())
	assert.Equal(t, 1, m.SlotOf(guest.UserID))
	assert.Contains(t, queuedTypes(t, guest), packet.ServerMatchJoinSuccess)

	// Both ready up, host starts.
	dispatch(t, reg, host, packet.Empty(packet.ClientMatchReady))
	dispatch(t, reg, guest, packet.Empty(packet.ClientMatchReady))
	host.Drain()
	guest.Drain()
	dispatch(t, reg, host, packet.Empty(packet.ClientMatchStart))
	assert.True(t, m.InProgress())
	assert.Contains(t, queuedTypes(t, guest), packet.ServerMatchStart)

	// Load and finish the round.
	dispatch(t, reg, host, packet.Empty(packet.ClientMatchLoadComplete))
	dispatch(t, reg, guest, packet.Empty(packet.ClientMatchLoadComplete))
	assert.Contains(t, queuedTypes(t, host), packet.ServerMatchAllPlayersLoaded)

	dispatch(t, reg, host, packet.Empty(packet.ClientMatchComplete))
	assert.True(t, m.InProgress())
	dispatch(t, reg, guest, packet.Empty(packet.ClientMatchComplete))
	assert.False(t, m.InProgress())
	assert.Contains(t, queuedTypes(t, host), packet.ServerMatchComplete)
}

func TestStartByNonHostIsIgnored(t *testing.T) {
	d, reg := newDeps(t)
	host := login(t, d, 1001, "host")
	guest := login(t, d, 1002, "guest")

	dispatch(t, reg, host, createMatchPacket("room"))
	m := d.Matches.MatchOf(host.UserID)
	join := packet.NewWriter(packet.ClientJoinMatch)
	join.WriteI32(m.ID)
	join.WriteString("")
	dispatch(t, reg, guest, join.Finish())

	dispatch(t, reg, guest, packet.Empty(packet.ClientMatchStart))
	assert.False(t, m.InProgress())
}

func TestJoinFailLeavesStateUntouched(t *testing.T) {
	d, reg := newDeps(t)
	host := login(t, d, 1001, "host")
	guest := login(t, d, 1002, "guest")

	w := packet.NewWriter(packet.ClientCreateMatch)
	packet.WriteMatchData(w, packet.MatchData{Name: "room", Password: "secret"}, true)
	dispatch(t, reg, host, w.Finish())
	m := d.Matches.MatchOf(host.UserID)

	join := packet.NewWriter(packet.ClientJoinMatch)
	join.WriteI32(m.ID)
	join.WriteString("wrong")
	dispatch(t, reg, guest, join.Finish())

	assert.Contains(t, queuedTypes(t, guest), packet.ServerMatchJoinFail)
	assert.Len(t, m.Occupants(), 1)
	assert.Nil(t, d.Matches.MatchOf(guest.UserID))
}

func TestScoreFrameSlotRewrittenAndRelayed(t *testing.T) {
	d, reg := newDeps(t)
	host := login(t, d, 1001, "host")
	guest := login(t, d, 1002, "guest")

	dispatch(t, reg, host, createMatchPacket("room"))
	m := d.Matches.MatchOf(host.UserID)
	join := packet.NewWriter(packet.ClientJoinMatch)
	join.WriteI32(m.ID)
	join.WriteString("")
	dispatch(t, reg, guest, join.Finish())
	host.Drain()
	guest.Drain()

	frame := packet.NewWriter(packet.ClientMatchScoreUpdate)
	packet.WriteScoreFrame(frame, packet.ScoreFrame{Time: 100, SlotID: 9, TotalScore: 5000})
	dispatch(t, reg, guest, frame.Finish())

	frames, err := packet.Decode(host.Drain())
	require.NoError(t, err)
	require.Len(t, frames, 1)
	require.Equal(t, packet.ServerMatchScoreUpdate, frames[0].Type)
	got := packet.ReadScoreFrame(packet.NewReader(frames[0].Payload))
	assert.Equal(t, byte(1), got.SlotID)
	assert.Equal(t, int32(5000), got.TotalScore)

	// The sender gets no echo.
	assert.Empty(t, guest.Drain())
}

func TestSpectateLifecycle(t *testing.T) {
	d, reg := newDeps(t)
	host := login(t, d, 1001, "host")
	watcher := login(t, d, 1002, "watcher")

	start := packet.NewWriter(packet.ClientStartSpectating)
	start.WriteI32(host.UserID)
	dispatch(t, reg, watcher, start.Finish())

	assert.Equal(t, host.UserID, watcher.Spectating())
	assert.Contains(t, queuedTypes(t, host), packet.ServerSpectatorJoined)
	require.NotNil(t, d.Channels.Get(command.SpectatorChannelName(host.UserID)))

	// Frames flow host -> watcher.
	frames := packet.NewWriter(packet.ClientSpectateFrames)
	frames.WriteBytes([]byte{1, 2, 3})
	dispatch(t, reg, host, frames.Finish())
	assert.Contains(t, queuedTypes(t, watcher), packet.ServerSpectateFrames)

	dispatch(t, reg, watcher, packet.Empty(packet.ClientStopSpectating))
	assert.Zero(t, watcher.Spectating())
	assert.Empty(t, host.Spectators())
	assert.Nil(t, d.Channels.Get(command.SpectatorChannelName(host.UserID)))
}

func TestDestroySessionCascades(t *testing.T) {
	d, _ := newDeps(t)
	host := login(t, d, 1001, "host")
	watcher := login(t, d, 1002, "watcher")

	osu := chat.NewChannel("#osu", "")
	d.Channels.Add(osu)
	osu.Join(host.UserID)

	m := d.Matches.Create(host.UserID, packet.MatchData{Name: "room"})
	watcher.SetSpectating(host.UserID)
	host.AddSpectator(watcher.UserID)

	DestroySession(host, d)

	assert.Nil(t, d.Sessions.ByToken(host.Token))
	assert.Nil(t, d.Matches.Get(m.ID))
	assert.False(t, osu.Has(host.UserID))
	assert.Zero(t, watcher.Spectating())

	// Everyone left got the logout notice.
	assert.Contains(t, queuedTypes(t, watcher), packet.ServerUserLogout)
}

func TestChannelJoinAndMessageFanout(t *testing.T) {
	d, reg := newDeps(t)
	a := login(t, d, 1001, "alice")
	b := login(t, d, 1002, "bob")

	d.Channels.Add(chat.NewChannel("#osu", "main"))

	joinReq := packet.NewWriter(packet.ClientChannelJoin)
	joinReq.WriteString("#osu")
	dispatch(t, reg, a, joinReq.Finish())
	dispatch(t, reg, b, joinReq.Finish())
	assert.Contains(t, queuedTypes(t, a), packet.ServerChannelJoinSuccess)
	b.Drain()

	msg := packet.NewWriter(packet.ClientSendPublicMessage)
	packet.WriteMessage(msg, packet.Message{Target: "#osu", Text: "hello"})
	dispatch(t, reg, a, msg.Finish())

	frames, err := packet.Decode(b.Drain())
	require.NoError(t, err)
	require.Len(t, frames, 1)
	got := packet.ReadMessage(packet.NewReader(frames[0].Payload))
	assert.Equal(t, "alice", got.Sender)
	assert.Equal(t, "hello", got.Text)
	// No echo to the sender.
	assert.Empty(t, a.Drain())
}

func TestChannelJoinDeniedByPrivilege(t *testing.T) {
	d, reg := newDeps(t)
	s := login(t, d, 1001, "pleb")

	staff := chat.NewChannel("#staff", "")
	staff.ReadPriv = persist.PrivNormal | persist.PrivModerator
	d.Channels.Add(staff)

	joinReq := packet.NewWriter(packet.ClientChannelJoin)
	joinReq.WriteString("#staff")
	dispatch(t, reg, s, joinReq.Finish())

	assert.Contains(t, queuedTypes(t, s), packet.ServerChannelKick)
	assert.False(t, staff.Has(s.UserID))
}
