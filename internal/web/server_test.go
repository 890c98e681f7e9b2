package web

import (
	"bytes"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gobancho/server/internal/chat"
	"github.com/gobancho/server/internal/command"
	"github.com/gobancho/server/internal/config"
	"github.com/gobancho/server/internal/handler"
	"github.com/gobancho/server/internal/multiplayer"
	"github.com/gobancho/server/internal/packet"
	"github.com/gobancho/server/internal/persist"
	"github.com/gobancho/server/internal/session"
)

func newTestServer(t *testing.T) (*Server, *handler.Deps) {
	t.Helper()
	log := zap.NewNop()
	cfg := &config.Config{
		Server:      config.ServerConfig{Name: "gobancho"},
		Chat:        config.ChatConfig{CommandPrefix: "!", BotName: "BanchoBot"},
		Multiplayer: config.MultiplayerConfig{ForceStartNotReady: true},
		RateLimit:   config.RateLimitConfig{InviteBurst: 6, InviteWindow: 4 * time.Second},
	}
	deps := &handler.Deps{
		Sessions: session.NewRegistry(log),
		Matches:  multiplayer.NewRegistry(log),
		Channels: chat.NewRegistry(log),
		Config:   cfg,
		Log:      log,
	}
	deps.Commands = command.NewEngine(deps.Sessions, deps.Matches, deps.Channels, nil, nil, cfg, log)
	reg := packet.NewRegistry(log)
	handler.RegisterAll(reg, deps)
	return NewServer(deps, reg, log), deps
}

func TestUnknownTokenGetsRestart(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("POST", "/", bytes.NewReader(nil))
	req.Header.Set(tokenHeader, "stale-token")
	resp, err := srv.app.Test(req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	frames, err := packet.Decode(body)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, packet.ServerRestart, frames[0].Type)
}

func TestPacketBundleDispatchedInOrder(t *testing.T) {
	srv, deps := newTestServer(t)
	s, _ := deps.Sessions.Create(&persist.User{
		ID: 1001, Username: "player", SafeName: "player", Privileges: persist.PrivNormal,
	})

	var buf []byte
	buf = append(buf, packet.Empty(packet.ClientPing)...)
	buf = append(buf, packet.Empty(packet.ClientPing)...)

	req := httptest.NewRequest("POST", "/", bytes.NewReader(buf))
	req.Header.Set(tokenHeader, s.Token)
	resp, err := srv.app.Test(req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	frames, err := packet.Decode(body)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, packet.ServerPong, frames[0].Type)
	assert.Equal(t, packet.ServerPong, frames[1].Type)
}

func TestPacketRateLimitDropsExcess(t *testing.T) {
	srv, deps := newTestServer(t)
	deps.Config.RateLimit.Enabled = true
	deps.Config.RateLimit.PacketsPerSecond = 2
	s, _ := deps.Sessions.Create(&persist.User{
		ID: 1001, Username: "player", SafeName: "player", Privileges: persist.PrivNormal,
	})

	var buf []byte
	for i := 0; i < 5; i++ {
		buf = append(buf, packet.Empty(packet.ClientPing)...)
	}

	req := httptest.NewRequest("POST", "/", bytes.NewReader(buf))
	req.Header.Set(tokenHeader, s.Token)
	resp, err := srv.app.Test(req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	frames, err := packet.Decode(body)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	for _, f := range frames {
		assert.Equal(t, packet.ServerPong, f.Type)
	}
}

func TestLogoutInBundleCascades(t *testing.T) {
	srv, deps := newTestServer(t)
	s, _ := deps.Sessions.Create(&persist.User{
		ID: 1001, Username: "player", SafeName: "player", Privileges: persist.PrivNormal,
	})
	m := deps.Matches.Create(s.UserID, packet.MatchData{Name: "room"})

	var buf []byte
	buf = append(buf, packet.Empty(packet.ClientPing)...)
	logout := packet.NewWriter(packet.ClientLogout)
	logout.WriteI32(0)
	buf = append(buf, logout.Finish()...)

	req := httptest.NewRequest("POST", "/", bytes.NewReader(buf))
	req.Header.Set(tokenHeader, s.Token)
	_, err := srv.app.Test(req)
	require.NoError(t, err)

	assert.Nil(t, deps.Sessions.ByToken(s.Token))
	assert.Nil(t, deps.Matches.Get(m.ID))
}

func TestParseLogin(t *testing.T) {
	req, err := parseLogin([]byte("player\nd41d8cd98f00b204e9800998ecf8427e\nb20250901|8|1|somehash|0\n"))
	require.NoError(t, err)
	assert.Equal(t, "player", req.Username)
	assert.Equal(t, int8(8), req.UTCOffset)
	assert.True(t, req.ShowLocation)
	assert.False(t, req.BlockNonFriendPM)

	_, err = parseLogin([]byte("only\ntwo lines"))
	assert.Error(t, err)

	_, err = parseLogin([]byte("player\npw\nshort|info"))
	assert.Error(t, err)
}
