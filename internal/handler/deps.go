package handler

import (
	"github.com/gobancho/server/internal/chat"
	"github.com/gobancho/server/internal/command"
	"github.com/gobancho/server/internal/config"
	"github.com/gobancho/server/internal/multiplayer"
	"github.com/gobancho/server/internal/packet"
	"github.com/gobancho/server/internal/persist"
	"github.com/gobancho/server/internal/session"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	Sessions *session.Registry
	Matches  *multiplayer.Registry
	Channels *chat.Registry
	Users    *persist.UserRepo
	Commands *command.Engine
	Config   *config.Config
	Log      *zap.Logger
	Bot      *session.Session
}

// RegisterAll registers all packet handlers into the registry and wires the
// command engine's fan-out surface.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	deps.Commands.Effects = deps

	// Lifecycle
	reg.Register(packet.ClientLogout, func(sess any, r *packet.Reader) {
		HandleLogout(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientPing, func(sess any, r *packet.Reader) {
		HandlePing(sess.(*session.Session), r, deps)
	})

	// Status and presence
	reg.Register(packet.ClientChangeAction, func(sess any, r *packet.Reader) {
		HandleChangeAction(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientRequestStatusUpdate, func(sess any, r *packet.Reader) {
		HandleRequestStatusUpdate(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientUserStatsRequest, func(sess any, r *packet.Reader) {
		HandleUserStatsRequest(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientSetAwayMessage, func(sess any, r *packet.Reader) {
		HandleSetAwayMessage(sess.(*session.Session), r, deps)
	})

	// Chat
	reg.Register(packet.ClientSendPublicMessage, func(sess any, r *packet.Reader) {
		HandlePublicMessage(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientSendPrivateMessage, func(sess any, r *packet.Reader) {
		HandlePrivateMessage(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientChannelJoin, func(sess any, r *packet.Reader) {
		HandleChannelJoin(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientChannelPart, func(sess any, r *packet.Reader) {
		HandleChannelPart(sess.(*session.Session), r, deps)
	})

	// Friends
	reg.Register(packet.ClientFriendAdd, func(sess any, r *packet.Reader) {
		HandleFriendAdd(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientFriendRemove, func(sess any, r *packet.Reader) {
		HandleFriendRemove(sess.(*session.Session), r, deps)
	})

	// Spectating
	reg.Register(packet.ClientStartSpectating, func(sess any, r *packet.Reader) {
		HandleStartSpectating(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientStopSpectating, func(sess any, r *packet.Reader) {
		HandleStopSpectating(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientSpectateFrames, func(sess any, r *packet.Reader) {
		HandleSpectateFrames(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientCantSpectate, func(sess any, r *packet.Reader) {
		HandleCantSpectate(sess.(*session.Session), r, deps)
	})

	// Multiplayer
	reg.Register(packet.ClientJoinLobby, func(sess any, r *packet.Reader) {
		HandleJoinLobby(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientPartLobby, func(sess any, r *packet.Reader) {
		HandlePartLobby(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientCreateMatch, func(sess any, r *packet.Reader) {
		HandleCreateMatch(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientJoinMatch, func(sess any, r *packet.Reader) {
		HandleJoinMatch(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientPartMatch, func(sess any, r *packet.Reader) {
		HandlePartMatch(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientMatchChangeSlot, func(sess any, r *packet.Reader) {
		HandleMatchChangeSlot(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientMatchReady, func(sess any, r *packet.Reader) {
		HandleMatchReady(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientMatchNotReady, func(sess any, r *packet.Reader) {
		HandleMatchNotReady(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientMatchLock, func(sess any, r *packet.Reader) {
		HandleMatchLock(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientMatchChangeSettings, func(sess any, r *packet.Reader) {
		HandleMatchChangeSettings(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientMatchChangePassword, func(sess any, r *packet.Reader) {
		HandleMatchChangePassword(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientMatchChangeMods, func(sess any, r *packet.Reader) {
		HandleMatchChangeMods(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientMatchChangeTeam, func(sess any, r *packet.Reader) {
		HandleMatchChangeTeam(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientMatchTransferHost, func(sess any, r *packet.Reader) {
		HandleMatchTransferHost(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientMatchStart, func(sess any, r *packet.Reader) {
		HandleMatchStart(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientMatchLoadComplete, func(sess any, r *packet.Reader) {
		HandleMatchLoadComplete(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientMatchSkipRequest, func(sess any, r *packet.Reader) {
		HandleMatchSkipRequest(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientMatchScoreUpdate, func(sess any, r *packet.Reader) {
		HandleMatchScoreUpdate(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientMatchFailed, func(sess any, r *packet.Reader) {
		HandleMatchFailed(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientMatchComplete, func(sess any, r *packet.Reader) {
		HandleMatchComplete(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientMatchNoBeatmap, func(sess any, r *packet.Reader) {
		HandleMatchNoBeatmap(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientMatchHasBeatmap, func(sess any, r *packet.Reader) {
		HandleMatchHasBeatmap(sess.(*session.Session), r, deps)
	})
	reg.Register(packet.ClientMatchInvite, func(sess any, r *packet.Reader) {
		HandleMatchInvite(sess.(*session.Session), r, deps)
	})
}
