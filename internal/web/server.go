package web

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gobancho/server/internal/handler"
	"github.com/gobancho/server/internal/packet"
	"github.com/gobancho/server/internal/persist"
	"github.com/gobancho/server/internal/session"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const tokenHeader = "osu-token"

// Server is the HTTP tunnel carrying packet buffers. Every exchange is one
// POST: the body holds the client's packets, the response holds the drained
// outbound queue.
type Server struct {
	app  *fiber.App
	deps *handler.Deps
	reg  *packet.Registry
	log  *zap.Logger
}

func NewServer(deps *handler.Deps, reg *packet.Registry, log *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		ServerHeader:          deps.Config.Server.Name,
		DisableStartupMessage: true,
		BodyLimit:             4 * 1024 * 1024,
	})

	s := &Server{app: app, deps: deps, reg: reg, log: log}

	app.Get("/", s.handleIndex)
	app.Post("/", s.handleBancho)

	return s
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	return c.SendString(fmt.Sprintf("%s: %d players online",
		s.deps.Config.Server.Name, s.deps.Sessions.Count()))
}

// handleBancho is the single protocol endpoint. A request without a token
// is a login handshake; with one, it carries a packet bundle.
func (s *Server) handleBancho(c *fiber.Ctx) error {
	token := c.Get(tokenHeader)
	if token == "" {
		return s.handleLogin(c)
	}

	sess := s.deps.Sessions.ByToken(token)
	if sess == nil {
		// Unknown token, likely a server restart. Tell the client to
		// reconnect from scratch.
		w := packet.NewWriter(packet.ServerRestart)
		w.WriteI32(0)
		return s.respond(c, w.Finish())
	}
	sess.Touch()

	frames, err := packet.Decode(c.Body())
	if err != nil {
		s.log.Warn("malformed packet buffer",
			zap.Int32("user_id", sess.UserID),
			zap.Error(err),
		)
	}
	// Packets already split still run, strictly in arrival order.
	rl := s.deps.Config.RateLimit
	for _, f := range frames {
		if rl.Enabled && !sess.AllowPacket(rl.PacketsPerSecond) {
			s.log.Warn("packet rate limit exceeded",
				zap.Int32("user_id", sess.UserID),
				zap.Uint16("type", uint16(f.Type)),
			)
			break
		}
		if err := s.reg.Dispatch(sess, f); err != nil {
			s.log.Error("handler failed",
				zap.Uint16("type", uint16(f.Type)),
				zap.Int32("user_id", sess.UserID),
				zap.Error(err),
			)
		}
	}

	return s.respond(c, sess.Drain())
}

// loginRequest is the parsed three-line handshake body.
type loginRequest struct {
	Username         string
	PasswordMD5      string
	Version          string
	UTCOffset        int8
	ShowLocation     bool
	ClientHash       string
	BlockNonFriendPM bool
}

func parseLogin(body []byte) (*loginRequest, error) {
	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	if len(lines) < 3 {
		return nil, fmt.Errorf("login body has %d lines, want 3", len(lines))
	}
	info := strings.Split(lines[2], "|")
	if len(info) < 5 {
		return nil, fmt.Errorf("client info has %d fields, want 5", len(info))
	}
	utc, _ := strconv.Atoi(info[1])
	req := &loginRequest{
		Username:         strings.TrimSpace(lines[0]),
		PasswordMD5:      lines[1],
		Version:          info[0],
		UTCOffset:        int8(utc),
		ShowLocation:     info[2] == "1",
		ClientHash:       info[3],
		BlockNonFriendPM: info[4] == "1",
	}
	if req.Username == "" || req.PasswordMD5 == "" {
		return nil, fmt.Errorf("missing credentials")
	}
	return req, nil
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	d := s.deps
	ctx := c.Context()

	req, err := parseLogin(c.Body())
	if err != nil {
		return s.loginFail(c, packet.LoginFailed)
	}

	user, err := d.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		s.log.Error("user lookup failed", zap.String("username", req.Username), zap.Error(err))
		return s.loginFail(c, packet.LoginServerError)
	}
	if user == nil || !d.Users.ValidatePassword(user.PasswordHash, req.PasswordMD5) {
		return s.loginFail(c, packet.LoginFailed)
	}
	if !user.Privileges.Has(persist.PrivNormal) {
		return s.loginFail(c, packet.LoginBanned)
	}

	sess, old := d.Sessions.Create(user)
	if old != nil {
		handler.DestroySession(old, d)
	}
	sess.UTCOffset = req.UTCOffset
	sess.ShowLocation = req.ShowLocation
	sess.BlockNonFriendPM = req.BlockNonFriendPM
	sess.ClientVersion = req.Version

	if friends, err := d.Users.Friends(ctx, user.ID); err == nil {
		for _, id := range friends {
			sess.AddFriend(id)
		}
	}
	if err := d.Users.UpdateLastActive(context.Background(), user.ID); err != nil {
		s.log.Warn("update last active failed", zap.Int32("user_id", user.ID), zap.Error(err))
	}

	s.sendLoginBurst(sess)

	s.log.Info("login",
		zap.Int32("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("version", req.Version),
	)

	c.Set(tokenHeader, sess.Token)
	c.Set("cho-token", sess.Token)
	c.Set("Connection", "keep-alive")
	return s.respond(c, sess.Drain())
}

// sendLoginBurst queues the post-login state dump: identity, channels,
// friends, and the presence of everyone online, while announcing the new
// arrival to the rest.
func (s *Server) sendLoginBurst(sess *session.Session) {
	d := s.deps

	w := packet.NewWriter(packet.ServerProtocolVersion)
	w.WriteI32(packet.ProtocolVersion)
	sess.Enqueue(w.Finish())

	sess.Enqueue(packet.LoginReply(sess.UserID))

	w = packet.NewWriter(packet.ServerPrivileges)
	w.WriteI32(int32(sess.Privileges))
	sess.Enqueue(w.Finish())

	for _, ch := range d.Channels.Listed(sess.Privileges) {
		sess.Enqueue(ch.InfoPacket())
		if ch.AutoJoin && ch.Join(sess.UserID) {
			join := packet.NewWriter(packet.ServerChannelJoinSuccess)
			join.WriteString(ch.Name)
			sess.Enqueue(join.Finish())
		}
	}
	sess.Enqueue(packet.Empty(packet.ServerChannelInfoEnd))

	sess.Enqueue(handler.FriendsListPacket(sess.FriendList()))

	presence := handler.PresencePacket(sess)
	stats := handler.StatsPacket(sess)
	sess.Enqueue(presence)
	sess.Enqueue(stats)
	for _, other := range d.Sessions.All() {
		if other == sess {
			continue
		}
		other.Enqueue(presence)
		other.Enqueue(stats)
		sess.Enqueue(handler.PresencePacket(other))
		sess.Enqueue(handler.StatsPacket(other))
	}

	sess.Enqueue(packet.Notification("Welcome to " + d.Config.Server.Name + "!"))
}

func (s *Server) loginFail(c *fiber.Ctx, code int32) error {
	c.Set("cho-token", "no")
	return s.respond(c, packet.LoginReply(code))
}

func (s *Server) respond(c *fiber.Ctx, body []byte) error {
	c.Set("Content-Type", "application/octet-stream")
	return c.Send(body)
}
