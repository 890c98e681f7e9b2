package session

import "github.com/gobancho/server/internal/persist"

// BotUserID is the resident bot's account id. Clients treat it as always
// online and it is the sender of command responses and server notices.
const BotUserID int32 = 1

// NewBot builds the resident bot session. Its queue is drained nowhere; it
// exists so name and id lookups resolve and presence can be advertised.
func NewBot(name string) *Session {
	return New("bot", &persist.User{
		ID:         BotUserID,
		Username:   name,
		SafeName:   persist.SafeName(name),
		Privileges: persist.PrivNormal | persist.PrivSupporter | persist.PrivModerator | persist.PrivAdmin,
		Country:    "XX",
	})
}
