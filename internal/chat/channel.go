package chat

import (
	"sync"

	"github.com/gobancho/server/internal/packet"
	"github.com/gobancho/server/internal/persist"
)

// Channel is a named chat room. Instanced channels (spectator and match
// channels) are created and destroyed with their parent entity and never
// advertised in the public channel listing.
type Channel struct {
	Name        string
	Description string
	ReadPriv    persist.Privileges
	WritePriv   persist.Privileges
	AutoJoin    bool
	Instanced   bool

	mu      sync.RWMutex
	members map[int32]struct{}
}

func NewChannel(name, description string) *Channel {
	return &Channel{
		Name:        name,
		Description: description,
		ReadPriv:    persist.PrivNormal,
		WritePriv:   persist.PrivNormal,
		members:     make(map[int32]struct{}),
	}
}

// CanRead reports whether the given privilege set may see and join the
// channel.
func (c *Channel) CanRead(p persist.Privileges) bool {
	return p.Has(c.ReadPriv)
}

func (c *Channel) CanWrite(p persist.Privileges) bool {
	return p.Has(c.WritePriv)
}

// Join adds the user. Reports false if already a member.
func (c *Channel) Join(userID int32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.members[userID]; ok {
		return false
	}
	c.members[userID] = struct{}{}
	return true
}

// Part removes the user. Reports false if not a member.
func (c *Channel) Part(userID int32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.members[userID]; !ok {
		return false
	}
	delete(c.members, userID)
	return true
}

func (c *Channel) Has(userID int32) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.members[userID]
	return ok
}

func (c *Channel) Members() []int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]int32, 0, len(c.members))
	for id := range c.members {
		out = append(out, id)
	}
	return out
}

func (c *Channel) MemberCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.members)
}

// InfoPacket frames the channel listing entry.
func (c *Channel) InfoPacket() []byte {
	w := packet.NewWriter(packet.ServerChannelInfo)
	w.WriteString(c.Name)
	w.WriteString(c.Description)
	w.WriteU16(uint16(c.MemberCount()))
	return w.Finish()
}
