package chat

import (
	"fmt"
	"os"
	"sync"

	"github.com/gobancho/server/internal/persist"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ChannelDef is one entry in the channel definition file.
type ChannelDef struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	AutoJoin    bool   `yaml:"auto_join"`
	ReadPriv    int32  `yaml:"read_priv"`
	WritePriv   int32  `yaml:"write_priv"`
}

// Registry holds all live channels by name.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]*Channel
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		channels: make(map[string]*Channel),
		log:      log,
	}
}

// LoadFile creates the permanent channels from a YAML definition file.
func (reg *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read channel file %s: %w", path, err)
	}
	var defs []ChannelDef
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return fmt.Errorf("parse channel file %s: %w", path, err)
	}
	for _, d := range defs {
		c := NewChannel(d.Name, d.Description)
		c.AutoJoin = d.AutoJoin
		if d.ReadPriv != 0 {
			c.ReadPriv = persist.Privileges(d.ReadPriv)
		}
		if d.WritePriv != 0 {
			c.WritePriv = persist.Privileges(d.WritePriv)
		}
		reg.Add(c)
	}
	reg.log.Info("channels loaded", zap.Int("count", len(defs)), zap.String("file", path))
	return nil
}

func (reg *Registry) Add(c *Channel) {
	reg.mu.Lock()
	reg.channels[c.Name] = c
	reg.mu.Unlock()
}

func (reg *Registry) Remove(name string) {
	reg.mu.Lock()
	delete(reg.channels, name)
	reg.mu.Unlock()
}

func (reg *Registry) Get(name string) *Channel {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.channels[name]
}

// All returns a snapshot of every channel.
func (reg *Registry) All() []*Channel {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*Channel, 0, len(reg.channels))
	for _, c := range reg.channels {
		out = append(out, c)
	}
	return out
}

// Listed returns the channels visible to the given privilege set, excluding
// instanced channels.
func (reg *Registry) Listed(p persist.Privileges) []*Channel {
	var out []*Channel
	for _, c := range reg.All() {
		if c.Instanced || !c.CanRead(p) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// PartAll removes the user from every channel and returns the channels that
// actually changed.
func (reg *Registry) PartAll(userID int32) []*Channel {
	var out []*Channel
	for _, c := range reg.All() {
		if c.Part(userID) {
			out = append(out, c)
		}
	}
	return out
}
