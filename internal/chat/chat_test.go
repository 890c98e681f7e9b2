package chat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gobancho/server/internal/persist"
)

func TestJoinPartIdempotent(t *testing.T) {
	c := NewChannel("#osu", "main channel")

	assert.True(t, c.Join(1001))
	assert.False(t, c.Join(1001))
	assert.Equal(t, 1, c.MemberCount())

	assert.True(t, c.Part(1001))
	assert.False(t, c.Part(1001))
	assert.Equal(t, 0, c.MemberCount())
}

func TestListedHidesInstancedAndPrivileged(t *testing.T) {
	reg := NewRegistry(zap.NewNop())

	public := NewChannel("#osu", "main")
	reg.Add(public)

	staff := NewChannel("#staff", "staff only")
	staff.ReadPriv = persist.PrivNormal | persist.PrivModerator
	reg.Add(staff)

	spec := NewChannel("#spectator", "")
	spec.Instanced = true
	reg.Add(spec)

	normal := reg.Listed(persist.PrivNormal)
	require.Len(t, normal, 1)
	assert.Equal(t, "#osu", normal[0].Name)

	mod := reg.Listed(persist.PrivNormal | persist.PrivModerator)
	assert.Len(t, mod, 2)
}

func TestPartAllReturnsChangedChannels(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	a := NewChannel("#osu", "")
	b := NewChannel("#lobby", "")
	reg.Add(a)
	reg.Add(b)

	a.Join(1001)
	b.Join(1002)

	changed := reg.PartAll(1001)
	require.Len(t, changed, 1)
	assert.Equal(t, "#osu", changed[0].Name)
	assert.Equal(t, 1, b.MemberCount())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channels.yaml")
	body := `- name: "#osu"
  description: main channel
  auto_join: true
- name: "#staff"
  description: staff room
  read_priv: 5
  write_priv: 5
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	reg := NewRegistry(zap.NewNop())
	require.NoError(t, reg.LoadFile(path))

	osu := reg.Get("#osu")
	require.NotNil(t, osu)
	assert.True(t, osu.AutoJoin)
	assert.True(t, osu.CanRead(persist.PrivNormal))

	staff := reg.Get("#staff")
	require.NotNil(t, staff)
	assert.False(t, staff.CanRead(persist.PrivNormal))
	assert.True(t, staff.CanRead(persist.PrivNormal|persist.PrivModerator))
}
