package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gobancho/server/internal/persist"
)

func testUser(id int32, name string) *persist.User {
	return &persist.User{
		ID:         id,
		Username:   name,
		SafeName:   persist.SafeName(name),
		Privileges: persist.PrivNormal,
	}
}

func TestCreateSupersedesOldLogin(t *testing.T) {
	reg := NewRegistry(zap.NewNop())

	first, old := reg.Create(testUser(1001, "Some Player"))
	require.Nil(t, old)

	second, old := reg.Create(testUser(1001, "Some Player"))
	require.Same(t, first, old)
	assert.NotEqual(t, first.Token, second.Token)

	// Only the new session remains reachable.
	assert.Nil(t, reg.ByToken(first.Token))
	assert.Same(t, second, reg.ByToken(second.Token))
	assert.Same(t, second, reg.ByUserID(1001))
	assert.Equal(t, 1, reg.Count())
}

func TestByNameUsesSafeName(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	s, _ := reg.Create(testUser(1001, "Some Player"))

	assert.Same(t, s, reg.ByName("some_player"))
	assert.Same(t, s, reg.ByName("SOME PLAYER"))
	assert.Nil(t, reg.ByName("someplayer"))
}

func TestUnregisterIgnoresSupersededSession(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	first, _ := reg.Create(testUser(1001, "player"))
	second, _ := reg.Create(testUser(1001, "player"))

	// Tearing down the stale session must not evict the new one.
	reg.Unregister(first)
	assert.Same(t, second, reg.ByUserID(1001))

	reg.Unregister(second)
	assert.Nil(t, reg.ByUserID(1001))
	assert.Equal(t, 0, reg.Count())
}

func TestIdleSkipsBot(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	bot := NewBot("BanchoBot")
	reg.RegisterBot(bot)

	s, _ := reg.Create(testUser(1001, "player"))
	s.mu.Lock()
	s.lastPing = time.Now().Add(-time.Hour)
	s.mu.Unlock()
	bot.mu.Lock()
	bot.lastPing = time.Now().Add(-time.Hour)
	bot.mu.Unlock()

	idle := reg.Idle(time.Minute, BotUserID)
	require.Len(t, idle, 1)
	assert.Same(t, s, idle[0])
}

func TestDrainResetsQueue(t *testing.T) {
	s := New("tok", testUser(1001, "player"))
	s.Enqueue([]byte{1, 2})
	s.Enqueue([]byte{3})

	assert.Equal(t, []byte{1, 2, 3}, s.Drain())
	assert.Empty(t, s.Drain())
}
