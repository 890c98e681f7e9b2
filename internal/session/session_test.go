package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gobancho/server/internal/packet"
)

func TestStateAccessorsUnderContention(t *testing.T) {
	s := New("tok", testUser(1001, "player"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int32) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.SetStatus(packet.Status{Action: byte(n), BeatmapID: n})
				_ = s.Status()
				s.SetSpectating(n)
				_ = s.Spectating()
				s.SetMatchID(n)
				_ = s.MatchID()
				s.SetAwayMessage("away")
				_ = s.AwayMessage()
				s.SetInLobby(j%2 == 0)
				_ = s.InLobby()
				s.Enqueue([]byte{1, 2, 3})
			}
		}(int32(i))
	}
	wg.Wait()

	s.SetSpectating(0)
	assert.Zero(t, s.Spectating())
	assert.NotEmpty(t, s.Drain())
}

func TestAllowPacketBudget(t *testing.T) {
	s := New("tok", testUser(1001, "player"))

	for i := 0; i < 3; i++ {
		assert.True(t, s.AllowPacket(3))
	}
	assert.False(t, s.AllowPacket(3))

	// The budget refills once the window rolls over.
	s.mu.Lock()
	s.rlWindow = time.Now().Add(-2 * time.Second)
	s.mu.Unlock()
	assert.True(t, s.AllowPacket(3))

	// Zero disables the check.
	for i := 0; i < 100; i++ {
		assert.True(t, s.AllowPacket(0))
	}
}
