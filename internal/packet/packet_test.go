package packet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStringRoundTrip(t *testing.T) {
	w := NewWriter(ServerNotification)
	w.WriteString("hello")
	w.WriteString("")
	w.WriteString("мир") // multi-byte UTF-8

	frames, err := Decode(w.Finish())
	require.NoError(t, err)
	require.Len(t, frames, 1)

	r := NewReader(frames[0].Payload)
	assert.Equal(t, "hello", r.ReadString())
	assert.Equal(t, "", r.ReadString())
	assert.Equal(t, "мир", r.ReadString())
	assert.Equal(t, 0, r.Remaining())
}

func TestLongStringUsesMultiByteLength(t *testing.T) {
	// 300 bytes forces a two-byte ULEB128 length.
	long := strings.Repeat("a", 300)
	w := NewWriter(ServerSendMessage)
	w.WriteString(long)

	payload := w.Finish()[headerSize:]
	assert.Equal(t, byte(0x0b), payload[0])
	assert.Equal(t, byte(0xac), payload[1])
	assert.Equal(t, byte(0x02), payload[2])

	r := NewReader(payload)
	assert.Equal(t, long, r.ReadString())
}

func TestReaderOverrunReturnsZeroValues(t *testing.T) {
	r := NewReader([]byte{0x01})
	assert.Equal(t, byte(1), r.ReadU8())
	assert.Equal(t, int32(0), r.ReadI32())
	assert.Equal(t, "", r.ReadString())
	assert.Equal(t, int64(0), r.ReadI64())
}

func TestDecodeSplitsBundle(t *testing.T) {
	var buf []byte
	buf = append(buf, Empty(ClientPing)...)
	buf = append(buf, Notification("hi")...)
	buf = append(buf, LoginReply(1001)...)

	frames, err := Decode(buf)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, ClientPing, frames[0].Type)
	assert.Equal(t, ServerNotification, frames[1].Type)
	assert.Equal(t, ServerLoginReply, frames[2].Type)
	assert.Equal(t, int32(1001), NewReader(frames[2].Payload).ReadI32())
}

func TestDecodeTruncatedKeepsCompleteFrames(t *testing.T) {
	var buf []byte
	buf = append(buf, Empty(ClientPing)...)
	buf = append(buf, Notification("dropped")[:9]...) // header + partial payload

	frames, err := Decode(buf)
	require.Error(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, ClientPing, frames[0].Type)
}

func TestDecodeRejectsOversizePayload(t *testing.T) {
	buf := []byte{0x01, 0x00, 0x00, 0xff, 0xff, 0xff, 0xff}
	_, err := Decode(buf)
	require.Error(t, err)
}

func TestMatchDataRoundTrip(t *testing.T) {
	m := MatchData{
		MatchID:      7,
		InProgress:   true,
		Mods:         64,
		Name:         "late night lobby",
		Password:     "hunter2",
		BeatmapName:  "Artist - Title [Hard]",
		BeatmapID:    12345,
		BeatmapMD5:   "d41d8cd98f00b204e9800998ecf8427e",
		HostID:       1001,
		Mode:         0,
		WinCondition: 1,
		TeamType:     2,
		FreeMod:      true,
		Seed:         99,
	}
	m.SlotStatuses[0] = 8  // ready
	m.SlotStatuses[1] = 4  // not ready
	m.SlotStatuses[2] = 2  // locked
	m.SlotStatuses[5] = 32 // playing
	m.SlotUserIDs = []int32{1001, 1002, 1003}
	m.SlotTeams[0] = 1
	m.SlotMods[1] = 16

	w := NewWriter(ServerMatchUpdate)
	WriteMatchData(w, m, true)
	got := ReadMatchData(NewReader(w.Finish()[headerSize:]))
	assert.Equal(t, m, got)
}

func TestMatchDataPasswordMasking(t *testing.T) {
	m := MatchData{MatchID: 1, Password: "secret", HostID: 1}
	m.SlotStatuses[0] = 4
	m.SlotUserIDs = []int32{1}

	w := NewWriter(ServerMatchUpdate)
	WriteMatchData(w, m, false)
	got := ReadMatchData(NewReader(w.Finish()[headerSize:]))

	// Non-empty placeholder so the client shows the lock, real value hidden.
	assert.Equal(t, " ", got.Password)
}

func TestScoreFrameRoundTrip(t *testing.T) {
	f := ScoreFrame{
		Time:         5230,
		SlotID:       3,
		Count300:     120,
		Count100:     7,
		CountMiss:    1,
		TotalScore:   443210,
		MaxCombo:     188,
		CurrentCombo: 42,
		Perfect:      false,
		CurrentHP:    180,
	}
	w := NewWriter(ServerMatchScoreUpdate)
	WriteScoreFrame(w, f)
	assert.Equal(t, f, ReadScoreFrame(NewReader(w.Finish()[headerSize:])))
}

func TestRegistryUnknownTypeDropped(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	err := reg.Dispatch(nil, Packet{Type: 9999})
	assert.NoError(t, err)
}

func TestRegistryRecoversPanic(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(ClientPing, func(sess any, r *Reader) {
		panic("boom")
	})
	err := reg.Dispatch(nil, Packet{Type: ClientPing})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}
