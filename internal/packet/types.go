package packet

// MaxSlots is the fixed slot capacity of a multiplayer room.
const MaxSlots = 16

// Status is the transient activity block a client reports and the server
// echoes inside user-stats packets.
type Status struct {
	Action     byte
	InfoText   string
	BeatmapMD5 string
	Mods       uint32
	Mode       byte
	BeatmapID  int32
}

// ReadStatus decodes a status block at the reader's current offset.
func ReadStatus(r *Reader) Status {
	return Status{
		Action:     r.ReadU8(),
		InfoText:   r.ReadString(),
		BeatmapMD5: r.ReadString(),
		Mods:       r.ReadU32(),
		Mode:       r.ReadU8(),
		BeatmapID:  r.ReadI32(),
	}
}

// WriteStatus encodes a status block at the writer's current offset.
func WriteStatus(w *Writer, s Status) {
	w.WriteU8(s.Action)
	w.WriteString(s.InfoText)
	w.WriteString(s.BeatmapMD5)
	w.WriteU32(s.Mods)
	w.WriteU8(s.Mode)
	w.WriteI32(s.BeatmapID)
}

// Message is a chat message payload, shared by public and private sends.
// Target is a channel name, or a username for private messages.
type Message struct {
	Sender   string
	Text     string
	Target   string
	SenderID int32
}

func ReadMessage(r *Reader) Message {
	return Message{
		Sender:   r.ReadString(),
		Text:     r.ReadString(),
		Target:   r.ReadString(),
		SenderID: r.ReadI32(),
	}
}

func WriteMessage(w *Writer, m Message) {
	w.WriteString(m.Sender)
	w.WriteString(m.Text)
	w.WriteString(m.Target)
	w.WriteI32(m.SenderID)
}

// SendMessage builds a framed ServerSendMessage packet.
func SendMessage(m Message) []byte {
	w := NewWriter(ServerSendMessage)
	WriteMessage(w, m)
	return w.Finish()
}

// JoinRequest is the payload of ClientJoinMatch.
type JoinRequest struct {
	MatchID  int32
	Password string
}

func ReadJoinRequest(r *Reader) JoinRequest {
	return JoinRequest{
		MatchID:  r.ReadI32(),
		Password: r.ReadString(),
	}
}

// MatchData is the wire snapshot of a multiplayer room. Slot arrays are
// always MaxSlots long; SlotUserIDs carries entries only for occupied slots,
// in slot order, matching the occupied bits of SlotStatuses.
type MatchData struct {
	MatchID      uint16
	InProgress   bool
	MatchType    byte
	Mods         uint32
	Name         string
	Password     string
	BeatmapName  string
	BeatmapID    int32
	BeatmapMD5   string
	SlotStatuses [MaxSlots]byte
	SlotTeams    [MaxSlots]byte
	SlotUserIDs  []int32
	HostID       int32
	Mode         byte
	WinCondition byte
	TeamType     byte
	FreeMod      bool
	SlotMods     [MaxSlots]uint32
	Seed         int32
}

// slotOccupied mirrors the occupied status mask used by the match state
// machine (every status except Open and Locked).
func slotOccupied(status byte) bool {
	return status&0b01111100 != 0
}

// ReadMatchData decodes a room snapshot (as sent by ClientCreateMatch and
// ClientMatchChangeSettings).
func ReadMatchData(r *Reader) MatchData {
	var m MatchData
	m.MatchID = r.ReadU16()
	m.InProgress = r.ReadU8() == 1
	m.MatchType = r.ReadU8()
	m.Mods = r.ReadU32()
	m.Name = r.ReadString()
	m.Password = r.ReadString()
	m.BeatmapName = r.ReadString()
	m.BeatmapID = r.ReadI32()
	m.BeatmapMD5 = r.ReadString()
	for i := 0; i < MaxSlots; i++ {
		m.SlotStatuses[i] = r.ReadU8()
	}
	for i := 0; i < MaxSlots; i++ {
		m.SlotTeams[i] = r.ReadU8()
	}
	for i := 0; i < MaxSlots; i++ {
		if slotOccupied(m.SlotStatuses[i]) {
			m.SlotUserIDs = append(m.SlotUserIDs, r.ReadI32())
		}
	}
	m.HostID = r.ReadI32()
	m.Mode = r.ReadU8()
	m.WinCondition = r.ReadU8()
	m.TeamType = r.ReadU8()
	m.FreeMod = r.ReadU8() == 1
	if m.FreeMod {
		for i := 0; i < MaxSlots; i++ {
			m.SlotMods[i] = r.ReadU32()
		}
	}
	m.Seed = r.ReadI32()
	return m
}

// WriteMatchData encodes a room snapshot. When withPassword is false a
// non-empty password is masked as a single space so clients still render
// the lock icon without learning the password.
func WriteMatchData(w *Writer, m MatchData, withPassword bool) {
	w.WriteU16(m.MatchID)
	if m.InProgress {
		w.WriteU8(1)
	} else {
		w.WriteU8(0)
	}
	w.WriteU8(m.MatchType)
	w.WriteU32(m.Mods)
	w.WriteString(m.Name)
	if withPassword || m.Password == "" {
		w.WriteString(m.Password)
	} else {
		w.WriteString(" ")
	}
	w.WriteString(m.BeatmapName)
	w.WriteI32(m.BeatmapID)
	w.WriteString(m.BeatmapMD5)
	for i := 0; i < MaxSlots; i++ {
		w.WriteU8(m.SlotStatuses[i])
	}
	for i := 0; i < MaxSlots; i++ {
		w.WriteU8(m.SlotTeams[i])
	}
	for _, id := range m.SlotUserIDs {
		w.WriteI32(id)
	}
	w.WriteI32(m.HostID)
	w.WriteU8(m.Mode)
	w.WriteU8(m.WinCondition)
	w.WriteU8(m.TeamType)
	if m.FreeMod {
		w.WriteU8(1)
		for i := 0; i < MaxSlots; i++ {
			w.WriteU32(m.SlotMods[i])
		}
	} else {
		w.WriteU8(0)
	}
	w.WriteI32(m.Seed)
}

// MatchPacket frames a room snapshot under the given server packet type.
func MatchPacket(typ Type, m MatchData, withPassword bool) []byte {
	w := NewWriter(typ)
	WriteMatchData(w, m, withPassword)
	return w.Finish()
}

// ScoreFrame is a live in-round score sample relayed to the other occupants.
type ScoreFrame struct {
	Time         int32
	SlotID       byte
	Count300     uint16
	Count100     uint16
	Count50      uint16
	CountGeki    uint16
	CountKatu    uint16
	CountMiss    uint16
	TotalScore   int32
	MaxCombo     uint16
	CurrentCombo uint16
	Perfect      bool
	CurrentHP    byte
	TagByte      byte
}

func ReadScoreFrame(r *Reader) ScoreFrame {
	return ScoreFrame{
		Time:         r.ReadI32(),
		SlotID:       r.ReadU8(),
		Count300:     r.ReadU16(),
		Count100:     r.ReadU16(),
		Count50:      r.ReadU16(),
		CountGeki:    r.ReadU16(),
		CountKatu:    r.ReadU16(),
		CountMiss:    r.ReadU16(),
		TotalScore:   r.ReadI32(),
		MaxCombo:     r.ReadU16(),
		CurrentCombo: r.ReadU16(),
		Perfect:      r.ReadU8() == 1,
		CurrentHP:    r.ReadU8(),
		TagByte:      r.ReadU8(),
	}
}

func WriteScoreFrame(w *Writer, f ScoreFrame) {
	w.WriteI32(f.Time)
	w.WriteU8(f.SlotID)
	w.WriteU16(f.Count300)
	w.WriteU16(f.Count100)
	w.WriteU16(f.Count50)
	w.WriteU16(f.CountGeki)
	w.WriteU16(f.CountKatu)
	w.WriteU16(f.CountMiss)
	w.WriteI32(f.TotalScore)
	w.WriteU16(f.MaxCombo)
	w.WriteU16(f.CurrentCombo)
	if f.Perfect {
		w.WriteU8(1)
	} else {
		w.WriteU8(0)
	}
	w.WriteU8(f.CurrentHP)
	w.WriteU8(f.TagByte)
}
