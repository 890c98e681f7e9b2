package packet

// Type identifies a packet on the wire. Client and server types share one
// numeric space; the direction is implied by who sends it.
type Type uint16

// Client → server packet types.
const (
	ClientChangeAction        Type = 0
	ClientSendPublicMessage   Type = 1
	ClientLogout              Type = 2
	ClientRequestStatusUpdate Type = 3
	ClientPing                Type = 4
	ClientStartSpectating     Type = 16
	ClientStopSpectating      Type = 17
	ClientSpectateFrames      Type = 18
	ClientCantSpectate        Type = 21
	ClientSendPrivateMessage  Type = 25
	ClientPartLobby           Type = 29
	ClientJoinLobby           Type = 30
	ClientCreateMatch         Type = 31
	ClientJoinMatch           Type = 32
	ClientPartMatch           Type = 33
	ClientMatchChangeSlot     Type = 38
	ClientMatchReady          Type = 39
	ClientMatchLock           Type = 40
	ClientMatchChangeSettings Type = 41
	ClientMatchStart          Type = 44
	ClientMatchScoreUpdate    Type = 47
	ClientMatchComplete       Type = 49
	ClientMatchChangeMods     Type = 51
	ClientMatchLoadComplete   Type = 52
	ClientMatchNoBeatmap      Type = 54
	ClientMatchNotReady       Type = 55
	ClientMatchFailed         Type = 56
	ClientMatchHasBeatmap     Type = 59
	ClientMatchSkipRequest    Type = 60
	ClientChannelJoin         Type = 63
	ClientFriendAdd           Type = 73
	ClientFriendRemove        Type = 74
	ClientMatchChangeTeam     Type = 77
	ClientChannelPart         Type = 78
	ClientSetAwayMessage      Type = 82
	ClientUserStatsRequest    Type = 85
	ClientMatchInvite         Type = 87
	ClientMatchChangePassword Type = 90
	ClientMatchTransferHost   Type = 70
)

// Server → client packet types.
const (
	ServerLoginReply            Type = 5
	ServerSendMessage           Type = 7
	ServerPong                  Type = 8
	ServerUserStats             Type = 11
	ServerUserLogout            Type = 12
	ServerSpectatorJoined       Type = 13
	ServerSpectatorLeft         Type = 14
	ServerSpectateFrames        Type = 15
	ServerSpectatorCantSpectate Type = 22
	ServerNotification          Type = 24
	ServerMatchUpdate           Type = 26
	ServerMatchNew              Type = 27
	ServerMatchDisband          Type = 28
	ServerMatchJoinSuccess      Type = 36
	ServerMatchJoinFail         Type = 37
	ServerFellowSpectatorJoined Type = 42
	ServerFellowSpectatorLeft   Type = 43
	ServerMatchStart            Type = 46
	ServerMatchScoreUpdate      Type = 48
	ServerMatchTransferHost     Type = 50
	ServerMatchAllPlayersLoaded Type = 53
	ServerMatchPlayerFailed     Type = 57
	ServerMatchComplete         Type = 58
	ServerMatchSkip             Type = 61
	ServerChannelJoinSuccess    Type = 64
	ServerChannelInfo           Type = 65
	ServerChannelKick           Type = 66
	ServerPrivileges            Type = 71
	ServerFriendsList           Type = 72
	ServerProtocolVersion       Type = 75
	ServerUserPresence          Type = 83
	ServerRestart               Type = 86
	ServerMatchInvite           Type = 88
	ServerChannelInfoEnd        Type = 89
	ServerMatchChangePassword   Type = 91
	ServerMatchPlayerSkipped    Type = 81
)

// Login reply codes written in a ServerLoginReply payload. Values >= 0 are
// the authenticated user id.
const (
	LoginFailed        int32 = -1
	LoginOutdated      int32 = -2
	LoginBanned        int32 = -3
	LoginServerError   int32 = -5
	LoginPasswordReset int32 = -8
)

// ProtocolVersion is the negotiated wire protocol revision sent after login.
const ProtocolVersion int32 = 19
