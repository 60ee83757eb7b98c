package protocol

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
}

// PlayCardPayload 出牌请求
type PlayCardPayload struct {
	CardID string `json:"card_id"` // 例如 "7♦"
}

// RespondTrucoPayload 回应加注请求
type RespondTrucoPayload struct {
	Accept bool `json:"accept"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	PlayerID string `json:"player_id"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"` // 客户端发送的时间戳
	ServerTimestamp int64 `json:"server_timestamp"` // 服务器时间戳（毫秒）
}

// AckPayload 操作确认
type AckPayload struct {
	Action MessageType `json:"action"`
	RoomID string      `json:"room_id,omitempty"`
	Seat   *int        `json:"seat,omitempty"` // 仅加入房间时返回
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// --- 状态投影 ---

// CardInfo 牌信息
type CardInfo struct {
	ID   string `json:"id"`
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

// PlayerInfo 公开的玩家信息（不含手牌内容）
type PlayerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Seat      int    `json:"seat"`
	Team      int    `json:"team"`
	CardCount int    `json:"cards"`
}

// TableCard 桌面上本墩已出的牌
type TableCard struct {
	Seat       int      `json:"seat"`
	PlayerName string   `json:"player_name"`
	Card       CardInfo `json:"card"`
}

// PendingTruco 待回应的加注
type PendingTruco struct {
	RequestingTeam int `json:"requesting_team"`
	RespondingTeam int `json:"responding_team"`
	ProposedStake  int `json:"proposed_stake"`
	CalledBy       int `json:"called_by"`
}

// HandState 当前（或刚结束的）一手牌
type HandState struct {
	Vira         CardInfo      `json:"vira"`
	ManilhaRank  string        `json:"manilha_rank"`
	Table        []TableCard   `json:"table"`
	CurrentTrick int           `json:"current_trick"`
	TrickWins    [2]int        `json:"trick_wins"`
	TurnSeat     int           `json:"turn_seat"`
	Stake        int           `json:"stake"`
	PendingTruco *PendingTruco `json:"pending_truco"`
	Status       string        `json:"status"`
	Message      string        `json:"message"`
}

// RoomState 公开的房间状态（所有玩家相同）
type RoomState struct {
	RoomID      string       `json:"room_id"`
	Started     bool         `json:"started"`
	Players     []PlayerInfo `json:"players"`
	Scores      [2]int       `json:"scores"`
	MatchWinner *int         `json:"match_winner"`
	Log         []string     `json:"log"`
	Hand        *HandState   `json:"hand"`
}

// SelfInfo 接收者自己的信息（含手牌）
type SelfInfo struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Seat int        `json:"seat"`
	Team int        `json:"team"`
	Hand []CardInfo `json:"hand"`
}

// StatePayload 私有视图：公开状态 + 自己的手牌
type StatePayload struct {
	RoomState
	Me *SelfInfo `json:"me"`
}

// RoomListItem 房间列表项
type RoomListItem struct {
	RoomID      string `json:"room_id"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
	Started     bool   `json:"started"`
}
