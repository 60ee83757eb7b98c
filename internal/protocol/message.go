package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	MsgPing MessageType = "ping" // 心跳 ping

	// 房间操作
	MsgJoinRoom   MessageType = "join_room"   // 加入（或创建）房间
	MsgLeaveRoom  MessageType = "leave_room"  // 离开房间
	MsgResetMatch MessageType = "reset_match" // 重置比赛

	// 游戏操作
	MsgPlayCard     MessageType = "play_card"     // 出牌
	MsgCallTruco    MessageType = "call_truco"    // 叫 truco（加注）
	MsgRespondTruco MessageType = "respond_truco" // 接受/放弃加注
)

// 服务端 → 客户端 消息类型
const (
	MsgConnected MessageType = "connected" // 连接成功
	MsgPong      MessageType = "pong"      // 心跳 pong
	MsgAck       MessageType = "ack"       // 操作成功确认
	MsgState     MessageType = "state"     // 房间状态（每个玩家的私有视图）
	MsgError     MessageType = "error"     // 错误消息
)
