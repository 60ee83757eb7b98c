package handler

import (
	"errors"
	"log"

	"github.com/palemoky/truco-paulista/internal/apperrors"
	"github.com/palemoky/truco-paulista/internal/game/room"
	"github.com/palemoky/truco-paulista/internal/logger"
	"github.com/palemoky/truco-paulista/internal/protocol"
	"github.com/palemoky/truco-paulista/internal/protocol/codec"
	"github.com/palemoky/truco-paulista/internal/types"
)

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server      types.ServerInterface
	RoomManager *room.RoomManager
}

// Handler 消息处理器
type Handler struct {
	server      types.ServerInterface
	roomManager *room.RoomManager
	handlers    map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器，并把延迟发牌的广播挂到房间管理器上
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server:      deps.Server,
		roomManager: deps.RoomManager,
	}
	h.initHandlers()
	h.roomManager.SetNotifier(h.BroadcastRoom)
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		protocol.MsgPing: h.handlePing,

		// 房间操作
		protocol.MsgJoinRoom:   h.handleJoinRoom,
		protocol.MsgLeaveRoom:  func(c types.ClientInterface, _ *protocol.Message) { h.handleLeaveRoom(c) },
		protocol.MsgResetMatch: func(c types.ClientInterface, _ *protocol.Message) { h.handleResetMatch(c) },

		// 游戏操作
		protocol.MsgPlayCard:     h.handlePlayCard,
		protocol.MsgCallTruco:    func(c types.ClientInterface, _ *protocol.Message) { h.handleCallTruco(c) },
		protocol.MsgRespondTruco: h.handleRespondTruco,
	}
}

// Handle 处理消息。单条消息内的 panic 被记录后转成通用错误，不影响连接的读循环。
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeUnknown))
		}
	}()

	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	log.Printf("⚠️  未知消息类型: '%s' (来自玩家: %s, ID: %s)", msg.Type, client.GetName(), client.GetID())
	client.SendMessage(codec.NewGameErrorMessage(apperrors.ErrInvalidMsg))
}

// HandleDisconnect 连接断开等同于离开房间
func (h *Handler) HandleDisconnect(client types.ClientInterface) {
	if client.GetRoom() == "" {
		return
	}
	if rm := h.roomManager.LeaveRoom(client); rm != nil {
		h.BroadcastRoom(rm)
	}
}

// BroadcastRoom 给房间内每位在座玩家发送各自的私有视图
func (h *Handler) BroadcastRoom(rm *room.Room) {
	for _, id := range rm.PlayerIDs() {
		client := h.server.GetClientByID(id)
		if client == nil {
			continue
		}
		client.SendMessage(codec.MustNewMessage(protocol.MsgState, rm.PrivateState(id)))
	}
}

// sendError 把规则错误原样反馈给发起者，其他错误按未知错误处理
func sendError(client types.ClientInterface, err error) {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		client.SendMessage(codec.NewGameErrorMessage(gameErr))
		return
	}
	log.Printf("❌ 玩家 %s 的操作失败: %v", client.GetID(), err)
	client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, err.Error()))
}

func sendAck(client types.ClientInterface, ack protocol.AckPayload) {
	client.SendMessage(codec.MustNewMessage(protocol.MsgAck, ack))
}
