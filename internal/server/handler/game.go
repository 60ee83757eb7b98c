package handler

import (
	"github.com/palemoky/truco-paulista/internal/apperrors"
	"github.com/palemoky/truco-paulista/internal/game/room"
	"github.com/palemoky/truco-paulista/internal/protocol"
	"github.com/palemoky/truco-paulista/internal/protocol/codec"
	"github.com/palemoky/truco-paulista/internal/types"
)

// handlePlayCard 处理出牌
func (h *Handler) handlePlayCard(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.PlayCardPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewGameErrorMessage(apperrors.ErrInvalidMsg))
		return
	}

	rm, err := h.roomManager.PlayCard(client, payload.CardID)
	h.finishAction(client, protocol.MsgPlayCard, rm, err)
}

// handleCallTruco 处理叫 truco
func (h *Handler) handleCallTruco(client types.ClientInterface) {
	rm, err := h.roomManager.CallTruco(client)
	h.finishAction(client, protocol.MsgCallTruco, rm, err)
}

// handleRespondTruco 处理回应 truco
func (h *Handler) handleRespondTruco(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.RespondTrucoPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewGameErrorMessage(apperrors.ErrInvalidMsg))
		return
	}

	rm, err := h.roomManager.RespondTruco(client, payload.Accept)
	h.finishAction(client, protocol.MsgRespondTruco, rm, err)
}

// finishAction 回复发起者，然后无论操作是否被接受都广播房间最新状态
func (h *Handler) finishAction(client types.ClientInterface, action protocol.MessageType, rm *room.Room, err error) {
	if err != nil {
		sendError(client, err)
	} else {
		sendAck(client, protocol.AckPayload{Action: action, RoomID: rm.ID})
	}
	if rm != nil {
		h.BroadcastRoom(rm)
	}
}
