package handler

import (
	"github.com/palemoky/truco-paulista/internal/apperrors"
	"github.com/palemoky/truco-paulista/internal/game/room"
	"github.com/palemoky/truco-paulista/internal/protocol"
	"github.com/palemoky/truco-paulista/internal/protocol/codec"
	"github.com/palemoky/truco-paulista/internal/types"
)

// handleJoinRoom 处理加入房间（房间不存在时创建）
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) {
	// 维护模式检查
	if h.server.IsMaintenanceMode() {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeServerMaintenance))
		return
	}

	payload, err := codec.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		client.SendMessage(codec.NewGameErrorMessage(apperrors.ErrInvalidMsg))
		return
	}

	// 重复加入当前房间视为同一玩家再次入座
	current := client.GetRoom()
	if current != "" && current == room.NormalizeRoomID(payload.RoomID) {
		sendError(client, apperrors.ErrNameTaken)
		return
	}

	// 已在别的房间时先离开，并通知原房间
	if current != "" {
		if old := h.roomManager.LeaveRoom(client); old != nil {
			h.BroadcastRoom(old)
		}
	}

	rm, seat, err := h.roomManager.JoinRoom(client, payload.RoomID, payload.PlayerName)
	if err != nil {
		sendError(client, err)
		return
	}

	if p := rm.PrivateState(client.GetID()).Me; p != nil {
		client.SetName(p.Name)
	}

	sendAck(client, protocol.AckPayload{Action: protocol.MsgJoinRoom, RoomID: rm.ID, Seat: &seat})
	h.BroadcastRoom(rm)
}

// handleLeaveRoom 处理离开房间
func (h *Handler) handleLeaveRoom(client types.ClientInterface) {
	roomID := client.GetRoom()
	if roomID == "" {
		client.SendMessage(codec.NewGameErrorMessage(apperrors.ErrNotInRoom))
		return
	}

	rm := h.roomManager.LeaveRoom(client)
	sendAck(client, protocol.AckPayload{Action: protocol.MsgLeaveRoom, RoomID: roomID})
	if rm != nil {
		h.BroadcastRoom(rm)
	}
}

// handleResetMatch 处理重置比赛
func (h *Handler) handleResetMatch(client types.ClientInterface) {
	rm, err := h.roomManager.ResetMatch(client)
	if err != nil {
		sendError(client, err)
		return
	}
	sendAck(client, protocol.AckPayload{Action: protocol.MsgResetMatch, RoomID: rm.ID})
	h.BroadcastRoom(rm)
}
