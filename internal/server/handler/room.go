package handler

import (
	"github.com/palemoky/gamehall/internal/apperrors"
	"github.com/palemoky/gamehall/internal/game"
	"github.com/palemoky/gamehall/internal/game/room"
	"github.com/palemoky/gamehall/internal/protocol"
	"github.com/palemoky/gamehall/internal/types"
)

func settingsOf(p protocol.SettingsPayload) game.Settings {
	return game.Settings{
		GameType:  game.NormalizeType(p.GameType),
		UseDeckel: p.UseDeckel,
	}
}

// handleCreateRoom 处理创建房间
func (h *Handler) handleCreateRoom(client types.ClientInterface, msg *protocol.Message) {
	// 维护模式检查
	if h.server.IsMaintenanceMode() {
		h.sendError(client, apperrors.ErrMaintenance)
		return
	}

	payload, ok := decode[protocol.CreateRoomPayload](h, client, msg)
	if !ok {
		return
	}

	if _, err := h.rooms.CreateRoom(client, room.CreateParams{
		Name:          payload.Name,
		RequestedCode: payload.RequestedCode,
		Settings:      settingsOf(payload.SettingsPayload),
	}); err != nil {
		h.sendError(client, err)
	}
}

// handleEnterRoom 处理进入房间（可能会创建房间）
func (h *Handler) handleEnterRoom(client types.ClientInterface, msg *protocol.Message) {
	payload, ok := decode[protocol.EnterRoomPayload](h, client, msg)
	if !ok {
		return
	}

	// 维护期间只允许回到已有的房间
	if h.server.IsMaintenanceMode() && h.rooms.GetRoom(payload.RequestedCode) == nil {
		h.sendError(client, apperrors.ErrMaintenance)
		return
	}

	if _, err := h.rooms.EnterRoom(client, room.CreateParams{
		Name:          payload.Name,
		RequestedCode: payload.RequestedCode,
		Settings:      settingsOf(payload.SettingsPayload),
	}); err != nil {
		h.sendError(client, err)
	}
}

// handleRequestJoin 处理加入申请
func (h *Handler) handleRequestJoin(client types.ClientInterface, msg *protocol.Message) {
	payload, ok := decode[protocol.JoinRequestPayload](h, client, msg)
	if !ok {
		return
	}
	if err := h.rooms.RequestJoin(client, payload.Code, payload.Name); err != nil {
		h.sendError(client, err)
	}
}

// handleApproveJoin 处理房主审批
func (h *Handler) handleApproveJoin(client types.ClientInterface, msg *protocol.Message) {
	payload, ok := decode[protocol.ApproveJoinPayload](h, client, msg)
	if !ok {
		return
	}
	if err := h.rooms.ApproveJoin(client, payload.Code, payload.Token, payload.RequestID, payload.Accept); err != nil {
		h.sendError(client, err)
	}
}

// handleRejoinRoom 处理凭令牌重连
func (h *Handler) handleRejoinRoom(client types.ClientInterface, msg *protocol.Message) {
	payload, ok := decode[protocol.RoomRef](h, client, msg)
	if !ok {
		return
	}
	if _, err := h.rooms.RejoinRoom(client, payload.Code, payload.Token); err != nil {
		h.sendError(client, err)
	}
}

// handleUpdateSettings 处理修改设置
func (h *Handler) handleUpdateSettings(client types.ClientInterface, msg *protocol.Message) {
	payload, ok := decode[protocol.UpdateSettingsPayload](h, client, msg)
	if !ok {
		return
	}
	if err := h.rooms.UpdateSettings(client, payload.Code, payload.Token, settingsOf(payload.SettingsPayload)); err != nil {
		h.sendError(client, err)
	}
}

// roomAction 只需要房间号和令牌的操作
func (h *Handler) roomAction(action func(client types.ClientInterface, code, token string) error) handlerFunc {
	return func(client types.ClientInterface, msg *protocol.Message) {
		payload, ok := decode[protocol.RoomRef](h, client, msg)
		if !ok {
			return
		}
		if err := action(client, payload.Code, payload.Token); err != nil {
			h.sendError(client, err)
		}
	}
}
