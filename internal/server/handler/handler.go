// Package handler 把客户端消息分发给房间管理器。
package handler

import (
	"errors"

	"go.uber.org/zap"

	"github.com/palemoky/gamehall/internal/apperrors"
	"github.com/palemoky/gamehall/internal/game/room"
	"github.com/palemoky/gamehall/internal/protocol"
	"github.com/palemoky/gamehall/internal/protocol/codec"
	"github.com/palemoky/gamehall/internal/types"
)

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server types.ServerInterface
	Rooms  *room.Manager
	Logger *zap.Logger
}

// Handler 消息处理器
type Handler struct {
	server   types.ServerInterface
	rooms    *room.Manager
	log      *zap.Logger
	handlers map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server: deps.Server,
		rooms:  deps.Rooms,
		log:    deps.Logger,
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing: h.handlePing,

		// 房间操作
		protocol.MsgCreateRoom:     h.handleCreateRoom,
		protocol.MsgEnterRoom:      h.handleEnterRoom,
		protocol.MsgRequestJoin:    h.handleRequestJoin,
		protocol.MsgJoinRoom:       h.handleRequestJoin,
		protocol.MsgApproveJoin:    h.handleApproveJoin,
		protocol.MsgRejoinRoom:     h.handleRejoinRoom,
		protocol.MsgStartGame:      h.roomAction(h.rooms.StartGame),
		protocol.MsgLeaveRoom:      h.roomAction(h.rooms.LeaveRoom),
		protocol.MsgReturnLobby:    h.roomAction(h.rooms.ReturnLobby),
		protocol.MsgKeepLobby:      h.roomAction(h.rooms.KeepLobby),
		protocol.MsgUpdateSettings: h.handleUpdateSettings,
	}

	// 游戏意图
	for msgType, decode := range intentDecoders {
		h.handlers[msgType] = h.applyIntent(decode)
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	h.log.Warn("⚠️ 未知消息类型",
		zap.String("type", string(msg.Type)),
		zap.String("conn", client.GetID()),
		zap.Int("payload_bytes", len(msg.Payload)))
	client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}

// Disconnect 连接断开后释放座位
func (h *Handler) Disconnect(client types.ClientInterface) {
	h.rooms.HandleDisconnect(client)
}

// sendError 错误只回给发起请求的连接
func (h *Handler) sendError(client types.ClientInterface, err error) {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		client.SendMessage(codec.NewErrorMessageWithText(gameErr.Code, gameErr.Message))
		return
	}
	h.log.Error("处理消息失败", zap.String("conn", client.GetID()), zap.Error(err))
	client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, err.Error()))
}

// decode 解析 payload，失败时直接回复错误
func decode[T any](h *Handler, client types.ClientInterface, msg *protocol.Message) (*T, bool) {
	payload, err := codec.ParsePayload[T](msg)
	if err != nil {
		h.sendError(client, apperrors.ErrInvalidMessage)
		return nil, false
	}
	return payload, true
}
