package types

import (
	"github.com/palemoky/gamehall/internal/protocol"
)

// ServerInterface 定义服务器接口（用于打破循环依赖）
type ServerInterface interface {
	IsMaintenanceMode() bool
}

// ClientInterface 定义客户端连接接口
//
// 连接本身没有身份，座位身份由令牌决定；GetRoom 记录该连接最近所在（或申请加入）的房间。
type ClientInterface interface {
	GetID() string
	GetRoom() string
	SetRoom(code string)
	SendMessage(msg *protocol.Message)
	Close()
}
