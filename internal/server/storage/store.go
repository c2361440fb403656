package storage

import (
	"context"
	"encoding/json"
)

// Store 房间快照存储
//
// 快照是尽力而为的：写入失败只记录日志，不影响房间继续运行。
type Store interface {
	SaveRoom(ctx context.Context, code string, data *RoomData) error
	// LoadRoom 房间不存在时返回 (nil, nil)
	LoadRoom(ctx context.Context, code string) (*RoomData, error)
	DeleteRoom(ctx context.Context, code string) error
	GetAllRoomCodes(ctx context.Context) ([]string, error)
	Close() error
}

// RoomData 房间快照（连接句柄不持久化，恢复后所有座位都是离线状态）
type RoomData struct {
	Code              string          `json:"code"`
	Status            string          `json:"status"`
	Settings          SettingsData    `json:"settings"`
	HostSeat          int             `json:"host_seat"`
	LastLobbyActivity int64           `json:"last_lobby_activity"` // 毫秒
	Players           []PlayerData    `json:"players"`
	State             json.RawMessage `json:"state,omitempty"`
}

// SettingsData 房间设置
type SettingsData struct {
	GameType  string `json:"game_type"`
	UseDeckel bool   `json:"use_deckel"`
}

// PlayerData 座位数据：令牌即该座位的凭证
type PlayerData struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}
