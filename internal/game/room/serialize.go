package room

import (
	"time"

	"github.com/palemoky/gamehall/internal/game"
	"github.com/palemoky/gamehall/internal/server/storage"
)

// toRoomDataLocked 房间快照（连接句柄不保存）
func (r *Room) toRoomDataLocked() *storage.RoomData {
	data := &storage.RoomData{
		Code:   r.Code,
		Status: string(r.Status),
		Settings: storage.SettingsData{
			GameType:  string(r.Settings.GameType),
			UseDeckel: r.Settings.UseDeckel,
		},
		HostSeat:          r.HostSeat,
		LastLobbyActivity: r.LastLobbyActivity.UnixMilli(),
		Players:           make([]storage.PlayerData, len(r.Seats)),
		State:             r.stateLocked(),
	}
	for i, s := range r.Seats {
		data.Players[i] = storage.PlayerData{Token: s.Token, Name: s.Name}
	}
	return data
}

// fromRoomData 由快照重建房间，所有座位离线；运行中的引擎由调用方恢复
func (m *Manager) fromRoomData(data *storage.RoomData) *Room {
	now := m.clock.Now()
	r := &Room{
		Code:   data.Code,
		Status: parseStatus(data.Status),
		Settings: game.Settings{
			GameType:  game.NormalizeType(data.Settings.GameType),
			UseDeckel: data.Settings.UseDeckel,
		},
		HostSeat:          data.HostSeat,
		LastLobbyActivity: now,
		emptySince:        now,
		m:                 m,
	}
	if data.LastLobbyActivity > 0 {
		r.LastLobbyActivity = time.UnixMilli(data.LastLobbyActivity)
	}
	for _, p := range data.Players {
		r.Seats = append(r.Seats, &Seat{Token: p.Token, Name: p.Name})
	}
	if r.HostSeat < 0 || r.HostSeat >= len(r.Seats) {
		r.HostSeat = 0
	}
	return r
}
