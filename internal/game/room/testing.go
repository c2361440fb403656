//go:build !production

package room

import (
	"fmt"

	"github.com/palemoky/gamehall/internal/game"
	"github.com/palemoky/gamehall/internal/server/session"
	"github.com/palemoky/gamehall/internal/types"
)

// AddRoomForTest 直接创建一个大厅房间，clients 依次入座（名字取连接 ID），第一个是房主
//
// 不发送任何消息，也不保存快照。
func (m *Manager) AddRoomForTest(code string, settings game.Settings, clients ...types.ClientInterface) *Room {
	r := &Room{
		Code:              code,
		Status:            StatusLobby,
		Settings:          normalizeSettings(settings),
		LastLobbyActivity: m.clock.Now(),
		m:                 m,
	}
	for _, c := range clients {
		token := session.NewToken()
		m.binder.Register(token, code)
		if _, err := m.binder.Bind(c.GetID(), token); err != nil {
			panic(fmt.Sprintf("bind %s: %v", c.GetID(), err))
		}
		c.SetRoom(code)
		r.Seats = append(r.Seats, &Seat{Token: token, Name: c.GetID(), Client: c})
	}

	m.mu.Lock()
	m.rooms[code] = r
	m.mu.Unlock()
	return r
}

// StartForTest 用指定引擎开局，build 拿到的是该局的房间调度器
func (r *Room) StartForTest(build func(sched game.Scheduler) game.Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch++
	r.Engine = build(roomScheduler{r: r, epoch: r.epoch})
	r.Status = StatusRunning
}

// TokenForTest 返回座位令牌
func (r *Room) TokenForTest(seat int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Seats[seat].Token
}

// EngineForTest 返回当前引擎
func (r *Room) EngineForTest() game.Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Engine
}
