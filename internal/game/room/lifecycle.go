package room

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/gamehall/internal/protocol"
	"github.com/palemoky/gamehall/internal/protocol/codec"
	"github.com/palemoky/gamehall/internal/types"
)

func randomSeat(n int) int { return rand.IntN(n) }

// HandleDisconnect 连接断开：座位只置为离线，申请被撤回
//
// 进行中的游戏不会因为断线失去座位，只有大厅会因为无人在线被删除。
func (m *Manager) HandleDisconnect(client types.ClientInterface) {
	if m.detach(client) {
		m.log.Info("📴 玩家掉线", zap.String("conn", client.GetID()))
	}
}

// detach 解除连接在所有相关房间里的座位和申请
func (m *Manager) detach(client types.ClientInterface) bool {
	connID := client.GetID()

	var codes []string
	if bd, ok := m.binder.Unbind(connID); ok {
		codes = append(codes, bd.Code)
	}
	if code := client.GetRoom(); code != "" && !slices.Contains(codes, code) {
		codes = append(codes, code)
	}

	seated := false
	for _, code := range codes {
		r := m.GetRoom(code)
		if r == nil {
			continue
		}
		r.mu.Lock()
		if !r.closed && r.detachLocked(connID) {
			seated = true
		}
		r.mu.Unlock()
	}
	client.SetRoom("")
	return seated
}

// detachLocked 返回连接是否占有座位
func (r *Room) detachLocked(connID string) bool {
	if r.dropRequestsFrom(connID) {
		r.sendRequestsLocked()
	}

	seat := r.seatOfConn(connID)
	if seat < 0 {
		return false
	}
	r.Seats[seat].Client = nil
	if !r.anyConnected() {
		r.emptySince = r.m.clock.Now()
	}
	r.broadcastRoomUpdateLocked()
	return true
}

func (m *Manager) dropRequests(code, connID string) {
	r := m.GetRoom(code)
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dropRequestsFrom(connID) {
		r.sendRequestsLocked()
	}
}

// Run 定期清理过期房间，直到 ctx 结束
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.CleanupIntervalDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(m.clock.Now())
		}
	}
}

// sweep 检查所有房间的过期规则
func (m *Manager) sweep(now time.Time) {
	for _, r := range m.snapshot() {
		r.mu.Lock()
		if !r.closed {
			m.sweepLocked(r, now)
		}
		r.mu.Unlock()
	}
}

func (m *Manager) sweepLocked(r *Room, now time.Time) {
	switch r.Status {
	case StatusLobby:
		remaining := r.LastLobbyActivity.Add(m.cfg.LobbyInactivityDuration()).Sub(now)
		if remaining <= 0 {
			r.broadcastLocked(codec.MustNewMessage(protocol.MsgLobbyDeleted, protocol.NoticePayload{
				Code:    r.Code,
				Message: "大厅长时间无操作，已被删除",
			}))
			m.removeLocked(r, "大厅无操作超时")
			return
		}

		if !r.anyConnected() {
			// 给刷新页面的玩家留出重连时间
			if r.emptySince.IsZero() {
				r.emptySince = now
			}
			if now.Sub(r.emptySince) >= m.cfg.LobbyWarningDuration() {
				m.removeLocked(r, "大厅无人在线")
			}
			return
		}

		if remaining <= m.cfg.LobbyWarningDuration() && !r.lobbyWarned {
			r.lobbyWarned = true
			r.broadcastLocked(codec.MustNewMessage(protocol.MsgLobbyExpiring, protocol.LobbyExpiringPayload{
				Code:        r.Code,
				SecondsLeft: max(1, int(math.Ceil(remaining.Seconds()))),
			}))
		}

	case StatusRunning:
		if r.anyConnected() || r.emptySince.IsZero() {
			return
		}
		if now.Sub(r.emptySince) >= m.cfg.IdleRoomTimeoutDuration() {
			m.removeLocked(r, "游戏房间长时间无人在线")
		}
	}
}

// removeLocked 删除房间：取消计时器，作废令牌，删除快照
func (m *Manager) removeLocked(r *Room, reason string) {
	r.closed = true
	if r.Engine != nil {
		r.Engine.Close()
	}
	r.epoch++

	for _, s := range r.Seats {
		if s.Client != nil && s.Client.GetRoom() == r.Code {
			s.Client.SetRoom("")
		}
	}
	for _, req := range r.Requests {
		if req.Client.GetRoom() == r.Code {
			req.Client.SetRoom("")
		}
	}
	m.binder.ForgetRoom(r.Code)

	m.mu.Lock()
	if m.rooms[r.Code] == r {
		delete(m.rooms, r.Code)
	}
	m.mu.Unlock()

	m.deleteSnapshot(r.Code)
	m.log.Info("🧹 房间已删除", zap.String("room", r.Code), zap.String("reason", reason))
}

// LoadRooms 启动时从快照恢复房间，所有座位离线，等待玩家凭令牌重连
func (m *Manager) LoadRooms(ctx context.Context) (int, error) {
	if m.store == nil {
		return 0, nil
	}
	codes, err := m.store.GetAllRoomCodes(ctx)
	if err != nil {
		return 0, fmt.Errorf("list room snapshots: %w", err)
	}

	loaded := 0
	for _, code := range codes {
		data, err := m.store.LoadRoom(ctx, code)
		if err != nil {
			m.log.Warn("读取房间快照失败", zap.String("room", code), zap.Error(err))
			continue
		}
		if data == nil || data.Code == "" || len(data.Players) == 0 {
			continue
		}

		r := m.fromRoomData(data)
		r.mu.Lock()
		if r.Status == StatusRunning {
			r.epoch++
			engine, err := r.restoreEngineLocked(data.State)
			if err != nil {
				m.log.Warn("游戏状态无法恢复，房间回到大厅", zap.String("room", r.Code), zap.Error(err))
				r.Status = StatusLobby
				r.LastLobbyActivity = m.clock.Now()
			} else {
				r.Engine = engine
			}
		}

		m.mu.Lock()
		_, exists := m.rooms[r.Code]
		if !exists {
			m.rooms[r.Code] = r
		}
		m.mu.Unlock()
		if !exists {
			for _, s := range r.Seats {
				m.binder.Register(s.Token, r.Code)
			}
			loaded++
		} else {
			r.closed = true
		}
		r.mu.Unlock()
	}

	m.log.Info("📦 已从快照恢复房间", zap.Int("rooms", loaded))
	return loaded, nil
}

// Close 取消所有计时器并写完排队中的快照
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		for _, r := range m.snapshot() {
			r.mu.Lock()
			if r.Engine != nil {
				r.Engine.Close()
			}
			r.epoch++
			r.mu.Unlock()
		}
		close(m.done)
		<-m.saveDone
	})
}
