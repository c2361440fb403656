package server

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/gamehall/internal/protocol"
	"github.com/palemoky/gamehall/internal/protocol/codec"
)

const statsInterval = 30 * time.Second

// monitorStats 定期记录服务器状态
func (s *Server) monitorStats(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			s.log.Info("📊 [监控]",
				zap.Int("online", s.GetOnlineCount()),
				zap.Int("rooms", s.rooms.RoomCount()),
				zap.Int("running", s.rooms.RunningCount()),
				zap.Int("goroutines", runtime.NumGoroutine()),
				zap.String("conns", fmt.Sprintf("%d/%d", len(s.semaphore), s.maxConnections)),
				zap.Float64("alloc_mb", float64(m.Alloc)/1024/1024))
		}
	}
}

// EnterMaintenanceMode 进入维护模式：拒绝新连接和新房间，已有房间照常进行
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	s.BroadcastToIdle(codec.MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    protocol.ErrCodeServerMaintenance,
		Message: "👷🏻‍♂️ 维护模式：停止新的房间创建",
	}))

	s.log.Info("🔧 进入维护模式：停止新连接和房间创建")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 进入维护模式，等待进行中的房间结束（最多 ShutdownTimeout），然后关闭
func (s *Server) GracefulShutdown(ctx context.Context) {
	s.EnterMaintenanceMode()

	game := s.config.Game
	deadline := time.Now().Add(game.ShutdownTimeoutDuration())
	interval := game.ShutdownCheckIntervalDuration()
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

wait:
	for time.Now().Before(deadline) {
		running := s.rooms.RunningCount()
		if running == 0 {
			s.log.Info("✅ 所有房间已结束", zap.Duration("delay", game.RoomCleanupDelayDuration()))
			break
		}
		s.log.Info("⏳ 等待进行中的房间结束", zap.Int("running", running))
		select {
		case <-ctx.Done():
			break wait
		case <-ticker.C:
		}
	}

	if running := s.rooms.RunningCount(); running > 0 {
		s.log.Warn("⚠️ 等待超时，仍有房间进行中，强制关闭", zap.Int("running", running))
	}

	if delay := game.RoomCleanupDelayDuration(); delay > 0 {
		s.Broadcast(codec.MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
			Code:    protocol.ErrCodeServerMaintenance,
			Message: fmt.Sprintf("🚧 服务器将在 %d 秒后停机维护！", game.RoomCleanupDelay),
		}))
		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
	}

	s.Shutdown(context.Background())
}

// Shutdown 关闭 HTTP 服务和所有连接
func (s *Server) Shutdown(ctx context.Context) {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.log.Warn("HTTP 服务关闭失败", zap.Error(err))
		}
	}

	for _, client := range s.snapshotClients() {
		client.Close()
	}
	s.rateLimiter.Stop()

	s.log.Info("服务器已关闭")
}
