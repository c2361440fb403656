package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/palemoky/gamehall/internal/protocol"
	"github.com/palemoky/gamehall/internal/protocol/codec"
)

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(c *gin.Context) {
	clientIP := GetClientIP(c.Request)

	// 维护模式检查（最优先）
	if s.IsMaintenanceMode() {
		s.log.Info("🔧 维护模式，拒绝新连接", zap.String("ip", clientIP))
		c.String(http.StatusServiceUnavailable, "Server is under maintenance, please try again later")
		return
	}

	// 连接数限制：信号量在连接断开时释放
	select {
	case s.semaphore <- struct{}{}:
	default:
		s.log.Warn("🚫 达到最大连接数限制", zap.Int("max", s.maxConnections), zap.String("ip", clientIP))
		c.String(http.StatusServiceUnavailable, "Server Full")
		return
	}
	release := func() { <-s.semaphore }

	if !s.ipFilter.IsAllowed(clientIP) {
		release()
		s.log.Warn("🚫 IP 被过滤器拒绝", zap.String("ip", clientIP))
		c.String(http.StatusForbidden, "Forbidden")
		return
	}

	if !s.originChecker.Check(c.Request) {
		release()
		s.log.Warn("🚫 来源验证失败", zap.String("origin", c.GetHeader("Origin")), zap.String("ip", clientIP))
		c.String(http.StatusForbidden, "Origin not allowed")
		return
	}

	if !s.rateLimiter.Allow(clientIP) {
		release()
		c.String(http.StatusTooManyRequests, "Too Many Requests")
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		release()
		s.log.Warn("WebSocket 升级失败", zap.String("ip", clientIP), zap.Error(err))
		return
	}

	client := NewClient(s, conn)
	client.IP = clientIP
	s.registerClient(client)

	client.SendMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		ConnectionID: client.ID,
	}))

	s.log.Info("✅ 连接已建立", zap.String("conn", client.ID), zap.String("ip", clientIP))

	go client.WritePump()
	go func() {
		defer release()
		client.ReadPump()
	}()
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"online":      s.GetOnlineCount(),
		"rooms":       s.rooms.RoomCount(),
		"running":     s.rooms.RunningCount(),
		"maintenance": s.IsMaintenanceMode(),
	})
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

// unregisterClient 注销客户端
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[client.ID]; ok {
		delete(s.clients, client.ID)
		s.log.Info("❌ 连接已断开", zap.String("conn", client.ID))
	}
}
