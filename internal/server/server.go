// Package server 提供 websocket 入口：连接管理、安全限制、维护模式和优雅关闭。
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/palemoky/gamehall/internal/config"
	"github.com/palemoky/gamehall/internal/game/room"
	"github.com/palemoky/gamehall/internal/server/handler"
)

// Server WebSocket 服务器
type Server struct {
	config   *config.Config
	log      *zap.Logger
	rooms    *room.Manager
	handler  *handler.Handler
	upgrader websocket.Upgrader
	router   *gin.Engine

	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 安全组件
	rateLimiter    *RateLimiter
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter
	ipFilter       *IPFilter

	// 连接控制
	maxConnections int
	semaphore      chan struct{}

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	httpServer *http.Server
}

// NewServer 创建服务器实例，房间管理器由调用方创建并负责关闭
func NewServer(cfg *config.Config, rooms *room.Manager, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		config:  cfg,
		log:     log,
		rooms:   rooms,
		clients: make(map[string]*Client),
		rateLimiter: NewRateLimiter(
			cfg.Security.RateLimit.MaxPerSecond,
			cfg.Security.RateLimit.MaxPerMinute,
			cfg.Security.RateLimit.BanDurationTime(),
			log,
		),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond),
		ipFilter:       NewIPFilter(cfg.Security.IPWhitelist, cfg.Security.IPBlacklist),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// 来源已在升级前校验
		CheckOrigin: func(*http.Request) bool { return true },
	}

	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server: s,
		Rooms:  rooms,
		Logger: log,
	})

	s.router = s.newRouter()

	log.Info("🔒 安全配置",
		zap.Int("conn_per_second", cfg.Security.RateLimit.MaxPerSecond),
		zap.Int("msg_per_second", cfg.Security.MessageLimit.MaxPerSecond),
		zap.Int("max_connections", cfg.Server.MaxConnections),
		zap.Strings("allowed_origins", cfg.Security.AllowedOrigins))

	return s
}

func (s *Server) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/ws", s.handleWebSocket)
	r.GET("/health", s.handleHealth)
	return r
}

// Handler 返回 HTTP 处理器
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 启动服务器，阻塞直到关闭
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	go s.monitorStats(ctx)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.log.Info("🚀 服务器启动", zap.String("addr", "ws://"+addr+"/ws"), zap.Int("cpus", runtime.NumCPU()))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
