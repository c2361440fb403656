package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/palemoky/gamehall/internal/config"
	"github.com/palemoky/gamehall/internal/game/room"
	"github.com/palemoky/gamehall/internal/logger"
	"github.com/palemoky/gamehall/internal/server"
	"github.com/palemoky/gamehall/internal/server/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	cfg, cfgErr := loadConfig(*configPath)
	if cfg == nil {
		log.Fatalf("加载配置失败: %v", cfgErr)
	}

	l, err := logger.Init(&cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfgErr != nil {
		l.Warn("配置文件不可用，使用默认配置", zap.String("path", *configPath), zap.Error(cfgErr))
	}

	if err := run(cfg, l); err != nil {
		l.Fatal("服务器异常退出", zap.Error(err))
	}
}

// loadConfig 配置文件不存在时退回默认配置（仍应用环境变量）
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg = config.Default()
	if envErr := config.ApplyEnv(cfg); envErr != nil {
		return nil, envErr
	}
	return cfg, err
}

func run(cfg *config.Config, l *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	rooms := room.NewManager(room.Options{
		Store:       store,
		Logger:      l,
		Game:        cfg.Game,
		SaveTimeout: cfg.Storage.SaveTimeoutDuration(),
	})
	defer rooms.Close()

	if store != nil {
		n, err := rooms.LoadRooms(ctx)
		if err != nil {
			l.Warn("恢复房间快照失败", zap.Error(err))
		} else {
			l.Info("♻️ 已恢复房间", zap.Int("rooms", n))
		}
	}

	go rooms.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	srv := server.NewServer(cfg, rooms, l)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	l.Info("正在关闭服务器...")
	// 再次收到信号时不再等待进行中的房间
	shutdownCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	srv.GracefulShutdown(shutdownCtx)
	return nil
}

// openStore 按配置选择快照存储，driver 为 none 时不持久化
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageNone:
		return nil, nil
	case config.StorageSQLite:
		s, err := storage.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("打开 sqlite 失败: %w", err)
		}
		return s, nil
	case config.StorageRedis, "":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis 连接失败: %w", err)
		}
		return storage.NewRedisStore(rdb), nil
	default:
		return nil, fmt.Errorf("未知的存储驱动: %q", cfg.Storage.Driver)
	}
}
