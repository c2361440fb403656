package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host" env:"GAMEHALL_HOST"`
	Port           int    `yaml:"port" env:"GAMEHALL_PORT"`
	MaxConnections int    `yaml:"max_connections" env:"GAMEHALL_MAX_CONNECTIONS"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"GAMEHALL_REDIS_ADDR"`
	Password string `yaml:"password" env:"GAMEHALL_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"GAMEHALL_REDIS_DB"`
}

// 快照存储驱动
const (
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
	StorageNone   = "none"
)

// StorageConfig 房间快照存储配置
type StorageConfig struct {
	Driver      string `yaml:"driver" env:"GAMEHALL_STORAGE_DRIVER"`   // redis / sqlite / none
	SQLitePath  string `yaml:"sqlite_path" env:"GAMEHALL_SQLITE_PATH"` // sqlite 数据库文件
	SaveTimeout int    `yaml:"save_timeout"`                           // 单次保存超时（秒）
}

// SaveTimeoutDuration 返回单次保存超时
func (c *StorageConfig) SaveTimeoutDuration() time.Duration {
	return time.Duration(c.SaveTimeout) * time.Second
}

// GameConfig 游戏配置
type GameConfig struct {
	KwyxCountdown         int `yaml:"kwyx_countdown"`          // Kwyx 被动玩家的标记窗口（秒）
	LobbyInactivity       int `yaml:"lobby_inactivity"`        // 大厅无操作多久后删除（秒）
	LobbyWarning          int `yaml:"lobby_warning"`           // 删除前多久发出提醒（秒）
	IdleRoomTimeout       int `yaml:"idle_room_timeout"`       // 进行中的房间无人在线多久后清理（分钟）
	CleanupInterval       int `yaml:"cleanup_interval"`        // 清理检查间隔（秒）
	ShutdownTimeout       int `yaml:"shutdown_timeout"`        // 优雅关闭最长等待（秒）
	ShutdownCheckInterval int `yaml:"shutdown_check_interval"` // 关闭时检查房间的间隔（秒）
	RoomCleanupDelay      int `yaml:"room_cleanup_delay"`      // 关闭前的缓冲时间（秒）
}

// KwyxCountdownDuration 返回 Kwyx 倒计时
func (c *GameConfig) KwyxCountdownDuration() time.Duration {
	return time.Duration(c.KwyxCountdown) * time.Second
}

// LobbyInactivityDuration 返回大厅过期时长
func (c *GameConfig) LobbyInactivityDuration() time.Duration {
	return time.Duration(c.LobbyInactivity) * time.Second
}

// LobbyWarningDuration 返回大厅过期提醒时长
func (c *GameConfig) LobbyWarningDuration() time.Duration {
	return time.Duration(c.LobbyWarning) * time.Second
}

// IdleRoomTimeoutDuration 返回无人在线房间的清理时长
func (c *GameConfig) IdleRoomTimeoutDuration() time.Duration {
	return time.Duration(c.IdleRoomTimeout) * time.Minute
}

// CleanupIntervalDuration 返回清理间隔
func (c *GameConfig) CleanupIntervalDuration() time.Duration {
	return time.Duration(c.CleanupInterval) * time.Second
}

// ShutdownTimeoutDuration 返回优雅关闭超时
func (c *GameConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// ShutdownCheckIntervalDuration 返回关闭检查间隔
func (c *GameConfig) ShutdownCheckIntervalDuration() time.Duration {
	return time.Duration(c.ShutdownCheckInterval) * time.Second
}

// RoomCleanupDelayDuration 返回关闭缓冲时间
func (c *GameConfig) RoomCleanupDelayDuration() time.Duration {
	return time.Duration(c.RoomCleanupDelay) * time.Second
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins" env:"GAMEHALL_ALLOWED_ORIGINS" envSeparator:","`
	IPWhitelist    []string           `yaml:"ip_whitelist" env:"GAMEHALL_IP_WHITELIST" envSeparator:","` // 非空时只放行名单内的 IP
	IPBlacklist    []string           `yaml:"ip_blacklist" env:"GAMEHALL_IP_BLACKLIST" envSeparator:","`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
}

// RateLimitConfig 连接速率限制
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // 封禁时长（秒）
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// MessageLimitConfig 消息速率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string        `yaml:"level" env:"GAMEHALL_LOG_LEVEL"`   // debug / info / warn / error
	Format string        `yaml:"format" env:"GAMEHALL_LOG_FORMAT"` // console / json
	Output string        `yaml:"output" env:"GAMEHALL_LOG_OUTPUT"` // stdout / file / both
	File   LogFileConfig `yaml:"file"`
}

// LogFileConfig 日志文件轮转配置
type LogFileConfig struct {
	Path       string `yaml:"path"`
	Filename   string `yaml:"filename"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxAge     int    `yaml:"max_age"`  // 天
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}

// Load 加载配置文件，未设置的字段使用默认值，最后应用环境变量覆盖
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.fillDefaults()

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv 用 GAMEHALL_* 环境变量覆盖配置
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// fillDefaults 设置默认值
func (c *Config) fillDefaults() {
	def := Default()

	if c.Server.Host == "" {
		c.Server.Host = def.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = def.Server.MaxConnections
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = def.Redis.Addr
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = def.Storage.Driver
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = def.Storage.SQLitePath
	}
	if c.Storage.SaveTimeout == 0 {
		c.Storage.SaveTimeout = def.Storage.SaveTimeout
	}

	g, dg := &c.Game, def.Game
	if g.KwyxCountdown == 0 {
		g.KwyxCountdown = dg.KwyxCountdown
	}
	if g.LobbyInactivity == 0 {
		g.LobbyInactivity = dg.LobbyInactivity
	}
	if g.LobbyWarning == 0 {
		g.LobbyWarning = dg.LobbyWarning
	}
	if g.IdleRoomTimeout == 0 {
		g.IdleRoomTimeout = dg.IdleRoomTimeout
	}
	if g.CleanupInterval == 0 {
		g.CleanupInterval = dg.CleanupInterval
	}
	if g.ShutdownTimeout == 0 {
		g.ShutdownTimeout = dg.ShutdownTimeout
	}
	if g.ShutdownCheckInterval == 0 {
		g.ShutdownCheckInterval = dg.ShutdownCheckInterval
	}

	s := &c.Security
	if len(s.AllowedOrigins) == 0 {
		s.AllowedOrigins = def.Security.AllowedOrigins
	}
	if s.RateLimit.MaxPerSecond == 0 {
		s.RateLimit.MaxPerSecond = def.Security.RateLimit.MaxPerSecond
	}
	if s.RateLimit.MaxPerMinute == 0 {
		s.RateLimit.MaxPerMinute = def.Security.RateLimit.MaxPerMinute
	}
	if s.RateLimit.BanDuration == 0 {
		s.RateLimit.BanDuration = def.Security.RateLimit.BanDuration
	}
	if s.MessageLimit.MaxPerSecond == 0 {
		s.MessageLimit.MaxPerSecond = def.Security.MessageLimit.MaxPerSecond
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Log.Output == "" {
		c.Log.Output = def.Log.Output
	}
	if c.Log.File.Path == "" {
		c.Log.File = def.Log.File
	}
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           3000,
			MaxConnections: 2000,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Storage: StorageConfig{
			Driver:      StorageRedis,
			SQLitePath:  "data/rooms.db",
			SaveTimeout: 3,
		},
		Game: GameConfig{
			KwyxCountdown:         10,
			LobbyInactivity:       120,
			LobbyWarning:          30,
			IdleRoomTimeout:       60,
			CleanupInterval:       5,
			ShutdownTimeout:       600,
			ShutdownCheckInterval: 10,
			RoomCleanupDelay:      0,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"*"},
			RateLimit: RateLimitConfig{
				MaxPerSecond: 10,
				MaxPerMinute: 60,
				BanDuration:  60,
			},
			MessageLimit: MessageLimitConfig{
				MaxPerSecond: 20,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: "stdout",
			File: LogFileConfig{
				Path:       "logs",
				Filename:   "gamehall.log",
				MaxSize:    100,
				MaxAge:     7,
				MaxBackups: 5,
				Compress:   true,
			},
		},
	}
}
