package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const createRoomsTable = `CREATE TABLE IF NOT EXISTS rooms (
	code       TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL DEFAULT (CAST(strftime('%s','now') AS INTEGER))
)`

// SQLiteStore 单文件 SQLite 存储，适合不部署 Redis 的单机环境
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite 打开（必要时创建）SQLite 数据库
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(createRoomsTable); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// SaveRoom 写入或覆盖房间快照
func (s *SQLiteStore) SaveRoom(ctx context.Context, code string, data *RoomData) error {
	if data == nil {
		return nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO rooms (code, data, updated_at) VALUES (?, ?, CAST(strftime('%s','now') AS INTEGER))
		 ON CONFLICT(code) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		code, string(raw),
	)
	if err != nil {
		return fmt.Errorf("save room %s: %w", code, err)
	}
	return nil
}

// LoadRoom 读取房间快照，不存在时返回 (nil, nil)
func (s *SQLiteStore) LoadRoom(ctx context.Context, code string) (*RoomData, error) {
	var raw string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT data FROM rooms WHERE code = ?`, code).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load room %s: %w", code, err)
	}

	var data RoomData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}
	return &data, nil
}

// DeleteRoom 删除房间快照
func (s *SQLiteStore) DeleteRoom(ctx context.Context, code string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM rooms WHERE code = ?`, code); err != nil {
		return fmt.Errorf("delete room %s: %w", code, err)
	}
	return nil
}

// GetAllRoomCodes 获取所有房间号
func (s *SQLiteStore) GetAllRoomCodes(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT code FROM rooms ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// Close 关闭数据库
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
