//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/gamehall/internal/server/storage"
)

// MockStore 房间快照存储 mock
type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveRoom(ctx context.Context, code string, data *storage.RoomData) error {
	args := m.Called(ctx, code, data)
	return args.Error(0)
}

func (m *MockStore) LoadRoom(ctx context.Context, code string) (*storage.RoomData, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.RoomData), args.Error(1)
}

func (m *MockStore) DeleteRoom(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockStore) GetAllRoomCodes(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
