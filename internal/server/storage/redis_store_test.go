package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client), mr
}

func sampleRoom(code string) *RoomData {
	return &RoomData{
		Code:              code,
		Status:            "running",
		Settings:          SettingsData{GameType: "kwyx"},
		HostSeat:          1,
		LastLobbyActivity: 1700000000000,
		Players: []PlayerData{
			{Token: "aa", Name: "Anna"},
			{Token: "bb", Name: "Ben"},
		},
		State: json.RawMessage(`{"game_type":"kwyx","current_player":0}`),
	}
}

func TestRedisStore_SaveLoadDeleteRoom(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	room := sampleRoom("ABCDE")
	require.NoError(t, store.SaveRoom(ctx, room.Code, room))

	loaded, err := store.LoadRoom(ctx, room.Code)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, room.Code, loaded.Code)
	assert.Equal(t, room.Status, loaded.Status)
	assert.Equal(t, room.Settings, loaded.Settings)
	assert.Equal(t, room.HostSeat, loaded.HostSeat)
	assert.Equal(t, room.Players, loaded.Players)
	assert.JSONEq(t, string(room.State), string(loaded.State))

	require.NoError(t, store.DeleteRoom(ctx, room.Code))

	loaded, err = store.LoadRoom(ctx, room.Code)
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStore_SaveNil(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	require.NoError(t, store.SaveRoom(context.Background(), "ABCDE", nil))
	assert.False(t, mr.Exists(roomKeyPrefix+"ABCDE"))
}

func TestRedisStore_GetAllRoomCodes(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	for _, code := range []string{"AAAAA", "BBBBB", "CCCCC"} {
		require.NoError(t, store.SaveRoom(ctx, code, sampleRoom(code)))
	}

	codes, err := store.GetAllRoomCodes(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AAAAA", "BBBBB", "CCCCC"}, codes)
}

func TestRedisStore_Expiration(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRoom(ctx, "ABCDE", sampleRoom("ABCDE")))
	assert.Equal(t, roomExpiration, mr.TTL(roomKeyPrefix+"ABCDE"))

	require.NoError(t, store.SetRoomExpiration(ctx, "ABCDE", time.Minute))
	mr.FastForward(2 * time.Minute)

	loaded, err := store.LoadRoom(ctx, "ABCDE")
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStore_CorruptData(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	require.NoError(t, mr.Set(roomKeyPrefix+"ABCDE", "{not json"))

	loaded, err := store.LoadRoom(context.Background(), "ABCDE")
	assert.Error(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStore_ServerDown(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	mr.Close()

	err := store.SaveRoom(context.Background(), "ABCDE", sampleRoom("ABCDE"))
	assert.Error(t, err)
}
