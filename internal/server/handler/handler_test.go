package handler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/palemoky/gamehall/internal/config"
	"github.com/palemoky/gamehall/internal/game"
	"github.com/palemoky/gamehall/internal/game/room"
	"github.com/palemoky/gamehall/internal/protocol"
	"github.com/palemoky/gamehall/internal/protocol/codec"
	"github.com/palemoky/gamehall/internal/testutil"
)

func newHandler(t *testing.T, maintenance bool) (*Handler, *room.Manager) {
	t.Helper()
	rooms := room.NewManager(room.Options{
		Logger: zap.NewNop(),
		Clock:  testutil.NewFakeScheduler(),
		Game:   config.Default().Game,
	})
	t.Cleanup(rooms.Close)

	srv := new(testutil.MockServer)
	srv.On("IsMaintenanceMode").Return(maintenance)

	return NewHandler(HandlerDeps{Server: srv, Rooms: rooms, Logger: zap.NewNop()}), rooms
}

func send(h *Handler, c *testutil.SimpleClient, msgType protocol.MessageType, payload any) {
	h.Handle(c, codec.MustNewMessage(msgType, payload))
}

func lastError(t *testing.T, c *testutil.SimpleClient) *protocol.ErrorPayload {
	t.Helper()
	msg := c.LastOfType(protocol.MsgError)
	require.NotNil(t, msg, "应收到错误消息")
	p, err := codec.ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	return p
}

func joined(t *testing.T, c *testutil.SimpleClient) *protocol.RoomJoinedPayload {
	t.Helper()
	msg := c.LastOfType(protocol.MsgRoomJoined)
	require.NotNil(t, msg, "应收到 room_joined")
	p, err := codec.ParsePayload[protocol.RoomJoinedPayload](msg)
	require.NoError(t, err)
	return p
}

// seatGuests 房主建房，其余人申请加入并被批准
func seatGuests(t *testing.T, h *Handler, settings protocol.SettingsPayload, host *testutil.SimpleClient, guests ...*testutil.SimpleClient) (code, hostToken string) {
	t.Helper()
	send(h, host, protocol.MsgCreateRoom, protocol.CreateRoomPayload{Name: host.ID, SettingsPayload: settings})
	hj := joined(t, host)

	for _, g := range guests {
		send(h, g, protocol.MsgRequestJoin, protocol.JoinRequestPayload{Code: hj.Code, Name: g.ID})
		notice := host.LastOfType(protocol.MsgJoinRequestNotice)
		require.NotNil(t, notice)
		n, err := codec.ParsePayload[protocol.JoinRequestNoticePayload](notice)
		require.NoError(t, err)

		send(h, host, protocol.MsgApproveJoin, protocol.ApproveJoinPayload{
			RoomRef:   protocol.RoomRef{Code: hj.Code, Token: hj.Token},
			RequestID: n.RequestID,
			Accept:    true,
		})
		assert.Equal(t, g.ID, joined(t, g).Name)
	}
	return hj.Code, hj.Token
}

func TestHandle_UnknownType(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t, false)
	c := testutil.NewSimpleClient("anna")

	h.Handle(c, &protocol.Message{Type: "fly_to_moon"})

	assert.Equal(t, protocol.ErrCodeInvalidMsg, lastError(t, c).Code)
}

func TestHandle_InvalidPayload(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t, false)
	c := testutil.NewSimpleClient("anna")

	h.Handle(c, &protocol.Message{Type: protocol.MsgToggleHold, Payload: []byte(`{"index":"zwei"}`)})
	assert.Equal(t, protocol.ErrCodeInvalidMsg, lastError(t, c).Code)

	c.Reset()
	h.Handle(c, &protocol.Message{Type: protocol.MsgCreateRoom, Payload: []byte(`[1,2]`)})
	assert.Equal(t, protocol.ErrCodeInvalidMsg, lastError(t, c).Code)
}

func TestHandlePing(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t, false)
	c := testutil.NewSimpleClient("anna")

	send(h, c, protocol.MsgPing, protocol.PingPayload{Timestamp: 42})

	msg := c.LastOfType(protocol.MsgPong)
	require.NotNil(t, msg)
	p, err := codec.ParsePayload[protocol.PongPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.ClientTimestamp)
	assert.Positive(t, p.ServerTimestamp)
}

func TestHandleCreateRoom_Maintenance(t *testing.T) {
	t.Parallel()
	h, rooms := newHandler(t, true)
	c := testutil.NewSimpleClient("anna")

	send(h, c, protocol.MsgCreateRoom, protocol.CreateRoomPayload{Name: "Anna"})
	assert.Equal(t, protocol.ErrCodeServerMaintenance, lastError(t, c).Code)

	send(h, c, protocol.MsgEnterRoom, protocol.EnterRoomPayload{Name: "Anna", RequestedCode: "ABCDE"})
	assert.Equal(t, protocol.ErrCodeServerMaintenance, lastError(t, c).Code)
	assert.Zero(t, rooms.RoomCount())
}

func TestHandleEnterRoom_MaintenanceAllowsExistingRoom(t *testing.T) {
	t.Parallel()
	h, rooms := newHandler(t, true)
	anna := testutil.NewSimpleClient("anna")
	rooms.AddRoomForTest("ABCDE", game.Settings{}, anna)

	ben := testutil.NewSimpleClient("ben")
	send(h, ben, protocol.MsgEnterRoom, protocol.EnterRoomPayload{Name: "Ben", RequestedCode: "abcde"})

	assert.Nil(t, ben.LastOfType(protocol.MsgError))
	assert.NotNil(t, ben.LastOfType(protocol.MsgJoinPending))
}

func TestRoomFlow_StartAndRoll(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t, false)
	anna := testutil.NewSimpleClient("anna")
	ben := testutil.NewSimpleClient("ben")

	code, hostToken := seatGuests(t, h, protocol.SettingsPayload{GameType: "schocken"}, anna, ben)

	send(h, anna, protocol.MsgStartGame, protocol.RoomRef{Code: code, Token: hostToken})
	require.Nil(t, anna.LastOfType(protocol.MsgError))
	require.NotNil(t, ben.LastOfType(protocol.MsgStateUpdate))

	// 不是 ben 的回合
	send(h, ben, protocol.MsgRoll, protocol.RoomRef{Code: code})
	assert.Equal(t, protocol.ErrCodeNotYourTurn, lastError(t, ben).Code)
	assert.Nil(t, anna.LastOfType(protocol.MsgError), "错误只发给请求方")

	ben.Reset()
	send(h, anna, protocol.MsgRoll, protocol.RoomRef{Code: code})
	assert.Nil(t, anna.LastOfType(protocol.MsgError))
	assert.Len(t, ben.MessagesOfType(protocol.MsgStateUpdate), 1)
}

func TestRoomFlow_StartRequiresHost(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t, false)
	anna := testutil.NewSimpleClient("anna")
	ben := testutil.NewSimpleClient("ben")

	code, _ := seatGuests(t, h, protocol.SettingsPayload{}, anna, ben)
	benToken := joined(t, ben).Token

	send(h, ben, protocol.MsgStartGame, protocol.RoomRef{Code: code, Token: benToken})
	assert.Equal(t, protocol.ErrCodeHostOnly, lastError(t, ben).Code)
}

func TestSkatIntents_InvalidCard(t *testing.T) {
	t.Parallel()
	h, rooms := newHandler(t, false)
	cs := []*testutil.SimpleClient{
		testutil.NewSimpleClient("anna"),
		testutil.NewSimpleClient("ben"),
		testutil.NewSimpleClient("cleo"),
	}
	code, hostToken := seatGuests(t, h, protocol.SettingsPayload{GameType: "skat"}, cs[0], cs[1], cs[2])
	send(h, cs[0], protocol.MsgStartGame, protocol.RoomRef{Code: code, Token: hostToken})
	require.Nil(t, cs[0].LastOfType(protocol.MsgError))

	r := rooms.GetRoom(code)
	before := r.State()
	current := r.EngineForTest().CurrentPlayer()
	other := cs[(current+1)%len(cs)]

	garbled := []any{
		protocol.SkatPlayCardPayload{RoomRef: protocol.RoomRef{Code: code}},
		protocol.SkatPlayCardPayload{RoomRef: protocol.RoomRef{Code: code}, Card: &protocol.CardInfo{Suit: "joker", Rank: "A"}},
		protocol.SkatDiscardPayload{RoomRef: protocol.RoomRef{Code: code}, Cards: []protocol.CardInfo{{Suit: "c", Rank: "7"}, {Suit: "c", Rank: "1"}}},
	}
	msgTypes := []protocol.MessageType{protocol.MsgSkatPlayCard, protocol.MsgSkatPlayCard, protocol.MsgSkatDiscard}

	for i, p := range garbled {
		// 先校验出牌权
		send(h, other, msgTypes[i], p)
		assert.Equal(t, protocol.ErrCodeNotYourTurn, lastError(t, other).Code, "case %d", i)

		send(h, cs[current], msgTypes[i], p)
		assert.Equal(t, protocol.ErrCodeInvalidCard, lastError(t, cs[current]).Code, "case %d", i)
	}
	assert.JSONEq(t, string(before), string(r.State()))
}

func TestSkatIntents_RoutedToEngine(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t, false)
	cs := []*testutil.SimpleClient{
		testutil.NewSimpleClient("anna"),
		testutil.NewSimpleClient("ben"),
		testutil.NewSimpleClient("cleo"),
	}
	code, hostToken := seatGuests(t, h, protocol.SettingsPayload{GameType: "skat"}, cs[0], cs[1], cs[2])

	send(h, cs[0], protocol.MsgStartGame, protocol.RoomRef{Code: code, Token: hostToken})
	require.Nil(t, cs[0].LastOfType(protocol.MsgError))

	// 叫牌阶段不能出牌
	for _, c := range cs {
		c.Reset()
		send(h, c, protocol.MsgSkatPlayCard, protocol.SkatPlayCardPayload{
			RoomRef: protocol.RoomRef{Code: code},
			Card:    &protocol.CardInfo{Suit: "♣", Rank: "J"},
		})
		e := lastError(t, c)
		assert.Contains(t, []int{protocol.ErrCodeWrongPhase, protocol.ErrCodeNotYourTurn}, e.Code)
	}
}

func TestIntentDecoders_CoverGameMessages(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t, false)

	for _, msgType := range []protocol.MessageType{
		protocol.MsgRoll, protocol.MsgToggleHold, protocol.MsgEndTurn,
		protocol.MsgSkatBid, protocol.MsgSkatHold, protocol.MsgSkatPass,
		protocol.MsgSkatTakeSkat, protocol.MsgSkatDiscard,
		protocol.MsgSkatChooseGame, protocol.MsgSkatPlayCard,
	} {
		_, ok := h.handlers[msgType]
		assert.True(t, ok, "缺少 %s 的处理器", msgType)
	}
}

func TestDisconnect_ReleasesSeat(t *testing.T) {
	t.Parallel()
	h, rooms := newHandler(t, false)
	anna := testutil.NewSimpleClient("anna")
	ben := testutil.NewSimpleClient("ben")
	code, _ := seatGuests(t, h, protocol.SettingsPayload{}, anna, ben)

	h.Disconnect(ben)

	info := rooms.GetRoom(code).Info()
	require.Len(t, info.Players, 2)
	assert.True(t, info.Players[0].Connected)
	assert.False(t, info.Players[1].Connected)
}

func TestSendError_UnknownError(t *testing.T) {
	t.Parallel()
	h, _ := newHandler(t, false)

	c := new(testutil.MockClient)
	c.On("GetID").Return("anna")
	c.On("SendMessage", mock.MatchedBy(func(msg *protocol.Message) bool {
		if msg.Type != protocol.MsgError {
			return false
		}
		p, err := codec.ParsePayload[protocol.ErrorPayload](msg)
		return err == nil && p.Code == protocol.ErrCodeUnknown && p.Message == "boom"
	})).Once()

	h.sendError(c, errors.New("boom"))

	c.AssertExpectations(t)
}
