// Package room 管理房间：座位与令牌、大厅生命周期、回合授权，以及把意图交给游戏引擎。
package room

import (
	"encoding/json"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/gamehall/internal/apperrors"
	"github.com/palemoky/gamehall/internal/game"
	"github.com/palemoky/gamehall/internal/protocol"
	"github.com/palemoky/gamehall/internal/protocol/codec"
	"github.com/palemoky/gamehall/internal/types"
)

const (
	codeLength = 5                                 // 房间号长度
	codeChars  = "23456789ABCDEFGHJKMNPQRSTUVWXYZ" // 房间号字符集（去掉易混淆的 0/1/I/L/O）
)

// NormalizeCode 规范化房间号
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode 房间号是否合法（需先规范化）
func ValidCode(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for _, c := range code {
		if !strings.ContainsRune(codeChars, c) {
			return false
		}
	}
	return true
}

func randomCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = codeChars[rand.IntN(len(codeChars))]
	}
	return string(code)
}

// Seat 房间中的座位
type Seat struct {
	Token  string
	Name   string
	Client types.ClientInterface // nil 表示离线
}

// Connected 座位是否有连接
func (s *Seat) Connected() bool { return s.Client != nil }

// JoinRequest 待房主审批的加入申请
type JoinRequest struct {
	ID          string
	Name        string
	Client      types.ClientInterface
	RequestedAt time.Time
}

// Room 游戏房间
//
// 房间内的所有修改都在 mu 内完成，同一房间的意图严格按到达顺序处理。
type Room struct {
	Code              string
	Status            Status
	Settings          game.Settings
	Seats             []*Seat
	HostSeat          int
	Requests          []*JoinRequest
	Engine            game.Engine // 大厅中为 nil
	LastLobbyActivity time.Time

	lobbyWarned bool
	emptySince  time.Time // 最后一个在线座位断开的时间
	epoch       int       // 每局游戏一个纪元，旧纪元的计时器回调被忽略
	closed      bool

	m  *Manager
	mu sync.Mutex
}

// Apply 校验回合授权后把意图交给引擎
//
// 授权失败或引擎拒绝时状态不变，错误只返回给调用方。
func (r *Room) Apply(connID string, intent game.Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return apperrors.ErrRoomNotFound
	}
	if r.Status != StatusRunning || r.Engine == nil {
		return apperrors.ErrGameNotStart
	}

	var malformed game.Malformed
	if m, ok := intent.(game.Malformed); ok {
		malformed, intent = m, m.Intent
	}

	seat, err := r.authorize(connID, intent)
	if err != nil {
		return err
	}
	if malformed.Err != nil {
		return malformed.Err
	}
	if err := r.Engine.Apply(seat, intent); err != nil {
		return err
	}

	r.publishLocked()
	return nil
}

// authorize 确定发起意图的座位
func (r *Room) authorize(connID string, intent game.Intent) (int, error) {
	if r.Engine.Policy(intent) == game.AnySeat {
		seat := r.seatOfConn(connID)
		if seat < 0 {
			return -1, apperrors.ErrSeatMissing
		}
		return seat, nil
	}

	current := r.Engine.CurrentPlayer()
	if current < 0 || current >= len(r.Seats) {
		return -1, apperrors.ErrSeatMissing
	}
	c := r.Seats[current].Client
	if c == nil || c.GetID() != connID {
		return -1, apperrors.ErrNotYourTurn
	}
	return current, nil
}

// publishLocked 广播完整快照并保存
func (r *Room) publishLocked() {
	r.broadcastLocked(codec.MustNewMessage(protocol.MsgStateUpdate, protocol.StateUpdatePayload{
		Code:  r.Code,
		State: r.stateLocked(),
	}))
	r.m.save(r)
}

func (r *Room) seatOfConn(connID string) int {
	for i, s := range r.Seats {
		if s.Client != nil && s.Client.GetID() == connID {
			return i
		}
	}
	return -1
}

func (r *Room) seatOfToken(token string) int {
	if token == "" {
		return -1
	}
	for i, s := range r.Seats {
		if s.Token == token {
			return i
		}
	}
	return -1
}

func (r *Room) seatOfName(name string) int {
	for i, s := range r.Seats {
		if strings.EqualFold(s.Name, name) {
			return i
		}
	}
	return -1
}

func (r *Room) isHost(token string) bool {
	return token != "" && r.HostSeat < len(r.Seats) && r.Seats[r.HostSeat].Token == token
}

func (r *Room) hostClient() types.ClientInterface {
	if r.HostSeat < len(r.Seats) {
		return r.Seats[r.HostSeat].Client
	}
	return nil
}

func (r *Room) anyConnected() bool {
	for _, s := range r.Seats {
		if s.Connected() {
			return true
		}
	}
	return false
}

func (r *Room) names() []string {
	names := make([]string, len(r.Seats))
	for i, s := range r.Seats {
		names[i] = s.Name
	}
	return names
}

func (r *Room) markLobbyActivity() {
	r.LastLobbyActivity = r.m.clock.Now()
	r.lobbyWarned = false
}

// Info 房间公开信息
func (r *Room) Info() protocol.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.infoLocked()
}

func (r *Room) infoLocked() protocol.RoomInfo {
	players := make([]protocol.PlayerInfo, len(r.Seats))
	for i, s := range r.Seats {
		players[i] = protocol.PlayerInfo{Name: s.Name, Connected: s.Connected()}
	}
	return protocol.RoomInfo{
		Code:   r.Code,
		Status: string(r.Status),
		Settings: protocol.SettingsPayload{
			GameType:  string(r.Settings.GameType),
			UseDeckel: r.Settings.UseDeckel,
		},
		Players:  players,
		HostSeat: r.HostSeat,
	}
}

// State 当前游戏快照，大厅中为 nil
func (r *Room) State() json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

func (r *Room) stateLocked() json.RawMessage {
	if r.Engine == nil {
		return nil
	}
	data, err := json.Marshal(r.Engine)
	if err != nil {
		r.m.log.Error("序列化游戏状态失败", zap.String("room", r.Code), zap.Error(err))
		return nil
	}
	return data
}

func (r *Room) broadcastLocked(msg *protocol.Message) {
	for _, s := range r.Seats {
		if s.Client != nil {
			s.Client.SendMessage(msg)
		}
	}
}

func (r *Room) broadcastRoomUpdateLocked() {
	r.broadcastLocked(codec.MustNewMessage(protocol.MsgRoomUpdate, protocol.RoomUpdatePayload{
		Room: r.infoLocked(),
	}))
}

// joinedLocked 发给刚入座（或重连）的连接，包含令牌
func (r *Room) joinedLocked(seat int) *protocol.Message {
	s := r.Seats[seat]
	return codec.MustNewMessage(protocol.MsgRoomJoined, protocol.RoomJoinedPayload{
		Code:      r.Code,
		Token:     s.Token,
		SeatIndex: seat,
		Name:      s.Name,
		IsHost:    seat == r.HostSeat,
		Room:      r.infoLocked(),
		State:     r.stateLocked(),
	})
}

// sendRequestsLocked 把待审批列表发给房主
func (r *Room) sendRequestsLocked() {
	host := r.hostClient()
	if host == nil {
		return
	}
	list := make([]protocol.JoinRequestInfo, len(r.Requests))
	for i, req := range r.Requests {
		list[i] = protocol.JoinRequestInfo{
			ID:          req.ID,
			Name:        req.Name,
			RequestedAt: req.RequestedAt.UnixMilli(),
		}
	}
	host.SendMessage(codec.MustNewMessage(protocol.MsgJoinRequestsUpdate, protocol.JoinRequestsUpdatePayload{
		Code:     r.Code,
		Requests: list,
	}))
}

func (r *Room) requestIndex(id string) int {
	for i, req := range r.Requests {
		if req.ID == id {
			return i
		}
	}
	return -1
}

// dropRequestsFrom 删除某个连接的所有申请，返回是否有删除
func (r *Room) dropRequestsFrom(connID string) bool {
	n := len(r.Requests)
	kept := r.Requests[:0]
	for _, req := range r.Requests {
		if req.Client.GetID() != connID {
			kept = append(kept, req)
		}
	}
	clear(r.Requests[len(kept):])
	r.Requests = kept
	return len(kept) != n
}

// IsRunning 是否在游戏中
func (r *Room) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Status == StatusRunning
}
