package room

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/palemoky/gamehall/internal/apperrors"
	"github.com/palemoky/gamehall/internal/config"
	"github.com/palemoky/gamehall/internal/game"
	"github.com/palemoky/gamehall/internal/protocol"
	"github.com/palemoky/gamehall/internal/protocol/codec"
	"github.com/palemoky/gamehall/internal/server/session"
	"github.com/palemoky/gamehall/internal/server/storage"
	"github.com/palemoky/gamehall/internal/types"
)

const defaultName = "玩家"

// Options 房间管理器依赖
type Options struct {
	Store       storage.Store // nil 表示不保存快照
	Binder      *session.Binder
	Logger      *zap.Logger
	Clock       game.Scheduler
	Game        config.GameConfig
	SaveTimeout time.Duration
}

// Manager 房间注册表
//
// 锁顺序：房间锁在外，注册表锁在内。持有注册表锁时从不去拿已经公开的房间锁。
type Manager struct {
	store       storage.Store
	binder      *session.Binder
	log         *zap.Logger
	clock       game.Scheduler
	cfg         config.GameConfig
	saveTimeout time.Duration

	rooms map[string]*Room
	mu    sync.RWMutex

	saves     chan saveJob
	done      chan struct{}
	saveDone  chan struct{}
	closeOnce sync.Once

	pickSeat func(n int) int // 房主离开时挑选新房主
}

// NewManager 创建房间管理器并启动快照写入协程
func NewManager(opts Options) *Manager {
	def := config.Default()
	m := &Manager{
		store:       opts.Store,
		binder:      opts.Binder,
		log:         opts.Logger,
		clock:       opts.Clock,
		cfg:         opts.Game,
		saveTimeout: opts.SaveTimeout,
		rooms:       make(map[string]*Room),
		saves:       make(chan saveJob, saveQueueSize),
		done:        make(chan struct{}),
		saveDone:    make(chan struct{}),
		pickSeat:    randomSeat,
	}
	if m.binder == nil {
		m.binder = session.NewBinder()
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	if m.clock == nil {
		m.clock = game.SystemScheduler
	}
	if m.cfg == (config.GameConfig{}) {
		m.cfg = def.Game
	}
	if m.saveTimeout <= 0 {
		m.saveTimeout = def.Storage.SaveTimeoutDuration()
	}

	go m.saveLoop()
	return m
}

// Binder 返回会话绑定表
func (m *Manager) Binder() *session.Binder { return m.binder }

// CreateParams 创建 / 进入房间的参数
type CreateParams struct {
	Name          string
	RequestedCode string
	Settings      game.Settings
}

func cleanName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return defaultName
	}
	return name
}

func normalizeSettings(s game.Settings) game.Settings {
	s.GameType = game.NormalizeType(string(s.GameType))
	s.UseDeckel = s.UseDeckel && s.GameType == game.TypeSchocken
	return s
}

// GetRoom 获取房间
func (m *Manager) GetRoom(code string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[NormalizeCode(code)]
}

// lockRoom 返回已加锁的房间，调用方负责解锁
func (m *Manager) lockRoom(code string) (*Room, error) {
	r := m.GetRoom(code)
	if r == nil {
		return nil, apperrors.ErrRoomNotFound
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, apperrors.ErrRoomNotFound
	}
	return r, nil
}

func (m *Manager) requireUnbound(client types.ClientInterface) error {
	if _, ok := m.binder.Binding(client.GetID()); ok {
		return apperrors.ErrAlreadyInRoom
	}
	return nil
}

// CreateRoom 创建房间，创建者坐 0 号位并成为房主
func (m *Manager) CreateRoom(client types.ClientInterface, p CreateParams) (*Room, error) {
	if err := m.requireUnbound(client); err != nil {
		return nil, err
	}
	code := NormalizeCode(p.RequestedCode)
	if code != "" && !ValidCode(code) {
		return nil, apperrors.ErrInvalidRoomCode
	}

	name := cleanName(p.Name)
	token := session.NewToken()

	m.mu.Lock()
	if code == "" {
		code = m.generateCodeLocked()
	} else if _, exists := m.rooms[code]; exists {
		m.mu.Unlock()
		return nil, apperrors.ErrRoomCodeTaken
	}
	r := &Room{
		Code:              code,
		Status:            StatusLobby,
		Settings:          normalizeSettings(p.Settings),
		Seats:             []*Seat{{Token: token, Name: name, Client: client}},
		LastLobbyActivity: m.clock.Now(),
		m:                 m,
	}
	// 新房间加入注册表之前先锁住，其他人拿到它时创建已经完成
	r.mu.Lock()
	m.rooms[code] = r
	m.mu.Unlock()
	defer r.mu.Unlock()

	m.binder.Register(token, code)
	if _, err := m.binder.Bind(client.GetID(), token); err != nil {
		m.removeLocked(r, "创建失败")
		return nil, err
	}

	client.SetRoom(code)
	client.SendMessage(r.joinedLocked(0))
	r.broadcastRoomUpdateLocked()
	m.save(r)

	m.log.Info("🏠 房间已创建",
		zap.String("room", code),
		zap.String("host", name),
		zap.String("game", string(r.Settings.GameType)))
	return r, nil
}

// generateCodeLocked 生成未被占用的房间号
func (m *Manager) generateCodeLocked() string {
	for {
		code := randomCode()
		if _, exists := m.rooms[code]; !exists {
			return code
		}
	}
}

// EnterRoom 进入房间：同名的离线座位直接重连，否则申请加入，房间不存在时创建
func (m *Manager) EnterRoom(client types.ClientInterface, p CreateParams) (*Room, error) {
	if err := m.requireUnbound(client); err != nil {
		return nil, err
	}
	if code := NormalizeCode(p.RequestedCode); code != "" {
		if r := m.GetRoom(code); r != nil {
			ok, err := m.reconnectByName(client, r, cleanName(p.Name))
			if err != nil || ok {
				return r, err
			}
			return r, m.RequestJoin(client, code, p.Name)
		}
	}
	return m.CreateRoom(client, p)
}

func (m *Manager) reconnectByName(client types.ClientInterface, r *Room, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false, apperrors.ErrRoomNotFound
	}

	seat := r.seatOfName(name)
	if seat < 0 || r.Seats[seat].Connected() {
		return false, nil
	}

	r.Requests = slices.DeleteFunc(r.Requests, func(req *JoinRequest) bool {
		return strings.EqualFold(req.Name, name)
	})
	if err := m.attachLocked(r, seat, client); err != nil {
		return false, err
	}
	m.log.Info("📶 玩家按名字重连", zap.String("room", r.Code), zap.Int("seat", seat))
	return true, nil
}

// RejoinRoom 凭令牌重连座位，不改变座位号和游戏状态
func (m *Manager) RejoinRoom(client types.ClientInterface, code, token string) (*Room, error) {
	code = NormalizeCode(code)
	owner, ok := m.binder.Lookup(token)
	if !ok || owner != code {
		return nil, apperrors.ErrUnknownToken
	}
	// 一个连接只占一个座位，先离开之前的座位
	if bd, ok := m.binder.Binding(client.GetID()); ok && bd.Token != token {
		m.detach(client)
	}

	r, err := m.lockRoom(code)
	if err != nil {
		return nil, err
	}
	defer r.mu.Unlock()

	seat := r.seatOfToken(token)
	if seat < 0 {
		return nil, apperrors.ErrUnknownToken
	}
	if err := m.attachLocked(r, seat, client); err != nil {
		return nil, err
	}

	m.log.Info("📶 玩家重连", zap.String("room", code), zap.Int("seat", seat))
	return r, nil
}

// attachLocked 把连接绑定到座位，补发一次房间信息和完整快照
func (m *Manager) attachLocked(r *Room, seat int, client types.ClientInterface) error {
	s := r.Seats[seat]
	if _, err := m.binder.Bind(client.GetID(), s.Token); err != nil {
		return err
	}
	if s.Client != nil && s.Client.GetID() != client.GetID() {
		s.Client.SetRoom("")
	}
	s.Client = client
	r.emptySince = time.Time{}

	client.SetRoom(r.Code)
	// room_joined 已带完整快照
	client.SendMessage(r.joinedLocked(seat))
	r.broadcastRoomUpdateLocked()
	if seat == r.HostSeat {
		r.sendRequestsLocked()
	}
	return nil
}

// RequestJoin 申请加入大厅，等待房主审批
func (m *Manager) RequestJoin(client types.ClientInterface, code, name string) error {
	if err := m.requireUnbound(client); err != nil {
		return err
	}
	code = NormalizeCode(code)
	connID := client.GetID()
	if prev := client.GetRoom(); prev != "" && prev != code {
		m.dropRequests(prev, connID)
	}

	r, err := m.lockRoom(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	if r.Status != StatusLobby {
		return apperrors.ErrGameStarted
	}
	name = cleanName(name)
	if r.seatOfName(name) >= 0 {
		return apperrors.ErrNameTaken
	}
	for _, req := range r.Requests {
		if req.Client.GetID() != connID && strings.EqualFold(req.Name, name) {
			return apperrors.ErrRequestPending
		}
	}

	// 同一连接的新申请替换旧申请
	r.dropRequestsFrom(connID)
	req := &JoinRequest{
		ID:          uuid.NewString(),
		Name:        name,
		Client:      client,
		RequestedAt: m.clock.Now(),
	}
	r.Requests = append(r.Requests, req)
	client.SetRoom(r.Code)

	client.SendMessage(codec.MustNewMessage(protocol.MsgJoinPending, protocol.RoomCodePayload{Code: r.Code}))
	if host := r.hostClient(); host != nil {
		host.SendMessage(codec.MustNewMessage(protocol.MsgJoinRequestNotice, protocol.JoinRequestNoticePayload{
			Code:      r.Code,
			Name:      name,
			RequestID: req.ID,
		}))
	}
	r.sendRequestsLocked()

	m.log.Info("🙋 收到加入申请", zap.String("room", r.Code), zap.String("name", name))
	return nil
}

// ApproveJoin 房主审批加入申请
func (m *Manager) ApproveJoin(client types.ClientInterface, code, token, requestID string, accept bool) error {
	r, err := m.lockRoom(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	if !r.isHost(token) {
		return apperrors.ErrHostOnly
	}
	idx := r.requestIndex(requestID)
	if idx < 0 {
		return apperrors.ErrRequestNotFound
	}
	req := r.Requests[idx]
	r.Requests = slices.Delete(r.Requests, idx, idx+1)

	deny := func(message string) error {
		if req.Client.GetRoom() == r.Code {
			req.Client.SetRoom("")
		}
		req.Client.SendMessage(codec.MustNewMessage(protocol.MsgJoinDenied, protocol.NoticePayload{
			Code:    r.Code,
			Message: message,
		}))
		r.sendRequestsLocked()
		return nil
	}

	switch {
	case !accept:
		return deny("房主拒绝了你的加入申请")
	case r.Status != StatusLobby:
		return deny("游戏已开始")
	case r.seatOfName(req.Name) >= 0:
		return deny("名字已被占用")
	}
	if _, bound := m.binder.Binding(req.Client.GetID()); bound {
		r.sendRequestsLocked()
		return apperrors.ErrRequesterGone
	}

	seatToken := session.NewToken()
	m.binder.Register(seatToken, r.Code)
	if _, err := m.binder.Bind(req.Client.GetID(), seatToken); err != nil {
		m.binder.ForgetToken(seatToken)
		return err
	}
	r.Seats = append(r.Seats, &Seat{Token: seatToken, Name: req.Name, Client: req.Client})
	seat := len(r.Seats) - 1
	r.markLobbyActivity()

	req.Client.SetRoom(r.Code)
	req.Client.SendMessage(r.joinedLocked(seat))
	r.broadcastRoomUpdateLocked()
	r.sendRequestsLocked()
	m.save(r)

	m.log.Info("👤 玩家加入房间", zap.String("room", r.Code), zap.String("name", req.Name), zap.Int("seat", seat))
	return nil
}

// StartGame 房主开局
func (m *Manager) StartGame(client types.ClientInterface, code, token string) error {
	r, err := m.lockRoom(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	if !r.isHost(token) {
		return apperrors.ErrHostOnly
	}
	if r.Status != StatusLobby {
		return apperrors.ErrGameStarted
	}
	n := len(r.Seats)
	if r.Settings.GameType == game.TypeSkat && n != 3 {
		return apperrors.ErrSkatNeedsThree
	}
	if n < 2 {
		return apperrors.ErrNeedTwoPlayers
	}

	r.epoch++
	engine, err := r.newEngineLocked()
	if err != nil {
		return err
	}
	r.Engine = engine
	r.Status = StatusRunning
	r.lobbyWarned = false

	r.broadcastRoomUpdateLocked()
	r.publishLocked()

	m.log.Info("🎮 游戏开始",
		zap.String("room", r.Code),
		zap.String("game", string(r.Settings.GameType)),
		zap.Int("players", n))
	return nil
}

// UpdateSettings 房主在大厅中修改设置
func (m *Manager) UpdateSettings(client types.ClientInterface, code, token string, settings game.Settings) error {
	r, err := m.lockRoom(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	if !r.isHost(token) {
		return apperrors.ErrHostOnly
	}
	if r.Status != StatusLobby {
		return apperrors.ErrGameStarted
	}

	r.Settings = normalizeSettings(settings)
	r.markLobbyActivity()
	r.broadcastRoomUpdateLocked()
	m.save(r)
	return nil
}

// LeaveRoom 离开大厅；游戏进行中座位不能移除
func (m *Manager) LeaveRoom(client types.ClientInterface, code, token string) error {
	r, err := m.lockRoom(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	seat := r.seatOfToken(token)
	if seat < 0 {
		return apperrors.ErrUnknownToken
	}
	if r.Status != StatusLobby {
		return apperrors.ErrGameStarted
	}

	s := r.Seats[seat]
	r.removeSeatLocked(seat)
	m.binder.ForgetToken(token)
	if s.Client != nil {
		s.Client.SetRoom("")
	}
	client.SetRoom("")
	client.SendMessage(codec.MustNewMessage(protocol.MsgRoomLeft, protocol.NoticePayload{
		Code:    r.Code,
		Message: "你已离开房间",
	}))

	m.log.Info("👋 玩家离开房间", zap.String("room", r.Code), zap.String("name", s.Name), zap.Int("seat", seat))

	if len(r.Seats) == 0 {
		m.removeLocked(r, "最后一名玩家离开")
		return nil
	}
	r.markLobbyActivity()
	r.broadcastRoomUpdateLocked()
	r.sendRequestsLocked()
	m.save(r)
	return nil
}

// removeSeatLocked 移除座位并修正房主座位号
func (r *Room) removeSeatLocked(seat int) {
	wasHost := seat == r.HostSeat
	r.Seats = slices.Delete(r.Seats, seat, seat+1)
	switch {
	case len(r.Seats) == 0:
		r.HostSeat = 0
	case wasHost:
		r.HostSeat = r.m.pickSeat(len(r.Seats))
	case seat < r.HostSeat:
		r.HostSeat--
	}
}

// ReturnLobby 房主结束当前游戏回到大厅
func (m *Manager) ReturnLobby(client types.ClientInterface, code, token string) error {
	r, err := m.lockRoom(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	if !r.isHost(token) {
		return apperrors.ErrHostOnly
	}
	if r.Status != StatusRunning {
		return apperrors.ErrWrongPhase
	}

	if r.Engine != nil {
		r.Engine.Close()
	}
	r.Engine = nil
	r.epoch++
	r.Status = StatusLobby
	r.markLobbyActivity()

	r.broadcastLocked(codec.MustNewMessage(protocol.MsgLobbyReturned, protocol.NoticePayload{
		Code:    r.Code,
		Message: "已回到大厅",
	}))
	r.broadcastRoomUpdateLocked()
	m.save(r)

	m.log.Info("🏠 房间回到大厅", zap.String("room", r.Code))
	return nil
}

// KeepLobby 刷新大厅的活动时间
func (m *Manager) KeepLobby(client types.ClientInterface, code, token string) error {
	r, err := m.lockRoom(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	if r.seatOfToken(token) < 0 {
		return apperrors.ErrUnknownToken
	}
	if r.Status != StatusLobby {
		return apperrors.ErrWrongPhase
	}

	r.markLobbyActivity()
	client.SendMessage(codec.MustNewMessage(protocol.MsgLobbyKeepConfirmed, protocol.NoticePayload{
		Code:    r.Code,
		Message: "大厅已保留",
	}))
	m.save(r)
	return nil
}

// Apply 把游戏意图交给房间
func (m *Manager) Apply(client types.ClientInterface, code string, intent game.Intent) error {
	r := m.GetRoom(code)
	if r == nil {
		return apperrors.ErrRoomNotFound
	}
	return r.Apply(client.GetID(), intent)
}

// RoomCount 房间总数
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// RunningCount 进行中的房间数
func (m *Manager) RunningCount() int {
	count := 0
	for _, r := range m.snapshot() {
		if r.IsRunning() {
			count++
		}
	}
	return count
}

func (m *Manager) snapshot() []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}
