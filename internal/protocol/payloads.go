package protocol

import "encoding/json"

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// RoomRef 房间范围的请求都携带房间号，需要身份的再带上座位令牌
type RoomRef struct {
	Code  string `json:"code"`
	Token string `json:"token,omitempty"`
}

// RoomCode 嵌入 RoomRef 的请求都能取到房间号
func (r RoomRef) RoomCode() string { return r.Code }

// SettingsPayload 房间设置
type SettingsPayload struct {
	GameType  string `json:"game_type"`
	UseDeckel bool   `json:"use_deckel"`
}

// CreateRoomPayload 创建房间请求
type CreateRoomPayload struct {
	Name          string `json:"name"`
	RequestedCode string `json:"requested_code,omitempty"`
	SettingsPayload
}

// EnterRoomPayload 进入房间请求：同名离线座位直接重连，否则申请加入，房间不存在则创建
type EnterRoomPayload = CreateRoomPayload

// JoinRequestPayload 申请加入请求
type JoinRequestPayload struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ApproveJoinPayload 房主审批
type ApproveJoinPayload struct {
	RoomRef
	RequestID string `json:"request_id"`
	Accept    bool   `json:"accept"`
}

// UpdateSettingsPayload 修改设置
type UpdateSettingsPayload struct {
	RoomRef
	SettingsPayload
}

// ToggleHoldPayload 保留骰子
type ToggleHoldPayload struct {
	RoomRef
	Index int `json:"index"`
}

// KwyxChoice Kwyx 回合结束时的标记选择
type KwyxChoice struct {
	WhiteRow string `json:"white_row,omitempty"`
	ColorRow string `json:"color_row,omitempty"`
	ColorSum *int   `json:"color_sum,omitempty"`
	Penalty  bool   `json:"penalty,omitempty"`
}

// EndTurnPayload 结束回合
type EndTurnPayload struct {
	RoomRef
	Category string      `json:"category,omitempty"`
	Kwyx     *KwyxChoice `json:"kwyx,omitempty"`
}

// CardInfo 牌面信息
type CardInfo struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

// SkatBidPayload 叫分
type SkatBidPayload struct {
	RoomRef
	Value int `json:"value"`
}

// SkatDiscardPayload 扣牌
type SkatDiscardPayload struct {
	RoomRef
	Cards []CardInfo `json:"cards"`
}

// SkatChooseGamePayload 定约
type SkatChooseGamePayload struct {
	RoomRef
	Type   string `json:"type"`
	Suit   string `json:"suit,omitempty"`
	Hand   bool   `json:"hand,omitempty"`
	Ouvert bool   `json:"ouvert,omitempty"`
}

// SkatPlayCardPayload 出牌
type SkatPlayCardPayload struct {
	RoomRef
	Card *CardInfo `json:"card"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"` // 客户端发送的时间戳
	ServerTimestamp int64 `json:"server_timestamp"` // 服务器时间戳（毫秒）
}

// PlayerInfo 房间内公开的玩家信息
type PlayerInfo struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// RoomInfo 房间公开信息
type RoomInfo struct {
	Code     string          `json:"code"`
	Status   string          `json:"status"`
	Settings SettingsPayload `json:"settings"`
	Players  []PlayerInfo    `json:"players"`
	HostSeat int             `json:"host_seat"`
}

// RoomJoinedPayload 进入房间成功（仅发给本人，含令牌）
type RoomJoinedPayload struct {
	Code      string          `json:"code"`
	Token     string          `json:"token"`
	SeatIndex int             `json:"seat_index"`
	Name      string          `json:"name"`
	IsHost    bool            `json:"is_host"`
	Room      RoomInfo        `json:"room"`
	State     json.RawMessage `json:"state,omitempty"`
}

// RoomUpdatePayload 房间信息更新
type RoomUpdatePayload struct {
	Room RoomInfo `json:"room"`
}

// StateUpdatePayload 游戏快照
type StateUpdatePayload struct {
	Code  string          `json:"code"`
	State json.RawMessage `json:"state"`
}

// RoomCodePayload 只携带房间号的通知
type RoomCodePayload struct {
	Code string `json:"code"`
}

// JoinRequestNoticePayload 新的加入申请
type JoinRequestNoticePayload struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	RequestID string `json:"request_id"`
}

// JoinRequestInfo 待审批的申请
type JoinRequestInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RequestedAt int64  `json:"requested_at"`
}

// JoinRequestsUpdatePayload 房主的待审批列表
type JoinRequestsUpdatePayload struct {
	Code     string            `json:"code"`
	Requests []JoinRequestInfo `json:"requests"`
}

// NoticePayload 文本通知
type NoticePayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// LobbyExpiringPayload 大厅即将过期
type LobbyExpiringPayload struct {
	Code        string `json:"code"`
	SecondsLeft int    `json:"seconds_left"`
}

// ErrorPayload 错误
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
