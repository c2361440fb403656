package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgPing MessageType = "ping" // 心跳 ping

	// 房间操作
	MsgCreateRoom     MessageType = "create_room"     // 创建房间
	MsgEnterRoom      MessageType = "enter_room"      // 进入房间（按名字重连 / 申请加入 / 创建）
	MsgRequestJoin    MessageType = "request_join"    // 申请加入
	MsgJoinRoom       MessageType = "join_room"       // 申请加入（旧名）
	MsgApproveJoin    MessageType = "approve_join"    // 房主审批加入申请
	MsgRejoinRoom     MessageType = "rejoin_room"     // 凭令牌重连座位
	MsgStartGame      MessageType = "start_game"      // 开始游戏
	MsgUpdateSettings MessageType = "update_settings" // 修改房间设置
	MsgLeaveRoom      MessageType = "leave_room"      // 离开房间
	MsgReturnLobby    MessageType = "return_lobby"    // 回到大厅
	MsgKeepLobby      MessageType = "keep_lobby"      // 保留大厅

	// 通用骰子操作
	MsgRoll       MessageType = "roll"        // 掷骰
	MsgToggleHold MessageType = "toggle_hold" // 保留 / 放回骰子
	MsgEndTurn    MessageType = "end_turn"    // 结束回合

	// Skat
	MsgSkatBid        MessageType = "skat_bid"         // 叫分
	MsgSkatHold       MessageType = "skat_hold"        // 跟分
	MsgSkatPass       MessageType = "skat_pass"        // 放弃
	MsgSkatTakeSkat   MessageType = "skat_take_skat"   // 拿底牌
	MsgSkatDiscard    MessageType = "skat_discard"     // 扣牌
	MsgSkatChooseGame MessageType = "skat_choose_game" // 定约
	MsgSkatPlayCard   MessageType = "skat_play_card"   // 出牌
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected MessageType = "connected" // 连接成功
	MsgPong      MessageType = "pong"      // 心跳 pong

	// 房间相关
	MsgRoomJoined         MessageType = "room_joined"          // 进入房间成功
	MsgRoomUpdate         MessageType = "room_update"          // 房间公开信息更新
	MsgJoinPending        MessageType = "join_pending"         // 申请已提交
	MsgJoinRequestNotice  MessageType = "join_request_notice"  // 通知房主有新申请
	MsgJoinRequestsUpdate MessageType = "join_requests_update" // 房主的待审批列表
	MsgJoinDenied         MessageType = "join_denied"          // 申请被拒绝
	MsgRoomLeft           MessageType = "room_left"            // 已离开房间
	MsgLobbyReturned      MessageType = "lobby_returned"       // 已回到大厅
	MsgLobbyExpiring      MessageType = "lobby_expiring"       // 大厅即将过期
	MsgLobbyDeleted       MessageType = "lobby_deleted"        // 大厅已删除
	MsgLobbyKeepConfirmed MessageType = "lobby_keep_confirmed" // 大厅保留成功

	// 游戏流程
	MsgStateUpdate MessageType = "state_update" // 完整游戏快照

	// 错误
	MsgError MessageType = "error" // 错误消息
)
