package protocol

// 错误码
const (
	// 结构性错误
	ErrCodeUnknown      = 1000
	ErrCodeInvalidMsg   = 1001
	ErrCodeRateLimit    = 1002 // 速率限制
	ErrCodeInvalidCard  = 1003 // 牌面无法解析
	ErrCodeInvalidValue = 1004 // 参数取值非法

	// 房间与会话
	ErrCodeRoomNotFound    = 2001
	ErrCodeRoomFull        = 2002
	ErrCodeNotInRoom       = 2003
	ErrCodeGameStarted     = 2004 // 游戏已开始
	ErrCodeInvalidRoomCode = 2005
	ErrCodeRoomCodeTaken   = 2006
	ErrCodeNameTaken       = 2007
	ErrCodeUnknownToken    = 2008
	ErrCodeHostOnly        = 2009
	ErrCodeRequestNotFound = 2010
	ErrCodeNotEnoughSeats  = 2011
	ErrCodeAlreadyInRoom   = 2012

	// 权限与合法性
	ErrCodeGameNotStart  = 3001
	ErrCodeNotYourTurn   = 3002
	ErrCodeSeatMissing   = 3003
	ErrCodeWrongPhase    = 3004
	ErrCodeIllegalMove   = 3005
	ErrCodeGameFinished  = 3006
	ErrCodeActionUnknown = 3007

	// 服务器
	ErrCodePersistence       = 5001
	ErrCodeServerMaintenance = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "未知错误",
	ErrCodeInvalidMsg:        "无效的消息格式",
	ErrCodeRateLimit:         "请求过于频繁",
	ErrCodeInvalidCard:       "无效的牌",
	ErrCodeInvalidValue:      "无效的参数",
	ErrCodeRoomNotFound:      "房间不存在",
	ErrCodeRoomFull:          "房间已满",
	ErrCodeNotInRoom:         "您不在房间中",
	ErrCodeGameStarted:       "游戏已开始",
	ErrCodeInvalidRoomCode:   "房间号无效",
	ErrCodeRoomCodeTaken:     "房间号已被占用",
	ErrCodeNameTaken:         "名字已被占用",
	ErrCodeUnknownToken:      "令牌无效",
	ErrCodeHostOnly:          "只有房主可以执行此操作",
	ErrCodeRequestNotFound:   "申请不存在",
	ErrCodeNotEnoughSeats:    "玩家人数不符合要求",
	ErrCodeAlreadyInRoom:     "您已在房间中",
	ErrCodeGameNotStart:      "游戏尚未开始",
	ErrCodeNotYourTurn:       "还没轮到您",
	ErrCodeSeatMissing:       "座位不存在",
	ErrCodeWrongPhase:        "当前阶段不能执行此操作",
	ErrCodeIllegalMove:       "不合法的操作",
	ErrCodeGameFinished:      "游戏已结束",
	ErrCodeActionUnknown:     "该游戏不支持此操作",
	ErrCodePersistence:       "存储失败",
	ErrCodeServerMaintenance: "服务器维护中",
}
