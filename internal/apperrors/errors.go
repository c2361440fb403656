package apperrors

import (
	"fmt"

	"github.com/palemoky/gamehall/internal/protocol"
)

// GameError 游戏错误（房间、会话和各游戏引擎共享）
//
// 所有 GameError 都只回给发起请求的连接，且保证状态未被修改。
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// New 创建带自定义文本的错误
func New(code int, message string) *GameError {
	return &GameError{Code: code, Message: message}
}

// Newf 格式化版本的 New
func Newf(code int, format string, args ...any) *GameError {
	return &GameError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Illegal 不合法的操作（出牌、叫分、标记等规则错误）
func Illegal(message string) *GameError {
	return New(protocol.ErrCodeIllegalMove, message)
}

// 结构性错误
var (
	ErrInvalidMessage = &GameError{Code: protocol.ErrCodeInvalidMsg, Message: "无效的消息格式"}
	ErrInvalidCard    = &GameError{Code: protocol.ErrCodeInvalidCard, Message: "无效的牌"}
)

// 房间与会话
var (
	ErrRoomNotFound    = &GameError{Code: protocol.ErrCodeRoomNotFound, Message: "房间不存在"}
	ErrNotInRoom       = &GameError{Code: protocol.ErrCodeNotInRoom, Message: "您不在房间中"}
	ErrAlreadyInRoom   = &GameError{Code: protocol.ErrCodeAlreadyInRoom, Message: "您已在一个房间中，请先重连"}
	ErrGameStarted     = &GameError{Code: protocol.ErrCodeGameStarted, Message: "游戏已开始"}
	ErrInvalidRoomCode = &GameError{Code: protocol.ErrCodeInvalidRoomCode, Message: "房间号无效（5 位，仅限 23456789ABCDEFGHJKMNPQRSTUVWXYZ）"}
	ErrRoomCodeTaken   = &GameError{Code: protocol.ErrCodeRoomCodeTaken, Message: "房间号已被占用"}
	ErrNameTaken       = &GameError{Code: protocol.ErrCodeNameTaken, Message: "名字已被占用，请换一个"}
	ErrRequestPending  = &GameError{Code: protocol.ErrCodeNameTaken, Message: "已有同名的加入申请"}
	ErrUnknownToken    = &GameError{Code: protocol.ErrCodeUnknownToken, Message: "重连失败（令牌未知）"}
	ErrPlayerNotFound  = &GameError{Code: protocol.ErrCodeUnknownToken, Message: "玩家不存在"}
	ErrHostOnly        = &GameError{Code: protocol.ErrCodeHostOnly, Message: "只有房主可以执行此操作"}
	ErrRequestNotFound = &GameError{Code: protocol.ErrCodeRequestNotFound, Message: "申请不存在"}
	ErrRequesterGone   = &GameError{Code: protocol.ErrCodeRequestNotFound, Message: "申请人已在其他房间中"}
	ErrSkatNeedsThree  = &GameError{Code: protocol.ErrCodeNotEnoughSeats, Message: "Skat 需要正好 3 名玩家"}
	ErrNeedTwoPlayers  = &GameError{Code: protocol.ErrCodeNotEnoughSeats, Message: "至少需要 2 名玩家"}
)

// 权限与合法性
var (
	ErrGameNotStart  = &GameError{Code: protocol.ErrCodeGameNotStart, Message: "游戏尚未开始"}
	ErrNotYourTurn   = &GameError{Code: protocol.ErrCodeNotYourTurn, Message: "还没轮到您"}
	ErrSeatMissing   = &GameError{Code: protocol.ErrCodeSeatMissing, Message: "座位不存在"}
	ErrWrongPhase    = &GameError{Code: protocol.ErrCodeWrongPhase, Message: "当前阶段不能执行此操作"}
	ErrGameFinished  = &GameError{Code: protocol.ErrCodeGameFinished, Message: "游戏已结束"}
	ErrActionUnknown = &GameError{Code: protocol.ErrCodeActionUnknown, Message: "该游戏不支持此操作"}
)

// 服务器
var (
	ErrMaintenance = &GameError{Code: protocol.ErrCodeServerMaintenance, Message: "服务器维护中，暂停创建房间"}
)
