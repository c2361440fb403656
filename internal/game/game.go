// Package game 定义所有游戏引擎共享的契约：引擎接口、玩家意图、房间设置和计时调度。
package game

import (
	"strings"
	"time"

	"github.com/palemoky/gamehall/internal/game/card"
)

// Type 游戏类型，开局时确定，整局不变
type Type string

const (
	TypeSchocken Type = "schocken"
	TypeSkat     Type = "skat"
	TypeKwyx     Type = "kwyx"
)

// NormalizeType 解析游戏类型，未知类型回退为 schocken
func NormalizeType(s string) Type {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeSkat, TypeKwyx, TypeSchocken:
		return t
	default:
		return TypeSchocken
	}
}

// Settings 房间设置
type Settings struct {
	GameType  Type
	UseDeckel bool // 仅 schocken 使用
}

// ActorPolicy 意图允许由谁发起
type ActorPolicy int

const (
	// CurrentOnly 只有 currentPlayer 座位可以操作
	CurrentOnly ActorPolicy = iota
	// AnySeat 房间内任意座位都可以操作（Kwyx 的 end_turn）
	AnySeat
)

// Engine 单个房间内的权威游戏状态
//
// 引擎只在房间锁内被调用。Apply 返回错误时状态保证未被修改。
// 引擎本身可以直接 JSON 序列化，序列化结果即广播给客户端的完整快照。
type Engine interface {
	Type() Type
	CurrentPlayer() int
	Finished() bool
	Policy(intent Intent) ActorPolicy
	Apply(seat int, intent Intent) error
	// Close 取消引擎挂起的计时器
	Close()
}

// Base 各引擎共享的公开字段
type Base struct {
	GameType Type     `json:"game_type"`
	Players  []string `json:"players"`
	Current  int      `json:"current_player"`
	Done     bool     `json:"finished"`
	Message  string   `json:"message"`
}

func (b *Base) Type() Type         { return b.GameType }
func (b *Base) CurrentPlayer() int { return b.Current }
func (b *Base) Finished() bool     { return b.Done }

// NextSeat 顺时针下一个座位
func (b *Base) NextSeat(seat int) int {
	return (seat + 1) % len(b.Players)
}

// Intent 客户端发来的、会修改游戏状态的意图
type Intent interface {
	Name() string
}

// Roll 掷骰
type Roll struct{}

// ToggleHold 保留 / 放回一颗骰子
type ToggleHold struct {
	Index int
}

// EndTurn 结束回合；Kwyx 需要 Kwyx 字段
type EndTurn struct {
	Category string
	Kwyx     *KwyxChoice
}

// KwyxChoice Kwyx 的标记选择
type KwyxChoice struct {
	WhiteRow string
	ColorRow string
	ColorSum *int
	Penalty  bool
}

// SkatBid 叫分
type SkatBid struct {
	Value int
}

// SkatHold 跟分
type SkatHold struct{}

// SkatPass 放弃
type SkatPass struct{}

// SkatTakeSkat 拿底牌
type SkatTakeSkat struct{}

// SkatDiscard 扣两张牌
type SkatDiscard struct {
	Cards []card.Card
}

// SkatChooseGame 定约；Suit 为原始花色字符串，由引擎校验
type SkatChooseGame struct {
	Type   string
	Suit   string
	Hand   bool
	Ouvert bool
}

// SkatPlayCard 出牌
type SkatPlayCard struct {
	Card card.Card
}

// Malformed 参数无法解析的意图，房间先按 Intent 校验出牌权再返回 Err
type Malformed struct {
	Intent Intent
	Err    error
}

func (m Malformed) Name() string { return m.Intent.Name() }

func (Roll) Name() string           { return "roll" }
func (ToggleHold) Name() string     { return "toggle_hold" }
func (EndTurn) Name() string        { return "end_turn" }
func (SkatBid) Name() string        { return "skat_bid" }
func (SkatHold) Name() string       { return "skat_hold" }
func (SkatPass) Name() string       { return "skat_pass" }
func (SkatTakeSkat) Name() string   { return "skat_take_skat" }
func (SkatDiscard) Name() string    { return "skat_discard" }
func (SkatChooseGame) Name() string { return "skat_choose_game" }
func (SkatPlayCard) Name() string   { return "skat_play_card" }

// Timer 可取消的计时器
type Timer interface {
	Stop() bool
}

// Scheduler 为引擎提供时间和延时回调
//
// 回调在房间锁内执行，返回 true 表示状态已改变，需要广播和保存。
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func() bool) Timer
}

// SystemScheduler 使用真实时钟的调度器，回调返回值被忽略
var SystemScheduler Scheduler = systemScheduler{}

type systemScheduler struct{}

func (systemScheduler) Now() time.Time { return time.Now() }

func (systemScheduler) AfterFunc(d time.Duration, f func() bool) Timer {
	return time.AfterFunc(d, func() { f() })
}
