// Package kwyx 实现同时行动的骰子标记游戏 Kwyx。
//
// 当前玩家掷六颗骰子（两颗白色、四颗彩色）后，所有玩家都可以用白色骰子之和标记，
// 只有当前玩家还能用白色加彩色的组合。当前玩家结束回合后开启倒计时，
// 倒计时结束或所有人都结束时本轮关闭。
package kwyx

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/palemoky/gamehall/internal/apperrors"
	"github.com/palemoky/gamehall/internal/game"
	"github.com/palemoky/gamehall/internal/protocol"
)

const (
	// DiceCount 两颗白色 + 四颗彩色
	DiceCount = 6
	// DefaultCountdown 被动玩家的默认标记窗口
	DefaultCountdown = 10 * time.Second
	// MaxStrikes 失误达到该次数游戏结束
	MaxStrikes = 4
	// LocksToFinish 全局关闭的行达到该数量游戏结束
	LocksToFinish = 2
)

// Engine Kwyx 游戏状态
type Engine struct {
	game.Base
	Dice            [DiceCount]int  `json:"dice"`
	ThrowCount      int             `json:"throw_count"`
	MaxThrows       int             `json:"max_throws"`
	Scorecards      []*Scorecard    `json:"scorecards"`
	RowLocks        map[string]bool `json:"row_locks"`
	Totals          []int           `json:"totals"`
	Ended           []bool          `json:"ended"`
	CountdownEndsAt *int64          `json:"countdown_ends_at"` // 毫秒时间戳
	PendingFinish   bool            `json:"pending_finish"`
	Winners         []int           `json:"winners,omitempty"`

	rollDie    func() int
	sched      game.Scheduler
	countdown  time.Duration
	timer      game.Timer
	generation int
}

// Option 引擎选项
type Option func(*Engine)

// WithDice 替换骰子来源（测试用）
func WithDice(roll func() int) Option {
	return func(e *Engine) { e.rollDie = roll }
}

// WithScheduler 指定倒计时使用的调度器
func WithScheduler(s game.Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// WithCountdown 指定被动玩家的标记窗口
func WithCountdown(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.countdown = d
		}
	}
}

func defaultDie() int { return rand.IntN(6) + 1 }

// New 创建新的 Kwyx 游戏
func New(players []string, opts ...Option) *Engine {
	n := len(players)
	e := &Engine{
		Base: game.Base{
			GameType: game.TypeKwyx,
			Players:  slices.Clone(players),
		},
		MaxThrows:  1,
		Scorecards: make([]*Scorecard, n),
		RowLocks:   map[string]bool{RowRed: false, RowYellow: false, RowGreen: false, RowBlue: false},
		Totals:     make([]int, n),
		Ended:      make([]bool, n),
	}
	for i := range e.Scorecards {
		e.Scorecards[i] = NewScorecard()
	}
	e.Message = fmt.Sprintf("%s 先掷骰。", players[0])
	e.init(opts)
	return e
}

// Restored 反序列化后恢复运行时字段，并重新挂起未结束的倒计时
//
// 已经过期的倒计时会立即通过调度器触发。
func (e *Engine) Restored(opts ...Option) *Engine {
	e.init(opts)
	if e.RowLocks == nil {
		e.RowLocks = map[string]bool{}
	}
	if len(e.Ended) != len(e.Players) {
		e.Ended = make([]bool, len(e.Players))
	}
	if e.CountdownEndsAt != nil && !e.Done {
		remaining := time.UnixMilli(*e.CountdownEndsAt).Sub(e.sched.Now())
		e.armCountdown(max(remaining, 0))
	}
	return e
}

func (e *Engine) init(opts []Option) {
	e.rollDie = defaultDie
	e.sched = game.SystemScheduler
	e.countdown = DefaultCountdown
	for _, opt := range opts {
		opt(e)
	}
}

// Policy 只有 end_turn 允许任意座位发起
func (e *Engine) Policy(intent game.Intent) game.ActorPolicy {
	if _, ok := intent.(game.EndTurn); ok {
		return game.AnySeat
	}
	return game.CurrentOnly
}

// Close 取消挂起的倒计时
func (e *Engine) Close() {
	e.cancelCountdown()
}

func (e *Engine) Apply(seat int, intent game.Intent) error {
	if e.Done {
		return apperrors.ErrGameFinished
	}

	switch in := intent.(type) {
	case game.Roll:
		return e.roll(seat)
	case game.EndTurn:
		return e.endTurn(seat, in.Kwyx)
	default:
		return apperrors.ErrActionUnknown
	}
}

func (e *Engine) roll(seat int) error {
	if seat != e.Current {
		return apperrors.ErrNotYourTurn
	}
	if e.ThrowCount >= e.MaxThrows {
		return apperrors.Illegal("已经掷过骰子了")
	}

	e.cancelCountdown()
	e.resetTurnState()
	for i := range e.Dice {
		e.Dice[i] = e.rollDie()
	}
	e.ThrowCount = 1
	e.Message = fmt.Sprintf("%s 掷出白色 %d + %d。", e.Players[seat], e.Dice[0], e.Dice[1])
	return nil
}

// WhiteSum 两颗白色骰子之和
func (e *Engine) WhiteSum() int {
	return e.Dice[0] + e.Dice[1]
}

// colorDie 某一行对应的彩色骰子
func (e *Engine) colorDie(color string) int {
	return e.Dice[2+slices.Index(Rows, color)]
}

type mark struct {
	color string
	value int
}

// endTurn 先在记分卡副本上校验所有标记，全部合法后才提交
func (e *Engine) endTurn(seat int, choice *game.KwyxChoice) error {
	if e.ThrowCount == 0 {
		return apperrors.Illegal("请先掷骰")
	}
	if seat < 0 || seat >= len(e.Players) {
		return apperrors.ErrSeatMissing
	}
	if e.Ended[seat] {
		return apperrors.Illegal("您已经结束了本回合")
	}
	if choice == nil {
		choice = &game.KwyxChoice{}
	}

	active := seat == e.Current
	whiteRow := NormalizeRow(choice.WhiteRow)
	colorRow := NormalizeRow(choice.ColorRow)
	if !active && (colorRow != "" || choice.ColorSum != nil || choice.Penalty) {
		return apperrors.Illegal("被动玩家只能使用白色骰子")
	}

	var marks []mark
	if whiteRow != "" {
		if !IsRow(whiteRow) {
			return apperrors.Illegal("未知的行")
		}
		marks = append(marks, mark{whiteRow, e.WhiteSum()})
	}
	if colorRow != "" {
		if !IsRow(colorRow) {
			return apperrors.Illegal("未知的行")
		}
		die := e.colorDie(colorRow)
		if choice.ColorSum == nil || (*choice.ColorSum != e.Dice[0]+die && *choice.ColorSum != e.Dice[1]+die) {
			return apperrors.Newf(protocol.ErrCodeInvalidValue, "无效的颜色和")
		}
		if whiteRow == colorRow && CellIndex(whiteRow, e.WhiteSum()) > CellIndex(colorRow, *choice.ColorSum) {
			return apperrors.Illegal("白色标记必须在颜色标记的左边")
		}
		marks = append(marks, mark{colorRow, *choice.ColorSum})
	}
	marks = slices.Compact(marks)

	card := e.Scorecards[seat].Clone()
	locks := maps.Clone(e.RowLocks)
	var applied []string
	if !choice.Penalty {
		for _, m := range marks {
			index, last, err := card.canMark(locks, m.color, m.value)
			if err != nil {
				return err
			}
			card.mark(locks, m.color, index, last)
			applied = append(applied, fmt.Sprintf("%s %d", m.color, m.value))
		}
	}

	e.Scorecards[seat] = card
	e.RowLocks = locks
	switch {
	case len(applied) > 0:
		e.Message = fmt.Sprintf("%s 标记了 %s。", e.Players[seat], strings.Join(applied, " 和 "))
	case active:
		card.Strikes++
		e.Message = fmt.Sprintf("%s 记一次失误（%d/%d）。", e.Players[seat], card.Strikes, MaxStrikes)
	default:
		e.Message = fmt.Sprintf("%s 没有标记。", e.Players[seat])
	}

	e.updateTotals()
	e.PendingFinish = e.shouldFinish()
	e.Ended[seat] = true

	if !slices.Contains(e.Ended, false) {
		e.finalize()
		return nil
	}
	if active && e.CountdownEndsAt == nil {
		e.armCountdown(e.countdown)
	}
	return nil
}

func (e *Engine) updateTotals() {
	for i, card := range e.Scorecards {
		e.Totals[i] = card.Score()
	}
}

// shouldFinish 两行以上被关闭，或有玩家失误达到上限
func (e *Engine) shouldFinish() bool {
	locked := 0
	for _, color := range Rows {
		if e.RowLocks[color] {
			locked++
		}
	}
	if locked >= LocksToFinish {
		return true
	}
	return slices.ContainsFunc(e.Scorecards, func(s *Scorecard) bool { return s.Strikes >= MaxStrikes })
}

// finalize 关闭本轮：满足结束条件则结算，否则轮到下一位
func (e *Engine) finalize() {
	e.cancelCountdown()

	if e.PendingFinish && e.shouldFinish() {
		e.Done = true
		best := slices.Max(e.Totals)
		names := []string{}
		e.Winners = []int{}
		for i, total := range e.Totals {
			if total == best {
				e.Winners = append(e.Winners, i)
				names = append(names, e.Players[i])
			}
		}
		e.Message = fmt.Sprintf("游戏结束！获胜者: %s（%d 分）", strings.Join(names, ", "), best)
		return
	}

	e.Current = e.NextSeat(e.Current)
	e.ThrowCount = 0
	e.Dice = [DiceCount]int{}
	e.resetTurnState()
	e.Message = fmt.Sprintf("轮到 %s 掷骰。", e.Players[e.Current])
}

func (e *Engine) resetTurnState() {
	e.Ended = make([]bool, len(e.Players))
	e.CountdownEndsAt = nil
	e.PendingFinish = false
}

// armCountdown 挂起倒计时；回调通过 generation 丢弃过期的触发
func (e *Engine) armCountdown(d time.Duration) {
	if e.timer != nil {
		e.timer.Stop()
	}
	e.generation++
	gen := e.generation
	endsAt := e.sched.Now().Add(d).UnixMilli()
	e.CountdownEndsAt = &endsAt
	e.timer = e.sched.AfterFunc(d, func() bool {
		if gen != e.generation || e.Done {
			return false
		}
		e.finalize()
		return true
	})
}

func (e *Engine) cancelCountdown() {
	e.generation++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.CountdownEndsAt = nil
}
