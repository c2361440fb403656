// Package schocken 实现三骰子游戏 Schocken，回合轮转交给 round.Sequencer。
package schocken

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/palemoky/gamehall/internal/apperrors"
	"github.com/palemoky/gamehall/internal/game"
	"github.com/palemoky/gamehall/internal/game/round"
	"github.com/palemoky/gamehall/internal/protocol"
)

const (
	// MaxThrows 每回合最多掷骰次数
	MaxThrows = 3
	// MaxDeckel 杯垫达到此数即输掉半场
	MaxDeckel = 13
)

// Engine Schocken 游戏状态
type Engine struct {
	game.Base
	UseDeckel    bool            `json:"use_deckel"`
	Round        round.Sequencer `json:"round"`
	MaxThrows    int             `json:"max_throws_this_round"`
	ThrowCount   int             `json:"throw_count"`
	Dice         [3]int          `json:"dice"` // 0 表示尚未掷出
	Held         [3]bool         `json:"held"`
	Scores       []*Rating       `json:"scores"`
	History      [][]*Rating     `json:"history"`
	Wins         []int           `json:"wins"`
	Deckel       []int           `json:"deckel"`
	HalfLosses   []int           `json:"half_losses"`
	InFinal      bool            `json:"in_final"`
	FinalPlayers []int           `json:"final_players"`
	Loser        *int            `json:"loser,omitempty"`

	rollDie func() int
}

// Option 引擎选项
type Option func(*Engine)

// WithDice 替换骰子来源（测试用）
func WithDice(roll func() int) Option {
	return func(e *Engine) { e.rollDie = roll }
}

func defaultDie() int { return rand.IntN(6) + 1 }

// New 创建新游戏，座位 0 先手
func New(players []string, useDeckel bool, opts ...Option) *Engine {
	n := len(players)
	e := &Engine{
		Base: game.Base{
			GameType: game.TypeSchocken,
			Players:  slices.Clone(players),
		},
		UseDeckel:  useDeckel,
		Round:      round.New(n),
		MaxThrows:  MaxThrows,
		Scores:     make([]*Rating, n),
		History:    [][]*Rating{make([]*Rating, n)},
		Wins:       make([]int, n),
		Deckel:     make([]int, n),
		HalfLosses: make([]int, n),
		rollDie:    defaultDie,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Current = e.Round.Current
	e.Message = fmt.Sprintf("%s 先掷骰。", e.Players[e.Current])
	return e
}

// Restored 快照恢复后补齐未序列化的字段
func (e *Engine) Restored(opts ...Option) *Engine {
	e.rollDie = defaultDie
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Policy(game.Intent) game.ActorPolicy { return game.CurrentOnly }

func (e *Engine) Close() {}

func (e *Engine) Apply(seat int, intent game.Intent) error {
	if e.Done {
		return apperrors.ErrGameFinished
	}
	switch in := intent.(type) {
	case game.Roll:
		return e.roll()
	case game.ToggleHold:
		return e.toggleHold(in.Index)
	case game.EndTurn:
		return e.endTurn()
	default:
		return apperrors.ErrActionUnknown
	}
}

func (e *Engine) roll() error {
	if e.ThrowCount >= e.MaxThrows {
		return apperrors.Illegal("没有剩余的掷骰次数")
	}
	for i := range e.Dice {
		if !e.Held[i] || e.Dice[i] == 0 {
			e.Dice[i] = e.rollDie()
		}
	}
	e.ThrowCount++
	e.Message = ""
	return nil
}

func (e *Engine) toggleHold(i int) error {
	if i < 0 || i >= len(e.Dice) {
		return apperrors.Newf(protocol.ErrCodeInvalidValue, "骰子序号无效: %d", i)
	}
	if e.Dice[i] == 0 {
		return apperrors.Illegal("请先掷骰")
	}
	e.Held[i] = !e.Held[i]
	return nil
}

func (e *Engine) endTurn() error {
	if e.ThrowCount == 0 {
		return apperrors.Illegal("请至少掷一次骰子再结束回合")
	}

	// 起始玩家的掷骰次数决定本轮上限
	if e.Round.IsStarter() {
		e.MaxThrows = min(MaxThrows, e.ThrowCount)
	}

	rating := Rate(e.Dice, e.ThrowCount)
	e.Scores[e.Current] = &rating
	e.History[len(e.History)-1][e.Current] = &rating
	e.Message = fmt.Sprintf("%s 掷出 %s。", e.Players[e.Current], rating.Label)

	if e.Round.Advance() {
		e.finishRound()
		return nil
	}

	e.Current = e.Round.Current
	e.resetTurn()
	return nil
}

func (e *Engine) resetTurn() {
	e.ThrowCount = 0
	e.Dice = [3]int{}
	e.Held = [3]bool{}
}

// finishRound 结算本轮：输家拿杯垫（或胜者计一胜），输家开始下一轮
func (e *Engine) finishRound() {
	out := round.Resolve(&e.Round, e.Scores, Compare)
	winner, loser := out.Winner, out.Loser
	best := e.Scores[winner]

	if e.UseDeckel {
		penalty := Penalty(best)
		e.Deckel[loser] += penalty
		e.Message = fmt.Sprintf("第 %d 轮结束。胜者: %s（%s）。输家: %s（+%d 杯垫）。",
			e.Round.Number, e.Players[winner], best.Label, e.Players[loser], penalty)

		if e.Deckel[loser] >= MaxDeckel {
			if e.loseHalf(loser) {
				return
			}
		}
	} else {
		e.Wins[winner]++
		e.Message = fmt.Sprintf("第 %d 轮结束。胜者: %s（%s）。", e.Round.Number, e.Players[winner], best.Label)
	}

	e.Round.BeginRound(loser)
	e.Current = e.Round.Current
	e.MaxThrows = MaxThrows
	e.Scores = make([]*Rating, len(e.Players))
	e.History = append(e.History, make([]*Rating, len(e.Players)))
	e.resetTurn()
}

// loseHalf 处理输掉半场，游戏结束时返回 true
func (e *Engine) loseHalf(loser int) (finished bool) {
	e.HalfLosses[loser]++

	if e.InFinal || e.HalfLosses[loser] >= 2 {
		e.Done = true
		e.Loser = &loser
		e.Message += fmt.Sprintf(" %s 输掉了整局。", e.Players[loser])
		return true
	}

	var halfLosers []int
	for seat, n := range e.HalfLosses {
		if n > 0 {
			halfLosers = append(halfLosers, seat)
		}
	}

	if len(halfLosers) >= 2 {
		e.InFinal = true
		e.FinalPlayers = halfLosers[:2]
		e.Round.Restrict(e.FinalPlayers)
		for _, seat := range e.FinalPlayers {
			e.Deckel[seat] = 0
		}
		e.Message += fmt.Sprintf(" 决赛开始: %s 对 %s。", e.Players[e.FinalPlayers[0]], e.Players[e.FinalPlayers[1]])
		return false
	}

	for i := range e.Deckel {
		e.Deckel[i] = 0
	}
	e.Message += " 新的半场开始。"
	return false
}
