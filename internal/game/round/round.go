// Package round 实现回合制小游戏共用的轮转骨架：
// 按座位顺序轮流行动，所有人行动完后比较本轮结果，并由结果决定下一轮的起始座位。
package round

import (
	"cmp"
	"slices"
)

// Sequencer 回合轮转状态，可直接序列化进游戏快照
type Sequencer struct {
	Order     []int `json:"order"`      // 参与本轮的座位，按行动顺序
	Start     int   `json:"start_seat"` // 本轮起始座位
	TurnIndex int   `json:"turn_index"` // 本轮已行动的人数
	Current   int   `json:"current"`    // 当前行动的座位
	Number    int   `json:"round_number"`
}

// New 创建一个 seats 人参与的轮转，从座位 0 开始
func New(seats int) Sequencer {
	order := make([]int, seats)
	for i := range order {
		order[i] = i
	}
	return Sequencer{Order: order, Number: 1}
}

// IsStarter 当前座位是否为本轮起始座位
func (s *Sequencer) IsStarter() bool {
	return s.TurnIndex == 0
}

// position 座位在 Order 中的位置，不在时返回 0
func (s *Sequencer) position(seat int) int {
	if i := slices.Index(s.Order, seat); i >= 0 {
		return i
	}
	return 0
}

// Advance 当前座位行动完毕，轮到下一个座位
//
// 本轮所有座位都已行动时返回 true，此时 Current 不变，调用方应结算后调用 BeginRound。
func (s *Sequencer) Advance() (roundOver bool) {
	s.TurnIndex++
	if s.TurnIndex >= len(s.Order) {
		return true
	}
	startPos := s.position(s.Start)
	s.Current = s.Order[(startPos+s.TurnIndex)%len(s.Order)]
	return false
}

// BeginRound 开始新一轮，由 start 座位先行动
func (s *Sequencer) BeginRound(start int) {
	s.Number++
	s.Start = s.Order[s.position(start)]
	s.TurnIndex = 0
	s.Current = s.Start
}

// Restrict 只让 seats 参与后续轮次（例如决赛）
func (s *Sequencer) Restrict(seats []int) {
	order := slices.Clone(seats)
	slices.Sort(order)
	s.Order = order
}

// Outcome 一轮的结算结果
type Outcome struct {
	Ranking []int // 由好到差的座位
	Winner  int
	Loser   int
}

// Resolve 用 compare 对本轮参与者排序；compare 返回正数表示 a 优于 b，平局时座位号小的在前
func Resolve[T any](s *Sequencer, results []T, compare func(a, b T) int) Outcome {
	ranking := slices.Clone(s.Order)
	slices.SortStableFunc(ranking, func(a, b int) int {
		if c := compare(results[a], results[b]); c != 0 {
			return -c
		}
		return cmp.Compare(a, b)
	})
	return Outcome{
		Ranking: ranking,
		Winner:  ranking[0],
		Loser:   ranking[len(ranking)-1],
	}
}
