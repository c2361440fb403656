package kwyx

import (
	"maps"
	"slices"
	"strings"

	"github.com/palemoky/gamehall/internal/apperrors"
)

// Cells 每行的格子数
const Cells = 11

// 关闭一行之前至少需要的标记数
const minMarksToLock = 5

// 行颜色
const (
	RowRed    = "red"
	RowYellow = "yellow"
	RowGreen  = "green"
	RowBlue   = "blue"
)

// Rows 行的固定顺序，也是彩色骰子的顺序
var Rows = []string{RowRed, RowYellow, RowGreen, RowBlue}

// NormalizeRow 统一行名写法
func NormalizeRow(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsRow 是否为已知的行
func IsRow(color string) bool {
	return slices.Contains(Rows, color)
}

// CellIndex 数值在该行中的位置：红黄 2→12，绿蓝 12→2；不存在返回 -1
func CellIndex(color string, value int) int {
	if value < 2 || value > 12 {
		return -1
	}
	switch color {
	case RowRed, RowYellow:
		return value - 2
	case RowGreen, RowBlue:
		return 12 - value
	default:
		return -1
	}
}

// Scorecard 单个玩家的记分卡
type Scorecard struct {
	Red     [Cells]bool     `json:"red"`
	Yellow  [Cells]bool     `json:"yellow"`
	Green   [Cells]bool     `json:"green"`
	Blue    [Cells]bool     `json:"blue"`
	Locks   map[string]bool `json:"locks"`
	Strikes int             `json:"strikes"`
}

// NewScorecard 空白记分卡
func NewScorecard() *Scorecard {
	return &Scorecard{Locks: map[string]bool{RowRed: false, RowYellow: false, RowGreen: false, RowBlue: false}}
}

// Clone 深拷贝
func (s *Scorecard) Clone() *Scorecard {
	c := *s
	c.Locks = maps.Clone(s.Locks)
	if c.Locks == nil {
		c.Locks = map[string]bool{}
	}
	return &c
}

func (s *Scorecard) row(color string) *[Cells]bool {
	switch color {
	case RowRed:
		return &s.Red
	case RowYellow:
		return &s.Yellow
	case RowGreen:
		return &s.Green
	case RowBlue:
		return &s.Blue
	}
	return nil
}

// Marks 某一行的标记数
func (s *Scorecard) Marks(color string) int {
	row := s.row(color)
	if row == nil {
		return 0
	}
	n := 0
	for _, marked := range row {
		if marked {
			n++
		}
	}
	return n
}

// lastMark 最右边的标记位置，没有标记返回 -1
func (s *Scorecard) lastMark(color string) int {
	row := s.row(color)
	for i := Cells - 1; i >= 0; i-- {
		if row[i] {
			return i
		}
	}
	return -1
}

// Score 记分卡得分：每行 m(m+1)/2，关闭的行加 1，每次失误扣 5
func (s *Scorecard) Score() int {
	total := 0
	for _, color := range Rows {
		m := s.Marks(color)
		total += m * (m + 1) / 2
		if s.Locks[color] {
			total++
		}
	}
	return total - 5*s.Strikes
}

// canMark 检查能否在 color 行标记 value，返回格子位置和是否为最后一格
func (s *Scorecard) canMark(rowLocks map[string]bool, color string, value int) (index int, last bool, err error) {
	if !IsRow(color) {
		return 0, false, apperrors.Illegal("未知的行")
	}
	if rowLocks[color] {
		return 0, false, apperrors.Illegal("这一行已经关闭")
	}
	index = CellIndex(color, value)
	if index < 0 {
		return 0, false, apperrors.Illegal("无效的数值")
	}
	if s.row(color)[index] {
		return 0, false, apperrors.Illegal("这一格已经标记过")
	}
	if index <= s.lastMark(color) {
		return 0, false, apperrors.Illegal("只能标记在已有标记的右边")
	}
	last = index == Cells-1
	if last && s.Marks(color) < minMarksToLock {
		return 0, false, apperrors.Illegal("至少需要 5 个标记才能关闭这一行")
	}
	return index, last, nil
}

// mark 标记格子；最后一格同时关闭本卡和全局的这一行
func (s *Scorecard) mark(rowLocks map[string]bool, color string, index int, last bool) {
	s.row(color)[index] = true
	if last {
		s.Locks[color] = true
		rowLocks[color] = true
	}
}
