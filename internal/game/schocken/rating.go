package schocken

import (
	"cmp"
	"fmt"
	"slices"
)

// 牌型等级
const (
	TierPlain     = 0 // 普通点数
	TierStrasse   = 1 // 顺子
	TierPasch     = 2 // 三同
	TierSchock    = 3 // 两个 1 + N
	TierSchockOut = 4 // 三个 1
)

// Rating 一次回合结束时的骰面评级
type Rating struct {
	Label    string `json:"label"`
	Tier     int    `json:"tier"`
	Subvalue int    `json:"subvalue"`
	Throws   int    `json:"throws"`
}

// Rate 评定三颗骰子
func Rate(dice [3]int, throws int) Rating {
	sorted := []int{dice[0], dice[1], dice[2]}
	slices.SortFunc(sorted, func(x, y int) int { return cmp.Compare(y, x) })
	a, b, c := sorted[0], sorted[1], sorted[2]

	ones := 0
	for _, d := range sorted {
		if d == 1 {
			ones++
		}
	}

	r := Rating{Throws: throws}
	switch {
	case ones == 3:
		r.Label, r.Tier, r.Subvalue = "Schock Out", TierSchockOut, 6
	case ones == 2:
		r.Label, r.Tier, r.Subvalue = fmt.Sprintf("Schock %d", a), TierSchock, a
	case a == b && b == c:
		r.Label, r.Tier, r.Subvalue = "Pasch", TierPasch, a
	case a-b == 1 && b-c == 1:
		r.Label, r.Tier, r.Subvalue = "Straße", TierStrasse, 0
	default:
		r.Label, r.Tier, r.Subvalue = fmt.Sprintf("%d-%d-%d", a, b, c), TierPlain, a*100+b*10+c
	}
	return r
}

// Compare 比较两个评级，a 更好时返回正数；同等级同点数时掷骰次数少者更好
func Compare(a, b *Rating) int {
	if c := cmp.Compare(a.Tier, b.Tier); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Subvalue, b.Subvalue); c != 0 {
		return c
	}
	return cmp.Compare(b.Throws, a.Throws)
}

// Penalty 胜者评级决定输家拿到的杯垫数
func Penalty(winner *Rating) int {
	switch winner.Tier {
	case TierStrasse:
		return 2
	case TierPasch:
		return 3
	case TierSchock:
		return winner.Subvalue
	case TierSchockOut:
		return MaxDeckel
	default:
		return 1
	}
}
