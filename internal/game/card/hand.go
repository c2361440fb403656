package card

import (
	"cmp"
	"slices"
)

// IndexOf 返回牌在手牌中的位置，不存在返回 -1
func IndexOf(hand []Card, c Card) int {
	return slices.Index(hand, c)
}

// Contains 手牌中是否有这张牌
func Contains(hand []Card, c Card) bool {
	return IndexOf(hand, c) >= 0
}

// RemoveCards 返回移除指定牌之后的新手牌，原切片不变
//
// 任意一张牌找不到时返回 ok=false。
func RemoveCards(hand, toRemove []Card) (rest []Card, ok bool) {
	rest = slices.Clone(hand)
	for _, c := range toRemove {
		i := IndexOf(rest, c)
		if i < 0 {
			return hand, false
		}
		rest = slices.Delete(rest, i, i+1)
	}
	return rest, true
}

// HasDuplicates 是否包含重复的牌
func HasDuplicates(cards []Card) bool {
	seen := make(map[Card]struct{}, len(cards))
	for _, c := range cards {
		if _, ok := seen[c]; ok {
			return true
		}
		seen[c] = struct{}{}
	}
	return false
}

// Points 一组牌的总分值
func Points(cards []Card) int {
	total := 0
	for _, c := range cards {
		total += c.Points()
	}
	return total
}

// Sort 按花色、点数排序（展示用）
func Sort(hand []Card) {
	slices.SortFunc(hand, func(a, b Card) int {
		if a.Suit != b.Suit {
			return cmp.Compare(a.Suit, b.Suit)
		}
		return cmp.Compare(a.Rank, b.Rank)
	})
}
