package skat

import (
	"slices"

	"github.com/palemoky/gamehall/internal/game/card"
)

// LeadTrump 首张牌为将牌时的 LeadSuit
const LeadTrump = "trump"

// Play 一墩中的一张出牌
type Play struct {
	Seat int       `json:"seat"`
	Card card.Card `json:"card"`
}

// 非 Null 游戏的同花色大小顺序
var suitOrder = []card.Rank{card.Rank7, card.Rank8, card.Rank9, card.RankQ, card.RankK, card.Rank10, card.RankA}

// Null 游戏的大小顺序
var nullOrder = []card.Rank{card.Rank7, card.Rank8, card.Rank9, card.Rank10, card.RankJ, card.RankQ, card.RankK, card.RankA}

// LeadOf 首张牌决定的跟牌类别
func LeadOf(cd card.Card, c *Contract) string {
	if c.IsTrump(cd) {
		return LeadTrump
	}
	return cd.Suit.String()
}

// TrickRank 牌在本墩中的大小，-1 表示不能赢这一墩
func TrickRank(cd card.Card, c *Contract, lead string) int {
	if c.IsNull() {
		if lead != "" && cd.Suit.String() != lead {
			return -1
		}
		return slices.Index(nullOrder, cd.Rank)
	}
	if c.IsTrump(cd) {
		if cd.Rank == card.RankJ {
			return 100 + len(card.Suits) - slices.Index(card.Suits, cd.Suit)
		}
		return 50 + slices.Index(suitOrder, cd.Rank)
	}
	if lead != "" && lead != LeadTrump && cd.Suit.String() == lead {
		return slices.Index(suitOrder, cd.Rank)
	}
	return -1
}

// TrickWinner 本墩赢家的座位；与出牌顺序无关，只取决于牌、首牌类别和定约
func TrickWinner(trick []Play, lead string, c *Contract) int {
	if len(trick) == 0 {
		return 0
	}
	best, bestRank := trick[0].Seat, -1
	for _, p := range trick {
		if r := TrickRank(p.Card, c, lead); r > bestRank {
			best, bestRank = p.Seat, r
		}
	}
	return best
}

// mustFollow 检查出牌是否符合跟牌规则
func mustFollow(hand []card.Card, played card.Card, lead string, c *Contract) bool {
	if lead == "" {
		return true
	}
	if lead == LeadTrump {
		hasTrump := slices.ContainsFunc(hand, c.IsTrump)
		return !hasTrump || c.IsTrump(played)
	}
	follows := func(cd card.Card) bool {
		return cd.Suit.String() == lead && !c.IsTrump(cd)
	}
	return !slices.ContainsFunc(hand, follows) || follows(played)
}
