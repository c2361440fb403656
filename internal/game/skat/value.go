package skat

import (
	"slices"

	"github.com/palemoky/gamehall/internal/game/card"
)

// BidValues 合法叫分，按大小排列
var BidValues = []int{
	18, 20, 22, 23, 24, 27, 30, 33, 35, 36, 40, 44, 45, 46, 48, 50, 54, 55, 59, 60,
	63, 66, 70, 72, 77, 80, 81, 84, 88, 90, 96, 99, 100, 108, 110, 120, 121, 126, 132,
	135, 144, 150, 153, 160, 162, 168, 176, 180, 187, 192, 198, 204, 216, 220, 240, 264,
}

// 定约类型
const (
	ContractSuit  = "suit"
	ContractGrand = "grand"
	ContractNull  = "null"
)

// suitBase 花色游戏的基础分
var suitBase = map[card.Suit]int{
	card.Clubs:    12,
	card.Spades:   11,
	card.Hearts:   10,
	card.Diamonds: 9,
}

const grandBase = 24

// Null 游戏固定分值
const (
	NullNormal     = 23
	NullHand       = 35
	NullOuvert     = 46
	NullHandOuvert = 59
)

// Contract 庄家宣布的定约
type Contract struct {
	Type     string     `json:"type"`
	Suit     *card.Suit `json:"suit,omitempty"`
	Hand     bool       `json:"hand"`
	Ouvert   bool       `json:"ouvert"`
	Matadors int        `json:"matadors"`
	Result   *Result    `json:"result,omitempty"`
}

// Result 结算结果
type Result struct {
	DeclarerTricks  int  `json:"declarer_tricks"`
	DeclarerPoints  int  `json:"declarer_points"`
	DefendersPoints int  `json:"defenders_points"`
	Schneider       bool `json:"schneider"`
	Schwarz         bool `json:"schwarz"`
	Won             bool `json:"won"`
	Value           int  `json:"value"`
}

// IsNull 是否为 Null 游戏
func (c *Contract) IsNull() bool {
	return c.Type == ContractNull
}

// Base 基础分（Null 游戏为 0）
func (c *Contract) Base() int {
	switch c.Type {
	case ContractGrand:
		return grandBase
	case ContractSuit:
		if c.Suit != nil {
			return suitBase[*c.Suit]
		}
	}
	return 0
}

// IsTrump 该牌在此定约下是否为将牌：非 Null 游戏所有 J 都是将牌，花色游戏再加上该花色
func (c *Contract) IsTrump(cd card.Card) bool {
	if c == nil || c.IsNull() {
		return false
	}
	if cd.Rank == card.RankJ {
		return true
	}
	return c.Type == ContractSuit && c.Suit != nil && cd.Suit == *c.Suit
}

// Matadors 从 ♣J 往下数连续持有（或连续缺少）的 J 的数量
func Matadors(cards []card.Card, c *Contract) int {
	if c.IsNull() {
		return 0
	}
	with := card.Contains(cards, card.Card{Suit: card.Clubs, Rank: card.RankJ})
	count := 0
	for _, s := range card.Suits {
		if card.Contains(cards, card.Card{Suit: s, Rank: card.RankJ}) != with {
			break
		}
		count++
	}
	return count
}

// Modifiers 影响倍数的附加项
type Modifiers struct {
	Matadors  int
	Hand      bool
	Schneider bool
	Schwarz   bool
	Ouvert    bool
}

// GameValue 计算定约的分值
//
// Null 游戏查表；其他游戏为 基础分 × (1 + 连续 J 数 + 手牌 + Schneider + Schwarz + 明牌)。
func GameValue(c *Contract, m Modifiers) int {
	if c.IsNull() {
		switch {
		case m.Hand && m.Ouvert:
			return NullHandOuvert
		case m.Hand:
			return NullHand
		case m.Ouvert:
			return NullOuvert
		default:
			return NullNormal
		}
	}

	multiplier := 1 + m.Matadors
	for _, on := range []bool{m.Hand, m.Schneider, m.Schwarz, m.Ouvert} {
		if on {
			multiplier++
		}
	}
	return c.Base() * multiplier
}

// bidIndex 叫分在表中的位置，不合法返回 -1
func bidIndex(value int) int {
	return slices.Index(BidValues, value)
}
