package card

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Suit 定义花色，顺序即 J 的大小顺序（♣ > ♠ > ♥ > ♦）
type Suit int

// Rank 定义点数
type Rank int

// Card 定义一张牌
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

const (
	Clubs    Suit = iota // 梅花
	Spades               // 黑桃
	Hearts               // 红心
	Diamonds             // 方块
)

// Suits 按 J 的大小排列的全部花色
var Suits = []Suit{Clubs, Spades, Hearts, Diamonds}

// suitSymbols 花色符号映射表
var suitSymbols = map[Suit]string{
	Clubs:    "♣",
	Spades:   "♠",
	Hearts:   "♥",
	Diamonds: "♦",
}

// suitAliases 解析时额外接受的写法
var suitAliases = map[string]Suit{
	"♣": Clubs, "c": Clubs, "clubs": Clubs, "kreuz": Clubs,
	"♠": Spades, "s": Spades, "spades": Spades, "pik": Spades,
	"♥": Hearts, "h": Hearts, "hearts": Hearts, "herz": Hearts,
	"♦": Diamonds, "d": Diamonds, "diamonds": Diamonds, "karo": Diamonds,
}

func (s Suit) String() string {
	if symbol, ok := suitSymbols[s]; ok {
		return symbol
	}
	return "?"
}

// Valid 是否为合法花色
func (s Suit) Valid() bool {
	_, ok := suitSymbols[s]
	return ok
}

// ParseSuit 解析花色
func ParseSuit(s string) (Suit, error) {
	if suit, ok := suitAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return suit, nil
	}
	return 0, fmt.Errorf("无法识别的花色: %q", s)
}

func (s Suit) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("无效的花色: %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Suit) UnmarshalText(text []byte) error {
	suit, err := ParseSuit(string(text))
	if err != nil {
		return err
	}
	*s = suit
	return nil
}

const (
	Rank7 Rank = iota
	Rank8
	Rank9
	Rank10
	RankJ // Jack
	RankQ // Queen
	RankK // King
	RankA // Ace
)

// rankNames 牌面值字符串映射表
var rankNames = map[Rank]string{
	Rank7:  "7",
	Rank8:  "8",
	Rank9:  "9",
	Rank10: "10",
	RankJ:  "J",
	RankQ:  "Q",
	RankK:  "K",
	RankA:  "A",
}

// rankAliases 解析时额外接受的写法
var rankAliases = map[string]Rank{
	"7": Rank7, "8": Rank8, "9": Rank9, "10": Rank10, "T": Rank10,
	"J": RankJ, "B": RankJ,
	"Q": RankQ, "D": RankQ,
	"K": RankK,
	"A": RankA,
}

// rankPoints 牌的分值
var rankPoints = map[Rank]int{
	RankA:  11,
	Rank10: 10,
	RankK:  4,
	RankQ:  3,
	RankJ:  2,
}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return "?"
}

// Valid 是否为合法点数
func (r Rank) Valid() bool {
	_, ok := rankNames[r]
	return ok
}

// Points 牌的分值：A=11, 10=10, K=4, Q=3, J=2，其余为 0
func (r Rank) Points() int {
	return rankPoints[r]
}

// ParseRank 解析点数
func ParseRank(s string) (Rank, error) {
	if rank, ok := rankAliases[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return rank, nil
	}
	return 0, fmt.Errorf("无法识别的点数: %q", s)
}

func (r Rank) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("无效的点数: %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Rank) UnmarshalText(text []byte) error {
	rank, err := ParseRank(string(text))
	if err != nil {
		return err
	}
	*r = rank
	return nil
}

// Parse 由花色和点数字符串构造一张牌
func Parse(suit, rank string) (Card, error) {
	s, err := ParseSuit(suit)
	if err != nil {
		return Card{}, err
	}
	r, err := ParseRank(rank)
	if err != nil {
		return Card{}, err
	}
	return Card{Suit: s, Rank: r}, nil
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Points 牌的分值
func (c Card) Points() int {
	return c.Rank.Points()
}

// Deck 定义一副牌
type Deck []Card

// NewDeck 32 张牌（每种花色 7 到 A）
func NewDeck() Deck {
	deck := make(Deck, 0, 32)
	for _, s := range Suits {
		for r := Rank7; r <= RankA; r++ {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

func (d Deck) Shuffle() {
	rand.Shuffle(len(d), func(i, j int) {
		d[i], d[j] = d[j], d[i]
	})
}
