// Package convert 在协议结构和游戏类型之间转换。
package convert

import (
	"github.com/palemoky/gamehall/internal/game"
	"github.com/palemoky/gamehall/internal/game/card"
	"github.com/palemoky/gamehall/internal/protocol"
)

// CardToInfo 将 card.Card 转换为 protocol.CardInfo
func CardToInfo(c card.Card) protocol.CardInfo {
	return protocol.CardInfo{
		Suit: c.Suit.String(),
		Rank: c.Rank.String(),
	}
}

// CardsToInfos 将 []card.Card 转换为 []protocol.CardInfo
func CardsToInfos(cards []card.Card) []protocol.CardInfo {
	infos := make([]protocol.CardInfo, len(cards))
	for i, c := range cards {
		infos[i] = CardToInfo(c)
	}
	return infos
}

// InfoToCard 将 protocol.CardInfo 转换为 card.Card，花色和点数接受常见别名
func InfoToCard(info protocol.CardInfo) (card.Card, error) {
	return card.Parse(info.Suit, info.Rank)
}

// InfosToCards 将 []protocol.CardInfo 转换为 []card.Card，遇到第一张无法识别的牌即返回错误
func InfosToCards(infos []protocol.CardInfo) ([]card.Card, error) {
	cards := make([]card.Card, len(infos))
	for i, info := range infos {
		c, err := InfoToCard(info)
		if err != nil {
			return nil, err
		}
		cards[i] = c
	}
	return cards, nil
}

// KwyxChoice 将协议里的标记选择转换为游戏意图参数
func KwyxChoice(p *protocol.KwyxChoice) *game.KwyxChoice {
	if p == nil {
		return nil
	}
	return &game.KwyxChoice{
		WhiteRow: p.WhiteRow,
		ColorRow: p.ColorRow,
		ColorSum: p.ColorSum,
		Penalty:  p.Penalty,
	}
}
