package handler

import (
	"github.com/palemoky/gamehall/internal/apperrors"
	"github.com/palemoky/gamehall/internal/game"
	"github.com/palemoky/gamehall/internal/game/card"
	"github.com/palemoky/gamehall/internal/protocol"
	"github.com/palemoky/gamehall/internal/protocol/codec"
	"github.com/palemoky/gamehall/internal/protocol/convert"
	"github.com/palemoky/gamehall/internal/types"
)

// intentDecoder 把消息解析成房间号和游戏意图
type intentDecoder func(msg *protocol.Message) (code string, intent game.Intent, err error)

// roomScoped 嵌入了 protocol.RoomRef 的 payload
type roomScoped[T any] interface {
	*T
	RoomCode() string
}

// decodeIntent 解析 T 类型的 payload 再交给 build 构造意图
//
// 字段不合法时 build 返回 game.Malformed，由房间在校验出牌权之后报错。
func decodeIntent[T any, PT roomScoped[T]](build func(p *T) game.Intent) intentDecoder {
	return func(msg *protocol.Message) (string, game.Intent, error) {
		payload, err := codec.ParsePayload[T](msg)
		if err != nil {
			return "", nil, apperrors.ErrInvalidMessage
		}
		return PT(payload).RoomCode(), build(payload), nil
	}
}

// bare 不带参数的意图
func bare(intent game.Intent) intentDecoder {
	return decodeIntent(func(*protocol.RoomRef) game.Intent { return intent })
}

var intentDecoders = map[protocol.MessageType]intentDecoder{
	protocol.MsgRoll: bare(game.Roll{}),
	protocol.MsgToggleHold: decodeIntent(func(p *protocol.ToggleHoldPayload) game.Intent {
		return game.ToggleHold{Index: p.Index}
	}),
	protocol.MsgEndTurn: decodeIntent(func(p *protocol.EndTurnPayload) game.Intent {
		return game.EndTurn{Category: p.Category, Kwyx: convert.KwyxChoice(p.Kwyx)}
	}),

	protocol.MsgSkatBid: decodeIntent(func(p *protocol.SkatBidPayload) game.Intent {
		return game.SkatBid{Value: p.Value}
	}),
	protocol.MsgSkatHold:     bare(game.SkatHold{}),
	protocol.MsgSkatPass:     bare(game.SkatPass{}),
	protocol.MsgSkatTakeSkat: bare(game.SkatTakeSkat{}),
	protocol.MsgSkatDiscard: decodeIntent(func(p *protocol.SkatDiscardPayload) game.Intent {
		cards, err := convert.InfosToCards(p.Cards)
		if err != nil {
			return game.Malformed{Intent: game.SkatDiscard{}, Err: apperrors.ErrInvalidCard}
		}
		return game.SkatDiscard{Cards: cards}
	}),
	protocol.MsgSkatChooseGame: decodeIntent(func(p *protocol.SkatChooseGamePayload) game.Intent {
		return game.SkatChooseGame{Type: p.Type, Suit: p.Suit, Hand: p.Hand, Ouvert: p.Ouvert}
	}),
	protocol.MsgSkatPlayCard: decodeIntent(func(p *protocol.SkatPlayCardPayload) game.Intent {
		c, err := cardOf(p.Card)
		if err != nil {
			return game.Malformed{Intent: game.SkatPlayCard{}, Err: err}
		}
		return game.SkatPlayCard{Card: c}
	}),
}

// applyIntent 解析意图并交给房间执行
func (h *Handler) applyIntent(decode intentDecoder) handlerFunc {
	return func(client types.ClientInterface, msg *protocol.Message) {
		code, intent, err := decode(msg)
		if err == nil {
			err = h.rooms.Apply(client, code, intent)
		}
		if err != nil {
			h.sendError(client, err)
		}
	}
}

func cardOf(info *protocol.CardInfo) (card.Card, error) {
	if info == nil {
		return card.Card{}, apperrors.ErrInvalidCard
	}
	c, err := convert.InfoToCard(*info)
	if err != nil {
		return card.Card{}, apperrors.ErrInvalidCard
	}
	return c, nil
}
