// Package skat 实现三人 Skat：两阶段叫分、底牌、十墩出牌和定约计分。
package skat

import (
	"fmt"
	"slices"
	"strings"

	"github.com/palemoky/gamehall/internal/apperrors"
	"github.com/palemoky/gamehall/internal/game"
	"github.com/palemoky/gamehall/internal/game/card"
)

// Phase 游戏阶段
type Phase string

const (
	PhaseBidding Phase = "bidding"
	PhaseSkat    Phase = "skat"
	PhasePlaying Phase = "playing"
)

const (
	// Seats Skat 固定三人
	Seats = 3
	// Tricks 每局墩数
	Tricks = 10
	// WinningPoints 庄家获胜所需分数
	WinningPoints = 61
)

// Engine Skat 游戏状态
//
// currentPlayer 的含义随阶段变化：叫分阶段是该叫分/应答的人，出牌阶段是该出牌的人。
type Engine struct {
	game.Base
	Hands        [][]card.Card `json:"hands"`
	Skat         []card.Card   `json:"skat"`
	SkatPile     []card.Card   `json:"skat_pile"`
	SkatTaken    bool          `json:"skat_taken"`
	Discarded    bool          `json:"discarded"`
	DealerSeat   int           `json:"dealer_seat"`
	Forehand     int           `json:"forehand"`
	Middlehand   int           `json:"middlehand"`
	Rearhand     int           `json:"rearhand"`
	Phase        Phase         `json:"phase"`
	Bidding      *Bidding      `json:"bidding"`
	Declarer     *int          `json:"declarer"`
	HighestBid   *int          `json:"highest_bid"`
	Game         *Contract     `json:"game"`
	TrickPoints  []int         `json:"trick_points"`
	CurrentTrick []Play        `json:"current_trick"`
	LeadSuit     string        `json:"lead_suit"`
	TrickNumber  int           `json:"trick_number"`
	TrickWinners []int         `json:"trick_winners"`
}

// Option 引擎选项
type Option func(*Engine)

// WithDeal 指定发牌（测试用）
func WithDeal(hands [Seats][]card.Card, skat []card.Card) Option {
	return func(e *Engine) {
		for i := range hands {
			e.Hands[i] = slices.Clone(hands[i])
		}
		e.Skat = slices.Clone(skat)
	}
}

// WithDealer 指定庄位（发牌人）
func WithDealer(seat int) Option {
	return func(e *Engine) { e.DealerSeat = seat }
}

// New 发牌并开始叫分
func New(players []string, opts ...Option) (*Engine, error) {
	if len(players) != Seats {
		return nil, apperrors.ErrSkatNeedsThree
	}

	deck := card.NewDeck()
	deck.Shuffle()

	e := &Engine{
		Base: game.Base{
			GameType: game.TypeSkat,
			Players:  slices.Clone(players),
		},
		Hands:        make([][]card.Card, Seats),
		SkatPile:     []card.Card{},
		TrickPoints:  make([]int, Seats),
		CurrentTrick: []Play{},
		TrickNumber:  1,
		TrickWinners: []int{},
	}
	for i := range Seats {
		e.Hands[i] = slices.Clone(deck[i*10 : (i+1)*10])
		card.Sort(e.Hands[i])
	}
	e.Skat = slices.Clone(deck[30:])

	for _, opt := range opts {
		opt(e)
	}
	e.startBidding()
	return e, nil
}

func (e *Engine) Policy(game.Intent) game.ActorPolicy { return game.CurrentOnly }

func (e *Engine) Close() {}

func (e *Engine) Apply(seat int, intent game.Intent) error {
	if e.Done {
		return apperrors.ErrGameFinished
	}

	switch in := intent.(type) {
	case game.SkatBid:
		if err := e.requirePhase(PhaseBidding); err != nil {
			return err
		}
		return e.bid(seat, in.Value)
	case game.SkatHold:
		if err := e.requirePhase(PhaseBidding); err != nil {
			return err
		}
		return e.hold(seat)
	case game.SkatPass:
		if err := e.requirePhase(PhaseBidding); err != nil {
			return err
		}
		return e.pass(seat)
	case game.SkatTakeSkat:
		if err := e.requireDeclarer(seat); err != nil {
			return err
		}
		return e.takeSkat()
	case game.SkatDiscard:
		if err := e.requireDeclarer(seat); err != nil {
			return err
		}
		return e.discard(in.Cards)
	case game.SkatChooseGame:
		if err := e.requireDeclarer(seat); err != nil {
			return err
		}
		return e.chooseGame(in)
	case game.SkatPlayCard:
		if err := e.requirePhase(PhasePlaying); err != nil {
			return err
		}
		return e.playCard(seat, in.Card)
	default:
		return apperrors.ErrActionUnknown
	}
}

func (e *Engine) requirePhase(p Phase) error {
	if e.Phase != p {
		return apperrors.ErrWrongPhase
	}
	return nil
}

func (e *Engine) requireDeclarer(seat int) error {
	if err := e.requirePhase(PhaseSkat); err != nil {
		return err
	}
	if e.Declarer == nil || seat != *e.Declarer {
		return apperrors.Illegal("只有庄家可以处理底牌和定约")
	}
	return nil
}

func (e *Engine) takeSkat() error {
	if e.SkatTaken {
		return apperrors.Illegal("底牌已经拿过了")
	}
	d := *e.Declarer
	e.Hands[d] = append(e.Hands[d], e.Skat...)
	card.Sort(e.Hands[d])
	e.Skat = []card.Card{}
	e.SkatTaken = true
	e.Message = fmt.Sprintf("%s 拿起底牌，请扣两张。", e.Players[d])
	return nil
}

// discard 先完整校验再修改手牌
func (e *Engine) discard(cards []card.Card) error {
	if !e.SkatTaken {
		return apperrors.Illegal("还没有拿底牌")
	}
	if e.Discarded {
		return apperrors.Illegal("已经扣过牌了")
	}
	if len(cards) != 2 {
		return apperrors.Illegal("必须正好扣两张牌")
	}
	if card.HasDuplicates(cards) {
		return apperrors.Illegal("不能重复扣同一张牌")
	}

	d := *e.Declarer
	rest, ok := card.RemoveCards(e.Hands[d], cards)
	if !ok {
		return apperrors.Illegal("要扣的牌不在手中")
	}

	e.Hands[d] = rest
	e.SkatPile = slices.Clone(cards)
	e.Discarded = true
	e.Message = fmt.Sprintf("%s 已扣牌，请定约。", e.Players[d])
	return nil
}

func (e *Engine) chooseGame(in game.SkatChooseGame) error {
	if in.Hand && e.SkatTaken {
		return apperrors.Illegal("拿过底牌就不能打手牌")
	}
	if !in.Hand && e.SkatTaken && !e.Discarded {
		return apperrors.Illegal("请先扣两张牌")
	}

	contract := &Contract{
		Type:   strings.ToLower(strings.TrimSpace(in.Type)),
		Hand:   in.Hand,
		Ouvert: in.Ouvert,
	}
	switch contract.Type {
	case ContractSuit:
		suit, err := card.ParseSuit(in.Suit)
		if err != nil {
			return apperrors.Illegal("无效的将牌花色")
		}
		contract.Suit = &suit
	case ContractGrand, ContractNull:
	default:
		return apperrors.Illegal("无效的游戏类型")
	}

	d := *e.Declarer
	pile := e.SkatPile
	if !e.SkatTaken {
		pile = e.Skat
	}
	contract.Matadors = Matadors(slices.Concat(e.Hands[d], pile), contract)

	value := GameValue(contract, Modifiers{Matadors: contract.Matadors, Hand: contract.Hand, Ouvert: contract.Ouvert})
	if e.HighestBid != nil && value < *e.HighestBid {
		return apperrors.Illegal(fmt.Sprintf("定约分值 %d 达不到叫分 %d", value, *e.HighestBid))
	}

	// 手牌游戏的底牌直接归庄家
	if !e.SkatTaken {
		e.SkatPile = e.Skat
		e.Skat = []card.Card{}
	}
	e.Game = contract
	e.Phase = PhasePlaying
	e.TrickNumber = 1
	e.CurrentTrick = []Play{}
	e.LeadSuit = ""
	e.TrickWinners = []int{}
	e.TrickPoints = make([]int, Seats)
	e.Current = e.Forehand
	e.Message = fmt.Sprintf("%s 宣布 %s。", e.Players[d], contract.describe())
	return nil
}

func (c *Contract) describe() string {
	switch c.Type {
	case ContractSuit:
		return "花色游戏 " + c.Suit.String()
	case ContractGrand:
		return "Grand"
	default:
		return "Null"
	}
}

func (e *Engine) playCard(seat int, cd card.Card) error {
	if seat != e.Current {
		return apperrors.ErrNotYourTurn
	}
	hand := e.Hands[seat]
	if !card.Contains(hand, cd) {
		return apperrors.Illegal("这张牌不在您手中")
	}
	if !mustFollow(hand, cd, e.LeadSuit, e.Game) {
		if e.LeadSuit == LeadTrump {
			return apperrors.Illegal("必须跟将牌")
		}
		return apperrors.Illegal("必须跟同花色")
	}

	e.Hands[seat], _ = card.RemoveCards(hand, []card.Card{cd})
	if e.LeadSuit == "" {
		e.LeadSuit = LeadOf(cd, e.Game)
	}
	e.CurrentTrick = append(e.CurrentTrick, Play{Seat: seat, Card: cd})
	e.Message = fmt.Sprintf("%s 出 %s。", e.Players[seat], cd)

	if len(e.CurrentTrick) < Seats {
		e.Current = e.NextSeat(seat)
		return nil
	}

	e.closeTrick()
	return nil
}

// closeTrick 结算一墩，赢家先出下一墩
func (e *Engine) closeTrick() {
	winner := TrickWinner(e.CurrentTrick, e.LeadSuit, e.Game)
	if !e.Game.IsNull() {
		for _, p := range e.CurrentTrick {
			e.TrickPoints[winner] += p.Card.Points()
		}
	}
	e.TrickWinners = append(e.TrickWinners, winner)
	e.Current = winner
	e.CurrentTrick = []Play{}
	e.LeadSuit = ""
	e.TrickNumber++

	if e.TrickNumber > Tricks {
		e.settle()
		return
	}
	e.Message = fmt.Sprintf("%s 赢得这一墩。", e.Players[winner])
}

// settle 十墩打完后结算定约
func (e *Engine) settle() {
	e.Done = true
	d := *e.Declarer
	c := e.Game

	declarerTricks := 0
	for _, w := range e.TrickWinners {
		if w == d {
			declarerTricks++
		}
	}

	if c.IsNull() {
		won := declarerTricks == 0
		value := GameValue(c, Modifiers{Hand: c.Hand, Ouvert: c.Ouvert})
		c.Result = &Result{DeclarerTricks: declarerTricks, Won: won, Value: signed(value, won)}
		e.Message = fmt.Sprintf("%s %s Null，分值 %d。", e.Players[d], wonWord(won), value)
		return
	}

	total := 0
	for _, p := range e.TrickPoints {
		total += p
	}
	declarerPoints := e.TrickPoints[d] + card.Points(e.SkatPile)
	defendersPoints := total - e.TrickPoints[d]
	won := declarerPoints >= WinningPoints
	schneider := declarerPoints >= 90 || defendersPoints <= 30
	schwarz := declarerTricks == Tricks

	value := GameValue(c, Modifiers{
		Matadors:  c.Matadors,
		Hand:      c.Hand,
		Schneider: schneider,
		Schwarz:   schwarz,
		Ouvert:    c.Ouvert,
	})
	c.Result = &Result{
		DeclarerTricks:  declarerTricks,
		DeclarerPoints:  declarerPoints,
		DefendersPoints: defendersPoints,
		Schneider:       schneider,
		Schwarz:         schwarz,
		Won:             won,
		Value:           signed(value, won),
	}
	e.Message = fmt.Sprintf("%s %s（%d 分），分值 %d。", e.Players[d], wonWord(won), declarerPoints, value)
}

func signed(value int, won bool) int {
	if won {
		return value
	}
	return -value
}

func wonWord(won bool) string {
	if won {
		return "赢了"
	}
	return "输了"
}
