package skat

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/gamehall/internal/apperrors"
	"github.com/palemoky/gamehall/internal/game"
	"github.com/palemoky/gamehall/internal/game/card"
)

// 座位 0 发牌（后家），1 前家，2 中家
const (
	seatR = 0
	seatF = 1
	seatM = 2
)

func c(s card.Suit, r card.Rank) card.Card {
	return card.Card{Suit: s, Rank: r}
}

// fixedDeal 前家拿四个 J 和除 7 以外的全部梅花，其余两家没有将牌也没有梅花
func fixedDeal() ([Seats][]card.Card, []card.Card) {
	forehand := []card.Card{
		c(card.Clubs, card.RankJ), c(card.Spades, card.RankJ), c(card.Hearts, card.RankJ), c(card.Diamonds, card.RankJ),
		c(card.Clubs, card.RankA), c(card.Clubs, card.Rank10), c(card.Clubs, card.RankK),
		c(card.Clubs, card.RankQ), c(card.Clubs, card.Rank9), c(card.Clubs, card.Rank8),
	}
	middlehand := []card.Card{
		c(card.Spades, card.RankA), c(card.Spades, card.Rank10), c(card.Spades, card.RankK),
		c(card.Spades, card.RankQ), c(card.Spades, card.Rank9), c(card.Spades, card.Rank8),
		c(card.Hearts, card.RankA), c(card.Hearts, card.Rank10), c(card.Hearts, card.RankK), c(card.Hearts, card.RankQ),
	}
	rearhand := []card.Card{
		c(card.Hearts, card.Rank9), c(card.Hearts, card.Rank8), c(card.Hearts, card.Rank7),
		c(card.Diamonds, card.RankA), c(card.Diamonds, card.Rank10), c(card.Diamonds, card.RankK),
		c(card.Diamonds, card.RankQ), c(card.Diamonds, card.Rank9), c(card.Diamonds, card.Rank8), c(card.Diamonds, card.Rank7),
	}
	var hands [Seats][]card.Card
	hands[seatR], hands[seatF], hands[seatM] = rearhand, forehand, middlehand
	return hands, []card.Card{c(card.Clubs, card.Rank7), c(card.Spades, card.Rank7)}
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	hands, skat := fixedDeal()
	e, err := New([]string{"Rita", "Fritz", "Mia"}, WithDeal(hands, skat))
	require.NoError(t, err)
	return e
}

func snapshot(t *testing.T, e *Engine) string {
	t.Helper()
	data, err := json.Marshal(e)
	require.NoError(t, err)
	return string(data)
}

func assertSorted(t *testing.T, hand []card.Card) {
	t.Helper()
	sorted := slices.Clone(hand)
	card.Sort(sorted)
	assert.Equal(t, sorted, hand)
}

// forehandWins 前家叫 18，中家和后家都放弃
func forehandWins(t *testing.T, e *Engine) {
	t.Helper()
	require.NoError(t, e.Apply(seatF, game.SkatBid{Value: 18}))
	require.NoError(t, e.Apply(seatM, game.SkatPass{}))
	require.NoError(t, e.Apply(seatR, game.SkatPass{}))
	require.Equal(t, PhaseSkat, e.Phase)
	require.Equal(t, seatF, *e.Declarer)
}

func TestNew_RequiresThreePlayers(t *testing.T) {
	t.Parallel()

	_, err := New([]string{"a", "b"})
	assert.ErrorIs(t, err, apperrors.ErrSkatNeedsThree)

	e, err := New([]string{"a", "b", "c"})
	require.NoError(t, err)
	for _, h := range e.Hands {
		assert.Len(t, h, 10)
		assertSorted(t, h)
	}
	assert.Len(t, e.Skat, 2)
	assert.Equal(t, seatF, e.Forehand)
	assert.Equal(t, seatM, e.Middlehand)
	assert.Equal(t, seatR, e.Rearhand)
	assert.Equal(t, seatF, e.CurrentPlayer())
	assert.Equal(t, PhaseBidding, e.Phase)
}

func TestBidding_HoldThenOutbid(t *testing.T) {
	t.Parallel()

	e := newEngine(t)

	require.NoError(t, e.Apply(seatF, game.SkatBid{Value: 18}))
	require.NoError(t, e.Apply(seatM, game.SkatHold{}))
	require.NoError(t, e.Apply(seatF, game.SkatPass{}))

	// 中家赢下第一阶段，18 直接作为对后家的开叫
	assert.Equal(t, StageWinnerRearhand, e.Bidding.Stage)
	assert.Equal(t, seatM, e.Bidding.Bidder)
	assert.Equal(t, seatR, e.CurrentPlayer())

	require.NoError(t, e.Apply(seatR, game.SkatHold{}))
	require.NoError(t, e.Apply(seatM, game.SkatBid{Value: 20}))
	require.NoError(t, e.Apply(seatR, game.SkatPass{}))

	require.NotNil(t, e.Declarer)
	assert.Equal(t, seatM, *e.Declarer)
	assert.Equal(t, 20, *e.HighestBid)
	assert.Equal(t, PhaseSkat, e.Phase)
	assert.Equal(t, seatM, e.CurrentPlayer())
}

func TestBidding_AllPass(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	require.NoError(t, e.Apply(seatF, game.SkatPass{}))
	assert.Equal(t, seatM, e.CurrentPlayer(), "前家不叫，中家对后家开叫")
	require.NoError(t, e.Apply(seatM, game.SkatPass{}))

	// 中家也放弃，本局无人定约
	assert.True(t, e.Finished())
	assert.Nil(t, e.Declarer)
	assert.ErrorIs(t, e.Apply(seatR, game.SkatPass{}), apperrors.ErrGameFinished)
	assert.ErrorIs(t, e.Apply(seatF, game.SkatBid{Value: 18}), apperrors.ErrGameFinished)
}

func TestBidding_RejectsInvalidBids(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	before := snapshot(t, e)

	assert.Error(t, e.Apply(seatF, game.SkatBid{Value: 19}), "19 不在叫分表中")
	assert.Error(t, e.Apply(seatM, game.SkatBid{Value: 18}), "中家不是叫分方")
	assert.Error(t, e.Apply(seatF, game.SkatHold{}), "没有待回应的叫分")
	assert.Equal(t, before, snapshot(t, e))

	require.NoError(t, e.Apply(seatF, game.SkatBid{Value: 20}))
	require.NoError(t, e.Apply(seatM, game.SkatHold{}))
	assert.Error(t, e.Apply(seatF, game.SkatBid{Value: 18}), "叫分必须升高")
}

func TestSkat_WrongPhaseAndActor(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	assert.ErrorIs(t, e.Apply(seatF, game.SkatTakeSkat{}), apperrors.ErrWrongPhase)
	assert.ErrorIs(t, e.Apply(seatF, game.SkatPlayCard{Card: c(card.Clubs, card.RankJ)}), apperrors.ErrWrongPhase)
	assert.ErrorIs(t, e.Apply(seatF, game.Roll{}), apperrors.ErrActionUnknown)

	forehandWins(t, e)
	assert.Error(t, e.Apply(seatM, game.SkatTakeSkat{}), "只有庄家能拿底牌")
	assert.ErrorIs(t, e.Apply(seatF, game.SkatBid{Value: 20}), apperrors.ErrWrongPhase)
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	forehandWins(t, e)

	assert.Error(t, e.Apply(seatF, game.SkatDiscard{Cards: []card.Card{c(card.Clubs, card.Rank7), c(card.Spades, card.Rank7)}}),
		"未拿底牌不能扣牌")

	require.NoError(t, e.Apply(seatF, game.SkatTakeSkat{}))
	assert.Len(t, e.Hands[seatF], 12)
	assertSorted(t, e.Hands[seatF])
	assert.Error(t, e.Apply(seatF, game.SkatTakeSkat{}), "底牌只能拿一次")

	before := snapshot(t, e)
	for name, cards := range map[string][]card.Card{
		"不在手中": {c(card.Hearts, card.RankA), c(card.Clubs, card.Rank7)},
		"重复的牌": {c(card.Clubs, card.Rank7), c(card.Clubs, card.Rank7)},
		"张数不对": {c(card.Clubs, card.Rank7)},
	} {
		assert.Error(t, e.Apply(seatF, game.SkatDiscard{Cards: cards}), name)
		assert.Equal(t, before, snapshot(t, e), name)
	}

	assert.Error(t, e.Apply(seatF, game.SkatChooseGame{Type: ContractGrand}), "拿了底牌必须先扣牌")

	discard := []card.Card{c(card.Clubs, card.Rank7), c(card.Spades, card.Rank7)}
	require.NoError(t, e.Apply(seatF, game.SkatDiscard{Cards: discard}))
	assert.Len(t, e.Hands[seatF], 10)
	assert.Equal(t, discard, e.SkatPile)
	assert.Error(t, e.Apply(seatF, game.SkatDiscard{Cards: discard}), "不能扣第二次")
}

func TestChooseGame(t *testing.T) {
	t.Parallel()

	t.Run("hand after taking skat", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		forehandWins(t, e)
		require.NoError(t, e.Apply(seatF, game.SkatTakeSkat{}))
		require.NoError(t, e.Apply(seatF, game.SkatDiscard{Cards: []card.Card{c(card.Clubs, card.Rank7), c(card.Spades, card.Rank7)}}))
		assert.Error(t, e.Apply(seatF, game.SkatChooseGame{Type: ContractGrand, Hand: true}))
	})

	t.Run("invalid type and suit", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		forehandWins(t, e)
		before := snapshot(t, e)
		assert.Error(t, e.Apply(seatF, game.SkatChooseGame{Type: "ramsch"}))
		assert.Error(t, e.Apply(seatF, game.SkatChooseGame{Type: ContractSuit, Suit: "stars"}))
		assert.Equal(t, before, snapshot(t, e))
	})

	t.Run("hand game keeps skat for declarer", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		forehandWins(t, e)
		require.NoError(t, e.Apply(seatF, game.SkatChooseGame{Type: ContractSuit, Suit: "clubs", Hand: true}))

		assert.Equal(t, PhasePlaying, e.Phase)
		assert.Empty(t, e.Skat)
		assert.Len(t, e.SkatPile, 2)
		assert.Equal(t, 4, e.Game.Matadors)
		assert.Equal(t, seatF, e.CurrentPlayer(), "前家先出")
	})

	t.Run("value below bid", func(t *testing.T) {
		t.Parallel()
		e := newEngine(t)
		require.NoError(t, e.Apply(seatF, game.SkatBid{Value: 18}))
		require.NoError(t, e.Apply(seatM, game.SkatHold{}))
		require.NoError(t, e.Apply(seatF, game.SkatBid{Value: 264}))
		require.NoError(t, e.Apply(seatM, game.SkatPass{}))
		require.NoError(t, e.Apply(seatR, game.SkatPass{}))

		// Null Hand 只值 35
		err := e.Apply(seatF, game.SkatChooseGame{Type: ContractNull, Hand: true})
		assert.Error(t, err)
		assert.Equal(t, PhaseSkat, e.Phase)
	})
}

func TestTrickWinner_JackBeatsTrumpSuit(t *testing.T) {
	t.Parallel()

	clubs := card.Clubs
	contract := &Contract{Type: ContractSuit, Suit: &clubs}
	trick := []Play{
		{Seat: 0, Card: c(card.Clubs, card.Rank7)},
		{Seat: 1, Card: c(card.Clubs, card.RankJ)},
		{Seat: 2, Card: c(card.Diamonds, card.RankA)},
	}
	lead := LeadOf(trick[0].Card, contract)
	assert.Equal(t, LeadTrump, lead)
	assert.Equal(t, 1, TrickWinner(trick, lead, contract))
}

func TestTrickWinner_PermutationInvariant(t *testing.T) {
	t.Parallel()

	hearts := card.Hearts
	contract := &Contract{Type: ContractSuit, Suit: &hearts}
	plays := []Play{
		{Seat: 0, Card: c(card.Spades, card.Rank10)},
		{Seat: 1, Card: c(card.Spades, card.RankA)},
		{Seat: 2, Card: c(card.Hearts, card.Rank7)},
	}
	lead := card.Spades.String()

	perms := [][3]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, p := range perms {
		trick := []Play{plays[p[0]], plays[p[1]], plays[p[2]]}
		assert.Equal(t, 2, TrickWinner(trick, lead, contract), "%v", p)
	}
}

func TestTrickWinner_Null(t *testing.T) {
	t.Parallel()

	contract := &Contract{Type: ContractNull}
	trick := []Play{
		{Seat: 0, Card: c(card.Hearts, card.Rank10)},
		{Seat: 1, Card: c(card.Hearts, card.RankJ)},
		{Seat: 2, Card: c(card.Spades, card.RankA)},
	}
	lead := LeadOf(trick[0].Card, contract)
	assert.Equal(t, "♥", lead)
	assert.Equal(t, 1, TrickWinner(trick, lead, contract), "Null 中 J 排在 10 之上且不是将牌")
}

func TestGameValue(t *testing.T) {
	t.Parallel()

	clubs := card.Clubs
	suit := &Contract{Type: ContractSuit, Suit: &clubs}
	assert.Equal(t, 24, GameValue(suit, Modifiers{Matadors: 1}))
	assert.Equal(t, 48, GameValue(suit, Modifiers{Matadors: 2, Hand: true}))

	grand := &Contract{Type: ContractGrand}
	assert.Equal(t, 192, GameValue(grand, Modifiers{Matadors: 4, Hand: true, Schneider: true, Schwarz: true}))

	null := &Contract{Type: ContractNull}
	assert.Equal(t, NullNormal, GameValue(null, Modifiers{}))
	assert.Equal(t, NullHandOuvert, GameValue(null, Modifiers{Hand: true, Ouvert: true}))
}

func TestGameValue_Monotonic(t *testing.T) {
	t.Parallel()

	for _, contract := range []*Contract{{Type: ContractGrand}, {Type: ContractSuit, Suit: new(card.Suit)}} {
		base := GameValue(contract, Modifiers{Matadors: 1})
		for _, m := range []Modifiers{
			{Matadors: 2},
			{Matadors: 1, Hand: true},
			{Matadors: 1, Schneider: true},
			{Matadors: 1, Schwarz: true},
			{Matadors: 1, Ouvert: true},
		} {
			assert.Greater(t, GameValue(contract, m), base, "%+v", m)
		}
	}
}

func TestMatadors(t *testing.T) {
	t.Parallel()

	grand := &Contract{Type: ContractGrand}
	with2 := []card.Card{c(card.Clubs, card.RankJ), c(card.Spades, card.RankJ), c(card.Diamonds, card.RankJ)}
	assert.Equal(t, 2, Matadors(with2, grand))

	without3 := []card.Card{c(card.Diamonds, card.RankJ), c(card.Hearts, card.RankA)}
	assert.Equal(t, 3, Matadors(without3, grand))

	assert.Zero(t, Matadors(with2, &Contract{Type: ContractNull}))
}

func TestPlayCard_FollowRules(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	forehandWins(t, e)
	require.NoError(t, e.Apply(seatF, game.SkatChooseGame{Type: ContractSuit, Suit: "♥", Hand: true}))

	require.NoError(t, e.Apply(seatF, game.SkatPlayCard{Card: c(card.Clubs, card.RankJ)}))
	assert.Equal(t, LeadTrump, e.LeadSuit)
	assert.ErrorIs(t, e.Apply(seatR, game.SkatPlayCard{Card: c(card.Hearts, card.Rank7)}), apperrors.ErrNotYourTurn)

	before := snapshot(t, e)
	assert.Error(t, e.Apply(seatM, game.SkatPlayCard{Card: c(card.Spades, card.RankA)}), "有将牌必须跟将牌")
	assert.Error(t, e.Apply(seatM, game.SkatPlayCard{Card: c(card.Clubs, card.RankA)}), "不在手中")
	assert.Equal(t, before, snapshot(t, e))

	require.NoError(t, e.Apply(seatM, game.SkatPlayCard{Card: c(card.Hearts, card.RankA)}))
	assert.Error(t, e.Apply(seatR, game.SkatPlayCard{Card: c(card.Diamonds, card.RankA)}))
	require.NoError(t, e.Apply(seatR, game.SkatPlayCard{Card: c(card.Hearts, card.Rank7)}))

	assert.Equal(t, []int{seatF}, e.TrickWinners)
	assert.Equal(t, 13, e.TrickPoints[seatF])
	assert.Equal(t, 2, e.TrickNumber)
	assert.Empty(t, e.CurrentTrick)
	assert.Equal(t, seatF, e.CurrentPlayer(), "赢家先出下一墩")
}

func TestPlayThrough_GrandHandSchwarz(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	forehandWins(t, e)
	require.NoError(t, e.Apply(seatF, game.SkatChooseGame{Type: ContractGrand, Hand: true}))

	// 前家每墩都先出，另两家没有将牌也没有梅花，出哪张都合法
	for trick := 1; trick <= Tricks; trick++ {
		require.Equal(t, seatF, e.CurrentPlayer(), "trick %d", trick)
		for _, seat := range []int{seatF, seatM, seatR} {
			require.NoError(t, e.Apply(seat, game.SkatPlayCard{Card: e.Hands[seat][0]}), "trick %d seat %d", trick, seat)
		}
	}

	require.True(t, e.Finished())
	res := e.Game.Result
	require.NotNil(t, res)
	assert.Equal(t, Tricks, res.DeclarerTricks)
	assert.Equal(t, 120, res.DeclarerPoints)
	assert.Zero(t, res.DefendersPoints)
	assert.True(t, res.Schneider)
	assert.True(t, res.Schwarz)
	assert.True(t, res.Won)
	assert.Equal(t, 192, res.Value)

	assert.ErrorIs(t, e.Apply(seatF, game.SkatPlayCard{Card: c(card.Clubs, card.RankJ)}), apperrors.ErrGameFinished)
}

func TestEngine_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	forehandWins(t, e)
	require.NoError(t, e.Apply(seatF, game.SkatTakeSkat{}))

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var restored Engine
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, snapshot(t, e), snapshot(t, &restored))

	require.NoError(t, restored.Apply(seatF, game.SkatDiscard{Cards: []card.Card{c(card.Clubs, card.Rank7), c(card.Spades, card.Rank7)}}))
	assert.True(t, restored.Discarded)
}
