package skat

import (
	"fmt"

	"github.com/palemoky/gamehall/internal/apperrors"
)

// 叫分阶段
const (
	StageForehandMiddlehand = "forehand_middlehand"
	StageWinnerRearhand     = "winner_rearhand"
)

// 等待哪一方行动
const (
	WaitingBidder   = "bidder"
	WaitingListener = "listener"
)

// Bidding 两阶段叫分状态
type Bidding struct {
	Stage           string `json:"stage"`
	Bidder          int    `json:"bidder"`
	Listener        int    `json:"listener"`
	CurrentBidIndex int    `json:"current_bid_index"`
	PendingBidIndex *int   `json:"pending_bid_index"`
	HighestBidIndex int    `json:"highest_bid_index"`
	HighestBidder   *int   `json:"highest_bidder"`
	Passed          []bool `json:"passed"`
	WaitingFor      string `json:"waiting_for"`
}

// startBidding 前家与中家先叫
func (e *Engine) startBidding() {
	n := len(e.Players)
	e.Forehand = (e.DealerSeat + 1) % n
	e.Middlehand = (e.DealerSeat + 2) % n
	e.Rearhand = e.DealerSeat
	e.Phase = PhaseBidding
	e.Bidding = &Bidding{
		Stage:           StageForehandMiddlehand,
		Bidder:          e.Forehand,
		Listener:        e.Middlehand,
		CurrentBidIndex: -1,
		HighestBidIndex: -1,
		Passed:          make([]bool, n),
		WaitingFor:      WaitingBidder,
	}
	e.Current = e.Forehand
	e.Message = fmt.Sprintf("%s 向 %s 叫分。", e.Players[e.Forehand], e.Players[e.Middlehand])
}

func (e *Engine) bid(seat, value int) error {
	b := e.Bidding
	if b.WaitingFor != WaitingBidder || seat != b.Bidder {
		return apperrors.Illegal("您现在不是叫分方")
	}
	idx := bidIndex(value)
	if idx < 0 {
		return apperrors.Illegal(fmt.Sprintf("无效的叫分: %d", value))
	}
	if idx <= b.CurrentBidIndex {
		return apperrors.Illegal("叫分必须高于当前分值")
	}

	b.PendingBidIndex = &idx
	b.WaitingFor = WaitingListener
	e.Current = b.Listener
	e.Message = fmt.Sprintf("%s 叫 %d。", e.Players[b.Bidder], value)
	return nil
}

func (e *Engine) hold(seat int) error {
	b := e.Bidding
	if b.WaitingFor != WaitingListener || seat != b.Listener {
		return apperrors.Illegal("您现在不能跟分")
	}
	if b.PendingBidIndex == nil {
		return apperrors.Illegal("没有待回应的叫分")
	}

	b.CurrentBidIndex = *b.PendingBidIndex
	b.HighestBidIndex = b.CurrentBidIndex
	bidder := b.Bidder
	b.HighestBidder = &bidder
	b.PendingBidIndex = nil
	b.WaitingFor = WaitingBidder
	e.Current = b.Bidder
	e.Message = fmt.Sprintf("%s 跟 %d。", e.Players[b.Listener], BidValues[b.CurrentBidIndex])
	return nil
}

func (e *Engine) pass(seat int) error {
	b := e.Bidding
	if (b.WaitingFor == WaitingListener && seat != b.Listener) ||
		(b.WaitingFor == WaitingBidder && seat != b.Bidder) {
		return apperrors.Illegal("您现在不能放弃")
	}

	b.Passed[seat] = true
	if b.WaitingFor == WaitingListener {
		// 应答方放弃：叫分方拿到刚叫的分值
		if b.PendingBidIndex != nil {
			b.CurrentBidIndex = *b.PendingBidIndex
		}
		b.HighestBidIndex = b.CurrentBidIndex
		bidder := b.Bidder
		b.HighestBidder = &bidder
		b.PendingBidIndex = nil
	} else {
		if b.CurrentBidIndex < 0 {
			b.HighestBidIndex = -1
			b.HighestBidder = nil
		} else {
			b.HighestBidIndex = b.CurrentBidIndex
			listener := b.Listener
			b.HighestBidder = &listener
		}
	}
	e.Message = fmt.Sprintf("%s 放弃。", e.Players[seat])
	e.advanceBidding()
	return nil
}

// advanceBidding 一方放弃后推进到下一阶段或结束叫分
func (e *Engine) advanceBidding() {
	b := e.Bidding
	switch b.Stage {
	case StageForehandMiddlehand:
		if !b.Passed[b.Listener] && !b.Passed[b.Bidder] {
			return
		}
		winner := b.Bidder
		if b.Passed[b.Bidder] {
			winner = b.Listener
		}
		b.Stage = StageWinnerRearhand
		b.Bidder = winner
		b.Listener = e.Rearhand

		// 已经达成的分值直接作为对后家的开叫
		if b.CurrentBidIndex >= 0 {
			pending := b.CurrentBidIndex
			b.PendingBidIndex = &pending
			b.WaitingFor = WaitingListener
			e.Current = b.Listener
			e.Message = fmt.Sprintf("%s: 跟不跟 %d？", e.Players[b.Listener], BidValues[b.CurrentBidIndex])
		} else {
			b.PendingBidIndex = nil
			b.WaitingFor = WaitingBidder
			e.Current = b.Bidder
			e.Message = fmt.Sprintf("%s 向 %s 叫分。", e.Players[b.Bidder], e.Players[b.Listener])
		}

	case StageWinnerRearhand:
		if b.Passed[b.Listener] {
			e.concludeBidding()
			return
		}
		if b.Passed[b.Bidder] {
			if b.CurrentBidIndex >= 0 {
				listener := b.Listener
				b.HighestBidder = &listener
				b.HighestBidIndex = b.CurrentBidIndex
			} else {
				b.HighestBidder = nil
				b.HighestBidIndex = -1
			}
			e.concludeBidding()
		}
	}
}

// concludeBidding 最高叫分者成为庄家；无人叫分则本局结束
func (e *Engine) concludeBidding() {
	b := e.Bidding
	if b.HighestBidIndex < 0 || b.HighestBidder == nil {
		e.Done = true
		e.Message = "所有人都放弃，本局没有定约。"
		return
	}

	declarer := *b.HighestBidder
	bid := BidValues[b.HighestBidIndex]
	e.Declarer = &declarer
	e.HighestBid = &bid
	e.Phase = PhaseSkat
	e.Current = declarer
	e.Message = fmt.Sprintf("%s 以 %d 赢得叫分，可以拿底牌。", e.Players[declarer], bid)
}
