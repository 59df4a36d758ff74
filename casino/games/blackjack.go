package games

import (
	"context"
	"math/rand"
)

// Blackjack round driver. Interaction with players happens through
// the ActionPrompter so the Discord layer and tests plug in their own
// input sources. One shoe of a single deck per round; dealer stands
// on 17; split is acknowledged but refused.

// BlackjackAction is a player's turn choice.
type BlackjackAction string

const (
	ActionHit    BlackjackAction = "hit"
	ActionStand  BlackjackAction = "stand"
	ActionDouble BlackjackAction = "double"
	ActionSplit  BlackjackAction = "split"
)

const dealerStandValue = 17

// ActionPrompter asks one player for their next action. A timeout or
// error is treated as a stand.
type ActionPrompter interface {
	PromptAction(ctx context.Context, playerIdx int, hand *Hand, dealerUp Card, canDouble, canSplit bool) (BlackjackAction, error)
}

// BlackjackEvent is emitted as the round progresses so the caller can
// animate it.
type BlackjackEvent struct {
	Kind      string // "deal", "hit", "stand", "double", "split_refused", "timeout_stand", "dealer_hit", "dealer_stand", "dealer_bust"
	PlayerIdx int    // -1 for dealer events
	Card      *Card
}

// BlackjackHandResult is one player's settled hand.
type BlackjackHandResult struct {
	Hand    *Hand
	Outcome BlackjackOutcome
	// Profit is the signed balance change: bet*multiplier - bet.
	Profit int64
}

// BlackjackRound is a full round ready to settle.
type BlackjackRound struct {
	PlayerHands []*Hand
	DealerHand  *Hand
	Results     []BlackjackHandResult
	Events      []BlackjackEvent
}

// RunBlackjack plays one round for the given number of players, all
// at the same bet.
func RunBlackjack(ctx context.Context, rng *rand.Rand, players int, bet int64, prompter ActionPrompter) *BlackjackRound {
	deck := NewDeck(rng, 1)
	round := &BlackjackRound{DealerHand: &Hand{}}

	for i := 0; i < players; i++ {
		round.PlayerHands = append(round.PlayerHands, &Hand{Bet: bet})
	}

	// Two passes, dealer last each pass, matching table order.
	for pass := 0; pass < 2; pass++ {
		for _, h := range round.PlayerHands {
			c, _ := deck.Deal()
			h.Add(c)
		}
		c, _ := deck.Deal()
		round.DealerHand.Add(c)
	}
	round.emit("deal", -1, nil)

	// Dealer natural ends the round before anyone acts.
	if !round.DealerHand.IsBlackjack() {
		for i, hand := range round.PlayerHands {
			if hand.IsBlackjack() {
				continue
			}
			round.playerTurn(ctx, i, hand, deck, prompter)
		}
		round.dealerTurn(deck)
	}

	for _, hand := range round.PlayerHands {
		outcome, mult := ResolveHand(hand, round.DealerHand)
		round.Results = append(round.Results, BlackjackHandResult{
			Hand:    hand,
			Outcome: outcome,
			Profit:  HandProfit(hand.Bet, mult),
		})
	}
	return round
}

func (r *BlackjackRound) playerTurn(ctx context.Context, idx int, hand *Hand, deck *Deck, prompter ActionPrompter) {
	dealerUp := r.DealerHand.Cards[1]

	for !hand.Stood && !hand.IsBust() {
		action, err := prompter.PromptAction(ctx, idx, hand, dealerUp, hand.CanDouble(), hand.CanSplit())
		if err != nil {
			hand.Stood = true
			r.emit("timeout_stand", idx, nil)
			return
		}

		switch action {
		case ActionHit:
			c, _ := deck.Deal()
			hand.Add(c)
			r.emit("hit", idx, &c)

		case ActionDouble:
			if !hand.CanDouble() {
				continue
			}
			hand.Doubled = true
			hand.Bet *= 2
			c, _ := deck.Deal()
			hand.Add(c)
			hand.Stood = true
			r.emit("double", idx, &c)

		case ActionSplit:
			// Not supported; let the player pick again.
			r.emit("split_refused", idx, nil)

		default:
			hand.Stood = true
			r.emit("stand", idx, nil)
		}
	}
}

func (r *BlackjackRound) dealerTurn(deck *Deck) {
	for r.DealerHand.Value() < dealerStandValue {
		c, _ := deck.Deal()
		r.DealerHand.Add(c)
		r.emit("dealer_hit", -1, &c)
	}
	if r.DealerHand.IsBust() {
		r.emit("dealer_bust", -1, nil)
	} else {
		r.emit("dealer_stand", -1, nil)
	}
}

func (r *BlackjackRound) emit(kind string, playerIdx int, card *Card) {
	r.Events = append(r.Events, BlackjackEvent{Kind: kind, PlayerIdx: playerIdx, Card: card})
}
