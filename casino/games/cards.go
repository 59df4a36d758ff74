package games

import (
	"math/rand"
	"strings"
)

// Playing cards for blackjack.

type Suit string

const (
	Hearts   Suit = "♥️"
	Diamonds Suit = "♦️"
	Clubs    Suit = "♣️"
	Spades   Suit = "♠️"
)

var (
	suits = []Suit{Hearts, Diamonds, Clubs, Spades}
	ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
)

const cardBack = "🂠"

type Card struct {
	Rank string
	Suit Suit
}

func (c Card) String() string {
	return c.Rank + string(c.Suit)
}

// baseValue counts aces as 11; Hand.Value demotes them as needed.
func (c Card) baseValue() int {
	switch c.Rank {
	case "A":
		return 11
	case "J", "Q", "K":
		return 10
	case "10":
		return 10
	default:
		return int(c.Rank[0] - '0')
	}
}

// Deck is a shoe of one or more standard decks.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

func NewDeck(rng *rand.Rand, numDecks int) *Deck {
	d := &Deck{rng: rng}
	for n := 0; n < numDecks; n++ {
		for _, s := range suits {
			for _, r := range ranks {
				d.cards = append(d.cards, Card{Rank: r, Suit: s})
			}
		}
	}
	d.Shuffle()
	return d
}

func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Deal pops one card. Returns false when the shoe is empty.
func (d *Deck) Deal() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	c := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return c, true
}

func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Hand is one player's or the dealer's cards plus betting state.
type Hand struct {
	Cards   []Card
	Bet     int64
	Doubled bool
	Stood   bool
}

func (h *Hand) Add(c Card) {
	h.Cards = append(h.Cards, c)
}

// Value is the best total: aces count 11 until that busts, then 1.
func (h *Hand) Value() int {
	total := 0
	aces := 0
	for _, c := range h.Cards {
		total += c.baseValue()
		if c.Rank == "A" {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// IsBlackjack reports a natural 21 on the first two cards.
func (h *Hand) IsBlackjack() bool {
	return len(h.Cards) == 2 && h.Value() == 21
}

func (h *Hand) IsBust() bool {
	return h.Value() > 21
}

// CanDouble: only on the first action, before any extra card.
func (h *Hand) CanDouble() bool {
	return len(h.Cards) == 2 && !h.Doubled
}

// CanSplit: two cards of the same rank. Splitting itself is not
// offered; the action is rejected with a message when chosen.
func (h *Hand) CanSplit() bool {
	return len(h.Cards) == 2 && h.Cards[0].Rank == h.Cards[1].Rank
}

// Format renders the hand, optionally hiding the hole card.
func (h *Hand) Format(hideFirst bool) string {
	if len(h.Cards) == 0 {
		return "No cards"
	}
	var parts []string
	for i, c := range h.Cards {
		if hideFirst && i == 0 {
			parts = append(parts, cardBack)
			continue
		}
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " ")
}

// BlackjackOutcome is one hand's result against the dealer.
type BlackjackOutcome string

const (
	OutcomeBlackjack BlackjackOutcome = "blackjack"
	OutcomeHandWin   BlackjackOutcome = "win"
	OutcomeHandLoss  BlackjackOutcome = "loss"
	OutcomeHandPush  BlackjackOutcome = "push"
)

// ResolveHand compares a player hand to the dealer's and returns the
// outcome with its payout multiplier: loss 0, push 1, win 2, natural
// blackjack 2.5. Net profit is bet*multiplier - bet.
func ResolveHand(player, dealer *Hand) (BlackjackOutcome, float64) {
	if player.IsBust() {
		return OutcomeHandLoss, 0
	}
	if player.IsBlackjack() {
		if dealer.IsBlackjack() {
			return OutcomeHandPush, 1
		}
		return OutcomeBlackjack, 2.5
	}
	if dealer.IsBust() {
		return OutcomeHandWin, 2
	}
	pv, dv := player.Value(), dealer.Value()
	switch {
	case pv > dv:
		return OutcomeHandWin, 2
	case pv < dv:
		return OutcomeHandLoss, 0
	default:
		return OutcomeHandPush, 1
	}
}

// HandProfit converts an outcome multiplier into the signed balance
// change for the hand's bet.
func HandProfit(bet int64, multiplier float64) int64 {
	return int64(float64(bet)*multiplier) - bet
}
