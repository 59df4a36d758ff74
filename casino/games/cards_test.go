package games

import (
	"math/rand"
	"testing"
)

func hand(ranks ...string) *Hand {
	h := &Hand{}
	for _, r := range ranks {
		h.Add(Card{Rank: r, Suit: Spades})
	}
	return h
}

func TestHandValue(t *testing.T) {
	tests := []struct {
		name  string
		ranks []string
		want  int
	}{
		{"SimplePips", []string{"2", "3"}, 5},
		{"FaceCards", []string{"K", "Q"}, 20},
		{"TenCard", []string{"10", "9"}, 19},
		{"SoftAce", []string{"A", "6"}, 17},
		{"AceDemoted", []string{"A", "6", "9"}, 16},
		{"TwoAces", []string{"A", "A"}, 12},
		{"TwoAcesNine", []string{"A", "A", "9"}, 21},
		{"Natural", []string{"A", "K"}, 21},
		{"Bust", []string{"K", "Q", "5"}, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hand(tt.ranks...).Value(); got != tt.want {
				t.Errorf("Hand.Value() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandPredicates(t *testing.T) {
	if !hand("A", "K").IsBlackjack() {
		t.Errorf("IsBlackjack() = false for a natural")
	}
	if hand("7", "7", "7").IsBlackjack() {
		t.Errorf("IsBlackjack() = true for a three-card 21")
	}
	if !hand("K", "Q", "5").IsBust() {
		t.Errorf("IsBust() = false at 25")
	}
	if !hand("8", "8").CanSplit() {
		t.Errorf("CanSplit() = false for a pair")
	}
	if hand("8", "9").CanSplit() {
		t.Errorf("CanSplit() = true for mixed ranks")
	}
	if !hand("5", "6").CanDouble() {
		t.Errorf("CanDouble() = false on the opening two cards")
	}
	if hand("5", "6", "2").CanDouble() {
		t.Errorf("CanDouble() = true after a hit")
	}
}

func TestResolveHand(t *testing.T) {
	tests := []struct {
		name     string
		player   *Hand
		dealer   *Hand
		want     BlackjackOutcome
		wantMult float64
	}{
		{"PlayerBust", hand("K", "Q", "5"), hand("10", "7"), OutcomeHandLoss, 0},
		{"BothBustPlayerLoses", hand("K", "Q", "5"), hand("K", "Q", "5"), OutcomeHandLoss, 0},
		{"Natural", hand("A", "K"), hand("10", "7"), OutcomeBlackjack, 2.5},
		{"NaturalVsNaturalPushes", hand("A", "K"), hand("A", "Q"), OutcomeHandPush, 1},
		{"DealerBust", hand("10", "8"), hand("K", "Q", "5"), OutcomeHandWin, 2},
		{"HigherWins", hand("10", "9"), hand("10", "8"), OutcomeHandWin, 2},
		{"LowerLoses", hand("10", "7"), hand("10", "8"), OutcomeHandLoss, 0},
		{"EqualPushes", hand("10", "8"), hand("9", "9"), OutcomeHandPush, 1},
		{"ThreeCard21BeatsDealer20", hand("7", "7", "7"), hand("10", "10"), OutcomeHandWin, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, mult := ResolveHand(tt.player, tt.dealer)
			if got != tt.want || mult != tt.wantMult {
				t.Errorf("ResolveHand() = %v, %v, want %v, %v", got, mult, tt.want, tt.wantMult)
			}
		})
	}
}

func TestHandProfit(t *testing.T) {
	tests := []struct {
		name string
		bet  int64
		mult float64
		want int64
	}{
		{"Loss", 100, 0, -100},
		{"Push", 100, 1, 0},
		{"Win", 100, 2, 100},
		{"Blackjack", 100, 2.5, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HandProfit(tt.bet, tt.mult); got != tt.want {
				t.Errorf("HandProfit(%d, %v) = %v, want %v", tt.bet, tt.mult, got, tt.want)
			}
		})
	}
}

func TestDeckDealsFullShoe(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(1)), 1)
	if deck.Remaining() != 52 {
		t.Fatalf("NewDeck() remaining = %d, want 52", deck.Remaining())
	}

	seen := map[string]bool{}
	for {
		c, ok := deck.Deal()
		if !ok {
			break
		}
		key := c.String()
		if seen[key] {
			t.Fatalf("Deal() repeated card %s", key)
		}
		seen[key] = true
	}
	if len(seen) != 52 {
		t.Errorf("dealt %d unique cards, want 52", len(seen))
	}

	if _, ok := deck.Deal(); ok {
		t.Errorf("Deal() on empty shoe reported ok")
	}
}
