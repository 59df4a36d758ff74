package commands

import (
	"strings"
	"testing"

	"github.com/disgoorg/casino-template/casino/games"
)

func TestBlackjackTurnDescription(t *testing.T) {
	hand := &games.Hand{Bet: 500}
	hand.Add(games.Card{Rank: "8", Suit: games.Spades})
	hand.Add(games.Card{Rank: "8", Suit: games.Hearts})
	dealerUp := games.Card{Rank: "K", Suit: games.Clubs}

	plain := blackjackTurnDescription(hand, dealerUp, false)
	if strings.Contains(plain, "splits") {
		t.Errorf("plain prompt mentions splits: %q", plain)
	}
	if !strings.Contains(plain, "Dealer shows") || !strings.Contains(plain, "Your hand") {
		t.Errorf("plain prompt missing the table state: %q", plain)
	}

	// After the table refuses a split the player is told why they are
	// being asked again.
	refused := blackjackTurnDescription(hand, dealerUp, true)
	if !strings.Contains(refused, "doesn't offer splits") {
		t.Errorf("prompt after refused split = %q, want a refusal notice", refused)
	}
	if !strings.Contains(refused, "Your hand") {
		t.Errorf("prompt after refused split missing the hand: %q", refused)
	}
}
