package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Reason classifies a balance mutation. The set is closed so that
// aggregation queries can enumerate it exhaustively.
type Reason string

const (
	ReasonInitialGrant    Reason = "initial_grant"
	ReasonDailyReward     Reason = "daily_reward"
	ReasonHourlyReward    Reason = "hourly_reward"
	ReasonStreakInsurance Reason = "streak_insurance"
	ReasonDuelWin         Reason = "duel_win"
	ReasonDuelLoss        Reason = "duel_loss"
	ReasonSlotsWin        Reason = "slots_win"
	ReasonSlotsLoss       Reason = "slots_loss"
	ReasonRouletteWin     Reason = "roulette_win"
	ReasonRouletteLoss    Reason = "roulette_loss"
	ReasonGroupPotWin     Reason = "group_pot_win"
	ReasonGroupPotLoss    Reason = "group_pot_loss"
	ReasonBlackjackWin    Reason = "blackjack_win"
	ReasonBlackjackLoss   Reason = "blackjack_loss"
	ReasonRaceWin         Reason = "race_win"
	ReasonRaceLoss        Reason = "race_loss"
	ReasonAdminAdjustment Reason = "admin_adjustment"
)

// Transaction is an immutable, append-only record of a balance change.
// The sum of all transaction amounts for an account equals its
// balance, except after an operator hard reset.
type Transaction struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`

	ID        int64     `bun:"id,pk,autoincrement"`
	AccountID int64     `bun:"account_id,notnull"`
	Amount    int64     `bun:"amount,notnull"`
	Reason    Reason    `bun:"reason,notnull"`
	SessionID *int64    `bun:"session_id"`
	Timestamp time.Time `bun:"timestamp,notnull,default:current_timestamp"`

	Account *Account `bun:"rel:belongs-to,join:account_id=id"`
}

// GameReasons maps a game type to its (win, loss) reason pair.
func GameReasons(t GameType) (win Reason, loss Reason) {
	switch t {
	case GameTypeDuel:
		return ReasonDuelWin, ReasonDuelLoss
	case GameTypeSlots:
		return ReasonSlotsWin, ReasonSlotsLoss
	case GameTypeRoulette:
		return ReasonRouletteWin, ReasonRouletteLoss
	case GameTypeGroupPot:
		return ReasonGroupPotWin, ReasonGroupPotLoss
	case GameTypeBlackjack:
		return ReasonBlackjackWin, ReasonBlackjackLoss
	case GameTypeRace:
		return ReasonRaceWin, ReasonRaceLoss
	default:
		return ReasonAdminAdjustment, ReasonAdminAdjustment
	}
}

// WinReasons is the closed set of game-win reason codes.
func WinReasons() []Reason {
	return []Reason{
		ReasonDuelWin, ReasonSlotsWin, ReasonRouletteWin,
		ReasonGroupPotWin, ReasonBlackjackWin, ReasonRaceWin,
	}
}

// LossReasons is the closed set of game-loss reason codes.
func LossReasons() []Reason {
	return []Reason{
		ReasonDuelLoss, ReasonSlotsLoss, ReasonRouletteLoss,
		ReasonGroupPotLoss, ReasonBlackjackLoss, ReasonRaceLoss,
	}
}
