package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Outcome is a participant's result within a finished session.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomePush Outcome = "push"
)

// Participant links an account to a game session. One row per player
// per session; the creator is a participant too.
type Participant struct {
	bun.BaseModel `bun:"table:participants,alias:p"`

	ID        int64 `bun:"id,pk,autoincrement"`
	SessionID int64 `bun:"session_id,notnull"`
	AccountID int64 `bun:"account_id,notnull"`

	Wager   int64   `bun:"wager,notnull,default:0"`
	Outcome Outcome `bun:"outcome,nullzero"`
	// Payout is the signed net amount applied to the account's balance
	// for this session, zero for a push.
	Payout int64 `bun:"payout,notnull,default:0"`

	JoinedAt time.Time `bun:"joined_at,notnull,default:current_timestamp"`

	Session *GameSession `bun:"rel:belongs-to,join:session_id=id"`
	Account *Account     `bun:"rel:belongs-to,join:account_id=id"`
}
