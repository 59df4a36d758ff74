package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// GameType tags a session with the minigame it belongs to.
type GameType string

const (
	GameTypeDuel      GameType = "duel"
	GameTypeSlots     GameType = "slots"
	GameTypeRoulette  GameType = "roulette"
	GameTypeGroupPot  GameType = "group_pot"
	GameTypeBlackjack GameType = "blackjack"
	GameTypeRace      GameType = "race"
)

// GameStatus is the session lifecycle state.
type GameStatus string

const (
	StatusPending   GameStatus = "pending"
	StatusActive    GameStatus = "active"
	StatusCompleted GameStatus = "completed"
	StatusCancelled GameStatus = "cancelled"
)

// GameSession is one round of a minigame. Sessions are never reused.
type GameSession struct {
	bun.BaseModel `bun:"table:game_sessions,alias:gs"`

	ID               int64      `bun:"id,pk,autoincrement"`
	Type             GameType   `bun:"type,notnull"`
	Status           GameStatus `bun:"status,notnull,default:'pending'"`
	CreatorAccountID int64      `bun:"creator_account_id,notnull"`
	ChannelID        string     `bun:"channel_id,notnull"`
	MessageID        string     `bun:"message_id"`
	State            []byte     `bun:"state,type:jsonb"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`

	Creator      *Account       `bun:"rel:belongs-to,join:creator_account_id=id"`
	Participants []*Participant `bun:"rel:has-many,join:id=session_id"`
}

// Per-game state payloads. Each game type has a stable schema instead
// of an opaque blob; the envelope carries the type tag so a decoded
// state can be validated against the session's type.

type DuelState struct {
	Wager          int64 `json:"wager"`
	CurrentCeiling int64 `json:"current_ceiling"`
}

type GroupPotState struct {
	Amount int64 `json:"amount"`
}

type BlackjackState struct {
	BetAmount int64 `json:"bet_amount"`
}

type RaceState struct {
	BetAmount int64 `json:"bet_amount"`
	// account id (decimal string) -> chosen racer name
	RacerChoices map[string]string `json:"racer_choices"`
}

type stateEnvelope struct {
	Type  GameType        `json:"type"`
	State json.RawMessage `json:"state"`
}

// EncodeState serializes a typed game state into the session blob.
func EncodeState(t GameType, state any) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s state: %w", t, err)
	}
	return json.Marshal(stateEnvelope{Type: t, State: raw})
}

// DecodeState deserializes the session blob into out, validating that
// the stored tag matches the expected game type.
func DecodeState(t GameType, data []byte, out any) error {
	var env stateEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to decode session state: %w", err)
	}
	if env.Type != t {
		return fmt.Errorf("session state type mismatch: stored %q, expected %q", env.Type, t)
	}
	if err := json.Unmarshal(env.State, out); err != nil {
		return fmt.Errorf("failed to decode %s state: %w", t, err)
	}
	return nil
}
