package games

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/disgoorg/casino-template/casino/config"
	"github.com/disgoorg/casino-template/casino/database/models"
	"github.com/disgoorg/casino-template/casino/database/repositories"
	"github.com/disgoorg/casino-template/casino/economy/ledger"
	"github.com/disgoorg/casino-template/casino/economy/tier"
)

var (
	// ErrSessionOpen means the channel already has a pending or
	// active session of this game type.
	ErrSessionOpen = errors.New("a game of this type is already open in this channel")
	// ErrNotEnoughPlayers means a group game tried to start below its
	// minimum.
	ErrNotEnoughPlayers = errors.New("not enough players to start")
)

// Manager orchestrates game sessions: it owns session lifecycle,
// routes every payout through the ledger, and grants XP for wagers.
type Manager struct {
	sessions     repositories.SessionRepository
	participants repositories.ParticipantRepository
	accounts     repositories.AccountRepository
	ledger       *ledger.Ledger
	limits       tier.Limits

	mu  sync.Mutex
	rng *rand.Rand
}

func NewManager(
	sessions repositories.SessionRepository,
	participants repositories.ParticipantRepository,
	accounts repositories.AccountRepository,
	lgr *ledger.Ledger,
	limits tier.Limits,
) *Manager {
	return &Manager{
		sessions:     sessions,
		participants: participants,
		accounts:     accounts,
		ledger:       lgr,
		limits:       limits,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand swaps the random source. Tests use a seeded source.
func (m *Manager) SetRand(rng *rand.Rand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rng = rng
}

// Rand hands out the shared RNG under the manager lock. Callers must
// finish all rolls before releasing.
func (m *Manager) withRand(fn func(rng *rand.Rand)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.rng)
}

// ValidateWager runs the standard pre-game checks: positive bet, tier
// cap, and affordability.
func (m *Manager) ValidateWager(ctx context.Context, account *models.Account, bet int64) error {
	if err := tier.ValidateBet(account, bet, m.limits); err != nil {
		return err
	}
	ok, err := m.ledger.CanAfford(ctx, account.ID, bet)
	if err != nil {
		return err
	}
	if !ok {
		return repositories.ErrInsufficientFunds
	}
	return nil
}

// grantWagerXP awards XP for a wager and reports a tier-up when the
// gain crosses a rung.
func (m *Manager) grantWagerXP(ctx context.Context, accountID int64, wager int64) (tierUp bool, newTier tier.Tier, err error) {
	xp := tier.XPReward(wager)
	if xp == 0 {
		return false, tier.Tier{}, nil
	}
	account, err := m.accounts.GetByID(ctx, accountID)
	if err != nil {
		return false, tier.Tier{}, err
	}
	oldXP := account.ExperiencePoints
	updated, err := m.ledger.AwardXP(ctx, accountID, xp, tier.Level)
	if err != nil {
		return false, tier.Tier{}, err
	}
	if tier.TierUp(oldXP, updated.ExperiencePoints) {
		return true, tier.ByXP(updated.ExperiencePoints), nil
	}
	return false, tier.Tier{}, nil
}

// --- Session lifecycle ---

// OpenSession creates a pending session with the creator as its first
// participant. Group games get one open session per channel per type.
func (m *Manager) OpenSession(ctx context.Context, gameType models.GameType, creator *models.Account, channelID string, wager int64, state any) (*models.GameSession, error) {
	if existing, err := m.sessions.GetOpenByChannel(ctx, channelID, gameType); err == nil && existing != nil {
		return nil, ErrSessionOpen
	} else if err != nil && !repositories.IsNotFound(err) {
		return nil, err
	}

	blob, err := models.EncodeState(gameType, state)
	if err != nil {
		return nil, err
	}

	session := &models.GameSession{
		Type:             gameType,
		Status:           models.StatusPending,
		CreatorAccountID: creator.ID,
		ChannelID:        channelID,
		State:            blob,
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := m.participants.Add(ctx, &models.Participant{
		SessionID: session.ID,
		AccountID: creator.ID,
		Wager:     wager,
	}); err != nil {
		return nil, err
	}

	slog.Info("Game session opened",
		slog.String("type", "game"),
		slog.String("game", string(gameType)),
		slog.Int64("session_id", session.ID),
		slog.Int64("creator", creator.ID))
	return session, nil
}

// Join adds an account to a pending session after the standard wager
// checks.
func (m *Manager) Join(ctx context.Context, session *models.GameSession, account *models.Account, wager int64) error {
	if session.Status != models.StatusPending {
		return repositories.ErrStaleAction
	}
	if err := m.ValidateWager(ctx, account, wager); err != nil {
		return err
	}
	return m.participants.Add(ctx, &models.Participant{
		SessionID: session.ID,
		AccountID: account.ID,
		Wager:     wager,
	})
}

// Leave removes an account from a pending session. The whole session
// is cancelled when the creator walks or nobody is left; the returned
// bool reports that.
func (m *Manager) Leave(ctx context.Context, session *models.GameSession, accountID int64) (bool, error) {
	if session.Status != models.StatusPending {
		return false, repositories.ErrStaleAction
	}
	if err := m.participants.Remove(ctx, session.ID, accountID); err != nil {
		return false, err
	}

	remaining, err := m.participants.GetBySession(ctx, session.ID)
	if err != nil {
		return false, err
	}
	if accountID != session.CreatorAccountID && len(remaining) > 0 {
		return false, nil
	}

	if err := m.Cancel(ctx, session.ID); err != nil {
		return false, err
	}
	slog.Info("Game session cancelled by leave",
		slog.String("type", "game"),
		slog.Int64("session_id", session.ID),
		slog.Int64("account", accountID))
	return true, nil
}

// Activate moves pending to active; exactly one caller wins.
func (m *Manager) Activate(ctx context.Context, sessionID int64) error {
	return m.sessions.UpdateStatus(ctx, sessionID, models.StatusPending, models.StatusActive)
}

// ActivateFunded activates only after re-checking that every
// participant can still cover their wager. Balances move between join
// and start, so the open-time check alone is not enough.
func (m *Manager) ActivateFunded(ctx context.Context, sessionID int64) error {
	participants, err := m.participants.GetBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, p := range participants {
		ok, err := m.ledger.CanAfford(ctx, p.AccountID, p.Wager)
		if err != nil {
			return err
		}
		if !ok {
			return repositories.ErrInsufficientFunds
		}
	}
	return m.Activate(ctx, sessionID)
}

// UpdateRaceChoice records a racer pick in the session state blob.
// Concurrent joins race on the blob, so the write is a compare-and-set
// with a bounded retry.
func (m *Manager) UpdateRaceChoice(ctx context.Context, sessionID, accountID int64, racerName string) (models.RaceState, error) {
	const maxRetries = 3
	for attempt := 0; ; attempt++ {
		session, err := m.sessions.GetByID(ctx, sessionID)
		if err != nil {
			return models.RaceState{}, err
		}
		var state models.RaceState
		if err := models.DecodeState(models.GameTypeRace, session.State, &state); err != nil {
			return models.RaceState{}, err
		}
		if state.RacerChoices == nil {
			state.RacerChoices = make(map[string]string)
		}
		state.RacerChoices[strconv.FormatInt(accountID, 10)] = racerName

		blob, err := models.EncodeState(models.GameTypeRace, state)
		if err != nil {
			return models.RaceState{}, err
		}
		err = m.sessions.UpdateState(ctx, sessionID, session.State, blob)
		if err == nil {
			return state, nil
		}
		if !errors.Is(err, repositories.ErrStaleAction) || attempt == maxRetries {
			return models.RaceState{}, err
		}
	}
}

// Cancel voids a session that never started. Active sessions cannot
// be cancelled; they always run to completion.
func (m *Manager) Cancel(ctx context.Context, sessionID int64) error {
	return m.sessions.UpdateStatus(ctx, sessionID, models.StatusPending, models.StatusCancelled)
}

func (m *Manager) complete(ctx context.Context, sessionID int64) error {
	return m.sessions.UpdateStatus(ctx, sessionID, models.StatusActive, models.StatusCompleted)
}

// StartSweeper cancels abandoned pending sessions in the background
// until ctx is done.
func (m *Manager) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(config.SessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				swept, err := m.sessions.CancelStale(ctx, config.StaleSessionAge)
				if err != nil {
					slog.Error("Stale session sweep failed",
						slog.String("type", "game"),
						slog.Any("error", err))
					continue
				}
				if swept > 0 {
					slog.Info("Swept stale sessions",
						slog.String("type", "game"),
						slog.Int64("count", swept))
				}
			}
		}
	}()
}

// --- Solo games ---

// SoloResult carries the shared outcome of a single-player spin.
type SoloResult struct {
	Account  *models.Account
	XPEarned int64
	TierUp   bool
	NewTier  tier.Tier
}

// PlaySlots runs one slot spin end to end.
func (m *Manager) PlaySlots(ctx context.Context, account *models.Account, bet int64) (SlotsResult, SoloResult, error) {
	if err := m.ValidateWager(ctx, account, bet); err != nil {
		return SlotsResult{}, SoloResult{}, err
	}

	var result SlotsResult
	m.withRand(func(rng *rand.Rand) {
		result = SpinSlots(rng, bet)
	})

	win, loss := models.GameReasons(models.GameTypeSlots)
	reason := loss
	if result.Payout > 0 {
		reason = win
	}
	updated, err := m.ledger.Adjust(ctx, account.ID, result.Payout, reason, nil)
	if err != nil {
		return SlotsResult{}, SoloResult{}, err
	}

	solo, err := m.finishSolo(ctx, updated, bet)
	return result, solo, err
}

// PlayRoulette runs one wheel spin end to end.
func (m *Manager) PlayRoulette(ctx context.Context, account *models.Account, bet int64, choice RouletteBet) (RouletteResult, SoloResult, error) {
	if err := m.ValidateWager(ctx, account, bet); err != nil {
		return RouletteResult{}, SoloResult{}, err
	}

	var result RouletteResult
	m.withRand(func(rng *rand.Rand) {
		result = SpinRoulette(rng, bet, choice)
	})

	win, loss := models.GameReasons(models.GameTypeRoulette)
	reason := loss
	if result.Win {
		reason = win
	}
	updated, err := m.ledger.Adjust(ctx, account.ID, result.Payout, reason, nil)
	if err != nil {
		return RouletteResult{}, SoloResult{}, err
	}

	solo, err := m.finishSolo(ctx, updated, bet)
	return result, solo, err
}

func (m *Manager) finishSolo(ctx context.Context, account *models.Account, wager int64) (SoloResult, error) {
	xp := tier.XPReward(wager)
	tierUp, newTier, err := m.grantWagerXP(ctx, account.ID, wager)
	if err != nil {
		return SoloResult{}, err
	}
	// Re-read so the returned account reflects both payout and XP.
	fresh, err := m.accounts.GetByID(ctx, account.ID)
	if err != nil {
		return SoloResult{}, err
	}
	return SoloResult{Account: fresh, XPEarned: xp, TierUp: tierUp, NewTier: newTier}, nil
}

// --- Multiplayer settlement ---

// SettleDuel plays out a deathroll duel between the two participants
// and moves the wager. Participant order fixes roll order.
func (m *Manager) SettleDuel(ctx context.Context, session *models.GameSession, wager int64) (DeathrollResult, error) {
	participants, err := m.participants.GetBySession(ctx, session.ID)
	if err != nil {
		return DeathrollResult{}, err
	}
	if len(participants) != 2 {
		return DeathrollResult{}, ErrNotEnoughPlayers
	}

	var result DeathrollResult
	m.withRand(func(rng *rand.Rand) {
		result = RunDeathroll(rng, wager)
	})

	winner := participants[result.WinnerIdx]
	loser := participants[result.LoserIdx]
	win, loss := models.GameReasons(models.GameTypeDuel)

	sid := session.ID
	if err := m.ledger.Transfer(ctx, loser.AccountID, winner.AccountID, wager, loss, win, &sid); err != nil {
		// Void the round so the channel isn't blocked by a permanently
		// active session.
		_ = m.complete(ctx, session.ID)
		return DeathrollResult{}, err
	}
	if err := m.participants.SetOutcome(ctx, winner.ID, models.OutcomeWin, wager); err != nil {
		return DeathrollResult{}, err
	}
	if err := m.participants.SetOutcome(ctx, loser.ID, models.OutcomeLoss, -wager); err != nil {
		return DeathrollResult{}, err
	}
	for _, p := range participants {
		if _, _, err := m.grantWagerXP(ctx, p.AccountID, wager); err != nil {
			return DeathrollResult{}, err
		}
	}

	return result, m.complete(ctx, session.ID)
}

// SettleGroupPot rolls for every participant and moves the spread
// from the unique loser to the unique winner. A re-roll cap blowout
// voids the round with no movement.
func (m *Manager) SettleGroupPot(ctx context.Context, session *models.GameSession, amount int64) (GroupPotResult, []*models.Participant, error) {
	participants, err := m.participants.GetBySession(ctx, session.ID)
	if err != nil {
		return GroupPotResult{}, nil, err
	}
	if len(participants) < config.GroupPotMinPlayers {
		return GroupPotResult{}, nil, ErrNotEnoughPlayers
	}

	var (
		result  GroupPotResult
		rollErr error
	)
	m.withRand(func(rng *rand.Rand) {
		result, rollErr = RunGroupPot(rng, len(participants), amount)
	})
	if rollErr != nil {
		// Void the round, nothing moves.
		_ = m.complete(ctx, session.ID)
		return GroupPotResult{}, participants, rollErr
	}

	winner := participants[result.WinnerIdx]
	loser := participants[result.LoserIdx]
	win, loss := models.GameReasons(models.GameTypeGroupPot)

	sid := session.ID
	if result.Transfer > 0 {
		if err := m.ledger.Transfer(ctx, loser.AccountID, winner.AccountID, result.Transfer, loss, win, &sid); err != nil {
			// Void the round so the channel isn't blocked by a
			// permanently active session.
			_ = m.complete(ctx, session.ID)
			return GroupPotResult{}, nil, err
		}
	}
	if err := m.participants.SetOutcome(ctx, winner.ID, models.OutcomeWin, result.Transfer); err != nil {
		return GroupPotResult{}, nil, err
	}
	if err := m.participants.SetOutcome(ctx, loser.ID, models.OutcomeLoss, -result.Transfer); err != nil {
		return GroupPotResult{}, nil, err
	}
	for _, p := range participants {
		if _, _, err := m.grantWagerXP(ctx, p.AccountID, amount); err != nil {
			return GroupPotResult{}, nil, err
		}
	}

	return result, participants, m.complete(ctx, session.ID)
}

// SettleBlackjack applies a finished round's per-hand profits.
// Participant order must match the round's player order.
func (m *Manager) SettleBlackjack(ctx context.Context, session *models.GameSession, round *BlackjackRound) error {
	participants, err := m.participants.GetBySession(ctx, session.ID)
	if err != nil {
		return err
	}
	if len(participants) != len(round.Results) {
		return errors.New("participant count does not match round results")
	}

	win, loss := models.GameReasons(models.GameTypeBlackjack)
	sid := session.ID

	for i, res := range round.Results {
		p := participants[i]

		if res.Profit != 0 {
			reason := loss
			if res.Profit > 0 {
				reason = win
			}
			if _, err := m.ledger.Adjust(ctx, p.AccountID, res.Profit, reason, &sid); err != nil {
				return err
			}
		}

		outcome := models.OutcomePush
		switch {
		case res.Profit > 0:
			outcome = models.OutcomeWin
		case res.Profit < 0:
			outcome = models.OutcomeLoss
		}
		if err := m.participants.SetOutcome(ctx, p.ID, outcome, res.Profit); err != nil {
			return err
		}
		if _, _, err := m.grantWagerXP(ctx, p.AccountID, res.Hand.Bet); err != nil {
			return err
		}
	}

	return m.complete(ctx, session.ID)
}

// RaceSettlement is the payout side of a finished race.
type RaceSettlement struct {
	TotalPot        int64
	PayoutPerWinner int64
	ProfitPerWinner int64
	Winners         []*models.Participant
	Losers          []*models.Participant
}

// SettleRace pays out a finished race: backers of the winning racer
// split the whole pot, everyone else loses their bet.
func (m *Manager) SettleRace(ctx context.Context, session *models.GameSession, result RaceResult, bet int64, choices map[int64]string) (RaceSettlement, error) {
	participants, err := m.participants.GetBySession(ctx, session.ID)
	if err != nil {
		return RaceSettlement{}, err
	}

	settlement := RaceSettlement{TotalPot: int64(len(participants)) * bet}
	for _, p := range participants {
		if choices[p.AccountID] == result.Winner.Name {
			settlement.Winners = append(settlement.Winners, p)
		} else {
			settlement.Losers = append(settlement.Losers, p)
		}
	}

	win, loss := models.GameReasons(models.GameTypeRace)
	sid := session.ID

	if n := len(settlement.Winners); n > 0 {
		settlement.PayoutPerWinner = SplitPot(settlement.TotalPot, n)
		settlement.ProfitPerWinner = settlement.PayoutPerWinner - bet
	}

	for _, p := range settlement.Winners {
		if settlement.ProfitPerWinner != 0 {
			reason := win
			if settlement.ProfitPerWinner < 0 {
				reason = loss
			}
			if _, err := m.ledger.Adjust(ctx, p.AccountID, settlement.ProfitPerWinner, reason, &sid); err != nil {
				return RaceSettlement{}, err
			}
		}
		if err := m.participants.SetOutcome(ctx, p.ID, models.OutcomeWin, settlement.ProfitPerWinner); err != nil {
			return RaceSettlement{}, err
		}
		if _, _, err := m.grantWagerXP(ctx, p.AccountID, bet); err != nil {
			return RaceSettlement{}, err
		}
	}
	for _, p := range settlement.Losers {
		if _, err := m.ledger.Adjust(ctx, p.AccountID, -bet, loss, &sid); err != nil {
			return RaceSettlement{}, err
		}
		if err := m.participants.SetOutcome(ctx, p.ID, models.OutcomeLoss, -bet); err != nil {
			return RaceSettlement{}, err
		}
		if _, _, err := m.grantWagerXP(ctx, p.AccountID, bet); err != nil {
			return RaceSettlement{}, err
		}
	}

	return settlement, m.complete(ctx, session.ID)
}

// RunRace rolls the whole race under the manager RNG.
func (m *Manager) RunRace() RaceResult {
	var result RaceResult
	m.withRand(func(rng *rand.Rand) {
		result = RunRace(rng)
	})
	return result
}

// RunBlackjackRound plays a round under the manager RNG.
func (m *Manager) RunBlackjackRound(ctx context.Context, players int, bet int64, prompter ActionPrompter) *BlackjackRound {
	// The prompter blocks on player input, so the round gets its own
	// RNG seeded off the shared one instead of holding the lock.
	m.mu.Lock()
	seed := m.rng.Int63()
	m.mu.Unlock()
	return RunBlackjack(ctx, rand.New(rand.NewSource(seed)), players, bet, prompter)
}
