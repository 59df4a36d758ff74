package games

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/casino-template/casino/database/models"
	"github.com/disgoorg/casino-template/casino/database/repositories"
	"github.com/disgoorg/casino-template/casino/economy/ledger"
	"github.com/disgoorg/casino-template/casino/economy/tier"
)

// In-memory repository fakes. Only the behavior the manager exercises
// is modeled; everything else returns zero values.

type memAccounts struct {
	mu       sync.Mutex
	accounts map[int64]*models.Account
}

func newMemAccounts(accounts ...*models.Account) *memAccounts {
	m := &memAccounts{accounts: map[int64]*models.Account{}}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *memAccounts) Create(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
	return nil
}

func (m *memAccounts) GetByID(_ context.Context, id int64) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "account", ID: id}
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) GetByDiscordID(_ context.Context, _ string) (*models.Account, error) {
	return nil, &repositories.NotFoundError{Entity: "account", ID: "unused"}
}

func (m *memAccounts) GetOrCreate(_ context.Context, _, _ string) (*models.Account, bool, error) {
	return nil, false, errors.New("not modeled")
}

func (m *memAccounts) Update(_ context.Context, _ *models.Account) error { return nil }

func (m *memAccounts) AdjustBalance(_ context.Context, id int64, amount int64, _ models.Reason, _ *int64) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "account", ID: id}
	}
	if amount < 0 && a.Balance+amount < 0 {
		return nil, repositories.ErrInsufficientFunds
	}
	a.Balance += amount
	cp := *a
	return &cp, nil
}

func (m *memAccounts) Transfer(_ context.Context, fromID, toID int64, amount int64, _, _ models.Reason, _ *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	from, to := m.accounts[fromID], m.accounts[toID]
	if from == nil || to == nil {
		return &repositories.NotFoundError{Entity: "account", ID: fromID}
	}
	if from.Balance < amount {
		return repositories.ErrInsufficientFunds
	}
	from.Balance -= amount
	to.Balance += amount
	return nil
}

func (m *memAccounts) SetClaimState(_ context.Context, _ int64, _ repositories.ClaimKind, _ time.Time, _, _ int) error {
	return nil
}

func (m *memAccounts) SetLastClaim(_ context.Context, _ int64, _ repositories.ClaimKind, _ time.Time) error {
	return nil
}

func (m *memAccounts) SetExperience(_ context.Context, id int64, xp int64, level int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		a.ExperiencePoints = xp
		a.Level = level
	}
	return nil
}

func (m *memAccounts) GetRank(_ context.Context, _ int64) (int, error) { return 1, nil }

func (m *memAccounts) GetTopByBalance(_ context.Context, _, _ int) ([]*models.Account, error) {
	return nil, nil
}

func (m *memAccounts) GetAll(_ context.Context) ([]*models.Account, error) { return nil, nil }

func (m *memAccounts) ResetEconomy(_ context.Context) error { return nil }

type memSessions struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[int64]*models.GameSession
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[int64]*models.GameSession{}}
}

func (m *memSessions) Create(_ context.Context, s *models.GameSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	if s.Status == "" {
		s.Status = models.StatusPending
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *memSessions) GetByID(_ context.Context, id int64) (*models.GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "game_session", ID: id}
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) UpdateStatus(_ context.Context, id int64, expected, next models.GameStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return &repositories.NotFoundError{Entity: "game_session", ID: id}
	}
	if s.Status != expected {
		return repositories.ErrStaleAction
	}
	s.Status = next
	return nil
}

func (m *memSessions) UpdateState(_ context.Context, id int64, expected, next []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return &repositories.NotFoundError{Entity: "game_session", ID: id}
	}
	if !bytes.Equal(s.State, expected) {
		return repositories.ErrStaleAction
	}
	s.State = next
	return nil
}

func (m *memSessions) SetMessageID(_ context.Context, id int64, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.MessageID = messageID
	}
	return nil
}

func (m *memSessions) GetOpenByChannel(_ context.Context, channelID string, gameType models.GameType) (*models.GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.ChannelID == channelID && s.Type == gameType &&
			(s.Status == models.StatusPending || s.Status == models.StatusActive) {
			return s, nil
		}
	}
	return nil, &repositories.NotFoundError{Entity: "game_session", ID: channelID}
}

func (m *memSessions) CancelStale(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

type memParticipants struct {
	mu     sync.Mutex
	nextID int64
	rows   []*models.Participant
}

func (m *memParticipants) Add(_ context.Context, p *models.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.SessionID == p.SessionID && row.AccountID == p.AccountID {
			return &repositories.ConflictError{Entity: "participant", Field: "account_id", Value: p.AccountID}
		}
	}
	m.nextID++
	p.ID = m.nextID
	m.rows = append(m.rows, p)
	return nil
}

func (m *memParticipants) Remove(_ context.Context, sessionID, accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.rows {
		if row.SessionID == sessionID && row.AccountID == accountID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return &repositories.NotFoundError{Entity: "participant", ID: accountID}
}

func (m *memParticipants) GetBySession(_ context.Context, sessionID int64) ([]*models.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Participant
	for _, row := range m.rows {
		if row.SessionID == sessionID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memParticipants) SetOutcome(_ context.Context, participantID int64, outcome models.Outcome, payout int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.ID == participantID {
			row.Outcome = outcome
			row.Payout = payout
			return nil
		}
	}
	return &repositories.NotFoundError{Entity: "participant", ID: participantID}
}

func (m *memParticipants) CountWinsLosses(_ context.Context, _ int64, _ models.GameType) (int64, int64, error) {
	return 0, 0, nil
}

func testManager(accounts ...*models.Account) (*Manager, *memAccounts, *memSessions, *memParticipants) {
	store := newMemAccounts(accounts...)
	sessions := newMemSessions()
	participants := &memParticipants{}
	m := NewManager(sessions, participants, store, ledger.New(store, ledger.NewLocker()), tier.Limits{Enabled: true})
	m.SetRand(rand.New(rand.NewSource(77)))
	return m, store, sessions, participants
}

func TestValidateWager(t *testing.T) {
	m, _, _, _ := testManager(&models.Account{ID: 1, Balance: 1_000})
	ctx := context.Background()
	acct := &models.Account{ID: 1, Balance: 1_000}

	if err := m.ValidateWager(ctx, acct, 0); !errors.Is(err, tier.ErrBetNotPositive) {
		t.Errorf("ValidateWager(0) error = %v, want ErrBetNotPositive", err)
	}
	if err := m.ValidateWager(ctx, acct, 5_001); !errors.Is(err, tier.ErrBetTooLarge) {
		t.Errorf("ValidateWager(above tier cap) error = %v, want ErrBetTooLarge", err)
	}
	// Within the tier cap but above the live balance.
	if err := m.ValidateWager(ctx, acct, 2_000); !ledger.IsInsufficientFunds(err) {
		t.Errorf("ValidateWager(above balance) error = %v, want insufficient funds", err)
	}
	if err := m.ValidateWager(ctx, acct, 500); err != nil {
		t.Errorf("ValidateWager(affordable) error = %v, want nil", err)
	}
}

func TestPlaySlotsMovesBalanceAndXP(t *testing.T) {
	m, store, _, _ := testManager(&models.Account{ID: 1, Balance: 5_000, Level: 1})
	ctx := context.Background()

	acct, _ := store.GetByID(ctx, 1)
	result, solo, err := m.PlaySlots(ctx, acct, 1_000)
	if err != nil {
		t.Fatalf("PlaySlots() error = %v", err)
	}

	if want := int64(5_000) + result.Payout; solo.Account.Balance != want {
		t.Errorf("PlaySlots() balance = %d, want %d", solo.Account.Balance, want)
	}
	if solo.XPEarned != tier.XPReward(1_000) {
		t.Errorf("PlaySlots() xp = %d, want %d", solo.XPEarned, tier.XPReward(1_000))
	}
	if solo.Account.ExperiencePoints != solo.XPEarned {
		t.Errorf("PlaySlots() account xp = %d, want %d", solo.Account.ExperiencePoints, solo.XPEarned)
	}
}

func TestOpenSessionGuardsChannel(t *testing.T) {
	m, store, _, _ := testManager(
		&models.Account{ID: 1, Balance: 10_000},
		&models.Account{ID: 2, Balance: 10_000},
	)
	ctx := context.Background()

	creator, _ := store.GetByID(ctx, 1)
	first, err := m.OpenSession(ctx, models.GameTypeDuel, creator, "chan-1", 500, models.DuelState{Wager: 500, CurrentCeiling: 500})
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}
	if first.Status != models.StatusPending {
		t.Errorf("OpenSession() status = %s, want pending", first.Status)
	}

	if _, err := m.OpenSession(ctx, models.GameTypeDuel, creator, "chan-1", 500, models.DuelState{}); !errors.Is(err, ErrSessionOpen) {
		t.Errorf("OpenSession(duplicate) error = %v, want ErrSessionOpen", err)
	}

	// A different game type in the same channel is fine.
	if _, err := m.OpenSession(ctx, models.GameTypeRace, creator, "chan-1", 500, models.RaceState{BetAmount: 500}); err != nil {
		t.Errorf("OpenSession(other game) error = %v, want nil", err)
	}
}

func TestJoinRejectsStaleSession(t *testing.T) {
	m, store, _, _ := testManager(
		&models.Account{ID: 1, Balance: 10_000},
		&models.Account{ID: 2, Balance: 10_000},
	)
	ctx := context.Background()

	creator, _ := store.GetByID(ctx, 1)
	session, err := m.OpenSession(ctx, models.GameTypeDuel, creator, "chan-1", 500, models.DuelState{Wager: 500})
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}

	if err := m.Activate(ctx, session.ID); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	joiner, _ := store.GetByID(ctx, 2)
	if err := m.Join(ctx, session, joiner, 500); !errors.Is(err, repositories.ErrStaleAction) {
		t.Errorf("Join(active session) error = %v, want ErrStaleAction", err)
	}

	// Activating twice loses the CAS race.
	if err := m.Activate(ctx, session.ID); !errors.Is(err, repositories.ErrStaleAction) {
		t.Errorf("Activate(twice) error = %v, want ErrStaleAction", err)
	}
}

func TestLeave(t *testing.T) {
	m, store, sessions, _ := testManager(
		&models.Account{ID: 1, Balance: 10_000},
		&models.Account{ID: 2, Balance: 10_000},
	)
	ctx := context.Background()

	creator, _ := store.GetByID(ctx, 1)
	session, err := m.OpenSession(ctx, models.GameTypeGroupPot, creator, "chan-1", 1_000, models.GroupPotState{Amount: 1_000})
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}
	joiner, _ := store.GetByID(ctx, 2)
	if err := m.Join(ctx, session, joiner, 1_000); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	// A non-creator leaving keeps the session pending.
	cancelled, err := m.Leave(ctx, session, 2)
	if err != nil {
		t.Fatalf("Leave() error = %v", err)
	}
	if cancelled {
		t.Errorf("Leave(joiner) cancelled the session, want it kept pending")
	}
	if got := sessions.sessions[session.ID].Status; got != models.StatusPending {
		t.Errorf("session status = %s, want pending", got)
	}

	// Leaving twice is a not-found.
	if _, err := m.Leave(ctx, session, 2); !repositories.IsNotFound(err) {
		t.Errorf("Leave(twice) error = %v, want not found", err)
	}

	// The creator walking cancels the whole session.
	cancelled, err = m.Leave(ctx, session, 1)
	if err != nil {
		t.Fatalf("Leave(creator) error = %v", err)
	}
	if !cancelled {
		t.Errorf("Leave(creator) cancelled = false, want true")
	}
	if got := sessions.sessions[session.ID].Status; got != models.StatusCancelled {
		t.Errorf("session status = %s, want cancelled", got)
	}

	// No leaving once the round is live.
	active, _ := m.OpenSession(ctx, models.GameTypeGroupPot, creator, "chan-2", 1_000, models.GroupPotState{Amount: 1_000})
	_ = m.Join(ctx, active, joiner, 1_000)
	_ = m.Activate(ctx, active.ID)
	if _, err := m.Leave(ctx, active, 2); !errors.Is(err, repositories.ErrStaleAction) {
		t.Errorf("Leave(active) error = %v, want ErrStaleAction", err)
	}
}

func TestSettleDuelTransfersWager(t *testing.T) {
	m, store, sessions, _ := testManager(
		&models.Account{ID: 1, Balance: 10_000},
		&models.Account{ID: 2, Balance: 10_000},
	)
	ctx := context.Background()

	creator, _ := store.GetByID(ctx, 1)
	session, err := m.OpenSession(ctx, models.GameTypeDuel, creator, "chan-1", 2_000, models.DuelState{Wager: 2_000, CurrentCeiling: 2_000})
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}
	joiner, _ := store.GetByID(ctx, 2)
	if err := m.Join(ctx, session, joiner, 2_000); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if err := m.Activate(ctx, session.ID); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	result, err := m.SettleDuel(ctx, session, 2_000)
	if err != nil {
		t.Fatalf("SettleDuel() error = %v", err)
	}

	winner := store.accounts[int64(result.WinnerIdx)+1]
	loser := store.accounts[int64(result.LoserIdx)+1]
	if winner.Balance != 12_000 {
		t.Errorf("winner balance = %d, want 12000", winner.Balance)
	}
	if loser.Balance != 8_000 {
		t.Errorf("loser balance = %d, want 8000", loser.Balance)
	}
	if winner.ExperiencePoints != tier.XPReward(2_000) || loser.ExperiencePoints != tier.XPReward(2_000) {
		t.Errorf("both players should earn wager XP, got %d and %d",
			winner.ExperiencePoints, loser.ExperiencePoints)
	}
	if got := sessions.sessions[session.ID].Status; got != models.StatusCompleted {
		t.Errorf("session status = %s, want completed", got)
	}
}

func TestSettleDuelNeedsTwoPlayers(t *testing.T) {
	m, store, _, _ := testManager(&models.Account{ID: 1, Balance: 10_000})
	ctx := context.Background()

	creator, _ := store.GetByID(ctx, 1)
	session, err := m.OpenSession(ctx, models.GameTypeDuel, creator, "chan-1", 500, models.DuelState{Wager: 500})
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}
	if _, err := m.SettleDuel(ctx, session, 500); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Errorf("SettleDuel(one player) error = %v, want ErrNotEnoughPlayers", err)
	}
}

func TestSettleGroupPotMovesSpread(t *testing.T) {
	m, store, _, _ := testManager(
		&models.Account{ID: 1, Balance: 10_000},
		&models.Account{ID: 2, Balance: 10_000},
		&models.Account{ID: 3, Balance: 10_000},
	)
	ctx := context.Background()

	creator, _ := store.GetByID(ctx, 1)
	session, err := m.OpenSession(ctx, models.GameTypeGroupPot, creator, "chan-1", 5_000, models.GroupPotState{Amount: 5_000})
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}
	for _, id := range []int64{2, 3} {
		acct, _ := store.GetByID(ctx, id)
		if err := m.Join(ctx, session, acct, 5_000); err != nil {
			t.Fatalf("Join(%d) error = %v", id, err)
		}
	}
	if err := m.Activate(ctx, session.ID); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	result, rows, err := m.SettleGroupPot(ctx, session, 5_000)
	if err != nil {
		t.Fatalf("SettleGroupPot() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("SettleGroupPot() participants = %d, want 3", len(rows))
	}

	winner := store.accounts[rows[result.WinnerIdx].AccountID]
	loser := store.accounts[rows[result.LoserIdx].AccountID]
	if winner.Balance != 10_000+result.Transfer {
		t.Errorf("winner balance = %d, want %d", winner.Balance, 10_000+result.Transfer)
	}
	if loser.Balance != 10_000-result.Transfer {
		t.Errorf("loser balance = %d, want %d", loser.Balance, 10_000-result.Transfer)
	}

	var total int64
	for _, a := range store.accounts {
		total += a.Balance
	}
	if total != 30_000 {
		t.Errorf("total balance = %d, want 30000 (zero-sum)", total)
	}

	// Every participant wagered the pot amount, so everyone earns XP.
	for id := int64(1); id <= 3; id++ {
		if got := store.accounts[id].ExperiencePoints; got != tier.XPReward(5_000) {
			t.Errorf("account %d xp = %d, want %d", id, got, tier.XPReward(5_000))
		}
	}
}

func TestActivateFundedRechecksBalances(t *testing.T) {
	m, store, sessions, _ := testManager(
		&models.Account{ID: 1, Balance: 10_000},
		&models.Account{ID: 2, Balance: 10_000},
	)
	ctx := context.Background()

	creator, _ := store.GetByID(ctx, 1)
	session, err := m.OpenSession(ctx, models.GameTypeDuel, creator, "chan-1", 2_000, models.DuelState{Wager: 2_000, CurrentCeiling: 2_000})
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}
	joiner, _ := store.GetByID(ctx, 2)
	if err := m.Join(ctx, session, joiner, 2_000); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	// The creator gambles the wager away between open and start.
	store.mu.Lock()
	store.accounts[1].Balance = 100
	store.mu.Unlock()

	if err := m.ActivateFunded(ctx, session.ID); !ledger.IsInsufficientFunds(err) {
		t.Errorf("ActivateFunded(broke creator) error = %v, want insufficient funds", err)
	}
	if got := sessions.sessions[session.ID].Status; got != models.StatusPending {
		t.Errorf("session status = %s, want pending after refused start", got)
	}

	store.mu.Lock()
	store.accounts[1].Balance = 10_000
	store.mu.Unlock()

	if err := m.ActivateFunded(ctx, session.ID); err != nil {
		t.Fatalf("ActivateFunded(funded) error = %v", err)
	}
	if got := sessions.sessions[session.ID].Status; got != models.StatusActive {
		t.Errorf("session status = %s, want active", got)
	}
}

func TestSettleDuelVoidsSessionOnTransferFailure(t *testing.T) {
	m, store, sessions, _ := testManager(
		&models.Account{ID: 1, Balance: 10_000},
		&models.Account{ID: 2, Balance: 10_000},
	)
	ctx := context.Background()

	creator, _ := store.GetByID(ctx, 1)
	session, err := m.OpenSession(ctx, models.GameTypeDuel, creator, "chan-1", 2_000, models.DuelState{Wager: 2_000, CurrentCeiling: 2_000})
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}
	joiner, _ := store.GetByID(ctx, 2)
	if err := m.Join(ctx, session, joiner, 2_000); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if err := m.Activate(ctx, session.ID); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	// Whoever loses cannot pay, so the transfer must fail.
	store.mu.Lock()
	store.accounts[1].Balance = 0
	store.accounts[2].Balance = 0
	store.mu.Unlock()

	if _, err := m.SettleDuel(ctx, session, 2_000); err == nil {
		t.Fatal("SettleDuel() error = nil, want transfer failure")
	}
	// The session must not stay active and block the channel forever.
	if got := sessions.sessions[session.ID].Status; got != models.StatusCompleted {
		t.Errorf("session status = %s, want completed (voided)", got)
	}
}

func TestUpdateRaceChoiceConcurrentJoins(t *testing.T) {
	m, store, sessions, _ := testManager(
		&models.Account{ID: 1, Balance: 10_000},
		&models.Account{ID: 2, Balance: 10_000},
		&models.Account{ID: 3, Balance: 10_000},
		&models.Account{ID: 4, Balance: 10_000},
	)
	ctx := context.Background()

	creator, _ := store.GetByID(ctx, 1)
	session, err := m.OpenSession(ctx, models.GameTypeRace, creator, "chan-1", 500, models.RaceState{
		BetAmount:    500,
		RacerChoices: map[string]string{"1": RaceField()[0].Name},
	})
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}

	// Three joins race on the state blob; the compare-and-set retry
	// must keep every pick.
	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			accountID := int64(i + 2)
			racer := RaceField()[(i+1)%len(RaceField())]
			_, errs[i] = m.UpdateRaceChoice(ctx, session.ID, accountID, racer.Name)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("UpdateRaceChoice(%d) error = %v", i, err)
		}
	}

	var state models.RaceState
	if err := models.DecodeState(models.GameTypeRace, sessions.sessions[session.ID].State, &state); err != nil {
		t.Fatalf("DecodeState() error = %v", err)
	}
	if len(state.RacerChoices) != 4 {
		t.Errorf("racer choices = %d entries (%v), want 4", len(state.RacerChoices), state.RacerChoices)
	}
}

func TestSettleRaceSplitsPot(t *testing.T) {
	m, store, _, _ := testManager(
		&models.Account{ID: 1, Balance: 10_000},
		&models.Account{ID: 2, Balance: 10_000},
		&models.Account{ID: 3, Balance: 10_000},
	)
	ctx := context.Background()

	creator, _ := store.GetByID(ctx, 1)
	session, err := m.OpenSession(ctx, models.GameTypeRace, creator, "chan-1", 900, models.RaceState{BetAmount: 900})
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}
	for _, id := range []int64{2, 3} {
		acct, _ := store.GetByID(ctx, id)
		if err := m.Join(ctx, session, acct, 900); err != nil {
			t.Fatalf("Join(%d) error = %v", id, err)
		}
	}
	if err := m.Activate(ctx, session.ID); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	result := m.RunRace()
	// Players 1 and 2 backed the winner, player 3 did not.
	otherRacer := "Turtle"
	if result.Winner.Name == otherRacer {
		otherRacer = "Rabbit"
	}
	choices := map[int64]string{
		1: result.Winner.Name,
		2: result.Winner.Name,
		3: otherRacer,
	}

	settlement, err := m.SettleRace(ctx, session, result, 900, choices)
	if err != nil {
		t.Fatalf("SettleRace() error = %v", err)
	}

	if settlement.TotalPot != 2_700 {
		t.Errorf("total pot = %d, want 2700", settlement.TotalPot)
	}
	if settlement.PayoutPerWinner != 1_350 || settlement.ProfitPerWinner != 450 {
		t.Errorf("payout = %d profit = %d, want 1350 450",
			settlement.PayoutPerWinner, settlement.ProfitPerWinner)
	}
	if len(settlement.Winners) != 2 || len(settlement.Losers) != 1 {
		t.Fatalf("winners = %d losers = %d, want 2 and 1",
			len(settlement.Winners), len(settlement.Losers))
	}

	if store.accounts[1].Balance != 10_450 || store.accounts[2].Balance != 10_450 {
		t.Errorf("winner balances = %d, %d, want 10450 each",
			store.accounts[1].Balance, store.accounts[2].Balance)
	}
	if store.accounts[3].Balance != 9_100 {
		t.Errorf("loser balance = %d, want 9100", store.accounts[3].Balance)
	}
}

func TestSettleBlackjackAppliesProfits(t *testing.T) {
	m, store, _, _ := testManager(&models.Account{ID: 1, Balance: 10_000})
	ctx := context.Background()

	creator, _ := store.GetByID(ctx, 1)
	session, err := m.OpenSession(ctx, models.GameTypeBlackjack, creator, "chan-1", 1_000, models.BlackjackState{BetAmount: 1_000})
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}
	if err := m.Activate(ctx, session.ID); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	round := m.RunBlackjackRound(ctx, 1, 1_000, &scriptedPrompter{})
	if err := m.SettleBlackjack(ctx, session, round); err != nil {
		t.Fatalf("SettleBlackjack() error = %v", err)
	}

	want := int64(10_000) + round.Results[0].Profit
	if store.accounts[1].Balance != want {
		t.Errorf("balance = %d, want %d", store.accounts[1].Balance, want)
	}
	if store.accounts[1].ExperiencePoints != tier.XPReward(round.Results[0].Hand.Bet) {
		t.Errorf("xp = %d, want %d", store.accounts[1].ExperiencePoints,
			tier.XPReward(round.Results[0].Hand.Bet))
	}
}
