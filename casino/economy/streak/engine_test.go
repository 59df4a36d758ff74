package streak

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/casino-template/casino/database/models"
	"github.com/disgoorg/casino-template/casino/database/repositories"
	"github.com/disgoorg/casino-template/casino/economy/ledger"
)

// fakeAccounts is an in-memory AccountRepository for engine tests.
type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[int64]*models.Account
	txs      []*models.Transaction
}

func newFakeAccounts(accounts ...*models.Account) *fakeAccounts {
	f := &fakeAccounts{accounts: map[int64]*models.Account{}}
	for _, a := range accounts {
		f.accounts[a.ID] = a
	}
	return f
}

func (f *fakeAccounts) get(id int64) (*models.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "account", ID: id}
	}
	return a, nil
}

func (f *fakeAccounts) Create(_ context.Context, account *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[account.ID] = account
	return nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.get(id)
	if err != nil {
		return nil, err
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) GetByDiscordID(_ context.Context, discordID string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.DiscordID == discordID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, &repositories.NotFoundError{Entity: "account", ID: discordID}
}

func (f *fakeAccounts) GetOrCreate(ctx context.Context, discordID, displayName string) (*models.Account, bool, error) {
	a, err := f.GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, false, err
	}
	return a, false, nil
}

func (f *fakeAccounts) Update(_ context.Context, account *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[account.ID] = account
	return nil
}

func (f *fakeAccounts) AdjustBalance(_ context.Context, accountID int64, amount int64, reason models.Reason, sessionID *int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.get(accountID)
	if err != nil {
		return nil, err
	}
	if amount < 0 && a.Balance+amount < 0 {
		return nil, repositories.ErrInsufficientFunds
	}
	a.Balance += amount
	if amount > 0 {
		a.LifetimeEarned += amount
	} else {
		a.LifetimeLost += -amount
	}
	f.txs = append(f.txs, &models.Transaction{AccountID: accountID, Amount: amount, Reason: reason, SessionID: sessionID})
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) Transfer(_ context.Context, fromID, toID int64, amount int64, lossReason, winReason models.Reason, sessionID *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	from, err := f.get(fromID)
	if err != nil {
		return err
	}
	to, err := f.get(toID)
	if err != nil {
		return err
	}
	if from.Balance < amount {
		return repositories.ErrInsufficientFunds
	}
	from.Balance -= amount
	from.LifetimeLost += amount
	to.Balance += amount
	to.LifetimeEarned += amount
	f.txs = append(f.txs,
		&models.Transaction{AccountID: fromID, Amount: -amount, Reason: lossReason, SessionID: sessionID},
		&models.Transaction{AccountID: toID, Amount: amount, Reason: winReason, SessionID: sessionID})
	return nil
}

func (f *fakeAccounts) SetClaimState(_ context.Context, accountID int64, kind repositories.ClaimKind, claimedAt time.Time, streak, best int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.get(accountID)
	if err != nil {
		return err
	}
	if kind == repositories.ClaimDaily {
		a.LastDailyClaim = claimedAt.UTC()
		a.DailyStreak = streak
		a.DailyStreakBest = best
	} else {
		a.LastHourlyClaim = claimedAt.UTC()
		a.HourlyStreak = streak
		a.HourlyStreakBest = best
	}
	return nil
}

func (f *fakeAccounts) SetLastClaim(_ context.Context, accountID int64, kind repositories.ClaimKind, claimedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.get(accountID)
	if err != nil {
		return err
	}
	if kind == repositories.ClaimDaily {
		a.LastDailyClaim = claimedAt.UTC()
	} else {
		a.LastHourlyClaim = claimedAt.UTC()
	}
	return nil
}

func (f *fakeAccounts) SetExperience(_ context.Context, accountID int64, xp int64, level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.get(accountID)
	if err != nil {
		return err
	}
	a.ExperiencePoints = xp
	a.Level = level
	return nil
}

func (f *fakeAccounts) GetRank(_ context.Context, _ int64) (int, error) { return 1, nil }

func (f *fakeAccounts) GetTopByBalance(_ context.Context, _, _ int) ([]*models.Account, error) {
	return nil, nil
}

func (f *fakeAccounts) GetAll(_ context.Context) ([]*models.Account, error) { return nil, nil }

func (f *fakeAccounts) ResetEconomy(_ context.Context) error { return nil }

var testConfig = Config{
	Daily: Params{
		BaseReward:    1000,
		BonusPerStep:  0.10,
		CapStep:       10,
		MaxReward:     2500,
		InsuranceCost: 2000,
	},
	Hourly: Params{
		BaseReward:    250,
		BonusPerStep:  0.05,
		CapStep:       12,
		MaxReward:     500,
		InsuranceCost: 500,
		GraceMissed:   2,
	},
	ResetHour: 3,
	Location:  time.UTC,
}

func testEngine(t *testing.T, now time.Time, accounts ...*models.Account) (*Engine, *fakeAccounts) {
	t.Helper()
	store := newFakeAccounts(accounts...)
	e := NewEngine(store, ledger.New(store, ledger.NewLocker()), testConfig)
	e.now = func() time.Time { return now }
	return e, store
}

func TestClaimFirstEver(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	e, store := testEngine(t, now, &models.Account{ID: 1, Balance: 100})

	res, err := e.Claim(context.Background(), 1, KindDaily)
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if res.Streak != 1 || res.Best != 1 || res.WasBroken {
		t.Errorf("Claim() = streak %d best %d broken %v, want 1 1 false", res.Streak, res.Best, res.WasBroken)
	}
	if res.Reward != 1000 {
		t.Errorf("Claim() reward = %d, want 1000", res.Reward)
	}
	if res.Account.Balance != 1100 {
		t.Errorf("Claim() balance = %d, want 1100", res.Account.Balance)
	}

	stored := store.accounts[1]
	if !stored.LastDailyClaim.Equal(now.UTC()) || stored.DailyStreak != 1 {
		t.Errorf("claim state not persisted: last = %v, streak = %d", stored.LastDailyClaim, stored.DailyStreak)
	}
	if len(store.txs) != 1 || store.txs[0].Reason != models.ReasonDailyReward {
		t.Errorf("transaction log = %+v, want one daily_reward", store.txs)
	}
}

func TestClaimOnCooldown(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	e, _ := testEngine(t, now, &models.Account{
		ID:             1,
		LastDailyClaim: now.Add(-2 * time.Hour),
		DailyStreak:    3,
	})

	if _, err := e.Claim(context.Background(), 1, KindDaily); !errors.Is(err, ErrOnCooldown) {
		t.Errorf("Claim() error = %v, want ErrOnCooldown", err)
	}
}

func TestClaimConsecutive(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	e, _ := testEngine(t, now, &models.Account{
		ID:              1,
		LastDailyClaim:  now.AddDate(0, 0, -1),
		DailyStreak:     4,
		DailyStreakBest: 9,
	})

	res, err := e.Claim(context.Background(), 1, KindDaily)
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if res.Streak != 5 || res.Best != 9 || res.WasBroken {
		t.Errorf("Claim() = streak %d best %d broken %v, want 5 9 false", res.Streak, res.Best, res.WasBroken)
	}
	// Base 1000 plus 10% per step beyond the first.
	if res.Reward != 1400 {
		t.Errorf("Claim() reward = %d, want 1400", res.Reward)
	}
}

func TestClaimBrokenResets(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	e, _ := testEngine(t, now, &models.Account{
		ID:              1,
		LastDailyClaim:  now.AddDate(0, 0, -3),
		DailyStreak:     7,
		DailyStreakBest: 7,
	})

	res, err := e.Claim(context.Background(), 1, KindDaily)
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if res.Streak != 1 || !res.WasBroken {
		t.Errorf("Claim() = streak %d broken %v, want 1 true", res.Streak, res.WasBroken)
	}
	if res.Best != 7 {
		t.Errorf("Claim() best = %d, want 7 preserved", res.Best)
	}
}

func TestClaimHourlyGrace(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		last       time.Time
		wantStreak int
		wantBroken bool
	}{
		{"NextHourContinues", now.Add(-time.Hour), 6, false},
		{"OneMissedWithinGrace", now.Add(-2 * time.Hour), 6, false},
		{"TwoMissedBreaks", now.Add(-3 * time.Hour), 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := testEngine(t, now, &models.Account{
				ID:              1,
				LastHourlyClaim: tt.last,
				HourlyStreak:    5,
			})
			res, err := e.Claim(context.Background(), 1, KindHourly)
			if err != nil {
				t.Fatalf("Claim() error = %v", err)
			}
			if res.Streak != tt.wantStreak || res.WasBroken != tt.wantBroken {
				t.Errorf("Claim() = streak %d broken %v, want %d %v",
					res.Streak, res.WasBroken, tt.wantStreak, tt.wantBroken)
			}
		})
	}
}

func TestClaimConcurrentSingleWinner(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	e, store := testEngine(t, now, &models.Account{ID: 1, Balance: 0})

	const claims = 8
	var wg sync.WaitGroup
	errs := make([]error, claims)
	for i := 0; i < claims; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.Claim(context.Background(), 1, KindDaily)
		}(i)
	}
	wg.Wait()

	var granted, onCooldown int
	for _, err := range errs {
		switch {
		case err == nil:
			granted++
		case errors.Is(err, ErrOnCooldown):
			onCooldown++
		default:
			t.Fatalf("Claim() error = %v", err)
		}
	}
	if granted != 1 || onCooldown != claims-1 {
		t.Errorf("concurrent claims = %d granted %d on cooldown, want 1 and %d",
			granted, onCooldown, claims-1)
	}
	if got := store.accounts[1].Balance; got != 1000 {
		t.Errorf("balance = %d, want 1000 (one reward)", got)
	}
	if len(store.txs) != 1 {
		t.Errorf("transaction log = %d entries, want 1", len(store.txs))
	}
}

func TestPurchaseInsuranceConcurrentSingleCharge(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	e, store := testEngine(t, now, &models.Account{
		ID:              1,
		Balance:         10_000,
		LastDailyClaim:  now.AddDate(0, 0, -3),
		DailyStreak:     7,
		DailyStreakBest: 7,
	})

	const purchases = 4
	var wg sync.WaitGroup
	errs := make([]error, purchases)
	for i := 0; i < purchases; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.PurchaseInsurance(context.Background(), 1, KindDaily)
		}(i)
	}
	wg.Wait()

	var charged, notBroken int
	for _, err := range errs {
		switch {
		case err == nil:
			charged++
		case errors.Is(err, ErrStreakNotBroken):
			notBroken++
		default:
			t.Fatalf("PurchaseInsurance() error = %v", err)
		}
	}
	if charged != 1 || notBroken != purchases-1 {
		t.Errorf("concurrent purchases = %d charged %d not broken, want 1 and %d",
			charged, notBroken, purchases-1)
	}
	if got := store.accounts[1].Balance; got != 8_000 {
		t.Errorf("balance = %d, want 8000 (one fee)", got)
	}
}

func TestReward(t *testing.T) {
	p := testConfig.Daily
	tests := []struct {
		name   string
		streak int
		want   int64
	}{
		{"FirstStep", 1, 1000},
		{"SecondStep", 2, 1100},
		{"FifthStep", 5, 1400},
		{"AtCapStep", 10, 2500},
		{"PastCapStep", 25, 2500},
		{"ZeroClampsToOne", 0, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reward(p, tt.streak); got != tt.want {
				t.Errorf("Reward(%d) = %d, want %d", tt.streak, got, tt.want)
			}
		})
	}
}

func TestPurchaseInsuranceNotBroken(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	e, _ := testEngine(t, now, &models.Account{
		ID:             1,
		Balance:        10_000,
		LastDailyClaim: now.AddDate(0, 0, -1),
		DailyStreak:    3,
	})

	if _, err := e.PurchaseInsurance(context.Background(), 1, KindDaily); !errors.Is(err, ErrStreakNotBroken) {
		t.Errorf("PurchaseInsurance() error = %v, want ErrStreakNotBroken", err)
	}
}

func TestPurchaseInsuranceRepairsStreak(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	e, store := testEngine(t, now, &models.Account{
		ID:              1,
		Balance:         10_000,
		LastDailyClaim:  now.AddDate(0, 0, -3),
		DailyStreak:     7,
		DailyStreakBest: 7,
	})

	updated, err := e.PurchaseInsurance(context.Background(), 1, KindDaily)
	if err != nil {
		t.Fatalf("PurchaseInsurance() error = %v", err)
	}
	if updated.Balance != 8_000 {
		t.Errorf("PurchaseInsurance() balance = %d, want 8000", updated.Balance)
	}
	if len(store.txs) != 1 || store.txs[0].Reason != models.ReasonStreakInsurance {
		t.Errorf("transaction log = %+v, want one streak_insurance", store.txs)
	}

	// The repaired timestamp makes the next claim continue the streak.
	res, err := e.Claim(context.Background(), 1, KindDaily)
	if err != nil {
		t.Fatalf("Claim() after insurance error = %v", err)
	}
	if res.Streak != 8 || res.WasBroken {
		t.Errorf("Claim() after insurance = streak %d broken %v, want 8 false", res.Streak, res.WasBroken)
	}
}

func TestPurchaseInsuranceInsufficientFunds(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	e, _ := testEngine(t, now, &models.Account{
		ID:             1,
		Balance:        50,
		LastDailyClaim: now.AddDate(0, 0, -3),
		DailyStreak:    7,
	})

	_, err := e.PurchaseInsurance(context.Background(), 1, KindDaily)
	if !ledger.IsInsufficientFunds(err) {
		t.Errorf("PurchaseInsurance() error = %v, want insufficient funds", err)
	}
}

func TestStatus(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	e, _ := testEngine(t, now)

	fresh := e.Status(&models.Account{}, KindDaily)
	if !fresh.Claimable || fresh.NextReward != 1000 {
		t.Errorf("Status(fresh) = claimable %v reward %d, want true 1000", fresh.Claimable, fresh.NextReward)
	}

	onCooldown := e.Status(&models.Account{
		LastDailyClaim: now.Add(-time.Hour),
		DailyStreak:    3,
	}, KindDaily)
	if onCooldown.Claimable || onCooldown.Broken {
		t.Errorf("Status(cooldown) = claimable %v broken %v, want false false", onCooldown.Claimable, onCooldown.Broken)
	}
	if want := time.Date(2025, 6, 11, 3, 0, 0, 0, time.UTC); !onCooldown.NextWindow.Equal(want) {
		t.Errorf("Status(cooldown) next window = %v, want %v", onCooldown.NextWindow, want)
	}

	broken := e.Status(&models.Account{
		LastDailyClaim: now.AddDate(0, 0, -4),
		DailyStreak:    9,
	}, KindDaily)
	if !broken.Claimable || !broken.Broken {
		t.Errorf("Status(broken) = claimable %v broken %v, want true true", broken.Claimable, broken.Broken)
	}
	if broken.NextReward != 1000 {
		t.Errorf("Status(broken) next reward = %d, want reset to base", broken.NextReward)
	}
}
