package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/disgoorg/casino-template/casino/database/models"
	"github.com/disgoorg/casino-template/casino/database/repositories"
)

// AccountStore is the slice of the account repository the ledger needs.
type AccountStore interface {
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	AdjustBalance(ctx context.Context, accountID int64, amount int64, reason models.Reason, sessionID *int64) (*models.Account, error)
	Transfer(ctx context.Context, fromID, toID int64, amount int64, lossReason, winReason models.Reason, sessionID *int64) error
	SetExperience(ctx context.Context, accountID int64, xp int64, level int) error
}

// Ledger is the single entry point for balance mutations. Every credit
// and debit flows through here so the in-process per-account locks and
// the append-only transaction log stay in agreement.
type Ledger struct {
	accounts AccountStore
	locker   *Locker
}

func New(accounts AccountStore, locker *Locker) *Ledger {
	return &Ledger{accounts: accounts, locker: locker}
}

// WithAccount runs fn while holding the account's balance lock, so a
// read-check-mutate sequence can be made atomic against other balance
// work. Mutations inside fn must use AdjustLocked; calling Adjust
// would deadlock.
func (l *Ledger) WithAccount(accountID int64, fn func() error) error {
	return l.locker.WithAccount(accountID, fn)
}

// Adjust applies one signed balance change under the account lock.
func (l *Ledger) Adjust(ctx context.Context, accountID int64, amount int64, reason models.Reason, sessionID *int64) (*models.Account, error) {
	var account *models.Account
	err := l.locker.WithAccount(accountID, func() error {
		var err error
		account, err = l.AdjustLocked(ctx, accountID, amount, reason, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// AdjustLocked is Adjust for callers already inside WithAccount on the
// same account. Zero amounts are a no-op read so pushes never pollute
// the transaction log.
func (l *Ledger) AdjustLocked(ctx context.Context, accountID int64, amount int64, reason models.Reason, sessionID *int64) (*models.Account, error) {
	if amount == 0 {
		return l.accounts.GetByID(ctx, accountID)
	}

	account, err := l.accounts.AdjustBalance(ctx, accountID, amount, reason, sessionID)
	if err != nil {
		return nil, err
	}

	slog.Debug("Ledger adjustment",
		slog.String("type", "eco"),
		slog.Int64("account_id", accountID),
		slog.Int64("amount", amount),
		slog.String("reason", string(reason)),
		slog.Int64("balance", account.Balance))
	return account, nil
}

// Transfer moves a wager from loser to winner. Both per-account locks
// are held for the duration, acquired in ascending id order.
func (l *Ledger) Transfer(ctx context.Context, fromID, toID int64, amount int64, lossReason, winReason models.Reason, sessionID *int64) error {
	if amount == 0 {
		return nil
	}

	err := l.locker.WithAccounts([]int64{fromID, toID}, func() error {
		return l.accounts.Transfer(ctx, fromID, toID, amount, lossReason, winReason, sessionID)
	})
	if err != nil {
		return err
	}

	slog.Debug("Ledger transfer",
		slog.String("type", "eco"),
		slog.Int64("from", fromID),
		slog.Int64("to", toID),
		slog.Int64("amount", amount))
	return nil
}

// Balance re-reads the live balance. Game flows call this after any
// wait on user input, since the balance may have moved meanwhile.
func (l *Ledger) Balance(ctx context.Context, accountID int64) (int64, error) {
	account, err := l.accounts.GetByID(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// CanAfford reports whether the account can cover amount right now.
// Purely advisory; the debit itself still guards against overdraft.
func (l *Ledger) CanAfford(ctx context.Context, accountID int64, amount int64) (bool, error) {
	balance, err := l.Balance(ctx, accountID)
	if err != nil {
		return false, err
	}
	return balance >= amount, nil
}

// AwardXP grants experience for a wager and persists any level change.
func (l *Ledger) AwardXP(ctx context.Context, accountID int64, xp int64, computeLevel func(totalXP int64) int) (*models.Account, error) {
	if xp <= 0 {
		return l.accounts.GetByID(ctx, accountID)
	}

	var account *models.Account
	err := l.locker.WithAccount(accountID, func() error {
		var err error
		account, err = l.accounts.GetByID(ctx, accountID)
		if err != nil {
			return err
		}
		account.ExperiencePoints += xp
		account.Level = computeLevel(account.ExperiencePoints)
		return l.accounts.SetExperience(ctx, accountID, account.ExperiencePoints, account.Level)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// IsInsufficientFunds reports whether err is an overdraft rejection.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, repositories.ErrInsufficientFunds)
}
