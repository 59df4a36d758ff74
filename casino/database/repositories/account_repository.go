package repositories

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/disgoorg/casino-template/casino/config"
	"github.com/disgoorg/casino-template/casino/database/models"
	"github.com/uptrace/bun"
)

// ClaimKind selects which claim timestamp and streak pair an update
// applies to.
type ClaimKind string

const (
	ClaimDaily  ClaimKind = "daily"
	ClaimHourly ClaimKind = "hourly"
)

type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByDiscordID(ctx context.Context, discordID string) (*models.Account, error)
	// GetOrCreate registers the account on first contact, seeding the
	// starting balance through a single initial_grant transaction.
	GetOrCreate(ctx context.Context, discordID, displayName string) (*models.Account, bool, error)
	Update(ctx context.Context, account *models.Account) error
	// AdjustBalance applies one signed balance change atomically: the
	// balance moves, the matching lifetime counter moves, and exactly
	// one transaction row is appended. A debit that would push the
	// balance negative fails with ErrInsufficientFunds and writes
	// nothing.
	AdjustBalance(ctx context.Context, accountID int64, amount int64, reason models.Reason, sessionID *int64) (*models.Account, error)
	// Transfer moves amount from one account to another in a single
	// database transaction, appending one loss and one win record tied
	// to the same session. Zero-sum: the two amounts cancel exactly.
	Transfer(ctx context.Context, fromID, toID int64, amount int64, lossReason, winReason models.Reason, sessionID *int64) error
	// SetClaimState persists a claim: the new last-claim timestamp,
	// the advanced streak, and the best-streak watermark.
	SetClaimState(ctx context.Context, accountID int64, kind ClaimKind, claimedAt time.Time, streak, best int) error
	// SetLastClaim rewrites only the claim timestamp, leaving streaks
	// untouched. Used by streak insurance.
	SetLastClaim(ctx context.Context, accountID int64, kind ClaimKind, claimedAt time.Time) error
	SetExperience(ctx context.Context, accountID int64, xp int64, level int) error
	GetRank(ctx context.Context, accountID int64) (int, error)
	GetTopByBalance(ctx context.Context, limit, offset int) ([]*models.Account, error)
	GetAll(ctx context.Context) ([]*models.Account, error)
	// ResetEconomy rewinds every account to the starting balance and
	// wipes game history. Identity rows survive; each account gets a
	// fresh initial_grant so the ledger invariant keeps holding.
	ResetEconomy(ctx context.Context) error
}

type accountRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewAccountRepository(db *bun.DB) AccountRepository {
	return &accountRepository{
		db:             db,
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()
	_, err := r.db.NewInsert().Model(account).Exec(ctx)
	return r.HandleError("create", "account", err)
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	account := new(models.Account)
	err := r.db.NewSelect().
		Model(account).
		Where("a.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "account", id, err)
	}
	return account, nil
}

func (r *accountRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.Account, error) {
	account := new(models.Account)
	err := r.db.NewSelect().
		Model(account).
		Where("discord_id = ?", discordID).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "account", discordID, err)
	}
	return account, nil
}

func (r *accountRepository) GetOrCreate(ctx context.Context, discordID, displayName string) (*models.Account, bool, error) {
	account, err := r.GetByDiscordID(ctx, discordID)
	if err == nil {
		return account, false, nil
	}
	if !IsNotFound(err) {
		return nil, false, err
	}

	now := time.Now()
	account = &models.Account{
		DiscordID:      discordID,
		DisplayName:    displayName,
		Balance:        config.StartingBalance,
		LifetimeEarned: config.StartingBalance,
		Level:          1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(account).
			On("CONFLICT (discord_id) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}
		if account.ID == 0 {
			// Lost the insert race; the other writer seeded the grant.
			return tx.NewSelect().
				Model(account).
				Where("discord_id = ?", discordID).
				Scan(ctx)
		}
		grant := &models.Transaction{
			AccountID: account.ID,
			Amount:    config.StartingBalance,
			Reason:    models.ReasonInitialGrant,
			Timestamp: now,
		}
		_, err := tx.NewInsert().Model(grant).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, false, r.HandleErrorWithID("get_or_create", "account", discordID, err)
	}

	created := account.CreatedAt.Equal(now)
	if created {
		slog.Info("Account registered",
			slog.String("type", "db"),
			slog.String("discord_id", discordID),
			slog.Int64("account_id", account.ID),
			slog.Int64("starting_balance", config.StartingBalance))
	}
	return account, created, nil
}

func (r *accountRepository) Update(ctx context.Context, account *models.Account) error {
	account.UpdatedAt = time.Now()
	_, err := r.db.NewUpdate().
		Model(account).
		WherePK().
		Exec(ctx)
	return r.HandleErrorWithID("update", "account", account.ID, err)
}

func (r *accountRepository) AdjustBalance(ctx context.Context, accountID int64, amount int64, reason models.Reason, sessionID *int64) (*models.Account, error) {
	account := new(models.Account)

	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewUpdate().
			Model((*models.Account)(nil)).
			Set("balance = balance + ?", amount).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", accountID)

		switch {
		case amount > 0:
			q = q.Set("lifetime_earned = lifetime_earned + ?", amount)
		case amount < 0:
			q = q.Set("lifetime_lost = lifetime_lost + ?", -amount).
				Where("balance + ? >= 0", amount)
		}

		res, err := q.Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			exists, err := tx.NewSelect().
				Model((*models.Account)(nil)).
				Where("id = ?", accountID).
				Exists(ctx)
			if err != nil {
				return err
			}
			if !exists {
				return sql.ErrNoRows
			}
			return ErrInsufficientFunds
		}

		record := &models.Transaction{
			AccountID: accountID,
			Amount:    amount,
			Reason:    reason,
			SessionID: sessionID,
			Timestamp: time.Now(),
		}
		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return err
		}

		return tx.NewSelect().
			Model(account).
			Where("a.id = ?", accountID).
			Scan(ctx)
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return nil, ErrInsufficientFunds
		}
		return nil, r.HandleErrorWithID("adjust_balance", "account", accountID, err)
	}
	return account, nil
}

func (r *accountRepository) Transfer(ctx context.Context, fromID, toID int64, amount int64, lossReason, winReason models.Reason, sessionID *int64) error {
	if amount <= 0 {
		return &RepositoryError{Operation: "transfer", Entity: "account",
			Err: errors.New("transfer amount must be positive")}
	}

	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		// Row locks taken in ascending id order so concurrent
		// transfers between the same pair cannot deadlock.
		var ids []int64
		if err := tx.NewSelect().
			Model((*models.Account)(nil)).
			Column("id").
			Where("id IN (?)", bun.In([]int64{fromID, toID})).
			Order("id ASC").
			For("UPDATE").
			Scan(ctx, &ids); err != nil {
			return err
		}
		if len(ids) != 2 {
			return sql.ErrNoRows
		}

		now := time.Now()
		res, err := tx.NewUpdate().
			Model((*models.Account)(nil)).
			Set("balance = balance - ?", amount).
			Set("lifetime_lost = lifetime_lost + ?", amount).
			Set("updated_at = ?", now).
			Where("id = ?", fromID).
			Where("balance >= ?", amount).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInsufficientFunds
		}

		if _, err := tx.NewUpdate().
			Model((*models.Account)(nil)).
			Set("balance = balance + ?", amount).
			Set("lifetime_earned = lifetime_earned + ?", amount).
			Set("updated_at = ?", now).
			Where("id = ?", toID).
			Exec(ctx); err != nil {
			return err
		}

		records := []*models.Transaction{
			{AccountID: fromID, Amount: -amount, Reason: lossReason, SessionID: sessionID, Timestamp: now},
			{AccountID: toID, Amount: amount, Reason: winReason, SessionID: sessionID, Timestamp: now},
		}
		_, err = tx.NewInsert().Model(&records).Exec(ctx)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return ErrInsufficientFunds
		}
		return r.HandleError("transfer", "account", err)
	}
	return nil
}

func (r *accountRepository) SetClaimState(ctx context.Context, accountID int64, kind ClaimKind, claimedAt time.Time, streak, best int) error {
	q := r.db.NewUpdate().
		Model((*models.Account)(nil)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", accountID)

	if kind == ClaimDaily {
		q = q.Set("last_daily_claim = ?", claimedAt.UTC()).
			Set("daily_streak = ?", streak).
			Set("daily_streak_best = ?", best)
	} else {
		q = q.Set("last_hourly_claim = ?", claimedAt.UTC()).
			Set("hourly_streak = ?", streak).
			Set("hourly_streak_best = ?", best)
	}

	_, err := q.Exec(ctx)
	return r.HandleErrorWithID("set_claim_state", "account", accountID, err)
}

func (r *accountRepository) SetLastClaim(ctx context.Context, accountID int64, kind ClaimKind, claimedAt time.Time) error {
	column := "last_hourly_claim"
	if kind == ClaimDaily {
		column = "last_daily_claim"
	}

	_, err := r.db.NewUpdate().
		Model((*models.Account)(nil)).
		Set(column+" = ?", claimedAt.UTC()).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", accountID).
		Exec(ctx)
	return r.HandleErrorWithID("set_last_claim", "account", accountID, err)
}

func (r *accountRepository) SetExperience(ctx context.Context, accountID int64, xp int64, level int) error {
	_, err := r.db.NewUpdate().
		Model((*models.Account)(nil)).
		Set("experience_points = ?", xp).
		Set("level = ?", level).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", accountID).
		Exec(ctx)
	return r.HandleErrorWithID("set_experience", "account", accountID, err)
}

func (r *accountRepository) GetRank(ctx context.Context, accountID int64) (int, error) {
	var rank int
	err := r.db.NewSelect().
		ColumnExpr("ranked.rank").
		TableExpr("(SELECT id, RANK() OVER (ORDER BY balance DESC) AS rank FROM accounts) AS ranked").
		Where("ranked.id = ?", accountID).
		Scan(ctx, &rank)
	if err != nil {
		return 0, r.HandleErrorWithID("get_rank", "account", accountID, err)
	}
	return rank, nil
}

func (r *accountRepository) GetTopByBalance(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	var accounts []*models.Account
	err := r.db.NewSelect().
		Model(&accounts).
		Order("balance DESC").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get_top", "account", err)
	}
	return accounts, nil
}

func (r *accountRepository) GetAll(ctx context.Context) ([]*models.Account, error) {
	var accounts []*models.Account
	err := r.db.NewSelect().
		Model(&accounts).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("get_all", "account", err)
	}
	return accounts, nil
}

func (r *accountRepository) ResetEconomy(ctx context.Context) error {
	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		for _, stmt := range []string{
			"TRUNCATE TABLE transactions RESTART IDENTITY",
			"TRUNCATE TABLE participants RESTART IDENTITY",
			"TRUNCATE TABLE game_sessions RESTART IDENTITY CASCADE",
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}

		now := time.Now()
		if _, err := tx.NewUpdate().
			Model((*models.Account)(nil)).
			Set("balance = ?", config.StartingBalance).
			Set("lifetime_earned = ?", config.StartingBalance).
			Set("lifetime_lost = 0").
			Set("last_daily_claim = NULL").
			Set("last_hourly_claim = NULL").
			Set("daily_streak = 0").
			Set("daily_streak_best = 0").
			Set("hourly_streak = 0").
			Set("hourly_streak_best = 0").
			Set("experience_points = 0").
			Set("level = 1").
			Set("updated_at = ?", now).
			Where("1 = 1").
			Exec(ctx); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (account_id, amount, reason, timestamp)
			SELECT id, ?, ?, ? FROM accounts`,
			int64(config.StartingBalance), string(models.ReasonInitialGrant), now)
		return err
	})
	if err != nil {
		return r.HandleError("reset_economy", "account", err)
	}

	slog.Warn("Economy reset: all balances rewound to starting grant",
		slog.String("type", "db"),
		slog.Int64("starting_balance", config.StartingBalance))
	return nil
}
