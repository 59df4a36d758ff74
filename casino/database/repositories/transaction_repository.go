package repositories

import (
	"context"
	"time"

	"github.com/disgoorg/casino-template/casino/database/models"
	"github.com/uptrace/bun"
)

// ReasonTotal is one aggregation bucket from SumByReason.
type ReasonTotal struct {
	Reason models.Reason `bun:"reason"`
	Count  int64         `bun:"count"`
	Total  int64         `bun:"total"`
}

type TransactionRepository interface {
	// Create appends a record outside a ledger commit. Normal game and
	// claim flows go through AccountRepository.AdjustBalance instead.
	Create(ctx context.Context, tx *models.Transaction) error
	GetByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*models.Transaction, error)
	GetBySession(ctx context.Context, sessionID int64) ([]*models.Transaction, error)
	// SumByAccount returns the signed sum of all records for an
	// account. Equals the live balance when the ledger is intact.
	SumByAccount(ctx context.Context, accountID int64) (int64, error)
	SumByReason(ctx context.Context, accountID int64, reasons []models.Reason) ([]ReasonTotal, error)
	CountByReason(ctx context.Context, accountID int64, reasons []models.Reason) (int64, error)
	// ExtremeByReason returns the single largest (desc true) or
	// smallest (desc false) amount among the given reasons, 0 when no
	// rows match.
	ExtremeByReason(ctx context.Context, accountID int64, reasons []models.Reason, desc bool) (int64, error)
	GetSince(ctx context.Context, accountID int64, since time.Time) ([]*models.Transaction, error)
}

type transactionRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewTransactionRepository(db *bun.DB) TransactionRepository {
	return &transactionRepository{
		db:             db,
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now()
	}
	_, err := r.db.NewInsert().Model(tx).Exec(ctx)
	return r.HandleError("create", "transaction", err)
}

func (r *transactionRepository) GetByAccount(ctx context.Context, accountID int64, limit, offset int) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	err := r.db.NewSelect().
		Model(&txs).
		Where("account_id = ?", accountID).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_by_account", "transaction", accountID, err)
	}
	return txs, nil
}

func (r *transactionRepository) GetBySession(ctx context.Context, sessionID int64) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	err := r.db.NewSelect().
		Model(&txs).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_by_session", "transaction", sessionID, err)
	}
	return txs, nil
}

func (r *transactionRepository) SumByAccount(ctx context.Context, accountID int64) (int64, error) {
	var total int64
	err := r.db.NewSelect().
		Model((*models.Transaction)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)").
		Where("account_id = ?", accountID).
		Scan(ctx, &total)
	if err != nil {
		return 0, r.HandleErrorWithID("sum_by_account", "transaction", accountID, err)
	}
	return total, nil
}

func (r *transactionRepository) SumByReason(ctx context.Context, accountID int64, reasons []models.Reason) ([]ReasonTotal, error) {
	var totals []ReasonTotal
	err := r.db.NewSelect().
		Model((*models.Transaction)(nil)).
		ColumnExpr("reason").
		ColumnExpr("COUNT(*) AS count").
		ColumnExpr("COALESCE(SUM(amount), 0) AS total").
		Where("account_id = ?", accountID).
		Where("reason IN (?)", bun.In(reasons)).
		GroupExpr("reason").
		Scan(ctx, &totals)
	if err != nil {
		return nil, r.HandleErrorWithID("sum_by_reason", "transaction", accountID, err)
	}
	return totals, nil
}

func (r *transactionRepository) CountByReason(ctx context.Context, accountID int64, reasons []models.Reason) (int64, error) {
	count, err := r.db.NewSelect().
		Model((*models.Transaction)(nil)).
		Where("account_id = ?", accountID).
		Where("reason IN (?)", bun.In(reasons)).
		Count(ctx)
	if err != nil {
		return 0, r.HandleErrorWithID("count_by_reason", "transaction", accountID, err)
	}
	return int64(count), nil
}

func (r *transactionRepository) ExtremeByReason(ctx context.Context, accountID int64, reasons []models.Reason, desc bool) (int64, error) {
	expr := "COALESCE(MIN(amount), 0)"
	if desc {
		expr = "COALESCE(MAX(amount), 0)"
	}
	var amount int64
	err := r.db.NewSelect().
		Model((*models.Transaction)(nil)).
		ColumnExpr(expr).
		Where("account_id = ?", accountID).
		Where("reason IN (?)", bun.In(reasons)).
		Scan(ctx, &amount)
	if err != nil {
		return 0, r.HandleErrorWithID("extreme_by_reason", "transaction", accountID, err)
	}
	return amount, nil
}

func (r *transactionRepository) GetSince(ctx context.Context, accountID int64, since time.Time) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	err := r.db.NewSelect().
		Model(&txs).
		Where("account_id = ?", accountID).
		Where("timestamp >= ?", since).
		Order("timestamp ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_since", "transaction", accountID, err)
	}
	return txs, nil
}
