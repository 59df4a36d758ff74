package repositories

import (
	"context"
	"time"

	"github.com/disgoorg/casino-template/casino/database/models"
	"github.com/uptrace/bun"
)

type ParticipantRepository interface {
	// Add registers an account in a session. The unique
	// (session_id, account_id) index makes double joins a
	// ConflictError.
	Add(ctx context.Context, p *models.Participant) error
	// Remove deletes a join record. Only valid while the session is
	// pending; settled participants are never deleted.
	Remove(ctx context.Context, sessionID, accountID int64) error
	GetBySession(ctx context.Context, sessionID int64) ([]*models.Participant, error)
	SetOutcome(ctx context.Context, participantID int64, outcome models.Outcome, payout int64) error
	CountWinsLosses(ctx context.Context, accountID int64, gameType models.GameType) (wins, losses int64, err error)
}

type participantRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewParticipantRepository(db *bun.DB) ParticipantRepository {
	return &participantRepository{
		db:             db,
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *participantRepository) Add(ctx context.Context, p *models.Participant) error {
	p.JoinedAt = time.Now()
	res, err := r.db.NewInsert().
		Model(p).
		On("CONFLICT (session_id, account_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return r.HandleError("add", "participant", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return r.HandleError("add", "participant", err)
	}
	if affected == 0 {
		return &ConflictError{Entity: "participant", Field: "account_id", Value: p.AccountID}
	}
	return nil
}

func (r *participantRepository) Remove(ctx context.Context, sessionID, accountID int64) error {
	res, err := r.db.NewDelete().
		Model((*models.Participant)(nil)).
		Where("session_id = ?", sessionID).
		Where("account_id = ?", accountID).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("remove", "participant", accountID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return r.HandleErrorWithID("remove", "participant", accountID, err)
	}
	if affected == 0 {
		return &NotFoundError{Entity: "participant", ID: accountID}
	}
	return nil
}

func (r *participantRepository) GetBySession(ctx context.Context, sessionID int64) ([]*models.Participant, error) {
	var participants []*models.Participant
	err := r.db.NewSelect().
		Model(&participants).
		Relation("Account").
		Where("session_id = ?", sessionID).
		Order("p.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_by_session", "participant", sessionID, err)
	}
	return participants, nil
}

func (r *participantRepository) SetOutcome(ctx context.Context, participantID int64, outcome models.Outcome, payout int64) error {
	_, err := r.db.NewUpdate().
		Model((*models.Participant)(nil)).
		Set("outcome = ?", outcome).
		Set("payout = ?", payout).
		Where("id = ?", participantID).
		Exec(ctx)
	return r.HandleErrorWithID("set_outcome", "participant", participantID, err)
}

func (r *participantRepository) CountWinsLosses(ctx context.Context, accountID int64, gameType models.GameType) (int64, int64, error) {
	type row struct {
		Outcome models.Outcome `bun:"outcome"`
		Count   int64          `bun:"count"`
	}
	var rows []row
	err := r.db.NewSelect().
		Model((*models.Participant)(nil)).
		ColumnExpr("p.outcome").
		ColumnExpr("COUNT(*) AS count").
		Join("JOIN game_sessions AS gs ON gs.id = p.session_id").
		Where("p.account_id = ?", accountID).
		Where("gs.type = ?", gameType).
		Where("p.outcome IN (?)", bun.In([]models.Outcome{models.OutcomeWin, models.OutcomeLoss})).
		GroupExpr("p.outcome").
		Scan(ctx, &rows)
	if err != nil {
		return 0, 0, r.HandleErrorWithID("count_wins_losses", "participant", accountID, err)
	}

	var wins, losses int64
	for _, r := range rows {
		switch r.Outcome {
		case models.OutcomeWin:
			wins = r.Count
		case models.OutcomeLoss:
			losses = r.Count
		}
	}
	return wins, losses, nil
}
