package repositories

import (
	"context"
	"time"

	"github.com/disgoorg/casino-template/casino/database/models"
	"github.com/uptrace/bun"
)

type SessionRepository interface {
	Create(ctx context.Context, session *models.GameSession) error
	GetByID(ctx context.Context, id int64) (*models.GameSession, error)
	// UpdateStatus transitions the session only when its current
	// status matches expected. A lost race returns ErrStaleAction so
	// exactly one caller wins every transition.
	UpdateStatus(ctx context.Context, sessionID int64, expected, next models.GameStatus) error
	// UpdateState replaces the state blob only while it still matches
	// expected, so concurrent read-modify-write cycles cannot clobber
	// each other. A lost race returns ErrStaleAction.
	UpdateState(ctx context.Context, sessionID int64, expected, next []byte) error
	SetMessageID(ctx context.Context, sessionID int64, messageID string) error
	GetOpenByChannel(ctx context.Context, channelID string, gameType models.GameType) (*models.GameSession, error)
	// CancelStale cancels pending sessions untouched for longer than
	// age, returning how many were swept.
	CancelStale(ctx context.Context, age time.Duration) (int64, error)
}

type sessionRepository struct {
	db *bun.DB
	*BaseRepository
}

func NewSessionRepository(db *bun.DB) SessionRepository {
	return &sessionRepository{
		db:             db,
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.GameSession) error {
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	if session.Status == "" {
		session.Status = models.StatusPending
	}
	_, err := r.db.NewInsert().Model(session).Exec(ctx)
	return r.HandleError("create", "game_session", err)
}

func (r *sessionRepository) GetByID(ctx context.Context, id int64) (*models.GameSession, error) {
	session := new(models.GameSession)
	err := r.db.NewSelect().
		Model(session).
		Relation("Creator").
		Relation("Participants").
		Where("gs.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "game_session", id, err)
	}
	return session, nil
}

func (r *sessionRepository) UpdateStatus(ctx context.Context, sessionID int64, expected, next models.GameStatus) error {
	res, err := r.db.NewUpdate().
		Model((*models.GameSession)(nil)).
		Set("status = ?", next).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", sessionID).
		Where("status = ?", expected).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("update_status", "game_session", sessionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return r.HandleErrorWithID("update_status", "game_session", sessionID, err)
	}
	if affected == 0 {
		return ErrStaleAction
	}
	return nil
}

func (r *sessionRepository) UpdateState(ctx context.Context, sessionID int64, expected, next []byte) error {
	res, err := r.db.NewUpdate().
		Model((*models.GameSession)(nil)).
		Set("state = ?", next).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", sessionID).
		Where("state = ?", expected).
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("update_state", "game_session", sessionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return r.HandleErrorWithID("update_state", "game_session", sessionID, err)
	}
	if affected == 0 {
		return ErrStaleAction
	}
	return nil
}

func (r *sessionRepository) SetMessageID(ctx context.Context, sessionID int64, messageID string) error {
	_, err := r.db.NewUpdate().
		Model((*models.GameSession)(nil)).
		Set("message_id = ?", messageID).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", sessionID).
		Exec(ctx)
	return r.HandleErrorWithID("set_message_id", "game_session", sessionID, err)
}

func (r *sessionRepository) GetOpenByChannel(ctx context.Context, channelID string, gameType models.GameType) (*models.GameSession, error) {
	session := new(models.GameSession)
	err := r.db.NewSelect().
		Model(session).
		Where("channel_id = ?", channelID).
		Where("type = ?", gameType).
		Where("status IN (?)", bun.In([]models.GameStatus{models.StatusPending, models.StatusActive})).
		Order("id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get_open_by_channel", "game_session", channelID, err)
	}
	return session, nil
}

func (r *sessionRepository) CancelStale(ctx context.Context, age time.Duration) (int64, error) {
	res, err := r.db.NewUpdate().
		Model((*models.GameSession)(nil)).
		Set("status = ?", models.StatusCancelled).
		Set("updated_at = ?", time.Now()).
		Where("status = ?", models.StatusPending).
		Where("updated_at < ?", time.Now().Add(-age)).
		Exec(ctx)
	if err != nil {
		return 0, r.HandleError("cancel_stale", "game_session", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, r.HandleError("cancel_stale", "game_session", err)
	}
	return affected, nil
}
