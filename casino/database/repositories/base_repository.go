package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/casino-template/casino/config"
	"github.com/uptrace/bun"
)

// ErrStaleAction is returned when a session transition races a
// concurrent transition and loses. Callers treat it as "this action
// was already resolved" and refresh their view.
var ErrStaleAction = errors.New("session already transitioned by a concurrent action")

// ErrInsufficientFunds is returned when a debit would push a balance
// below zero.
var ErrInsufficientFunds = errors.New("insufficient funds")

// NotFoundError reports a missing entity by id.
type NotFoundError struct {
	Entity string
	ID     interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %v not found", e.Entity, e.ID)
}

// ConflictError reports a uniqueness violation.
type ConflictError struct {
	Entity string
	Field  string
	Value  interface{}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with %s %v already exists", e.Entity, e.Field, e.Value)
}

// RepositoryError wraps any other storage failure with the operation
// and entity it happened on.
type RepositoryError struct {
	Operation string
	Entity    string
	Err       error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository error during %s for %s: %v", e.Operation, e.Entity, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// BaseRepository carries the shared bun handle, query timeouts and
// error mapping the concrete repositories embed.
type BaseRepository struct {
	db             *bun.DB
	defaultTimeout time.Duration
}

func NewBaseRepository(db *bun.DB) *BaseRepository {
	return &BaseRepository{db: db, defaultTimeout: config.DefaultQueryTimeout}
}

func (br *BaseRepository) GetDB() *bun.DB { return br.db }

func (br *BaseRepository) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, br.defaultTimeout)
}

func (br *BaseRepository) WithCustomTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// HandleErrorWithID maps sql.ErrNoRows to NotFoundError and wraps
// everything else in RepositoryError. Nil passes through.
func (br *BaseRepository) HandleErrorWithID(operation, entity string, id interface{}, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return &NotFoundError{Entity: entity, ID: id}
	default:
		return &RepositoryError{Operation: operation, Entity: entity, Err: err}
	}
}

// HandleError is HandleErrorWithID for call sites with no useful id.
func (br *BaseRepository) HandleError(operation, entity string, err error) error {
	return br.HandleErrorWithID(operation, entity, "unknown", err)
}

// Transaction runs fn inside db.RunInTx under the default timeout.
func (br *BaseRepository) Transaction(ctx context.Context, fn func(context.Context, bun.Tx) error) error {
	timeoutCtx, cancel := br.WithTimeout(ctx)
	defer cancel()
	return br.db.RunInTx(timeoutCtx, nil, fn)
}

func (br *BaseRepository) Count(ctx context.Context, entity string, query *bun.SelectQuery) (int, error) {
	timeoutCtx, cancel := br.WithTimeout(ctx)
	defer cancel()

	count, err := query.Count(timeoutCtx)
	return count, br.HandleError("count", entity, err)
}

func (br *BaseRepository) Exists(ctx context.Context, entity string, query *bun.SelectQuery) (bool, error) {
	timeoutCtx, cancel := br.WithTimeout(ctx)
	defer cancel()

	exists, err := query.Exists(timeoutCtx)
	return exists, br.HandleError("exists", entity, err)
}
