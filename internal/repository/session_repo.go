package repository

import (
	"context"
	"time"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionRepository defines the data access surface the session manager needs.
// Deletion of dead rows is an optimization — validation never depends on it.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	GetByToken(ctx context.Context, token string) (*model.Session, error)
	Revoke(ctx context.Context, token string, at time.Time) error
	DeleteDeadByUser(ctx context.Context, userID uuid.UUID, now time.Time) error
	DeleteDead(ctx context.Context, now time.Time) (int64, error)
	CountActive(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	return GetDB(ctx, r.db).Create(session).Error
}

func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	var session model.Session
	if err := GetDB(ctx, r.db).First(&session, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// Revoke sets revoked_at on the matching session. A token that matches no row
// is not an error; revocation is idempotent.
func (r *sessionRepository) Revoke(ctx context.Context, token string, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Session{}).
		Where("token = ? AND revoked_at IS NULL", token).
		Update("revoked_at", at).Error
}

// DeleteDeadByUser removes the user's expired or revoked sessions.
func (r *sessionRepository) DeleteDeadByUser(ctx context.Context, userID uuid.UUID, now time.Time) error {
	return GetDB(ctx, r.db).
		Where("user_id = ? AND (expires_at < ? OR revoked_at IS NOT NULL)", userID, now).
		Delete(&model.Session{}).Error
}

// DeleteDead bulk-removes every expired or revoked session and reports how
// many rows went away.
func (r *sessionRepository) DeleteDead(ctx context.Context, now time.Time) (int64, error) {
	res := GetDB(ctx, r.db).
		Where("expires_at < ? OR revoked_at IS NOT NULL", now).
		Delete(&model.Session{})
	return res.RowsAffected, res.Error
}

func (r *sessionRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Session{}).
		Where("revoked_at IS NULL AND expires_at > ?", now).
		Count(&count).Error
	return count, err
}
