package repository

import (
	"context"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApprovalRepository is append-only: approvals are a ledger of decisions and
// are never updated or deleted.
type ApprovalRepository interface {
	Create(ctx context.Context, approval *model.Approval) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Approval, error)
}

type approvalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) Create(ctx context.Context, approval *model.Approval) error {
	return GetDB(ctx, r.db).Create(approval).Error
}

func (r *approvalRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.Approval, error) {
	var approvals []model.Approval
	if err := GetDB(ctx, r.db).
		Preload("User").
		Where("request_id = ?", requestID).
		Order("timestamp ASC").
		Find(&approvals).Error; err != nil {
		return nil, err
	}
	return approvals, nil
}
