package repository

import (
	"context"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestFilter narrows listing of payment requests.
type RequestFilter struct {
	Status      string
	CurrentStep string
	SupplierID  string
	Page        int
	Limit       int
}

// PaymentRequestRepository defines data access for payment requests.
// UpdateStateIf is the compare-and-swap the workflow serializes on: the
// UPDATE is guarded by the expected (status, current_step) pair, so of two
// racing transitions only one can match the starting state.
type PaymentRequestRepository interface {
	Create(ctx context.Context, req *model.PaymentRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PaymentRequest, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.PaymentRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]model.PaymentRequest, int64, error)
	UpdateStateIf(ctx context.Context, id uuid.UUID, fromStatus, fromStep string, updates map[string]interface{}) (bool, error)
}

type paymentRequestRepository struct {
	db *gorm.DB
}

func NewPaymentRequestRepository(db *gorm.DB) PaymentRequestRepository {
	return &paymentRequestRepository{db: db}
}

func (r *paymentRequestRepository) Create(ctx context.Context, req *model.PaymentRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *paymentRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PaymentRequest, error) {
	var req model.PaymentRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *paymentRequestRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.PaymentRequest, error) {
	var req model.PaymentRequest
	if err := GetDB(ctx, r.db).
		Preload("Supplier").
		Preload("Category").
		Preload("CreatedBy").
		Preload("Invoice").
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *paymentRequestRepository) List(ctx context.Context, filter RequestFilter) ([]model.PaymentRequest, int64, error) {
	var requests []model.PaymentRequest
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.PaymentRequest{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CurrentStep != "" {
		query = query.Where("current_step = ?", filter.CurrentStep)
	}
	if filter.SupplierID != "" {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	fetchQuery := db.Preload("Supplier").Preload("Category").Preload("CreatedBy")
	if filter.Status != "" {
		fetchQuery = fetchQuery.Where("status = ?", filter.Status)
	}
	if filter.CurrentStep != "" {
		fetchQuery = fetchQuery.Where("current_step = ?", filter.CurrentStep)
	}
	if filter.SupplierID != "" {
		fetchQuery = fetchQuery.Where("supplier_id = ?", filter.SupplierID)
	}
	if err := fetchQuery.
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// UpdateStateIf applies updates only while the row still holds the expected
// (status, current_step) pair. Returns false when the guard no longer matches,
// meaning a concurrent transition won the race.
func (r *paymentRequestRepository) UpdateStateIf(ctx context.Context, id uuid.UUID, fromStatus, fromStep string, updates map[string]interface{}) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.PaymentRequest{}).
		Where("id = ? AND status = ? AND current_step = ?", id, fromStatus, fromStep).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
