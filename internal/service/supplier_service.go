package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/model"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateSupplierRequest struct {
	Name    string `json:"name" binding:"required"`
	NIF     string `json:"nif" binding:"required"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type UpdateSupplierRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type SupplierService interface {
	Create(ctx context.Context, actorID string, req CreateSupplierRequest) (*model.Supplier, error)
	GetByID(ctx context.Context, id string) (*model.Supplier, error)
	List(ctx context.Context, page, limit int) ([]model.Supplier, int64, error)
	Update(ctx context.Context, actorID, id string, req UpdateSupplierRequest) (*model.Supplier, error)
	Disable(ctx context.Context, actorID, id string) error
}

type supplierService struct {
	repo  repository.SupplierRepository
	audit repository.AuditRepository
}

func NewSupplierService(repo repository.SupplierRepository, audit repository.AuditRepository) SupplierService {
	return &supplierService{repo: repo, audit: audit}
}

func (s *supplierService) Create(ctx context.Context, actorID string, req CreateSupplierRequest) (*model.Supplier, error) {
	if _, err := s.repo.GetByNIF(ctx, req.NIF); err == nil {
		return nil, errors.New("supplier NIF already exists")
	}

	supplier := &model.Supplier{
		Name:     req.Name,
		NIF:      req.NIF,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, err
	}

	s.logMutation(ctx, actorID, model.ActionCreateSupplier, supplier.ID.String(), map[string]interface{}{
		"name": supplier.Name,
		"nif":  supplier.NIF,
	})

	return supplier, nil
}

func (s *supplierService) GetByID(ctx context.Context, id string) (*model.Supplier, error) {
	supplier, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return supplier, nil
}

func (s *supplierService) List(ctx context.Context, page, limit int) ([]model.Supplier, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, page, limit)
}

func (s *supplierService) Update(ctx context.Context, actorID, id string, req UpdateSupplierRequest) (*model.Supplier, error) {
	supplier, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		supplier.Name = req.Name
	}
	if req.Email != "" {
		supplier.Email = req.Email
	}
	if req.Phone != "" {
		supplier.Phone = req.Phone
	}
	if req.Address != "" {
		supplier.Address = req.Address
	}

	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, err
	}

	s.logMutation(ctx, actorID, model.ActionUpdateSupplier, supplier.ID.String(), map[string]interface{}{
		"name": supplier.Name,
	})

	return supplier, nil
}

// Disable soft-disables a supplier; payment requests can no longer be raised
// against it. Suppliers are never hard-deleted — history references them.
func (s *supplierService) Disable(ctx context.Context, actorID, id string) error {
	supplier, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	supplier.IsActive = false
	if err := s.repo.Update(ctx, supplier); err != nil {
		return fmt.Errorf("failed to disable supplier: %w", err)
	}

	s.logMutation(ctx, actorID, model.ActionDisableSupplier, supplier.ID.String(), nil)

	return nil
}

func (s *supplierService) logMutation(ctx context.Context, actorID, action, entityID string, metadata map[string]interface{}) {
	entry := &model.AuditLog{
		Entity:   model.EntitySupplier,
		EntityID: entityID,
		Action:   action,
	}
	if parsed, err := uuid.Parse(actorID); err == nil {
		entry.UserID = &parsed
	}
	if metadata != nil {
		if payload, err := json.Marshal(metadata); err == nil {
			entry.Metadata = string(payload)
		}
	}
	_ = s.audit.Log(ctx, entry)
}
