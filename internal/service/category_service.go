package service

import (
	"context"
	"errors"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/model"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CategoryService interface {
	Create(ctx context.Context, actorID string, req CreateCategoryRequest) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	GetByID(ctx context.Context, id string) (*model.Category, error)
}

type categoryService struct {
	repo  repository.CategoryRepository
	audit repository.AuditRepository
}

func NewCategoryService(repo repository.CategoryRepository, audit repository.AuditRepository) CategoryService {
	return &categoryService{repo: repo, audit: audit}
}

func (s *categoryService) Create(ctx context.Context, actorID string, req CreateCategoryRequest) (*model.Category, error) {
	if _, err := s.repo.GetByName(ctx, req.Name); err == nil {
		return nil, errors.New("category already exists")
	}

	category := &model.Category{
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}

	entry := &model.AuditLog{
		Entity:   model.EntityCategory,
		EntityID: category.ID.String(),
		Action:   model.ActionCreateCategory,
	}
	if parsed, err := uuid.Parse(actorID); err == nil {
		entry.UserID = &parsed
	}
	_ = s.audit.Log(ctx, entry)

	return category, nil
}

func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.repo.List(ctx)
}

func (s *categoryService) GetByID(ctx context.Context, id string) (*model.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return category, nil
}
