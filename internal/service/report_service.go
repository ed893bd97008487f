package service

import (
	"context"
	"time"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/model"
	"github.com/HaleluiaLuis/fincontrol-sub001/pkg/cache"

	"gorm.io/gorm"
)

const spendSummaryKey = "report:spend_summary"

// ReportCacheTTL bounds how stale the spend summary may be.
const ReportCacheTTL = 5 * time.Minute

type CategorySpend struct {
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Total        float64 `json:"total"`
}

type SpendSummary struct {
	TotalPaid    float64         `json:"total_paid"`
	TotalPending float64         `json:"total_pending"`
	ByCategory   []CategorySpend `json:"by_category"`
	GeneratedAt  string          `json:"generated_at"`
}

// ReportService aggregates spending over payment requests. Results are held
// in an injected TTL cache; workflow writes don't invalidate it, the TTL
// bounds staleness instead.
type ReportService interface {
	SpendSummary(ctx context.Context) (SpendSummary, error)
}

type reportService struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewReportService(db *gorm.DB, c *cache.Cache) ReportService {
	return &reportService{db: db, cache: c}
}

func (s *reportService) SpendSummary(ctx context.Context) (SpendSummary, error) {
	if cached, ok := s.cache.Get(spendSummaryKey); ok {
		if summary, ok := cached.(SpendSummary); ok {
			return summary, nil
		}
	}

	var summary SpendSummary

	var paid struct {
		Value float64
	}
	if err := s.db.WithContext(ctx).Model(&model.PaymentRequest{}).
		Select("COALESCE(SUM(amount), 0) as value").
		Where("status = ?", model.StatusPaga).
		Scan(&paid).Error; err != nil {
		return SpendSummary{}, err
	}
	summary.TotalPaid = paid.Value

	var pending struct {
		Value float64
	}
	if err := s.db.WithContext(ctx).Model(&model.PaymentRequest{}).
		Select("COALESCE(SUM(amount), 0) as value").
		Where("status NOT IN ?", []string{model.StatusPaga, model.StatusRejeitada, model.StatusCancelada}).
		Scan(&pending).Error; err != nil {
		return SpendSummary{}, err
	}
	summary.TotalPending = pending.Value

	var byCategory []CategorySpend
	if err := s.db.WithContext(ctx).Table("payment_requests").
		Select("categories.id as category_id, categories.name as category_name, SUM(payment_requests.amount) as total").
		Joins("JOIN categories ON categories.id = payment_requests.category_id").
		Where("payment_requests.status = ?", model.StatusPaga).
		Group("categories.id, categories.name").
		Order("total DESC").
		Scan(&byCategory).Error; err != nil {
		return SpendSummary{}, err
	}
	summary.ByCategory = byCategory
	summary.GeneratedAt = time.Now().Format(time.RFC3339)

	s.cache.Set(spendSummaryKey, summary)

	return summary, nil
}
