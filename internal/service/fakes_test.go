package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/model"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the semantics the services rely on:
// gorm.ErrRecordNotFound for misses, the CAS guard of UpdateStateIf, and
// row counts from the bulk session delete.

type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) add(name, email, role string, active bool) *model.User {
	u := &model.User{
		ID:       uuid.New(),
		Email:    email,
		Name:     name,
		Role:     role,
		IsActive: active,
	}
	r.users[u.ID.String()] = u
	return u
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID.String()] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetActiveByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email && u.IsActive {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(_ context.Context, _, _ int) ([]model.User, int64, error) {
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	r.users[user.ID.String()] = user
	return nil
}

type fakeSessionRepo struct {
	sessions      []*model.Session
	deleteDeadErr error
	deadDeleted   int64
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *model.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	r.sessions = append(r.sessions, session)
	return nil
}

func (r *fakeSessionRepo) GetByToken(_ context.Context, token string) (*model.Session, error) {
	for _, s := range r.sessions {
		if s.Token == token {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) Revoke(_ context.Context, token string, at time.Time) error {
	for _, s := range r.sessions {
		if s.Token == token && s.RevokedAt == nil {
			t := at
			s.RevokedAt = &t
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteDeadByUser(_ context.Context, userID uuid.UUID, now time.Time) error {
	kept := r.sessions[:0]
	for _, s := range r.sessions {
		if s.UserID == userID && !s.ActiveAt(now) {
			continue
		}
		kept = append(kept, s)
	}
	r.sessions = kept
	return nil
}

func (r *fakeSessionRepo) DeleteDead(_ context.Context, now time.Time) (int64, error) {
	if r.deleteDeadErr != nil {
		return 0, r.deleteDeadErr
	}
	var removed int64
	kept := r.sessions[:0]
	for _, s := range r.sessions {
		if !s.ActiveAt(now) {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	r.sessions = kept
	r.deadDeleted += removed
	return removed, nil
}

func (r *fakeSessionRepo) CountActive(_ context.Context, now time.Time) (int64, error) {
	var count int64
	for _, s := range r.sessions {
		if s.ActiveAt(now) {
			count++
		}
	}
	return count, nil
}

type fakeRequestRepo struct {
	requests map[uuid.UUID]*model.PaymentRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[uuid.UUID]*model.PaymentRequest)}
}

func (r *fakeRequestRepo) Create(_ context.Context, req *model.PaymentRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	r.requests[req.ID] = req
	return nil
}

func (r *fakeRequestRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PaymentRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *req
	return &copied, nil
}

func (r *fakeRequestRepo) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.PaymentRequest, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeRequestRepo) List(_ context.Context, filter repository.RequestFilter) ([]model.PaymentRequest, int64, error) {
	var out []model.PaymentRequest
	for _, req := range r.requests {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.CurrentStep != "" && req.CurrentStep != filter.CurrentStep {
			continue
		}
		if filter.SupplierID != "" && req.SupplierID.String() != filter.SupplierID {
			continue
		}
		out = append(out, *req)
	}
	return out, int64(len(out)), nil
}

func (r *fakeRequestRepo) UpdateStateIf(_ context.Context, id uuid.UUID, fromStatus, fromStep string, updates map[string]interface{}) (bool, error) {
	req, ok := r.requests[id]
	if !ok || req.Status != fromStatus || req.CurrentStep != fromStep {
		return false, nil
	}
	if v, ok := updates["status"]; ok {
		req.Status = v.(string)
	}
	if v, ok := updates["current_step"]; ok {
		req.CurrentStep = v.(string)
	}
	if v, ok := updates["invoice_id"]; ok {
		invoiceID := v.(uuid.UUID)
		req.InvoiceID = &invoiceID
	}
	return true, nil
}

type fakeApprovalRepo struct {
	approvals []model.Approval
}

func newFakeApprovalRepo() *fakeApprovalRepo {
	return &fakeApprovalRepo{}
}

func (r *fakeApprovalRepo) Create(_ context.Context, approval *model.Approval) error {
	if approval.ID == uuid.Nil {
		approval.ID = uuid.New()
	}
	r.approvals = append(r.approvals, *approval)
	return nil
}

func (r *fakeApprovalRepo) ListByRequest(_ context.Context, requestID uuid.UUID) ([]model.Approval, error) {
	var out []model.Approval
	for _, a := range r.approvals {
		if a.RequestID == requestID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

type fakeAuditRepo struct {
	logs []model.AuditLog
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.logs = append(r.logs, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _, _ int) ([]model.AuditLog, int64, error) {
	out := make([]model.AuditLog, len(r.logs))
	copy(out, r.logs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, int64(len(out)), nil
}

func (r *fakeAuditRepo) ListByEntity(_ context.Context, entity, entityID string) ([]model.AuditLog, error) {
	var out []model.AuditLog
	for _, l := range r.logs {
		if l.Entity == entity && l.EntityID == entityID {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeAuditRepo) byAction(action string) []model.AuditLog {
	var out []model.AuditLog
	for _, l := range r.logs {
		if l.Action == action {
			out = append(out, l)
		}
	}
	return out
}

type fakeInvoiceRepo struct {
	invoices []model.Invoice
	seq      int
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{}
}

func (r *fakeInvoiceRepo) Create(_ context.Context, invoice *model.Invoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	r.invoices = append(r.invoices, *invoice)
	return nil
}

func (r *fakeInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	for i := range r.invoices {
		if r.invoices[i].ID == id {
			return &r.invoices[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeInvoiceRepo) List(_ context.Context, _, _ int) ([]model.Invoice, int64, error) {
	out := make([]model.Invoice, len(r.invoices))
	copy(out, r.invoices)
	return out, int64(len(out)), nil
}

func (r *fakeInvoiceRepo) NextInvoiceNo(_ context.Context) (string, error) {
	r.seq++
	return fmt.Sprintf("FAT-%s-%05d", time.Now().Format("20060102"), r.seq), nil
}

type fakeSupplierRepo struct {
	suppliers map[string]*model.Supplier
}

func newFakeSupplierRepo() *fakeSupplierRepo {
	return &fakeSupplierRepo{suppliers: make(map[string]*model.Supplier)}
}

func (r *fakeSupplierRepo) add(name string, active bool) *model.Supplier {
	s := &model.Supplier{
		ID:       uuid.New(),
		Name:     name,
		NIF:      strings.ToUpper(name) + "-NIF",
		IsActive: active,
	}
	r.suppliers[s.ID.String()] = s
	return s
}

func (r *fakeSupplierRepo) Create(_ context.Context, supplier *model.Supplier) error {
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	r.suppliers[supplier.ID.String()] = supplier
	return nil
}

func (r *fakeSupplierRepo) GetByID(_ context.Context, id string) (*model.Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *fakeSupplierRepo) GetByNIF(_ context.Context, nif string) (*model.Supplier, error) {
	for _, s := range r.suppliers {
		if s.NIF == nif {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSupplierRepo) List(_ context.Context, _, _ int) ([]model.Supplier, int64, error) {
	out := make([]model.Supplier, 0, len(r.suppliers))
	for _, s := range r.suppliers {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *fakeSupplierRepo) Update(_ context.Context, supplier *model.Supplier) error {
	r.suppliers[supplier.ID.String()] = supplier
	return nil
}

type fakeCategoryRepo struct {
	categories map[string]*model.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: make(map[string]*model.Category)}
}

func (r *fakeCategoryRepo) add(name string) *model.Category {
	c := &model.Category{ID: uuid.New(), Name: name}
	r.categories[c.ID.String()] = c
	return c
}

func (r *fakeCategoryRepo) Create(_ context.Context, category *model.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	r.categories[category.ID.String()] = category
	return nil
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id string) (*model.Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *fakeCategoryRepo) GetByName(_ context.Context, name string) (*model.Category, error) {
	for _, c := range r.categories {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCategoryRepo) List(_ context.Context) ([]model.Category, error) {
	out := make([]model.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, *c)
	}
	return out, nil
}

// fakeTxManager runs the callback on the same context; fakes have no
// transactional visibility to separate anyway.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeHub struct {
	broadcast chan []byte
}

func newFakeHub() *fakeHub {
	return &fakeHub{broadcast: make(chan []byte, 16)}
}

func (h *fakeHub) GetBroadcast() chan []byte {
	return h.broadcast
}
