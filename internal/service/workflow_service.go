package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/model"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// state is one valid (status, currentStep) pair of the approval circuit.
type state struct {
	Status string
	Step   string
}

// approveTransitions is the happy-path row sequence. APPROVE moves a request
// to the next row; any pair missing here cannot be approved further.
var approveTransitions = map[state]state{
	{model.StatusPendente, model.StepGabineteContratacao}:    {model.StatusEmValidacao, model.StepGabineteContratacao},
	{model.StatusEmValidacao, model.StepGabineteContratacao}: {model.StatusPendentePresidente, model.StepPresidente},
	{model.StatusPendentePresidente, model.StepPresidente}:   {model.StatusAutorizada, model.StepPresidente},
	{model.StatusAutorizada, model.StepPresidente}:           {model.StatusRegistrada, model.StepGabineteApoio},
	{model.StatusRegistrada, model.StepGabineteApoio}:        {model.StatusPendentePagamento, model.StepFinancas},
	{model.StatusPendentePagamento, model.StepFinancas}:      {model.StatusPaga, model.StepConcluido},
}

// stepRoles maps each workflow step to the role allowed to decide at it.
// Kept as data so the policy can be audited independently of the engine.
var stepRoles = map[string]string{
	model.StepGabineteContratacao: model.RoleGabineteContratacao,
	model.StepPresidente:          model.RolePresidente,
	model.StepGabineteApoio:       model.RoleGabineteApoio,
	model.StepFinancas:            model.RoleFinancas,
}

// --- DTOs ---

type CreateRequestDTO struct {
	SupplierID  string `json:"supplier_id" binding:"required"`
	CategoryID  string `json:"category_id" binding:"required"`
	Description string `json:"description" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
}

type DecisionDTO struct {
	Action   string `json:"action" binding:"required,oneof=APPROVE REJECT COMENTARIO"`
	Comments string `json:"comments"`
}

type RegisterInvoiceDTO struct {
	DocumentRef string `json:"document_ref" binding:"required"`
}

type PaymentRequestResponse struct {
	ID           string  `json:"id"`
	SupplierID   string  `json:"supplier_id"`
	SupplierName string  `json:"supplier_name,omitempty"`
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name,omitempty"`
	Description  string  `json:"description"`
	Amount       string  `json:"amount"`
	CreatedByID  string  `json:"created_by_id"`
	CreatedBy    string  `json:"created_by,omitempty"`
	Status       string  `json:"status"`
	CurrentStep  string  `json:"current_step"`
	InvoiceID    *string `json:"invoice_id"`
	InvoiceNo    string  `json:"invoice_no,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

type ApprovalResponse struct {
	ID        string `json:"id"`
	RequestID string `json:"request_id"`
	Step      string `json:"step"`
	Action    string `json:"action"`
	Comments  string `json:"comments"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name,omitempty"`
	Timestamp string `json:"timestamp"`
}

type DecisionResponse struct {
	Approval ApprovalResponse       `json:"approval"`
	Request  PaymentRequestResponse `json:"request"`
}

// --- Interface ---

// WorkflowService owns the payment-request state machine. Every transition
// is applied with a compare-and-swap on (status, current_step) and writes the
// request update, one Approval and one AuditLog as a single transaction.
type WorkflowService interface {
	CreateRequest(ctx context.Context, actorID string, req CreateRequestDTO) (PaymentRequestResponse, error)
	GetRequest(ctx context.Context, id string) (PaymentRequestResponse, error)
	ListRequests(ctx context.Context, filter repository.RequestFilter) ([]PaymentRequestResponse, int64, error)
	Decide(ctx context.Context, requestID, actorID string, decision DecisionDTO) (DecisionResponse, error)
	Cancel(ctx context.Context, requestID, actorID, reason string) (PaymentRequestResponse, error)
	RegisterInvoice(ctx context.Context, requestID, actorID string, req RegisterInvoiceDTO) (PaymentRequestResponse, error)
	ListInvoices(ctx context.Context, page, limit int) ([]model.Invoice, int64, error)
}

// Broadcaster pushes workflow events to connected clients (optional).
type Broadcaster interface {
	GetBroadcast() chan []byte
}

type workflowService struct {
	requests   repository.PaymentRequestRepository
	approvals  repository.ApprovalRepository
	invoices   repository.InvoiceRepository
	audit      repository.AuditRepository
	users      repository.UserRepository
	suppliers  repository.SupplierRepository
	categories repository.CategoryRepository
	tx         repository.TransactionManager
	hub        Broadcaster
	logger     *zap.SugaredLogger
	now        func() time.Time
}

func NewWorkflowService(
	requests repository.PaymentRequestRepository,
	approvals repository.ApprovalRepository,
	invoices repository.InvoiceRepository,
	audit repository.AuditRepository,
	users repository.UserRepository,
	suppliers repository.SupplierRepository,
	categories repository.CategoryRepository,
	tx repository.TransactionManager,
	hub Broadcaster,
	logger *zap.SugaredLogger,
) WorkflowService {
	return &workflowService{
		requests:   requests,
		approvals:  approvals,
		invoices:   invoices,
		audit:      audit,
		users:      users,
		suppliers:  suppliers,
		categories: categories,
		tx:         tx,
		hub:        hub,
		logger:     logger,
		now:        time.Now,
	}
}

// --- Implementation ---

func (s *workflowService) CreateRequest(ctx context.Context, actorID string, req CreateRequestDTO) (PaymentRequestResponse, error) {
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return PaymentRequestResponse{}, err
	}

	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return PaymentRequestResponse{}, fmt.Errorf("invalid supplier_id: %w", err)
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return PaymentRequestResponse{}, fmt.Errorf("invalid category_id: %w", err)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return PaymentRequestResponse{}, fmt.Errorf("invalid amount: %w", err)
	}
	if !amount.IsPositive() {
		return PaymentRequestResponse{}, errors.New("amount must be positive")
	}

	supplier, err := s.suppliers.GetByID(ctx, supplierID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PaymentRequestResponse{}, fmt.Errorf("supplier: %w", ErrNotFound)
		}
		return PaymentRequestResponse{}, fmt.Errorf("failed to load supplier: %w", err)
	}
	if !supplier.IsActive {
		return PaymentRequestResponse{}, errors.New("supplier is inactive")
	}
	if _, err := s.categories.GetByID(ctx, categoryID.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PaymentRequestResponse{}, fmt.Errorf("category: %w", ErrNotFound)
		}
		return PaymentRequestResponse{}, fmt.Errorf("failed to load category: %w", err)
	}

	request := &model.PaymentRequest{
		SupplierID:  supplierID,
		CategoryID:  categoryID,
		Description: req.Description,
		Amount:      amount,
		CreatedByID: actor.ID,
		Status:      model.StatusPendente,
		CurrentStep: model.StepGabineteContratacao,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.requests.Create(txCtx, request); createErr != nil {
			return fmt.Errorf("failed to create payment request: %w", createErr)
		}
		return s.writeAudit(txCtx, request.ID, model.ActionCreateRequest, &actor.ID, map[string]interface{}{
			"supplier_id": supplierID.String(),
			"amount":      amount.StringFixed(2),
		})
	})
	if err != nil {
		return PaymentRequestResponse{}, err
	}

	s.broadcast("request_created", request.ID, request.Status, request.CurrentStep)

	return s.reload(ctx, request.ID)
}

func (s *workflowService) GetRequest(ctx context.Context, id string) (PaymentRequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return PaymentRequestResponse{}, fmt.Errorf("invalid request id: %w", err)
	}
	return s.reload(ctx, requestID)
}

func (s *workflowService) ListRequests(ctx context.Context, filter repository.RequestFilter) ([]PaymentRequestResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payment requests: %w", err)
	}

	result := make([]PaymentRequestResponse, 0, len(requests))
	for i := range requests {
		result = append(result, toRequestResponse(&requests[i]))
	}
	return result, total, nil
}

// Decide validates and applies one workflow decision. Order of checks:
// NotFound, terminal state, role-vs-step, then the guarded transition.
func (s *workflowService) Decide(ctx context.Context, requestID, actorID string, decision DecisionDTO) (DecisionResponse, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return DecisionResponse{}, fmt.Errorf("invalid request id: %w", err)
	}
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return DecisionResponse{}, err
	}

	var approval *model.Approval
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		request, findErr := s.requests.FindByID(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load payment request: %w", findErr)
		}

		if request.Terminal() {
			return fmt.Errorf("request is already %s: %w", request.Status, ErrInvalidTransition)
		}

		required, ok := stepRoles[request.CurrentStep]
		if !ok || actor.Role != required {
			return fmt.Errorf("not your step: %w", ErrForbidden)
		}

		from := state{request.Status, request.CurrentStep}
		var next state
		var action string

		switch decision.Action {
		case model.ApprovalActionApprove:
			next, ok = approveTransitions[from]
			if !ok {
				return fmt.Errorf("no approval transition from %s/%s: %w", from.Status, from.Step, ErrInvalidTransition)
			}
			action = model.ApprovalActionApprove
		case model.ApprovalActionReject:
			next = state{model.StatusRejeitada, request.CurrentStep}
			action = model.ApprovalActionReject
		case model.ApprovalActionComment:
			next = from
			action = model.ApprovalActionComment
		default:
			return fmt.Errorf("unknown action %q: %w", decision.Action, ErrInvalidTransition)
		}

		if next != from {
			updated, updErr := s.requests.UpdateStateIf(txCtx, id, from.Status, from.Step, map[string]interface{}{
				"status":       next.Status,
				"current_step": next.Step,
			})
			if updErr != nil {
				return fmt.Errorf("failed to update payment request: %w", updErr)
			}
			if !updated {
				return ErrConflict
			}
		}

		// Step is the step at which the decision was made, not the one the
		// request moved to.
		approval = &model.Approval{
			RequestID: id,
			Step:      from.Step,
			Action:    action,
			Comments:  decision.Comments,
			UserID:    actor.ID,
			Timestamp: s.now(),
		}
		if createErr := s.approvals.Create(txCtx, approval); createErr != nil {
			return fmt.Errorf("failed to create approval: %w", createErr)
		}

		auditAction := map[string]string{
			model.ApprovalActionApprove: model.ActionApproveRequest,
			model.ApprovalActionReject:  model.ActionRejectRequest,
			model.ApprovalActionComment: model.ActionCommentRequest,
		}[action]
		return s.writeAudit(txCtx, id, auditAction, &actor.ID, map[string]interface{}{
			"from_status": from.Status,
			"from_step":   from.Step,
			"to_status":   next.Status,
			"to_step":     next.Step,
		})
	})
	if err != nil {
		return DecisionResponse{}, err
	}

	request, err := s.reload(ctx, id)
	if err != nil {
		return DecisionResponse{}, err
	}

	s.broadcast("request_decided", id, request.Status, request.CurrentStep)

	resp := toApprovalResponse(approval)
	resp.UserName = actor.Name
	return DecisionResponse{Approval: resp, Request: request}, nil
}

// Cancel administratively terminates a non-terminal request. Admin only;
// cancellation is one-way.
func (s *workflowService) Cancel(ctx context.Context, requestID, actorID, reason string) (PaymentRequestResponse, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return PaymentRequestResponse{}, fmt.Errorf("invalid request id: %w", err)
	}
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return PaymentRequestResponse{}, err
	}
	if actor.Role != model.RoleAdmin {
		return PaymentRequestResponse{}, fmt.Errorf("cancellation is administrative: %w", ErrForbidden)
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		request, findErr := s.requests.FindByID(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load payment request: %w", findErr)
		}
		if request.Terminal() {
			return fmt.Errorf("request is already %s: %w", request.Status, ErrInvalidTransition)
		}

		updated, updErr := s.requests.UpdateStateIf(txCtx, id, request.Status, request.CurrentStep, map[string]interface{}{
			"status": model.StatusCancelada,
		})
		if updErr != nil {
			return fmt.Errorf("failed to cancel payment request: %w", updErr)
		}
		if !updated {
			return ErrConflict
		}

		return s.writeAudit(txCtx, id, model.ActionCancelRequest, &actor.ID, map[string]interface{}{
			"from_status": request.Status,
			"from_step":   request.CurrentStep,
			"reason":      reason,
		})
	})
	if err != nil {
		return PaymentRequestResponse{}, err
	}

	s.broadcast("request_cancelled", id, model.StatusCancelada, "")

	return s.reload(ctx, id)
}

// RegisterInvoice attaches the fiscal document to an authorized request and
// moves it to (REGISTRADA, GABINETE_APOIO). This is the only writer of
// invoice_id, and a request that already carries one is refused.
func (s *workflowService) RegisterInvoice(ctx context.Context, requestID, actorID string, req RegisterInvoiceDTO) (PaymentRequestResponse, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return PaymentRequestResponse{}, fmt.Errorf("invalid request id: %w", err)
	}
	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return PaymentRequestResponse{}, err
	}
	if actor.Role != model.RoleGabineteApoio {
		return PaymentRequestResponse{}, fmt.Errorf("registration belongs to the support office: %w", ErrForbidden)
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		request, findErr := s.requests.FindByID(txCtx, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load payment request: %w", findErr)
		}
		if request.Status != model.StatusAutorizada {
			return fmt.Errorf("request is %s, not awaiting registration: %w", request.Status, ErrInvalidTransition)
		}
		if request.InvoiceID != nil {
			return fmt.Errorf("request already has an invoice: %w", ErrInvalidTransition)
		}

		invoiceNo, noErr := s.invoices.NextInvoiceNo(txCtx)
		if noErr != nil {
			return fmt.Errorf("failed to generate invoice number: %w", noErr)
		}

		invoice := &model.Invoice{
			InvoiceNo:      invoiceNo,
			RequestID:      id,
			Amount:         request.Amount,
			DocumentRef:    req.DocumentRef,
			RegisteredByID: &actor.ID,
		}
		if createErr := s.invoices.Create(txCtx, invoice); createErr != nil {
			return fmt.Errorf("failed to create invoice: %w", createErr)
		}

		updated, updErr := s.requests.UpdateStateIf(txCtx, id, request.Status, request.CurrentStep, map[string]interface{}{
			"status":       model.StatusRegistrada,
			"current_step": model.StepGabineteApoio,
			"invoice_id":   invoice.ID,
		})
		if updErr != nil {
			return fmt.Errorf("failed to update payment request: %w", updErr)
		}
		if !updated {
			return ErrConflict
		}

		approval := &model.Approval{
			RequestID: id,
			Step:      request.CurrentStep,
			Action:    model.ApprovalActionApprove,
			Comments:  "Fatura registada: " + invoiceNo,
			UserID:    actor.ID,
			Timestamp: s.now(),
		}
		if createErr := s.approvals.Create(txCtx, approval); createErr != nil {
			return fmt.Errorf("failed to create approval: %w", createErr)
		}

		return s.writeAudit(txCtx, id, model.ActionRegisterInvoice, &actor.ID, map[string]interface{}{
			"invoice_no":   invoiceNo,
			"document_ref": req.DocumentRef,
		})
	})
	if err != nil {
		return PaymentRequestResponse{}, err
	}

	s.broadcast("invoice_registered", id, model.StatusRegistrada, model.StepGabineteApoio)

	return s.reload(ctx, id)
}

func (s *workflowService) ListInvoices(ctx context.Context, page, limit int) ([]model.Invoice, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.invoices.List(ctx, page, limit)
}

// --- Helpers ---

func (s *workflowService) loadActor(ctx context.Context, actorID string) (*model.User, error) {
	if _, err := uuid.Parse(actorID); err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("acting user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load acting user: %w", err)
	}
	return actor, nil
}

func (s *workflowService) writeAudit(ctx context.Context, requestID uuid.UUID, action string, userID *uuid.UUID, metadata map[string]interface{}) error {
	payload, _ := json.Marshal(metadata)
	entry := &model.AuditLog{
		Entity:    model.EntityPaymentRequest,
		EntityID:  requestID.String(),
		Action:    action,
		Metadata:  string(payload),
		UserID:    userID,
		CreatedAt: s.now(),
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *workflowService) reload(ctx context.Context, id uuid.UUID) (PaymentRequestResponse, error) {
	request, err := s.requests.FindByIDWithRelations(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PaymentRequestResponse{}, ErrNotFound
		}
		return PaymentRequestResponse{}, fmt.Errorf("failed to reload payment request: %w", err)
	}
	return toRequestResponse(request), nil
}

func (s *workflowService) broadcast(event string, requestID uuid.UUID, status, step string) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]string{
		"event":      event,
		"request_id": requestID.String(),
		"status":     status,
		"step":       step,
	})
	if err != nil {
		return
	}
	select {
	case s.hub.GetBroadcast() <- payload:
	default:
		s.logger.Debugw("workflow event dropped, broadcast channel full", "event", event)
	}
}

func toRequestResponse(r *model.PaymentRequest) PaymentRequestResponse {
	resp := PaymentRequestResponse{
		ID:          r.ID.String(),
		SupplierID:  r.SupplierID.String(),
		CategoryID:  r.CategoryID.String(),
		Description: r.Description,
		Amount:      r.Amount.StringFixed(2),
		CreatedByID: r.CreatedByID.String(),
		Status:      r.Status,
		CurrentStep: r.CurrentStep,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.Supplier != nil {
		resp.SupplierName = r.Supplier.Name
	}
	if r.Category != nil {
		resp.CategoryName = r.Category.Name
	}
	if r.CreatedBy != nil {
		resp.CreatedBy = r.CreatedBy.Name
	}
	if r.InvoiceID != nil {
		s := r.InvoiceID.String()
		resp.InvoiceID = &s
	}
	if r.Invoice != nil {
		resp.InvoiceNo = r.Invoice.InvoiceNo
	}
	return resp
}

func toApprovalResponse(a *model.Approval) ApprovalResponse {
	resp := ApprovalResponse{
		ID:        a.ID.String(),
		RequestID: a.RequestID.String(),
		Step:      a.Step,
		Action:    a.Action,
		Comments:  a.Comments,
		UserID:    a.UserID.String(),
		Timestamp: a.Timestamp.Format(time.RFC3339),
	}
	if a.User != nil {
		resp.UserName = a.User.Name
	}
	return resp
}
