package handler

import (
	"net/http"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/model"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/repository"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/service"
	"github.com/HaleluiaLuis/fincontrol-sub001/pkg/pagination"
	"github.com/HaleluiaLuis/fincontrol-sub001/pkg/response"

	"github.com/gin-gonic/gin"
)

type CancelRequestDTO struct {
	Reason string `json:"reason"`
}

type PaymentHandler struct {
	workflow service.WorkflowService
	history  service.HistoryService
}

func NewPaymentHandler(workflow service.WorkflowService, history service.HistoryService) *PaymentHandler {
	return &PaymentHandler{workflow: workflow, history: history}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	pedidos := router.Group("/api/pedidos")
	{
		pedidos.POST("", h.CreateRequest)
		pedidos.GET("", h.ListRequests)
		pedidos.GET("/:id", h.GetRequest)
		pedidos.GET("/:id/historico", h.Timeline)
		pedidos.POST("/:id/decisao", h.Decide)
		pedidos.POST("/:id/cancelar", h.Cancel)
		pedidos.POST("/:id/fatura", h.RegisterInvoice)
	}

	faturas := router.Group("/api/faturas")
	{
		faturas.GET("", h.ListInvoices)
	}

	pagamentos := router.Group("/api/pagamentos")
	{
		pagamentos.GET("", h.PaymentQueue)
	}
}

// CreateRequest opens a payment request at the start of the approval circuit
func (h *PaymentHandler) CreateRequest(c *gin.Context) {
	var req service.CreateRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.workflow.CreateRequest(c.Request.Context(), actorID(c), req)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListRequests returns payment requests, optionally filtered by status/step
func (h *PaymentHandler) ListRequests(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.RequestFilter{
		Status:      c.Query("status"),
		CurrentStep: c.Query("step"),
		SupplierID:  c.Query("supplier_id"),
		Page:        params.Page,
		Limit:       params.Limit,
	}

	requests, total, err := h.workflow.ListRequests(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   requests,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

func (h *PaymentHandler) GetRequest(c *gin.Context) {
	result, err := h.workflow.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Timeline reconstructs the request's ordered history of decisions and
// audit records
func (h *PaymentHandler) Timeline(c *gin.Context) {
	events, err := h.history.Timeline(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, events))
}

// Decide applies one workflow decision (APPROVE, REJECT or COMENTARIO) at
// the request's current step
func (h *PaymentHandler) Decide(c *gin.Context) {
	var req service.DecisionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.workflow.Decide(c.Request.Context(), c.Param("id"), actorID(c), req)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Cancel administratively terminates a request
func (h *PaymentHandler) Cancel(c *gin.Context) {
	var req CancelRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		// Reason is optional
		req.Reason = ""
	}

	result, err := h.workflow.Cancel(c.Request.Context(), c.Param("id"), actorID(c), req.Reason)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// RegisterInvoice attaches the fiscal document to an authorized request
func (h *PaymentHandler) RegisterInvoice(c *gin.Context) {
	var req service.RegisterInvoiceDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.workflow.RegisterInvoice(c.Request.Context(), c.Param("id"), actorID(c), req)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListInvoices returns registered invoices newest first
func (h *PaymentHandler) ListInvoices(c *gin.Context) {
	params := pagination.Parse(c)

	invoices, total, err := h.workflow.ListInvoices(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   invoices,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// PaymentQueue lists requests waiting in the finance queue
func (h *PaymentHandler) PaymentQueue(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.RequestFilter{
		Status:      model.StatusPendentePagamento,
		CurrentStep: model.StepFinancas,
		Page:        params.Page,
		Limit:       params.Limit,
	}

	requests, total, err := h.workflow.ListRequests(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   requests,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}
