package handler

import (
	"net/http"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/service"
	"github.com/HaleluiaLuis/fincontrol-sub001/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reports service.ReportService
}

func NewReportHandler(reports service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/relatorios/despesas", h.SpendSummary)
}

// SpendSummary returns aggregated spending; served from the TTL cache when
// fresh enough
func (h *ReportHandler) SpendSummary(c *gin.Context) {
	summary, err := h.reports.SpendSummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build report"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
