package handler

import (
	"net/http"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/service"
	"github.com/HaleluiaLuis/fincontrol-sub001/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes the operational surface: session observability and
// the administrative sweep. For monitoring and cron, not end users.
type AdminHandler struct {
	sessions service.SessionService
}

func NewAdminHandler(sessions service.SessionService) *AdminHandler {
	return &AdminHandler{sessions: sessions}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/admin")
	{
		group.GET("/sessions/active", h.ActiveSessions)
		group.POST("/sessions/sweep", h.Sweep)
	}
}

// ActiveSessions reports how many sessions are currently live
func (h *AdminHandler) ActiveSessions(c *gin.Context) {
	count, err := h.sessions.ActiveCount(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to count sessions"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"active": count}))
}

// Sweep bulk-deletes expired and revoked sessions
func (h *AdminHandler) Sweep(c *gin.Context) {
	count, err := h.sessions.Sweep(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Sweep failed"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"removed": count}))
}
