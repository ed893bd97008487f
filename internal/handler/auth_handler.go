package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/auth"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/middleware"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/model"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/service"
	"github.com/HaleluiaLuis/fincontrol-sub001/pkg/response"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserView struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

type LoginResponse struct {
	User      UserView `json:"user"`
	Token     string   `json:"token"`
	ExpiresAt string   `json:"expires_at"`
}

type AuthHandler struct {
	authenticator auth.Authenticator
	sessions      service.SessionService
}

func NewAuthHandler(authenticator auth.Authenticator, sessions service.SessionService) *AuthHandler {
	return &AuthHandler{authenticator: authenticator, sessions: sessions}
}

// RegisterRoutes binds the auth endpoints
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", middleware.RequireSession(h.sessions), h.Me)
	}
}

// Login verifies the credential and mints a session
// @Summary      Login
// @Description  Verifies email/password and opens a session delivered as an HttpOnly cookie
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      LoginRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=LoginResponse}
// @Failure      401      {object}  response.Response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	// Credential check happens outside the session core, behind the
	// authenticator boundary.
	if err := h.authenticator.Verify(c.Request.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, auth.ErrBadCredentials.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Login failed"))
		return
	}

	user, session, err := h.sessions.Login(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, auth.ErrBadCredentials.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Login failed"))
		return
	}

	middleware.SetSessionCookies(c, session.Token, user.Role)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, LoginResponse{
		User:      toUserView(user),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
	}))
}

// Logout revokes the current session
// @Summary      Logout
// @Description  Revokes the current session; idempotent
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(middleware.SessionCookie)
	if err := h.sessions.Logout(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Logout failed"))
		return
	}

	middleware.ClearSessionCookies(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "logged out"}))
}

// Me returns the authenticated caller
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response{data=UserView}
// @Failure      401  {object}  response.Response
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	token, _ := c.Cookie(middleware.SessionCookie)
	if token == "" {
		token = c.GetHeader("Authorization")
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}
	}

	user, _, err := h.sessions.Validate(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, toUserView(user)))
}

func toUserView(user *model.User) UserView {
	return UserView{
		ID:         user.ID.String(),
		Email:      user.Email,
		Name:       user.Name,
		Role:       user.Role,
		Department: user.Department,
	}
}
