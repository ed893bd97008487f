package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/model"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionTTL is the lifetime of a freshly minted session.
const SessionTTL = 8 * time.Hour

// tokenBytes gives 256 bits of entropy, above the 128-bit floor the token
// relies on as its primary defense.
const tokenBytes = 32

// SessionService issues, validates, revokes and garbage-collects sessions.
// Credential verification happens before Login, behind the Authenticator
// boundary; Login itself only resolves an active account by email.
type SessionService interface {
	Login(ctx context.Context, email string) (*model.User, *model.Session, error)
	Validate(ctx context.Context, token string) (*model.User, *model.Session, error)
	Logout(ctx context.Context, token string) error
	Sweep(ctx context.Context) (int64, error)
	ActiveCount(ctx context.Context) (int64, error)
}

type sessionService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	audit    repository.AuditRepository
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewSessionService(users repository.UserRepository, sessions repository.SessionRepository, audit repository.AuditRepository, logger *zap.SugaredLogger) SessionService {
	return &sessionService{
		users:    users,
		sessions: sessions,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

// Login resolves an active user by email and mints a new session. The user's
// already-dead sessions are deleted first (lazy cleanup scoped to the user);
// other active sessions are left alone — multi-device logins coexist.
func (s *sessionService) Login(ctx context.Context, email string) (*model.User, *model.Session, error) {
	user, err := s.users.GetActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}

	now := s.now()
	if err := s.sessions.DeleteDeadByUser(ctx, user.ID, now); err != nil {
		return nil, nil, fmt.Errorf("failed to clean up user sessions: %w", err)
	}

	token, err := generateToken()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &model.Session{
		UserID:    user.ID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.recordAuthEvent(ctx, user, model.ActionLogin, map[string]interface{}{
		"session_id": session.ID.String(),
		"expires_at": session.ExpiresAt.Format(time.RFC3339),
	})

	return user, session, nil
}

// Validate resolves the caller's identity from a token. The four failure
// stages stay distinct so callers can tell "never logged in" from
// "session died". The global cleanup is opportunistic: its errors are
// swallowed and never affect the validation outcome.
func (s *sessionService) Validate(ctx context.Context, token string) (*model.User, *model.Session, error) {
	if token == "" {
		return nil, nil, ErrNoToken
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("failed to look up session: %w", err)
	}

	now := s.now()
	if session.RevokedAt != nil {
		return nil, nil, ErrSessionRevoked
	}
	if !session.ExpiresAt.After(now) {
		return nil, nil, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("failed to load session user: %w", err)
	}
	if !user.IsActive {
		return nil, nil, ErrSessionRevoked
	}

	// Opportunistic cache cleaning, not part of the correctness contract.
	if _, cleanErr := s.sessions.DeleteDead(ctx, now); cleanErr != nil {
		s.logger.Debugw("opportunistic session cleanup failed", "error", cleanErr)
	}

	return user, session, nil
}

// Logout revokes the matching session. Unknown or already-revoked tokens are
// a no-op success.
func (s *sessionService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up session: %w", err)
	}

	if err := s.sessions.Revoke(ctx, token, s.now()); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	entry := &model.AuditLog{
		Entity:    model.EntityUser,
		EntityID:  session.UserID.String(),
		Action:    model.ActionLogout,
		UserID:    &session.UserID,
		CreatedAt: s.now(),
	}
	if logErr := s.audit.Log(ctx, entry); logErr != nil {
		s.logger.Warnw("failed to write logout audit log", "error", logErr)
	}

	return nil
}

// Sweep bulk-deletes all expired or revoked sessions and returns the count.
func (s *sessionService) Sweep(ctx context.Context) (int64, error) {
	count, err := s.sessions.DeleteDead(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep sessions: %w", err)
	}
	if count > 0 {
		s.recordAuthEvent(ctx, nil, model.ActionSessionSweep, map[string]interface{}{
			"removed": count,
		})
	}
	return count, nil
}

func (s *sessionService) ActiveCount(ctx context.Context) (int64, error) {
	return s.sessions.CountActive(ctx, s.now())
}

// recordAuthEvent appends an audit row for a login/logout/sweep event.
// Best effort: the auth operation itself already succeeded.
func (s *sessionService) recordAuthEvent(ctx context.Context, user *model.User, action string, metadata map[string]interface{}) {
	entry := &model.AuditLog{
		Entity:    model.EntityUser,
		Action:    action,
		CreatedAt: s.now(),
	}
	if user != nil {
		entry.EntityID = user.ID.String()
		entry.UserID = &user.ID
	}
	if payload, err := json.Marshal(metadata); err == nil {
		entry.Metadata = string(payload)
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Warnw("failed to write auth audit log", "action", action, "error", err)
	}
}

// generateToken mints an unguessable URL- and cookie-safe token.
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
