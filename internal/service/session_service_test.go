package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSessionFixture(t *testing.T) (*sessionService, *fakeUserRepo, *fakeSessionRepo, *fakeAuditRepo) {
	t.Helper()
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	audit := newFakeAuditRepo()
	svc := NewSessionService(users, sessions, audit, zap.NewNop().Sugar()).(*sessionService)
	return svc, users, sessions, audit
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _, _ := newSessionFixture(t)

	_, _, err := svc.Login(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLoginInactiveUser(t *testing.T) {
	svc, users, _, _ := newSessionFixture(t)
	users.add("Maria", "maria@example.com", model.RoleFinancas, false)

	_, _, err := svc.Login(context.Background(), "maria@example.com")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLoginMintsDistinctSessions(t *testing.T) {
	svc, users, sessions, audit := newSessionFixture(t)
	user := users.add("Maria", "maria@example.com", model.RoleFinancas, true)

	_, first, err := svc.Login(context.Background(), "maria@example.com")
	require.NoError(t, err)
	_, second, err := svc.Login(context.Background(), "maria@example.com")
	require.NoError(t, err)

	assert.NotEmpty(t, first.Token)
	assert.NotEqual(t, first.Token, second.Token, "each login must mint a fresh token")
	assert.Equal(t, user.ID, first.UserID)
	assert.Equal(t, first.ExpiresAt, first.CreatedAt.Add(SessionTTL))

	// Both sessions coexist: a second device does not evict the first.
	count, err := sessions.CountActive(context.Background(), time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	assert.Len(t, audit.byAction(model.ActionLogin), 2)
}

func TestLoginCleansUserDeadSessions(t *testing.T) {
	svc, users, sessions, _ := newSessionFixture(t)
	user := users.add("Maria", "maria@example.com", model.RoleFinancas, true)
	other := users.add("Rui", "rui@example.com", model.RolePresidente, true)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, sessions.Create(context.Background(), &model.Session{
		UserID: user.ID, Token: "dead-maria", ExpiresAt: past,
	}))
	require.NoError(t, sessions.Create(context.Background(), &model.Session{
		UserID: other.ID, Token: "dead-rui", ExpiresAt: past,
	}))

	_, _, err := svc.Login(context.Background(), "maria@example.com")
	require.NoError(t, err)

	_, err = sessions.GetByToken(context.Background(), "dead-maria")
	assert.Error(t, err, "login should purge the user's own dead sessions")
	_, err = sessions.GetByToken(context.Background(), "dead-rui")
	assert.NoError(t, err, "other users' sessions are not login's business")
}

func TestValidateFailureStages(t *testing.T) {
	svc, users, sessions, _ := newSessionFixture(t)
	active := users.add("Maria", "maria@example.com", model.RoleFinancas, true)
	disabled := users.add("Ex", "ex@example.com", model.RoleUser, false)

	now := time.Now()
	revokedAt := now.Add(-time.Minute)
	require.NoError(t, sessions.Create(context.Background(), &model.Session{
		UserID: active.ID, Token: "revoked", ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt,
	}))
	require.NoError(t, sessions.Create(context.Background(), &model.Session{
		UserID: active.ID, Token: "expired", ExpiresAt: now.Add(-time.Minute),
	}))
	require.NoError(t, sessions.Create(context.Background(), &model.Session{
		UserID: disabled.ID, Token: "orphaned", ExpiresAt: now.Add(time.Hour),
	}))

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"missing token", "", ErrNoToken},
		{"unknown token", "no-such-token", ErrSessionNotFound},
		{"revoked session", "revoked", ErrSessionRevoked},
		{"expired session", "expired", ErrSessionExpired},
		{"deactivated user", "orphaned", ErrSessionRevoked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Validate(context.Background(), tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateSuccess(t *testing.T) {
	svc, users, _, _ := newSessionFixture(t)
	users.add("Maria", "maria@example.com", model.RoleFinancas, true)

	_, session, err := svc.Login(context.Background(), "maria@example.com")
	require.NoError(t, err)

	user, got, err := svc.Validate(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", user.Email)
	assert.Equal(t, session.ID, got.ID)
}

func TestValidateSurvivesCleanupFailure(t *testing.T) {
	svc, users, sessions, _ := newSessionFixture(t)
	users.add("Maria", "maria@example.com", model.RoleFinancas, true)

	_, session, err := svc.Login(context.Background(), "maria@example.com")
	require.NoError(t, err)

	// The opportunistic global cleanup failing must not fail validation.
	sessions.deleteDeadErr = errors.New("storage hiccup")
	user, _, err := svc.Validate(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", user.Email)
}

func TestLogoutIdempotent(t *testing.T) {
	svc, users, _, _ := newSessionFixture(t)
	users.add("Maria", "maria@example.com", model.RoleFinancas, true)

	_, session, err := svc.Login(context.Background(), "maria@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), session.Token))
	require.NoError(t, svc.Logout(context.Background(), session.Token))
	require.NoError(t, svc.Logout(context.Background(), "never-issued"))
	require.NoError(t, svc.Logout(context.Background(), ""))

	_, _, err = svc.Validate(context.Background(), session.Token)
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

func TestSweepRemovesDeadSessions(t *testing.T) {
	svc, users, sessions, audit := newSessionFixture(t)
	user := users.add("Maria", "maria@example.com", model.RoleFinancas, true)

	now := time.Now()
	revokedAt := now.Add(-time.Minute)
	require.NoError(t, sessions.Create(context.Background(), &model.Session{
		UserID: user.ID, Token: "expired", ExpiresAt: now.Add(-time.Hour),
	}))
	require.NoError(t, sessions.Create(context.Background(), &model.Session{
		UserID: user.ID, Token: "revoked", ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt,
	}))
	require.NoError(t, sessions.Create(context.Background(), &model.Session{
		UserID: user.ID, Token: "live", ExpiresAt: now.Add(time.Hour),
	}))

	removed, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)
	assert.Len(t, audit.byAction(model.ActionSessionSweep), 1)

	count, err := svc.ActiveCount(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// Nothing left to sweep; no further audit noise.
	removed, err = svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 0, removed)
	assert.Len(t, audit.byAction(model.ActionSessionSweep), 1)
}

func TestSessionExpiryBoundary(t *testing.T) {
	svc, users, _, _ := newSessionFixture(t)
	users.add("Maria", "maria@example.com", model.RoleFinancas, true)

	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	_, session, err := svc.Login(context.Background(), "maria@example.com")
	require.NoError(t, err)

	// One tick before the deadline the session is still good.
	svc.now = func() time.Time { return base.Add(SessionTTL - time.Second) }
	_, _, err = svc.Validate(context.Background(), session.Token)
	require.NoError(t, err)

	// At the deadline exactly it is expired.
	svc.now = func() time.Time { return base.Add(SessionTTL) }
	_, _, err = svc.Validate(context.Background(), session.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)
}
