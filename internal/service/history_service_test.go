package service

import (
	"context"
	"testing"
	"time"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimelineMergesAndSorts(t *testing.T) {
	approvals := newFakeApprovalRepo()
	audit := newFakeAuditRepo()
	svc := NewHistoryService(approvals, audit)

	requestID := uuid.New()
	userID := uuid.New()
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	// Interleaved history: created (log), approved (approval), rejected later.
	require.NoError(t, audit.Log(context.Background(), &model.AuditLog{
		Entity:    model.EntityPaymentRequest,
		EntityID:  requestID.String(),
		Action:    model.ActionCreateRequest,
		UserID:    &userID,
		CreatedAt: base,
	}))
	require.NoError(t, approvals.Create(context.Background(), &model.Approval{
		RequestID: requestID,
		Step:      model.StepGabineteContratacao,
		Action:    model.ApprovalActionApprove,
		UserID:    userID,
		Timestamp: base.Add(2 * time.Hour),
	}))
	require.NoError(t, audit.Log(context.Background(), &model.AuditLog{
		Entity:    model.EntityPaymentRequest,
		EntityID:  requestID.String(),
		Action:    model.ActionApproveRequest,
		UserID:    &userID,
		CreatedAt: base.Add(time.Hour),
	}))

	events, err := svc.Timeline(context.Background(), requestID.String())
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "log", events[0].Type)
	assert.Equal(t, model.ActionCreateRequest, events[0].Action)
	assert.Equal(t, "log", events[1].Type)
	assert.Equal(t, "approval", events[2].Type)
	assert.Equal(t, model.StepGabineteContratacao, events[2].Step)

	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].At < events[i-1].At, "timeline must be ascending")
	}
}

func TestTimelineEqualTimestampsKeepApprovalsFirst(t *testing.T) {
	approvals := newFakeApprovalRepo()
	audit := newFakeAuditRepo()
	svc := NewHistoryService(approvals, audit)

	requestID := uuid.New()
	userID := uuid.New()
	at := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, audit.Log(context.Background(), &model.AuditLog{
		Entity:    model.EntityPaymentRequest,
		EntityID:  requestID.String(),
		Action:    model.ActionApproveRequest,
		UserID:    &userID,
		CreatedAt: at,
	}))
	require.NoError(t, approvals.Create(context.Background(), &model.Approval{
		RequestID: requestID,
		Step:      model.StepPresidente,
		Action:    model.ApprovalActionApprove,
		UserID:    userID,
		Timestamp: at,
	}))

	events, err := svc.Timeline(context.Background(), requestID.String())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "approval", events[0].Type, "ties break approvals before logs")
	assert.Equal(t, "log", events[1].Type)
}

func TestTimelineScopedToRequest(t *testing.T) {
	approvals := newFakeApprovalRepo()
	audit := newFakeAuditRepo()
	svc := NewHistoryService(approvals, audit)

	mine := uuid.New()
	other := uuid.New()
	userID := uuid.New()
	at := time.Now()

	require.NoError(t, approvals.Create(context.Background(), &model.Approval{
		RequestID: mine, Step: model.StepPresidente, Action: model.ApprovalActionApprove, UserID: userID, Timestamp: at,
	}))
	require.NoError(t, approvals.Create(context.Background(), &model.Approval{
		RequestID: other, Step: model.StepPresidente, Action: model.ApprovalActionReject, UserID: userID, Timestamp: at,
	}))
	require.NoError(t, audit.Log(context.Background(), &model.AuditLog{
		Entity: model.EntityPaymentRequest, EntityID: other.String(), Action: model.ActionRejectRequest, UserID: &userID, CreatedAt: at,
	}))
	// Audit rows for other entity kinds never leak into a request timeline.
	require.NoError(t, audit.Log(context.Background(), &model.AuditLog{
		Entity: model.EntityUser, EntityID: mine.String(), Action: model.ActionLogin, UserID: &userID, CreatedAt: at,
	}))

	events, err := svc.Timeline(context.Background(), mine.String())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "approval", events[0].Type)
}

func TestTimelineEmptyAndInvalid(t *testing.T) {
	svc := NewHistoryService(newFakeApprovalRepo(), newFakeAuditRepo())

	events, err := svc.Timeline(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = svc.Timeline(context.Background(), "not-a-uuid")
	assert.Error(t, err)
}
