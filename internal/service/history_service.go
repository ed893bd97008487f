package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/HaleluiaLuis/fincontrol-sub001/internal/model"
	"github.com/HaleluiaLuis/fincontrol-sub001/internal/repository"

	"github.com/google/uuid"
)

// TimelineEvent is one entry of an entity's reconstructed history: either a
// workflow decision or an audit record.
type TimelineEvent struct {
	Type     string `json:"type"` // "approval" or "log"
	Step     string `json:"step,omitempty"`
	Action   string `json:"action"`
	Comments string `json:"comments,omitempty"`
	Metadata string `json:"metadata,omitempty"`
	At       string `json:"at"`
	UserID   string `json:"user_id,omitempty"`
	UserName string `json:"user_name,omitempty"`

	at time.Time
}

// HistoryService reconstructs an entity's timeline from its Approval and
// AuditLog rows. Recomputed fresh on every call; never cached.
type HistoryService interface {
	Timeline(ctx context.Context, requestID string) ([]TimelineEvent, error)
}

type historyService struct {
	approvals repository.ApprovalRepository
	audit     repository.AuditRepository
}

func NewHistoryService(approvals repository.ApprovalRepository, audit repository.AuditRepository) HistoryService {
	return &historyService{approvals: approvals, audit: audit}
}

// Timeline merges decisions and audit rows into one sequence sorted ascending
// by timestamp. Approvals are appended before logs, so on equal timestamps
// the stable sort keeps approvals first — an arbitrary tie-break callers must
// not read causality into.
func (s *historyService) Timeline(ctx context.Context, requestID string) ([]TimelineEvent, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return nil, fmt.Errorf("invalid request id: %w", err)
	}

	approvals, err := s.approvals.ListByRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch approvals: %w", err)
	}
	logs, err := s.audit.ListByEntity(ctx, model.EntityPaymentRequest, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	events := make([]TimelineEvent, 0, len(approvals)+len(logs))
	for i := range approvals {
		a := &approvals[i]
		ev := TimelineEvent{
			Type:     "approval",
			Step:     a.Step,
			Action:   a.Action,
			Comments: a.Comments,
			At:       a.Timestamp.Format(time.RFC3339),
			UserID:   a.UserID.String(),
			at:       a.Timestamp,
		}
		if a.User != nil {
			ev.UserName = a.User.Name
		}
		events = append(events, ev)
	}
	for i := range logs {
		l := &logs[i]
		ev := TimelineEvent{
			Type:     "log",
			Action:   l.Action,
			Metadata: l.Metadata,
			At:       l.CreatedAt.Format(time.RFC3339),
			at:       l.CreatedAt,
		}
		if l.UserID != nil {
			ev.UserID = l.UserID.String()
		}
		if l.User != nil {
			ev.UserName = l.User.Name
		}
		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].at.Before(events[j].at)
	})

	return events, nil
}
