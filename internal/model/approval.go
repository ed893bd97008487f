package model

import (
	"time"

	"github.com/google/uuid"
)

// Approval action enum constants.
const (
	ApprovalActionApprove = "APPROVE"
	ApprovalActionReject  = "REJECT"
	ApprovalActionComment = "COMENTARIO"
)

// Approval records one workflow decision. Rows are an append-only ledger —
// never edited or deleted. Step is the step at which the decision was made,
// not the step the request moved to.
type Approval struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID uuid.UUID `gorm:"type:uuid;not null;index" json:"request_id"`
	Step      string    `gorm:"type:varchar(30);not null" json:"step"`
	Action    string    `gorm:"type:varchar(20);not null" json:"action"`
	Comments  string    `gorm:"type:text" json:"comments"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Timestamp time.Time `gorm:"index;autoCreateTime" json:"timestamp"`
}
