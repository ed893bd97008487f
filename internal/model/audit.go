package model

import (
	"time"

	"github.com/google/uuid"
)

// Audited entity type names.
const (
	EntityPaymentRequest = "PaymentRequest"
	EntityInvoice        = "Invoice"
	EntitySupplier       = "Supplier"
	EntityCategory       = "Category"
	EntityUser           = "User"
)

// Audit actions.
const (
	ActionLogin           = "LOGIN"
	ActionLogout          = "LOGOUT"
	ActionCreateRequest   = "CREATE_PAYMENT_REQUEST"
	ActionApproveRequest  = "APPROVE_REQUEST"
	ActionRejectRequest   = "REJECT_REQUEST"
	ActionCommentRequest  = "COMMENT_REQUEST"
	ActionCancelRequest   = "CANCEL_REQUEST"
	ActionRegisterInvoice = "REGISTER_INVOICE"
	ActionCreateSupplier  = "CREATE_SUPPLIER"
	ActionUpdateSupplier  = "UPDATE_SUPPLIER"
	ActionDisableSupplier = "DISABLE_SUPPLIER"
	ActionCreateCategory  = "CREATE_CATEGORY"
	ActionSessionSweep    = "SESSION_SWEEP"
)

// AuditLog tracks who did what and when for any entity mutation, not just
// the workflow. Rows are append-only historical facts.
type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Entity    string     `gorm:"type:varchar(50);not null;index:idx_audit_entity" json:"entity"`
	EntityID  string     `gorm:"type:varchar(50);index:idx_audit_entity" json:"entity_id"`
	Action    string     `gorm:"type:varchar(50);not null;index" json:"action"`
	Metadata  string     `gorm:"type:jsonb" json:"metadata"`         // Serialized JSON payload of the mutation
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`     // Null for system-initiated actions
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}
