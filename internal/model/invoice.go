package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice is the fiscal document registered against an authorized payment
// request by the support office.
type Invoice struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNo      string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_no"`
	RequestID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"request_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	DocumentRef    string          `gorm:"type:varchar(100)" json:"document_ref"` // Supplier's own invoice reference
	RegisteredByID *uuid.UUID      `gorm:"type:uuid" json:"registered_by_id"`
	RegisteredBy   *User           `gorm:"foreignKey:RegisteredByID" json:"registered_by,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
