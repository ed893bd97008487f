package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status enum constants — the human-facing lifecycle label.
const (
	StatusPendente           = "PENDENTE"
	StatusEmValidacao        = "EM_VALIDACAO"
	StatusPendentePresidente = "PENDENTE_PRESIDENTE"
	StatusAutorizada         = "AUTORIZADA"
	StatusRejeitada          = "REJEITADA"
	StatusRegistrada         = "REGISTRADA"
	StatusPendentePagamento  = "PENDENTE_PAGAMENTO"
	StatusPaga               = "PAGA"
	StatusCancelada          = "CANCELADA"
)

// Step enum constants — the workflow stage that owns the request.
const (
	StepGabineteContratacao = "GABINETE_CONTRATACAO"
	StepPresidente          = "PRESIDENTE"
	StepGabineteApoio       = "GABINETE_APOIO"
	StepFinancas            = "FINANCAS"
	StepConcluido           = "CONCLUIDO"
)

// TerminalStatus reports whether the status permits no further transition.
func TerminalStatus(status string) bool {
	return status == StatusPaga || status == StatusRejeitada || status == StatusCancelada
}

// PaymentRequest is the workflow subject. Status and CurrentStep always form
// a valid pair; the amount is immutable after creation.
type PaymentRequest struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SupplierID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier    *Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	CreatedByID uuid.UUID       `gorm:"type:uuid;not null;index" json:"created_by_id"`
	CreatedBy   *User           `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Status      string          `gorm:"type:varchar(30);not null;default:'PENDENTE';index" json:"status"`
	CurrentStep string          `gorm:"type:varchar(30);not null;default:'GABINETE_CONTRATACAO';index" json:"current_step"`
	InvoiceID   *uuid.UUID      `gorm:"type:uuid;index" json:"invoice_id"`
	Invoice     *Invoice        `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Terminal reports whether the request reached a final state.
func (p *PaymentRequest) Terminal() bool {
	return TerminalStatus(p.Status)
}
