package model

import (
	"time"

	"github.com/google/uuid"
)

// Role constants. The role is authoritative for every access decision —
// both the RBAC prefix table and the workflow step checks resolve against it.
const (
	RoleGabineteContratacao = "gabinete_contratacao"
	RoleGabineteApoio       = "gabinete_apoio"
	RoleFinancas            = "financas"
	RolePresidente          = "presidente"
	RoleAdmin               = "admin"
	RoleUser                = "user"
	RoleViewer              = "viewer"
)

// KnownRoles lists every role the system accepts.
func KnownRoles() []string {
	return []string{
		RoleGabineteContratacao,
		RoleGabineteApoio,
		RoleFinancas,
		RolePresidente,
		RoleAdmin,
		RoleUser,
		RoleViewer,
	}
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	for _, r := range KnownRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// User represents an account created out-of-band by an administrator.
// There is no self-registration path.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"` // Omit credentials from JSON responses
	Role         string    `gorm:"type:varchar(50);not null;index" json:"role"`
	Department   string    `gorm:"type:varchar(100)" json:"department"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
