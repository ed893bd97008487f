package model

import (
	"time"

	"github.com/google/uuid"
)

// Session represents one authenticated login. A user may hold several
// concurrent sessions (multi-device); each is revoked or expires on its own.
type Session struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"-"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt time.Time  `gorm:"index;not null" json:"expires_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at,omitempty"`
}

// ActiveAt reports whether the session is live at the given instant.
// This is always re-evaluated; stale rows in the store never count as active.
func (s *Session) ActiveAt(t time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(t)
}
