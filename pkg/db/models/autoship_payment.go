package models

import (
	"time"

	"github.com/google/uuid"
)

// AutoshipPayment links a subscription to its payment source. CreditCardID is
// nil for cash. At most one row per subscription may be active; the invariant
// is maintained procedurally (deactivate-all before insert), not by a unique
// constraint.
type AutoshipPayment struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AutoshipID   uuid.UUID  `gorm:"column:autoship_id;type:uuid;not null;index"`
	UserID       uuid.UUID  `gorm:"column:user_id;type:uuid;not null"`
	CreditCardID *uuid.UUID `gorm:"column:credit_card_id;type:uuid"`
	Active       bool       `gorm:"column:active;not null;default:true"`
	CreatedBy    string     `gorm:"column:created_by;not null"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
