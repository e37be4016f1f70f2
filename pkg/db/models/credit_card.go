package models

import (
	"time"

	"github.com/google/uuid"
)

// CreditCard stores a tokenizable card reference. Only masked digits are kept;
// the raw number never touches this table. PaymentTokenID is populated after a
// successful tokenization call.
type CreditCard struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	PaymentMethodID uuid.UUID `gorm:"column:payment_method_id;type:uuid;not null"`
	Brand           *string   `gorm:"column:brand"`
	Last4           string    `gorm:"column:last4;not null"`
	ExpMonth        int       `gorm:"column:exp_month;not null"`
	ExpYear         int       `gorm:"column:exp_year;not null"`
	PaymentTokenID  *string   `gorm:"column:payment_token_id"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
