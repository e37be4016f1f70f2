package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/auroralife/aurora-backend/pkg/enums"
)

// PaymentMethod describes a way orders can be paid. Cash methods carry the
// ISO country they are available in; card methods are country-agnostic.
type PaymentMethod struct {
	ID         uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Code       string                `gorm:"column:code;not null;unique"`
	Name       string                `gorm:"column:name;not null"`
	Category   enums.PaymentCategory `gorm:"column:category;type:payment_category;not null"`
	CountryISO *string               `gorm:"column:country_iso"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
