package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AutoshipAdjustment is a recurring discount or fee. Only active rows are
// carried into generated orders.
type AutoshipAdjustment struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AutoshipID uuid.UUID       `gorm:"column:autoship_id;type:uuid;not null;index"`
	Active     bool            `gorm:"column:active;not null;default:true"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Label      string          `gorm:"column:label;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
