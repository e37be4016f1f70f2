package models

import (
	"time"

	"github.com/google/uuid"
)

// ShippingMethod is referenced by subscriptions and orders.
type ShippingMethod struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Code      string    `gorm:"column:code;not null;unique"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
