package models

import (
	"time"

	"github.com/google/uuid"
)

// AutoshipItem is one product line repeated each cycle. Rows are replaced
// wholesale on every subscription update, never diffed.
type AutoshipItem struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AutoshipID  uuid.UUID `gorm:"column:autoship_id;type:uuid;not null;index"`
	CatalogCode string    `gorm:"column:catalog_code;not null"`
	RoleID      int       `gorm:"column:role_id;not null"`
	VariantID   int       `gorm:"column:variant_id;not null"`
	Qty         int       `gorm:"column:qty;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
