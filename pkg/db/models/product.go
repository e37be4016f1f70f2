package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product carries the catalog price the order service uses when pricing
// autoship line items. Prices vary by role code (retail vs distributor).
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CatalogCode string          `gorm:"column:catalog_code;not null;index:idx_products_variant,unique"`
	VariantID   int             `gorm:"column:variant_id;not null;index:idx_products_variant,unique"`
	RoleCode    string          `gorm:"column:role_code;not null;index:idx_products_variant,unique"`
	Name        string          `gorm:"column:name;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
