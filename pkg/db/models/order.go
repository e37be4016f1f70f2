package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/auroralife/aurora-backend/pkg/enums"
)

// Order is the priced, persisted result of a checkout or autoship run.
type Order struct {
	ID                uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	Autoship          bool                    `gorm:"column:autoship;not null;default:false"`
	AutoshipID        *uuid.UUID              `gorm:"column:autoship_id;type:uuid;index"`
	AutoshipPaymentID *uuid.UUID              `gorm:"column:autoship_payment_id;type:uuid"`
	ShippingAddressID uuid.UUID               `gorm:"column:shipping_address_id;type:uuid;not null"`
	BillingAddressID  uuid.UUID               `gorm:"column:billing_address_id;type:uuid;not null"`
	ShippingMethodID  uuid.UUID               `gorm:"column:shipping_method_id;type:uuid;not null"`
	PaymentMethodID   uuid.UUID               `gorm:"column:payment_method_id;type:uuid;not null"`
	OrderDate         time.Time               `gorm:"column:order_date;not null;index"`
	PaymentState      enums.OrderPaymentState `gorm:"column:payment_state;type:order_payment_state;not null;default:'pending'"`
	PaymentError      *string                 `gorm:"column:payment_error"`
	SubtotalAmount    decimal.Decimal         `gorm:"column:subtotal_amount;type:numeric(12,2);not null"`
	AdjustmentAmount  decimal.Decimal         `gorm:"column:adjustment_amount;type:numeric(12,2);not null"`
	TotalAmount       decimal.Decimal         `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Items             []OrderLineItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
