package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItemRequest is one product line to price and persist on an order.
type LineItemRequest struct {
	CatalogCode string
	VariantID   int
	RoleCode    string
	Qty         int
}

// AdjustmentRequest is a flat discount or fee carried onto the order.
// Negative amounts reduce the total.
type AdjustmentRequest struct {
	Label  string
	Amount decimal.Decimal
}

// CreateRequest assembles everything needed to create a priced order.
// Autoship-driven requests set Autoship plus the subscription references;
// PaymentTokenID is nil for cash payments.
type CreateRequest struct {
	UserID            uuid.UUID
	Autoship          bool
	AutoshipID        *uuid.UUID
	AutoshipPaymentID *uuid.UUID
	ShippingAddressID uuid.UUID
	BillingAddressID  uuid.UUID
	ShippingMethodID  uuid.UUID
	PaymentMethodID   uuid.UUID
	PaymentTokenID    *string
	Cash              bool
	OrderDate         time.Time
	LineItems         []LineItemRequest
	Adjustments       []AdjustmentRequest
}
