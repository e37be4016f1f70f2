package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/auroralife/aurora-backend/pkg/enums"
)

// Autoship is a recurring order template owned by one user.
//
// ActiveDate is the anchor day-of-month (1-28) on which orders are generated;
// FrequencyByMonth is the recurrence interval in months. NextAutoshipDate,
// once set, always lands on day ActiveDate of some month and is never earlier
// than StartDate (or creation time when StartDate is absent).
type Autoship struct {
	ID                uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	State             enums.AutoshipState  `gorm:"column:state;type:autoship_state;not null;default:'cart'"`
	ShippingAddressID uuid.UUID            `gorm:"column:shipping_address_id;type:uuid;not null"`
	BillingAddressID  uuid.UUID            `gorm:"column:billing_address_id;type:uuid;not null"`
	ShippingMethodID  uuid.UUID            `gorm:"column:shipping_method_id;type:uuid;not null"`
	ActiveDate        int                  `gorm:"column:active_date;not null"`
	FrequencyByMonth  int                  `gorm:"column:frequency_by_month;not null;default:1"`
	StartDate         *time.Time           `gorm:"column:start_date"`
	LastAutoshipDate  *time.Time           `gorm:"column:last_autoship_date"`
	NextAutoshipDate  *time.Time           `gorm:"column:next_autoship_date;index"`
	Items             []AutoshipItem       `gorm:"foreignKey:AutoshipID;constraint:OnDelete:CASCADE"`
	Adjustments       []AutoshipAdjustment `gorm:"foreignKey:AutoshipID;constraint:OnDelete:CASCADE"`
	Payments          []AutoshipPayment    `gorm:"foreignKey:AutoshipID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
