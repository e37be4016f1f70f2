package models

import (
	"time"

	"github.com/google/uuid"
)

// Address stores a shipping or billing address for a user.
type Address struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	FirstName  string    `gorm:"column:first_name;not null"`
	LastName   string    `gorm:"column:last_name;not null"`
	Street     string    `gorm:"column:street;not null"`
	StreetCont *string   `gorm:"column:street_cont"`
	City       string    `gorm:"column:city;not null"`
	Zip        string    `gorm:"column:zip;not null"`
	State      string    `gorm:"column:state;not null"`
	StateAbbr  string    `gorm:"column:state_abbr;not null"`
	CountryISO string    `gorm:"column:country_iso;not null"`
	Phone      *string   `gorm:"column:phone"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
