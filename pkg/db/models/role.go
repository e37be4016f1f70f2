package models

import "time"

// Role maps an internal role id to the catalog role code used on order lines.
type Role struct {
	ID        int       `gorm:"column:id;primaryKey"`
	Code      string    `gorm:"column:code;not null;unique"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
