package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/auroralife/aurora-backend/pkg/enums"
)

// AutoshipRun is one append-only audit row per subscription per batch
// invocation. Never mutated or deleted.
type AutoshipRun struct {
	ID         uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AutoshipID uuid.UUID              `gorm:"column:autoship_id;type:uuid;not null;index"`
	OrderID    *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	Details    string                 `gorm:"column:details;not null"`
	State      enums.AutoshipRunState `gorm:"column:state;type:autoship_run_state;not null"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
}
