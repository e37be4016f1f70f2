package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/auroralife/aurora-backend/pkg/db/models"
)

// Repository exposes order persistence plus the catalog price lookup used
// when pricing line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateLineItems(ctx context.Context, items []models.OrderLineItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindAutoshipOrderOnDate(ctx context.Context, autoshipID uuid.UUID, day time.Time) (*models.Order, error)
	FindProduct(ctx context.Context, catalogCode string, variantID int, roleCode string) (*models.Product, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
