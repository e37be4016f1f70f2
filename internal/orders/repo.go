package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/auroralife/aurora-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateLineItems(ctx context.Context, items []models.OrderLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindAutoshipOrderOnDate returns the subscription's order dated within the
// given calendar day, or nil when none exists.
func (r *repository) FindAutoshipOrderOnDate(ctx context.Context, autoshipID uuid.UUID, day time.Time) (*models.Order, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var order models.Order
	err := r.db.WithContext(ctx).
		Where("autoship_id = ?", autoshipID).
		Where("order_date >= ? AND order_date < ?", start, end).
		Order("order_date ASC").
		First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindProduct(ctx context.Context, catalogCode string, variantID int, roleCode string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("catalog_code = ? AND variant_id = ? AND role_code = ?", catalogCode, variantID, roleCode).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}
