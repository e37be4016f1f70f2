package paymentmethods

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/auroralife/aurora-backend/pkg/db/models"
	"github.com/auroralife/aurora-backend/pkg/enums"
)

// Repository looks up the payment methods orders can be charged against.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	FindByCode(ctx context.Context, code string) (*models.PaymentMethod, error)
	FindCashByCountry(ctx context.Context, countryISO string) (*models.PaymentMethod, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payment method repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&method).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&method).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

// FindCashByCountry returns the cash method available in the given country,
// if any.
func (r *repository) FindCashByCountry(ctx context.Context, countryISO string) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("category = ? AND country_iso = ?", enums.PaymentCategoryCash, countryISO).
		First(&method).Error
	if err != nil {
		return nil, err
	}
	return &method, nil
}
