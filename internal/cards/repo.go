package cards

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/auroralife/aurora-backend/pkg/db/models"
)

// Repository stores tokenizable card references. Raw card numbers never reach
// this layer; only the masked digits and the provider token are persisted.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, card *models.CreditCard) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.CreditCard, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]models.CreditCard, error)
	SetPaymentToken(ctx context.Context, id uuid.UUID, tokenID string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a card repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, card *models.CreditCard) error {
	return r.db.WithContext(ctx).Create(card).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CreditCard, error) {
	var card models.CreditCard
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&card).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *repository) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.CreditCard, error) {
	var cards []models.CreditCard
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *repository) SetPaymentToken(ctx context.Context, id uuid.UUID, tokenID string) error {
	return r.db.WithContext(ctx).
		Model(&models.CreditCard{}).
		Where("id = ?", id).
		Update("payment_token_id", tokenID).Error
}
