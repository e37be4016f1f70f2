package autoship

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/auroralife/aurora-backend/internal/orders"
	"github.com/auroralife/aurora-backend/internal/tokens"
	"github.com/auroralife/aurora-backend/pkg/db/models"
	"github.com/auroralife/aurora-backend/pkg/enums"
	"github.com/auroralife/aurora-backend/pkg/pagination"
)

// Repository exposes subscription persistence for the autoship engine.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, autoship *models.Autoship) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Autoship, error)
	FindDueByDate(ctx context.Context, date time.Time) ([]models.Autoship, error)
	UpdateState(ctx context.Context, id uuid.UUID, state enums.AutoshipState) error
	UpdateSchedule(ctx context.Context, id uuid.UUID, lastRun, nextRun time.Time) error
	UpdateSettings(ctx context.Context, id uuid.UUID, updates map[string]any) error

	ReplaceItems(ctx context.Context, autoshipID uuid.UUID, items []models.AutoshipItem) error
	FindItems(ctx context.Context, autoshipID uuid.UUID) ([]models.AutoshipItem, error)

	ReplaceAdjustments(ctx context.Context, autoshipID uuid.UUID, adjustments []models.AutoshipAdjustment) error
	FindActiveAdjustments(ctx context.Context, autoshipID uuid.UUID) ([]models.AutoshipAdjustment, error)

	DeactivatePayments(ctx context.Context, autoshipID uuid.UUID) error
	CreatePayment(ctx context.Context, payment *models.AutoshipPayment) error
	FindActivePayment(ctx context.Context, autoshipID uuid.UUID) (*models.AutoshipPayment, error)

	CreateRun(ctx context.Context, run *models.AutoshipRun) error
	ListRuns(ctx context.Context, autoshipID uuid.UUID, params pagination.Params) ([]models.AutoshipRun, *pagination.Cursor, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// directory resolves users and addresses owned by other subsystems.
type directory interface {
	User(ctx context.Context, id uuid.UUID) (*models.User, error)
	Address(ctx context.Context, id uuid.UUID) (*models.Address, error)
}

type roleDirectory interface {
	RoleCode(ctx context.Context, roleID int) (string, error)
}

type cardStore interface {
	Create(ctx context.Context, card *models.CreditCard) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.CreditCard, error)
	SetPaymentToken(ctx context.Context, id uuid.UUID, tokenID string) error
}

type paymentMethodStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	FindCashByCountry(ctx context.Context, countryISO string) (*models.PaymentMethod, error)
}

type tokenClient interface {
	CreateToken(ctx context.Context, req tokens.TokenRequest) (string, error)
}

type orderService interface {
	Create(ctx context.Context, req orders.CreateRequest) (*models.Order, error)
	FindAutoshipOrderOnDate(ctx context.Context, autoshipID uuid.UUID, day time.Time) (*models.Order, error)
}
