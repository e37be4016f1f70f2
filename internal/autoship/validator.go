package autoship

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/auroralife/aurora-backend/pkg/config"
	"github.com/auroralife/aurora-backend/pkg/db/models"
)

const (
	skipNotScheduled   = "not scheduled for this day"
	skipNoPaymentInfo  = "no payment info"
	skipNoTokenInfo    = "no token info"
	skipAlreadyShipped = "already shipped"
)

// SkipReason explains why a subscription was not billed on a run date. OrderID
// is set when an existing order triggered the skip.
type SkipReason struct {
	Reason  string
	OrderID *uuid.UUID
}

// Validator decides whether a subscription can generate an order on a date.
type Validator interface {
	ValidateForRun(ctx context.Context, autoship *models.Autoship, runDate time.Time) (*SkipReason, error)
}

// ValidatorParams groups dependencies for the run validator.
type ValidatorParams struct {
	Repo   Repository
	Cards  cardStore
	Orders orderService
	Config config.AutoshipConfig
}

type validator struct {
	repo   Repository
	cards  cardStore
	orders orderService
	cfg    config.AutoshipConfig
}

// NewValidator builds a run validator with the required dependencies.
func NewValidator(params ValidatorParams) (Validator, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("autoship repo required")
	}
	if params.Cards == nil {
		return nil, fmt.Errorf("card store required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	return &validator{
		repo:   params.Repo,
		cards:  params.Cards,
		orders: params.Orders,
		cfg:    params.Config,
	}, nil
}

// ValidateForRun runs the pre-billing checks in a fixed order, short-circuiting
// on the first failure. Payment presence is checked before the duplicate-order
// lookup so a misconfigured subscription surfaces the more actionable reason.
// The returned reason is nil when the subscription may generate an order. Reads
// only; no side effects.
func (v *validator) ValidateForRun(ctx context.Context, autoship *models.Autoship, runDate time.Time) (*SkipReason, error) {
	day := dateOnly(runDate)

	if autoship.NextAutoshipDate != nil && !dateOnly(*autoship.NextAutoshipDate).Equal(day) {
		return &SkipReason{Reason: skipNotScheduled}, nil
	}

	payment, err := v.repo.FindActivePayment(ctx, autoship.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &SkipReason{Reason: skipNoPaymentInfo}, nil
		}
		return nil, fmt.Errorf("find active payment: %w", err)
	}

	if reason, err := v.checkToken(ctx, payment); err != nil || reason != nil {
		return reason, err
	}

	existing, err := v.orders.FindAutoshipOrderOnDate(ctx, autoship.ID, day)
	if err != nil {
		return nil, fmt.Errorf("find autoship order on date: %w", err)
	}
	if existing != nil {
		orderID := existing.ID
		return &SkipReason{Reason: skipAlreadyShipped, OrderID: &orderID}, nil
	}

	return nil, nil
}

// checkToken enforces that the active payment is billable: a tokenized card,
// or cash when cash autoship is enabled.
func (v *validator) checkToken(ctx context.Context, payment *models.AutoshipPayment) (*SkipReason, error) {
	if payment.CreditCardID == nil {
		if v.cfg.CashEnabled {
			return nil, nil
		}
		return &SkipReason{Reason: skipNoTokenInfo}, nil
	}

	card, err := v.cards.FindByID(ctx, *payment.CreditCardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &SkipReason{Reason: skipNoTokenInfo}, nil
		}
		return nil, fmt.Errorf("find credit card: %w", err)
	}
	if card.PaymentTokenID == nil || *card.PaymentTokenID == "" {
		return &SkipReason{Reason: skipNoTokenInfo}, nil
	}
	return nil, nil
}
