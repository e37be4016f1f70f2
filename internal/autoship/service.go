package autoship

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/auroralife/aurora-backend/pkg/db/models"
	"github.com/auroralife/aurora-backend/pkg/enums"
	pkgerrors "github.com/auroralife/aurora-backend/pkg/errors"
	"github.com/auroralife/aurora-backend/pkg/pagination"
)

const (
	minActiveDay = 1
	maxActiveDay = 28
)

// ItemInput is one product line on a subscription.
type ItemInput struct {
	CatalogCode string
	RoleID      int
	VariantID   int
	Qty         int
}

// AdjustmentInput is a recurring discount or fee on a subscription.
type AdjustmentInput struct {
	Label  string
	Amount decimal.Decimal
	Active bool
}

// CreateInput carries everything needed to open a subscription in the cart
// state.
type CreateInput struct {
	UserID            uuid.UUID
	ShippingAddressID uuid.UUID
	BillingAddressID  uuid.UUID
	ShippingMethodID  uuid.UUID
	ActiveDate        int
	FrequencyByMonth  int
	StartDate         *time.Time
	Items             []ItemInput
	Adjustments       []AdjustmentInput
}

// UpdateInput changes a subscription's schedule or contents. Nil fields are
// left untouched; a non-nil Items or Adjustments slice replaces the stored set
// wholesale.
type UpdateInput struct {
	ActiveDate       *int
	FrequencyByMonth *int
	StartDate        *time.Time
	Items            []ItemInput
	Adjustments      []AdjustmentInput
}

// RunList wraps a page of run records plus the cursor for the next page.
type RunList struct {
	Runs       []models.AutoshipRun
	NextCursor string
}

// Service is the subscription lifecycle surface.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Autoship, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Autoship, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Autoship, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	ListRuns(ctx context.Context, id uuid.UUID, params pagination.Params) (*RunList, error)
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	Repo              Repository
	TransactionRunner txRunner
	Now               func() time.Time
}

type service struct {
	repo     Repository
	txRunner txRunner
	now      func() time.Time
}

// NewService builds a subscription service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("autoship repo required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:     params.Repo,
		txRunner: params.TransactionRunner,
		now:      params.Now,
	}, nil
}

// Create opens a subscription in the cart state with its first run date
// already computed. Payment attachment moves it to complete.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Autoship, error) {
	if err := validateActiveDay(input.ActiveDate); err != nil {
		return nil, err
	}
	if err := validateItems(input.Items); err != nil {
		return nil, err
	}

	frequency := input.FrequencyByMonth
	if frequency < 1 {
		frequency = 1
	}

	now := s.now()
	nextRun := NextRunDate(now, input.ActiveDate, frequency, input.StartDate, nil)

	autoship := &models.Autoship{
		UserID:            input.UserID,
		State:             enums.AutoshipStateCart,
		ShippingAddressID: input.ShippingAddressID,
		BillingAddressID:  input.BillingAddressID,
		ShippingMethodID:  input.ShippingMethodID,
		ActiveDate:        input.ActiveDate,
		FrequencyByMonth:  frequency,
		StartDate:         input.StartDate,
		NextAutoshipDate:  &nextRun,
		Items:             buildItems(input.Items),
		Adjustments:       buildAdjustments(input.Adjustments),
	}
	if err := s.repo.Create(ctx, autoship); err != nil {
		return nil, fmt.Errorf("create autoship: %w", err)
	}
	return autoship, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Autoship, error) {
	autoship, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "autoship not found")
		}
		return nil, err
	}
	return autoship, nil
}

// Update applies schedule and content changes and recomputes the next run
// date from the new settings. Cancelled subscriptions are immutable.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Autoship, error) {
	autoship, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if autoship.State == enums.AutoshipStateCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled autoship cannot be updated")
	}

	if input.ActiveDate != nil {
		if err := validateActiveDay(*input.ActiveDate); err != nil {
			return nil, err
		}
		autoship.ActiveDate = *input.ActiveDate
	}
	if input.FrequencyByMonth != nil {
		if *input.FrequencyByMonth < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidAutoshipDate, "frequency must be at least one month")
		}
		autoship.FrequencyByMonth = *input.FrequencyByMonth
	}
	if input.StartDate != nil {
		autoship.StartDate = input.StartDate
	}
	if input.Items != nil {
		if err := validateItems(input.Items); err != nil {
			return nil, err
		}
	}

	nextRun := NextRunDate(s.now(), autoship.ActiveDate, autoship.FrequencyByMonth, autoship.StartDate, autoship.LastAutoshipDate)
	autoship.NextAutoshipDate = &nextRun

	updates := map[string]any{
		"active_date":        autoship.ActiveDate,
		"frequency_by_month": autoship.FrequencyByMonth,
		"next_autoship_date": nextRun,
	}
	if input.StartDate != nil {
		updates["start_date"] = *input.StartDate
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateSettings(ctx, id, updates); err != nil {
			return fmt.Errorf("update autoship settings: %w", err)
		}
		if input.Items != nil {
			if err := repo.ReplaceItems(ctx, id, buildItems(input.Items)); err != nil {
				return fmt.Errorf("replace autoship items: %w", err)
			}
		}
		if input.Adjustments != nil {
			if err := repo.ReplaceAdjustments(ctx, id, buildAdjustments(input.Adjustments)); err != nil {
				return fmt.Errorf("replace autoship adjustments: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Cancel is terminal and idempotent.
func (s *service) Cancel(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateState(ctx, id, enums.AutoshipStateCancelled)
}

func (s *service) ListRuns(ctx context.Context, id uuid.UUID, params pagination.Params) (*RunList, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	runs, next, err := s.repo.ListRuns(ctx, id, params)
	if err != nil {
		return nil, err
	}
	list := &RunList{Runs: runs}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

func validateActiveDay(day int) error {
	if day < minActiveDay || day > maxActiveDay {
		return pkgerrors.New(pkgerrors.CodeInvalidAutoshipDate,
			fmt.Sprintf("active day must be between %d and %d", minActiveDay, maxActiveDay))
	}
	return nil
}

func validateItems(items []ItemInput) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidAutoshipItems, "autoship requires at least one item")
	}
	for _, item := range items {
		if item.CatalogCode == "" {
			return pkgerrors.New(pkgerrors.CodeInvalidAutoshipItems, "autoship item requires a catalog code")
		}
		if item.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidAutoshipItems,
				fmt.Sprintf("invalid qty %d for %s", item.Qty, item.CatalogCode))
		}
	}
	return nil
}

func buildItems(inputs []ItemInput) []models.AutoshipItem {
	items := make([]models.AutoshipItem, 0, len(inputs))
	for _, input := range inputs {
		items = append(items, models.AutoshipItem{
			CatalogCode: input.CatalogCode,
			RoleID:      input.RoleID,
			VariantID:   input.VariantID,
			Qty:         input.Qty,
		})
	}
	return items
}

func buildAdjustments(inputs []AdjustmentInput) []models.AutoshipAdjustment {
	adjustments := make([]models.AutoshipAdjustment, 0, len(inputs))
	for _, input := range inputs {
		adjustments = append(adjustments, models.AutoshipAdjustment{
			Label:  input.Label,
			Amount: input.Amount,
			Active: input.Active,
		})
	}
	return adjustments
}
