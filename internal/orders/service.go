package orders

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
)

// Service prices and persists orders.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindAutoshipOrderOnDate(ctx context.Context, autoshipID uuid.UUID, day time.Time) (*models.Order, error)
}

type service struct {
	repo     Repository
	txRunner txRunner
}

// NewService builds the order service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repo required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, txRunner: tx}, nil
}

// Create prices each line against the catalog, applies adjustments and
// persists the order with its lines in one transaction. The payment outcome is
// recorded on the order: paid when the request carries a token or is cash,
// failed otherwise. A failed payment does not roll the order back; callers
// inspect PaymentState.
func (s *service) Create(ctx context.Context, req CreateRequest) (*models.Order, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	lines, subtotal, err := s.priceLines(ctx, req.LineItems)
	if err != nil {
		return nil, err
	}

	adjustmentTotal := decimal.Zero
	for _, adjustment := range req.Adjustments {
		adjustmentTotal = adjustmentTotal.Add(adjustment.Amount)
	}

	order := &models.Order{
		UserID:            req.UserID,
		Autoship:          req.Autoship,
		AutoshipID:        req.AutoshipID,
		AutoshipPaymentID: req.AutoshipPaymentID,
		ShippingAddressID: req.ShippingAddressID,
		BillingAddressID:  req.BillingAddressID,
		ShippingMethodID:  req.ShippingMethodID,
		PaymentMethodID:   req.PaymentMethodID,
		OrderDate:         req.OrderDate,
		SubtotalAmount:    subtotal,
		AdjustmentAmount:  adjustmentTotal,
		TotalAmount:       subtotal.Add(adjustmentTotal),
	}
	applyPaymentOutcome(order, req)

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if err := repo.CreateLineItems(ctx, lines); err != nil {
			return fmt.Errorf("create order line items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.Items = lines
	return order, nil
}

func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

func (s *service) FindAutoshipOrderOnDate(ctx context.Context, autoshipID uuid.UUID, day time.Time) (*models.Order, error) {
	return s.repo.FindAutoshipOrderOnDate(ctx, autoshipID, day)
}

func (s *service) priceLines(ctx context.Context, items []LineItemRequest) ([]models.OrderLineItem, decimal.Decimal, error) {
	lines := make([]models.OrderLineItem, 0, len(items))
	subtotal := decimal.Zero

	for _, item := range items {
		product, err := s.repo.FindProduct(ctx, item.CatalogCode, item.VariantID, item.RoleCode)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("no catalog price for %s variant %d role %s", item.CatalogCode, item.VariantID, item.RoleCode))
			}
			return nil, decimal.Zero, fmt.Errorf("find product: %w", err)
		}

		total := product.Price.Mul(decimal.NewFromInt(int64(item.Qty)))
		lines = append(lines, models.OrderLineItem{
			CatalogCode: item.CatalogCode,
			RoleCode:    item.RoleCode,
			VariantID:   item.VariantID,
			Qty:         item.Qty,
			UnitPrice:   product.Price,
			TotalPrice:  total,
		})
		subtotal = subtotal.Add(total)
	}
	return lines, subtotal, nil
}

func validateCreate(req CreateRequest) error {
	if req.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(req.LineItems) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one line item")
	}
	for _, item := range req.LineItems {
		if item.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("invalid qty %d for %s", item.Qty, item.CatalogCode))
		}
	}
	if req.PaymentMethodID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method id is required")
	}
	return nil
}

func applyPaymentOutcome(order *models.Order, req CreateRequest) {
	if req.Cash || (req.PaymentTokenID != nil && *req.PaymentTokenID != "") {
		order.PaymentState = enums.OrderPaymentStatePaid
		return
	}
	order.PaymentState = enums.OrderPaymentStateFailed
	message := "no payment token available for charge"
	order.PaymentError = &message
}
