package autoship

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/auroralife/aurora-backend/internal/orders"
	"github.com/auroralife/aurora-backend/pkg/db/models"
	pkgerrors "github.com/auroralife/aurora-backend/pkg/errors"
)

// Materializer turns a due subscription into a priced order and advances its
// schedule.
type Materializer interface {
	BuildOrder(ctx context.Context, autoship *models.Autoship, runDate time.Time) (*models.Order, error)
}

// MaterializerParams groups dependencies for the order materializer.
type MaterializerParams struct {
	Repo           Repository
	Cards          cardStore
	PaymentMethods paymentMethodStore
	Roles          roleDirectory
	Directory      directory
	Orders         orderService
	Now            func() time.Time
}

type materializer struct {
	repo           Repository
	cards          cardStore
	paymentMethods paymentMethodStore
	roles          roleDirectory
	directory      directory
	orders         orderService
	now            func() time.Time
}

// NewMaterializer builds an order materializer with the required dependencies.
func NewMaterializer(params MaterializerParams) (Materializer, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("autoship repo required")
	}
	if params.Cards == nil {
		return nil, fmt.Errorf("card store required")
	}
	if params.PaymentMethods == nil {
		return nil, fmt.Errorf("payment method store required")
	}
	if params.Roles == nil {
		return nil, fmt.Errorf("role directory required")
	}
	if params.Directory == nil {
		return nil, fmt.Errorf("directory required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &materializer{
		repo:           params.Repo,
		cards:          params.Cards,
		paymentMethods: params.PaymentMethods,
		roles:          params.Roles,
		directory:      params.Directory,
		orders:         params.Orders,
		now:            params.Now,
	}, nil
}

// BuildOrder assembles the order request from the subscription's stored items,
// active adjustments and active payment, delegates creation to the order
// service, then persists the advanced schedule. The order date is the start of
// runDate.
func (m *materializer) BuildOrder(ctx context.Context, autoship *models.Autoship, runDate time.Time) (*models.Order, error) {
	lineItems, err := m.resolveLineItems(ctx, autoship)
	if err != nil {
		return nil, err
	}

	adjustments, err := m.repo.FindActiveAdjustments(ctx, autoship.ID)
	if err != nil {
		return nil, fmt.Errorf("find active adjustments: %w", err)
	}

	req := orders.CreateRequest{
		UserID:            autoship.UserID,
		Autoship:          true,
		AutoshipID:        &autoship.ID,
		ShippingAddressID: autoship.ShippingAddressID,
		BillingAddressID:  autoship.BillingAddressID,
		ShippingMethodID:  autoship.ShippingMethodID,
		OrderDate:         dateOnly(runDate),
		LineItems:         lineItems,
	}
	for _, adjustment := range adjustments {
		req.Adjustments = append(req.Adjustments, orders.AdjustmentRequest{
			Label:  adjustment.Label,
			Amount: adjustment.Amount,
		})
	}

	if err := m.resolvePayment(ctx, autoship, &req); err != nil {
		return nil, err
	}

	order, err := m.orders.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create autoship order: %w", err)
	}

	now := m.now()
	lastRun := dateOnly(now)
	nextRun := NextRunDate(now, autoship.ActiveDate, autoship.FrequencyByMonth, autoship.StartDate, &lastRun)
	if err := m.repo.UpdateSchedule(ctx, autoship.ID, lastRun, nextRun); err != nil {
		return nil, fmt.Errorf("update autoship schedule: %w", err)
	}
	autoship.LastAutoshipDate = &lastRun
	autoship.NextAutoshipDate = &nextRun

	return order, nil
}

func (m *materializer) resolveLineItems(ctx context.Context, autoship *models.Autoship) ([]orders.LineItemRequest, error) {
	items, err := m.repo.FindItems(ctx, autoship.ID)
	if err != nil {
		return nil, fmt.Errorf("find autoship items: %w", err)
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeAutoshipOrderNotAllowed, "autoship has no items")
	}

	lineItems := make([]orders.LineItemRequest, 0, len(items))
	for _, item := range items {
		roleCode, err := m.roles.RoleCode(ctx, item.RoleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeAutoshipOrderNotAllowed,
					fmt.Sprintf("role %d no longer exists", item.RoleID))
			}
			return nil, fmt.Errorf("resolve role %d: %w", item.RoleID, err)
		}
		lineItems = append(lineItems, orders.LineItemRequest{
			CatalogCode: item.CatalogCode,
			VariantID:   item.VariantID,
			RoleCode:    roleCode,
			Qty:         item.Qty,
		})
	}
	return lineItems, nil
}

// resolvePayment fills the request's payment fields from the active
// subscription payment: token and method from the stored card, or the cash
// method available in the shipping country.
func (m *materializer) resolvePayment(ctx context.Context, autoship *models.Autoship, req *orders.CreateRequest) error {
	payment, err := m.repo.FindActivePayment(ctx, autoship.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeAutoshipOrderNotAllowed, "autoship has no active payment")
		}
		return fmt.Errorf("find active payment: %w", err)
	}
	req.AutoshipPaymentID = &payment.ID

	if payment.CreditCardID == nil {
		address, err := m.directory.Address(ctx, autoship.ShippingAddressID)
		if err != nil {
			return fmt.Errorf("resolve shipping address: %w", err)
		}
		method, err := m.paymentMethods.FindCashByCountry(ctx, address.CountryISO)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeAutoshipOrderNotAllowed,
					fmt.Sprintf("no cash payment method available in %s", address.CountryISO))
			}
			return fmt.Errorf("find cash payment method: %w", err)
		}
		req.PaymentMethodID = method.ID
		req.Cash = true
		return nil
	}

	card, err := m.cards.FindByID(ctx, *payment.CreditCardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeAutoshipOrderNotAllowed, "autoship card no longer exists")
		}
		return fmt.Errorf("find credit card: %w", err)
	}
	if card.PaymentTokenID == nil || *card.PaymentTokenID == "" {
		return pkgerrors.New(pkgerrors.CodeAutoshipOrderNotAllowed, "autoship card has no payment token")
	}
	req.PaymentMethodID = card.PaymentMethodID
	req.PaymentTokenID = card.PaymentTokenID
	return nil
}
