package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/auroralife/aurora-backend/pkg/db/models"
	"github.com/auroralife/aurora-backend/pkg/enums"
	pkgerrors "github.com/auroralife/aurora-backend/pkg/errors"
)

type stubRepo struct {
	products map[string]*models.Product
	orders   []models.Order
	lines    []models.OrderLineItem

	createOrderErr error
}

func productKey(catalogCode string, variantID int, roleCode string) string {
	return fmt.Sprintf("%s/%d/%s", catalogCode, variantID, roleCode)
}

func (s *stubRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubRepo) CreateOrder(_ context.Context, order *models.Order) (*models.Order, error) {
	if s.createOrderErr != nil {
		return nil, s.createOrderErr
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.orders = append(s.orders, *order)
	return order, nil
}

func (s *stubRepo) CreateLineItems(_ context.Context, items []models.OrderLineItem) error {
	s.lines = append(s.lines, items...)
	return nil
}

func (s *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	for i := range s.orders {
		if s.orders[i].ID == id {
			return &s.orders[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindAutoshipOrderOnDate(_ context.Context, autoshipID uuid.UUID, day time.Time) (*models.Order, error) {
	for i := range s.orders {
		order := s.orders[i]
		if order.AutoshipID == nil || *order.AutoshipID != autoshipID {
			continue
		}
		if order.OrderDate.Year() == day.Year() && order.OrderDate.YearDay() == day.YearDay() {
			return &s.orders[i], nil
		}
	}
	return nil, nil
}

func (s *stubRepo) FindProduct(_ context.Context, catalogCode string, variantID int, roleCode string) (*models.Product, error) {
	product, ok := s.products[productKey(catalogCode, variantID, roleCode)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newStubRepo(products ...*models.Product) *stubRepo {
	repo := &stubRepo{products: map[string]*models.Product{}}
	for _, product := range products {
		repo.products[productKey(product.CatalogCode, product.VariantID, product.RoleCode)] = product
	}
	return repo
}

func baseRequest() CreateRequest {
	token := "tok_abc"
	return CreateRequest{
		UserID:            uuid.New(),
		ShippingAddressID: uuid.New(),
		BillingAddressID:  uuid.New(),
		ShippingMethodID:  uuid.New(),
		PaymentMethodID:   uuid.New(),
		PaymentTokenID:    &token,
		OrderDate:         time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC),
		LineItems: []LineItemRequest{
			{CatalogCode: "VITA-C", VariantID: 1, RoleCode: "retail", Qty: 2},
		},
	}
}

func TestCreate(t *testing.T) {
	vitaC := &models.Product{CatalogCode: "VITA-C", VariantID: 1, RoleCode: "retail", Price: decimal.RequireFromString("19.50")}

	t.Run("prices lines and marks the order paid when a token is present", func(t *testing.T) {
		repo := newStubRepo(vitaC)
		svc, err := NewService(repo, stubTxRunner{})
		if err != nil {
			t.Fatalf("NewService: %v", err)
		}

		req := baseRequest()
		req.Adjustments = []AdjustmentRequest{{Label: "loyalty discount", Amount: decimal.RequireFromString("-5.00")}}

		order, err := svc.Create(context.Background(), req)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if !order.SubtotalAmount.Equal(decimal.RequireFromString("39.00")) {
			t.Fatalf("unexpected subtotal %s", order.SubtotalAmount)
		}
		if !order.TotalAmount.Equal(decimal.RequireFromString("34.00")) {
			t.Fatalf("unexpected total %s", order.TotalAmount)
		}
		if order.PaymentState != enums.OrderPaymentStatePaid {
			t.Fatalf("expected paid, got %s", order.PaymentState)
		}
		if len(repo.lines) != 1 || repo.lines[0].OrderID != order.ID {
			t.Fatalf("expected one persisted line bound to the order, got %+v", repo.lines)
		}
	})

	t.Run("marks the order failed without a token or cash", func(t *testing.T) {
		repo := newStubRepo(vitaC)
		svc, _ := NewService(repo, stubTxRunner{})

		req := baseRequest()
		req.PaymentTokenID = nil

		order, err := svc.Create(context.Background(), req)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if order.PaymentState != enums.OrderPaymentStateFailed {
			t.Fatalf("expected failed, got %s", order.PaymentState)
		}
		if order.PaymentError == nil {
			t.Fatal("expected a payment error message")
		}
	})

	t.Run("cash orders are paid", func(t *testing.T) {
		repo := newStubRepo(vitaC)
		svc, _ := NewService(repo, stubTxRunner{})

		req := baseRequest()
		req.PaymentTokenID = nil
		req.Cash = true

		order, err := svc.Create(context.Background(), req)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if order.PaymentState != enums.OrderPaymentStatePaid {
			t.Fatalf("expected paid, got %s", order.PaymentState)
		}
	})

	t.Run("rejects unknown catalog prices", func(t *testing.T) {
		repo := newStubRepo()
		svc, _ := NewService(repo, stubTxRunner{})

		_, err := svc.Create(context.Background(), baseRequest())
		if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected VALIDATION_ERROR, got %v", err)
		}
	})

	t.Run("rejects empty line items", func(t *testing.T) {
		repo := newStubRepo(vitaC)
		svc, _ := NewService(repo, stubTxRunner{})

		req := baseRequest()
		req.LineItems = nil

		_, err := svc.Create(context.Background(), req)
		if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected VALIDATION_ERROR, got %v", err)
		}
	})
}

func TestFindAutoshipOrderOnDate(t *testing.T) {
	vitaC := &models.Product{CatalogCode: "VITA-C", VariantID: 1, RoleCode: "retail", Price: decimal.RequireFromString("19.50")}
	repo := newStubRepo(vitaC)
	svc, _ := NewService(repo, stubTxRunner{})

	autoshipID := uuid.New()
	req := baseRequest()
	req.Autoship = true
	req.AutoshipID = &autoshipID

	created, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	found, err := svc.FindAutoshipOrderOnDate(context.Background(), autoshipID, req.OrderDate)
	if err != nil {
		t.Fatalf("FindAutoshipOrderOnDate: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Fatalf("expected to find order %s, got %+v", created.ID, found)
	}

	missing, err := svc.FindAutoshipOrderOnDate(context.Background(), uuid.New(), req.OrderDate)
	if err != nil {
		t.Fatalf("FindAutoshipOrderOnDate: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for an unknown subscription, got %+v", missing)
	}
}
