package autoship

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/auroralife/aurora-backend/internal/cards"
	"github.com/auroralife/aurora-backend/internal/tokens"
	"github.com/auroralife/aurora-backend/pkg/config"
	"github.com/auroralife/aurora-backend/pkg/db"
	"github.com/auroralife/aurora-backend/pkg/db/models"
	"github.com/auroralife/aurora-backend/pkg/enums"
	pkgerrors "github.com/auroralife/aurora-backend/pkg/errors"
	"github.com/auroralife/aurora-backend/pkg/logger"
)

// CardInput carries raw card data for tokenization. It is forwarded to the
// token provider and never persisted.
type CardInput struct {
	Number   string
	ExpMonth int
	ExpYear  int
	CVV      string
}

// AttachPaymentInput selects the payment source for a subscription.
type AttachPaymentInput struct {
	PaymentMethodID uuid.UUID
	CreditCard      *CardInput
	CreatedBy       string
}

// PaymentResolver attaches payment sources to subscriptions and answers
// token-eligibility questions.
type PaymentResolver interface {
	TokenEligible(ctx context.Context, autoship *models.Autoship) (bool, error)
	AttachPayment(ctx context.Context, autoship *models.Autoship, input AttachPaymentInput) (*models.AutoshipPayment, error)
}

// ResolverParams groups dependencies for the payment resolver.
type ResolverParams struct {
	Logger            *logger.Logger
	Repo              Repository
	Cards             cards.Repository
	PaymentMethods    paymentMethodStore
	Directory         directory
	Tokens            tokenClient
	TransactionRunner txRunner
	Config            config.AutoshipConfig
}

type paymentResolver struct {
	log            *logger.Logger
	repo           Repository
	cards          cards.Repository
	paymentMethods paymentMethodStore
	directory      directory
	tokens         tokenClient
	txRunner       txRunner
	cfg            config.AutoshipConfig
}

// NewPaymentResolver builds a payment resolver with the required dependencies.
func NewPaymentResolver(params ResolverParams) (PaymentResolver, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("autoship repo required")
	}
	if params.Cards == nil {
		return nil, fmt.Errorf("card store required")
	}
	if params.PaymentMethods == nil {
		return nil, fmt.Errorf("payment method store required")
	}
	if params.Directory == nil {
		return nil, fmt.Errorf("directory required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token client required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &paymentResolver{
		log:            params.Logger,
		repo:           params.Repo,
		cards:          params.Cards,
		paymentMethods: params.PaymentMethods,
		directory:      params.Directory,
		tokens:         params.Tokens,
		txRunner:       params.TransactionRunner,
		cfg:            params.Config,
	}, nil
}

// TokenEligible reports whether the subscription owner's billing country is
// covered by the token provider.
func (r *paymentResolver) TokenEligible(ctx context.Context, autoship *models.Autoship) (bool, error) {
	address, err := r.directory.Address(ctx, autoship.BillingAddressID)
	if err != nil {
		return false, fmt.Errorf("resolve billing address: %w", err)
	}
	return r.cfg.TokenEligibleCountry(address.CountryISO), nil
}

// AttachPayment replaces the subscription's active payment source. Prior
// payment rows are deactivated before the new one is created so at most one
// row stays active. Whatever the outcome, the subscription leaves the cart
// state: complete on success, cancelled on any failure.
func (r *paymentResolver) AttachPayment(ctx context.Context, autoship *models.Autoship, input AttachPaymentInput) (payment *models.AutoshipPayment, err error) {
	defer func() {
		state := enums.AutoshipStateComplete
		if err != nil {
			state = enums.AutoshipStateCancelled
		}
		if stateErr := r.repo.UpdateState(ctx, autoship.ID, state); stateErr != nil {
			r.log.Error(r.log.WithAutoshipID(ctx, autoship.ID.String()),
				"failed to persist autoship state after payment attach", stateErr)
			if err == nil {
				err = fmt.Errorf("update autoship state: %w", stateErr)
			}
			return
		}
		autoship.State = state
	}()

	method, err := r.paymentMethods.FindByID(ctx, input.PaymentMethodID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidPaymentMethod, err, "resolve payment method")
	}

	txErr := r.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := r.repo.WithTx(tx)
		cardRepo := r.cards.WithTx(tx)

		if err := repo.DeactivatePayments(ctx, autoship.ID); err != nil {
			return fmt.Errorf("deactivate payments: %w", err)
		}

		row := &models.AutoshipPayment{
			AutoshipID: autoship.ID,
			UserID:     autoship.UserID,
			Active:     true,
			CreatedBy:  input.CreatedBy,
		}

		switch method.Category {
		case enums.PaymentCategoryCreditCard:
			card, cardErr := r.attachCard(ctx, cardRepo, autoship, method, input)
			if cardErr != nil {
				return cardErr
			}
			row.CreditCardID = &card.ID
		case enums.PaymentCategoryCash:
			if !r.cfg.CashEnabled {
				return pkgerrors.New(pkgerrors.CodeInvalidPaymentMethod, "cash autoship is disabled")
			}
		default:
			return pkgerrors.New(pkgerrors.CodeInvalidPaymentMethod,
				fmt.Sprintf("payment method category %q cannot back an autoship", method.Category))
		}

		if err := repo.CreatePayment(ctx, row); err != nil {
			if db.IsUniqueViolation(err, "idx_autoship_payments_one_active") {
				return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "another payment attach is in flight")
			}
			return fmt.Errorf("create autoship payment: %w", err)
		}
		payment = row
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return payment, nil
}

// attachCard stores the card and, when the billing country supports it,
// tokenizes it with the external provider.
func (r *paymentResolver) attachCard(ctx context.Context, store cardStore, autoship *models.Autoship, method *models.PaymentMethod, input AttachPaymentInput) (*models.CreditCard, error) {
	if input.CreditCard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidPaymentMethod, "credit card details are required")
	}

	card := &models.CreditCard{
		UserID:          autoship.UserID,
		PaymentMethodID: method.ID,
		Last4:           last4(input.CreditCard.Number),
		ExpMonth:        input.CreditCard.ExpMonth,
		ExpYear:         input.CreditCard.ExpYear,
	}
	if err := store.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("create credit card: %w", err)
	}

	eligible, err := r.TokenEligible(ctx, autoship)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return card, nil
	}

	req, err := r.buildTokenRequest(ctx, autoship, method, input.CreditCard)
	if err != nil {
		return nil, err
	}
	tokenID, err := r.tokens.CreateToken(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := store.SetPaymentToken(ctx, card.ID, tokenID); err != nil {
		return nil, fmt.Errorf("store payment token: %w", err)
	}
	card.PaymentTokenID = &tokenID
	return card, nil
}

func (r *paymentResolver) buildTokenRequest(ctx context.Context, autoship *models.Autoship, method *models.PaymentMethod, card *CardInput) (tokens.TokenRequest, error) {
	address, err := r.directory.Address(ctx, autoship.BillingAddressID)
	if err != nil {
		return tokens.TokenRequest{}, fmt.Errorf("resolve billing address: %w", err)
	}

	req := tokens.TokenRequest{
		UserID:          autoship.UserID.String(),
		PaymentMethodID: method.ID.String(),
		CreditCard: tokens.CardDetails{
			Number:      card.Number,
			ExpiryYear:  card.ExpYear,
			ExpiryMonth: card.ExpMonth,
			CVV:         card.CVV,
		},
		BillingAddress: tokens.BillingAddress{
			FirstName:  address.FirstName,
			LastName:   address.LastName,
			Street:     address.Street,
			City:       address.City,
			Zip:        address.Zip,
			State:      address.State,
			StateAbbr:  address.StateAbbr,
			CountryISO: address.CountryISO,
		},
	}
	if address.StreetCont != nil {
		req.BillingAddress.StreetCont = *address.StreetCont
	}
	if address.Phone != nil {
		req.BillingAddress.Phone = *address.Phone
	}
	return req, nil
}

func last4(number string) string {
	digits := strings.TrimSpace(number)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}
