package autoships

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/auroralife/aurora-backend/api/responses"
	"github.com/auroralife/aurora-backend/api/validators"
	"github.com/auroralife/aurora-backend/internal/autoship"
	"github.com/auroralife/aurora-backend/pkg/db/models"
	pkgerrors "github.com/auroralife/aurora-backend/pkg/errors"
	"github.com/auroralife/aurora-backend/pkg/logger"
)

type cardRequest struct {
	Number   string `json:"number" validate:"required"`
	ExpMonth int    `json:"exp_month" validate:"required,min=1,max=12"`
	ExpYear  int    `json:"exp_year" validate:"required"`
	CVV      string `json:"cvv" validate:"required"`
}

type attachPaymentRequest struct {
	PaymentMethodID uuid.UUID    `json:"payment_method_id" validate:"required"`
	CreditCard      *cardRequest `json:"creditcard,omitempty"`
	CreatedBy       string       `json:"created_by,omitempty"`
}

type paymentResponse struct {
	ID           uuid.UUID  `json:"id"`
	AutoshipID   uuid.UUID  `json:"autoship_id"`
	CreditCardID *uuid.UUID `json:"credit_card_id,omitempty"`
	Active       bool       `json:"active"`
	CreatedBy    string     `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
}

// AttachPayment replaces the subscription's active payment source and settles
// the subscription into its complete or cancelled state.
func AttachPayment(svc autoship.Service, resolver autoship.PaymentResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "autoship service unavailable"))
			return
		}

		id, err := parseAutoshipID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload attachPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		found, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := autoship.AttachPaymentInput{
			PaymentMethodID: payload.PaymentMethodID,
			CreatedBy:       payload.CreatedBy,
		}
		if payload.CreditCard != nil {
			input.CreditCard = &autoship.CardInput{
				Number:   payload.CreditCard.Number,
				ExpMonth: payload.CreditCard.ExpMonth,
				ExpYear:  payload.CreditCard.ExpYear,
				CVV:      payload.CreditCard.CVV,
			}
		}

		payment, err := resolver.AttachPayment(r.Context(), found, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newPaymentResponse(payment))
	}
}

func newPaymentResponse(p *models.AutoshipPayment) *paymentResponse {
	if p == nil {
		return nil
	}
	return &paymentResponse{
		ID:           p.ID,
		AutoshipID:   p.AutoshipID,
		CreditCardID: p.CreditCardID,
		Active:       p.Active,
		CreatedBy:    p.CreatedBy,
		CreatedAt:    p.CreatedAt,
	}
}
