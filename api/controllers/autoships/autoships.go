package autoships

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/auroralife/aurora-backend/api/responses"
	"github.com/auroralife/aurora-backend/api/validators"
	"github.com/auroralife/aurora-backend/internal/autoship"
	"github.com/auroralife/aurora-backend/pkg/db/models"
	pkgerrors "github.com/auroralife/aurora-backend/pkg/errors"
	"github.com/auroralife/aurora-backend/pkg/logger"
)

const dateLayout = "2006-01-02"

type itemRequest struct {
	CatalogCode string `json:"catalog_code" validate:"required"`
	RoleID      int    `json:"role_id" validate:"required"`
	VariantID   int    `json:"variant_id" validate:"required"`
	Qty         int    `json:"qty" validate:"required,min=1"`
}

type adjustmentRequest struct {
	Label  string          `json:"label" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Active bool            `json:"active"`
}

type createRequest struct {
	UserID            uuid.UUID           `json:"user_id" validate:"required"`
	ShippingAddressID uuid.UUID           `json:"shipping_address_id" validate:"required"`
	BillingAddressID  uuid.UUID           `json:"billing_address_id" validate:"required"`
	ShippingMethodID  uuid.UUID           `json:"shipping_method_id" validate:"required"`
	ActiveDate        int                 `json:"active_date" validate:"required"`
	FrequencyByMonth  int                 `json:"frequency_by_month"`
	StartDate         *string             `json:"start_date,omitempty"`
	Items             []itemRequest       `json:"items" validate:"required,dive"`
	Adjustments       []adjustmentRequest `json:"adjustments,omitempty" validate:"dive"`
}

type updateRequest struct {
	ActiveDate       *int                `json:"active_date,omitempty"`
	FrequencyByMonth *int                `json:"frequency_by_month,omitempty"`
	StartDate        *string             `json:"start_date,omitempty"`
	Items            []itemRequest       `json:"items,omitempty" validate:"dive"`
	Adjustments      []adjustmentRequest `json:"adjustments,omitempty" validate:"dive"`
}

type itemResponse struct {
	ID          uuid.UUID `json:"id"`
	CatalogCode string    `json:"catalog_code"`
	RoleID      int       `json:"role_id"`
	VariantID   int       `json:"variant_id"`
	Qty         int       `json:"qty"`
}

type adjustmentResponse struct {
	ID     uuid.UUID       `json:"id"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
	Active bool            `json:"active"`
}

type autoshipResponse struct {
	ID                uuid.UUID            `json:"id"`
	UserID            uuid.UUID            `json:"user_id"`
	State             string               `json:"state"`
	ShippingAddressID uuid.UUID            `json:"shipping_address_id"`
	BillingAddressID  uuid.UUID            `json:"billing_address_id"`
	ShippingMethodID  uuid.UUID            `json:"shipping_method_id"`
	ActiveDate        int                  `json:"active_date"`
	FrequencyByMonth  int                  `json:"frequency_by_month"`
	StartDate         *time.Time           `json:"start_date,omitempty"`
	LastAutoshipDate  *time.Time           `json:"last_autoship_date,omitempty"`
	NextAutoshipDate  *time.Time           `json:"next_autoship_date,omitempty"`
	Items             []itemResponse       `json:"items"`
	Adjustments       []adjustmentResponse `json:"adjustments"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// Create opens a new subscription in the cart state.
func Create(svc autoship.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "autoship service unavailable"))
			return
		}

		var payload createRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		startDate, err := parseOptionalDate(payload.StartDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), autoship.CreateInput{
			UserID:            payload.UserID,
			ShippingAddressID: payload.ShippingAddressID,
			BillingAddressID:  payload.BillingAddressID,
			ShippingMethodID:  payload.ShippingMethodID,
			ActiveDate:        payload.ActiveDate,
			FrequencyByMonth:  payload.FrequencyByMonth,
			StartDate:         startDate,
			Items:             toItemInputs(payload.Items),
			Adjustments:       toAdjustmentInputs(payload.Adjustments),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newAutoshipResponse(created))
	}
}

// Detail returns a single subscription with its items and adjustments.
func Detail(svc autoship.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "autoship service unavailable"))
			return
		}

		id, err := parseAutoshipID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		found, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAutoshipResponse(found))
	}
}

// Update changes a subscription's schedule, items, or adjustments.
func Update(svc autoship.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "autoship service unavailable"))
			return
		}

		id, err := parseAutoshipID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		startDate, err := parseOptionalDate(payload.StartDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := autoship.UpdateInput{
			ActiveDate:       payload.ActiveDate,
			FrequencyByMonth: payload.FrequencyByMonth,
			StartDate:        startDate,
		}
		if payload.Items != nil {
			input.Items = toItemInputs(payload.Items)
		}
		if payload.Adjustments != nil {
			input.Adjustments = toAdjustmentInputs(payload.Adjustments)
		}

		updated, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAutoshipResponse(updated))
	}
}

// Cancel moves a subscription to its terminal cancelled state.
func Cancel(svc autoship.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "autoship service unavailable"))
			return
		}

		id, err := parseAutoshipID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

func parseAutoshipID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "autoshipId"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid autoship id")
	}
	return id, nil
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date must be formatted YYYY-MM-DD")
	}
	return &parsed, nil
}

func toItemInputs(items []itemRequest) []autoship.ItemInput {
	out := make([]autoship.ItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, autoship.ItemInput{
			CatalogCode: item.CatalogCode,
			RoleID:      item.RoleID,
			VariantID:   item.VariantID,
			Qty:         item.Qty,
		})
	}
	return out
}

func toAdjustmentInputs(adjustments []adjustmentRequest) []autoship.AdjustmentInput {
	out := make([]autoship.AdjustmentInput, 0, len(adjustments))
	for _, adj := range adjustments {
		out = append(out, autoship.AdjustmentInput{
			Label:  adj.Label,
			Amount: adj.Amount,
			Active: adj.Active,
		})
	}
	return out
}

func newAutoshipResponse(a *models.Autoship) *autoshipResponse {
	if a == nil {
		return nil
	}

	items := make([]itemResponse, 0, len(a.Items))
	for _, item := range a.Items {
		items = append(items, itemResponse{
			ID:          item.ID,
			CatalogCode: item.CatalogCode,
			RoleID:      item.RoleID,
			VariantID:   item.VariantID,
			Qty:         item.Qty,
		})
	}

	adjustments := make([]adjustmentResponse, 0, len(a.Adjustments))
	for _, adj := range a.Adjustments {
		adjustments = append(adjustments, adjustmentResponse{
			ID:     adj.ID,
			Label:  adj.Label,
			Amount: adj.Amount,
			Active: adj.Active,
		})
	}

	return &autoshipResponse{
		ID:                a.ID,
		UserID:            a.UserID,
		State:             string(a.State),
		ShippingAddressID: a.ShippingAddressID,
		BillingAddressID:  a.BillingAddressID,
		ShippingMethodID:  a.ShippingMethodID,
		ActiveDate:        a.ActiveDate,
		FrequencyByMonth:  a.FrequencyByMonth,
		StartDate:         a.StartDate,
		LastAutoshipDate:  a.LastAutoshipDate,
		NextAutoshipDate:  a.NextAutoshipDate,
		Items:             items,
		Adjustments:       adjustments,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}
