package autoships

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/auroralife/aurora-backend/api/responses"
	"github.com/auroralife/aurora-backend/api/validators"
	"github.com/auroralife/aurora-backend/internal/autoship"
	"github.com/auroralife/aurora-backend/pkg/db/models"
	pkgerrors "github.com/auroralife/aurora-backend/pkg/errors"
	"github.com/auroralife/aurora-backend/pkg/logger"
	"github.com/auroralife/aurora-backend/pkg/pagination"
)

const (
	minRunDay = 1
	maxRunDay = 28
)

type runRequest struct {
	AutoshipDate string     `json:"autoship_date,omitempty"`
	AutoshipID   *uuid.UUID `json:"autoship_id,omitempty"`
}

type runRecordResponse struct {
	AutoshipID uuid.UUID  `json:"autoship_id"`
	OrderID    *uuid.UUID `json:"order_id,omitempty"`
	Request    runRequest `json:"request"`
	Details    string     `json:"details"`
	State      string     `json:"state"`
}

type runListEntry struct {
	ID         uuid.UUID  `json:"id"`
	AutoshipID uuid.UUID  `json:"autoship_id"`
	OrderID    *uuid.UUID `json:"order_id,omitempty"`
	Details    string     `json:"details"`
	State      string     `json:"state"`
	CreatedAt  time.Time  `json:"created_at"`
}

type runListResponse struct {
	Runs       []runListEntry `json:"runs"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// ListRuns pages through a subscription's run history, newest first.
func ListRuns(svc autoship.Service, logg *logger.Logger) http.HandlerFunc {
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

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		list, err := svc.ListRuns(r.Context(), id, pagination.Params{Limit: limit, Cursor: cursor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries := make([]runListEntry, 0, len(list.Runs))
		for _, run := range list.Runs {
			entries = append(entries, runListEntry{
				ID:         run.ID,
				AutoshipID: run.AutoshipID,
				OrderID:    run.OrderID,
				Details:    run.Details,
				State:      string(run.State),
				CreatedAt:  run.CreatedAt,
			})
		}

		responses.WriteSuccess(w, runListResponse{Runs: entries, NextCursor: list.NextCursor})
	}
}

// Run triggers a batch run for a date, or a single-subscription run when an
// autoship id is named instead.
func Run(runner autoship.Runner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if runner == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "autoship runner unavailable"))
			return
		}

		var payload runRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := buildRunParams(payload, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		runs, err := runner.Run(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "run autoship batch"))
			return
		}

		responses.WriteSuccess(w, newRunRecordResponses(payload, runs))
	}
}

func buildRunParams(payload runRequest, now time.Time) (autoship.RunParams, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if payload.AutoshipID != nil {
		if strings.TrimSpace(payload.AutoshipDate) != "" {
			return autoship.RunParams{}, pkgerrors.New(pkgerrors.CodeValidation,
				"autoship_date and autoship_id are mutually exclusive")
		}
		return autoship.RunParams{Date: today, AutoshipID: payload.AutoshipID}, nil
	}

	raw := strings.TrimSpace(payload.AutoshipDate)
	if raw == "" {
		return autoship.RunParams{}, pkgerrors.New(pkgerrors.CodeInvalidAutoshipDate,
			"autoship_date or autoship_id is required")
	}

	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return autoship.RunParams{}, pkgerrors.New(pkgerrors.CodeInvalidAutoshipDate,
			"autoship_date must be formatted YYYY-MM-DD")
	}
	if day := date.Day(); day < minRunDay || day > maxRunDay {
		return autoship.RunParams{}, pkgerrors.New(pkgerrors.CodeInvalidAutoshipDate,
			"autoship_date day must be between 1 and 28")
	}
	if date.After(today) {
		return autoship.RunParams{}, pkgerrors.New(pkgerrors.CodeInvalidAutoshipDate,
			"autoship_date must not be in the future")
	}

	return autoship.RunParams{Date: date}, nil
}

func newRunRecordResponses(request runRequest, runs []models.AutoshipRun) []runRecordResponse {
	out := make([]runRecordResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, runRecordResponse{
			AutoshipID: run.AutoshipID,
			OrderID:    run.OrderID,
			Request:    request,
			Details:    run.Details,
			State:      string(run.State),
		})
	}
	return out
}
