package autoship

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/auroralife/aurora-backend/pkg/db/models"
	"github.com/auroralife/aurora-backend/pkg/enums"
	"github.com/auroralife/aurora-backend/pkg/logger"
)

// RunParams selects the batch's candidates: every complete subscription due on
// Date, or the single named subscription when AutoshipID is set.
type RunParams struct {
	Date       time.Time
	AutoshipID *uuid.UUID
}

// Runner processes due subscriptions into orders, one run record per
// candidate.
type Runner interface {
	Run(ctx context.Context, params RunParams) ([]models.AutoshipRun, error)
}

// RunnerParams groups dependencies for the batch runner.
type RunnerParams struct {
	Logger       *logger.Logger
	Repo         Repository
	Validator    Validator
	Materializer Materializer
}

type runner struct {
	log          *logger.Logger
	repo         Repository
	validator    Validator
	materializer Materializer
}

// NewRunner builds the batch runner with the required dependencies.
func NewRunner(params RunnerParams) (Runner, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("autoship repo required")
	}
	if params.Validator == nil {
		return nil, fmt.Errorf("validator required")
	}
	if params.Materializer == nil {
		return nil, fmt.Errorf("materializer required")
	}
	return &runner{
		log:          params.Logger,
		repo:         params.Repo,
		validator:    params.Validator,
		materializer: params.Materializer,
	}, nil
}

// Run processes candidates sequentially and returns one run record per
// candidate in processing order. A candidate's failure never aborts the rest
// of the batch; only the candidate-loading step can fail the whole call.
func (r *runner) Run(ctx context.Context, params RunParams) ([]models.AutoshipRun, error) {
	candidates, err := r.loadCandidates(ctx, params)
	if err != nil {
		return nil, err
	}

	runs := make([]models.AutoshipRun, 0, len(candidates))
	for i := range candidates {
		run := r.process(ctx, &candidates[i], params.Date)
		if recordErr := r.repo.CreateRun(ctx, &run); recordErr != nil {
			// The audit row is best-effort; losing it must not stop the batch.
			r.log.Error(r.log.WithAutoshipID(ctx, run.AutoshipID.String()),
				"failed to persist autoship run record", recordErr)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (r *runner) loadCandidates(ctx context.Context, params RunParams) ([]models.Autoship, error) {
	if params.AutoshipID != nil {
		autoship, err := r.repo.FindByID(ctx, *params.AutoshipID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, nil
			}
			return nil, fmt.Errorf("find autoship %s: %w", params.AutoshipID, err)
		}
		if autoship.State != enums.AutoshipStateComplete {
			return nil, nil
		}
		return []models.Autoship{*autoship}, nil
	}

	candidates, err := r.repo.FindDueByDate(ctx, dateOnly(params.Date))
	if err != nil {
		return nil, fmt.Errorf("find due autoships: %w", err)
	}
	return candidates, nil
}

// process runs one candidate to a terminal outcome. Errors are converted into
// the run record, never propagated.
func (r *runner) process(ctx context.Context, autoship *models.Autoship, runDate time.Time) models.AutoshipRun {
	run := models.AutoshipRun{AutoshipID: autoship.ID}
	ctx = r.log.WithAutoshipID(ctx, autoship.ID.String())

	reason, err := r.validator.ValidateForRun(ctx, autoship, runDate)
	if err != nil {
		run.State = enums.AutoshipRunStateFailed
		run.Details = err.Error()
		r.log.Error(ctx, "autoship run validation errored", err)
		return run
	}
	if reason != nil {
		run.State = enums.AutoshipRunStateSkipped
		run.Details = reason.Reason
		run.OrderID = reason.OrderID
		return run
	}

	order, err := r.materializer.BuildOrder(ctx, autoship, runDate)
	if err != nil {
		run.State = enums.AutoshipRunStateFailed
		run.Details = err.Error()
		r.log.Error(ctx, "autoship order materialization failed", err)
		return run
	}

	orderID := order.ID
	run.OrderID = &orderID
	if order.PaymentState == enums.OrderPaymentStateFailed {
		run.State = enums.AutoshipRunStateFailed
		run.Details = fmt.Sprintf("order %s payment failed", order.ID)
		if order.PaymentError != nil {
			run.Details = fmt.Sprintf("order %s payment failed: %s", order.ID, *order.PaymentError)
		}
		return run
	}

	run.State = enums.AutoshipRunStateCompleted
	run.Details = fmt.Sprintf("order %s created", order.ID)
	return run
}
