package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/auroralife/aurora-backend/internal/autoship"
	"github.com/auroralife/aurora-backend/pkg/enums"
	"github.com/auroralife/aurora-backend/pkg/logger"
	"github.com/auroralife/aurora-backend/pkg/metrics"
)

// AutoshipRunJobParams configure the daily subscription billing job.
type AutoshipRunJobParams struct {
	Logger  *logger.Logger
	Runner  autoship.Runner
	Metrics *metrics.AutoshipRunMetrics
	Now     func() time.Time
}

type autoshipRunJob struct {
	log     *logger.Logger
	runner  autoship.Runner
	metrics *metrics.AutoshipRunMetrics
	now     func() time.Time
}

// NewAutoshipRunJob builds the job that bills every subscription due today.
func NewAutoshipRunJob(params AutoshipRunJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Runner == nil {
		return nil, fmt.Errorf("autoship runner required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &autoshipRunJob{
		log:     params.Logger,
		runner:  params.Runner,
		metrics: params.Metrics,
		now:     params.Now,
	}, nil
}

func (j *autoshipRunJob) Name() string { return "autoship_run" }

// Run processes every subscription due on today's date. Individual
// subscription failures are already folded into run records by the runner;
// only candidate loading can fail the job.
func (j *autoshipRunJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	runs, err := j.runner.Run(ctx, autoship.RunParams{Date: date})
	if err != nil {
		return fmt.Errorf("run autoships for %s: %w", date.Format("2006-01-02"), err)
	}

	j.metrics.ObserveBatchSize(len(runs))
	var completed, failed, skipped int
	for _, run := range runs {
		j.metrics.IncOutcome(string(run.State))
		switch run.State {
		case enums.AutoshipRunStateCompleted:
			completed++
		case enums.AutoshipRunStateFailed:
			failed++
		case enums.AutoshipRunStateSkipped:
			skipped++
		}
	}

	summary := j.log.WithFields(ctx, map[string]any{
		"date":      date.Format("2006-01-02"),
		"total":     len(runs),
		"completed": completed,
		"failed":    failed,
		"skipped":   skipped,
	})
	j.log.Info(summary, "autoship batch processed")
	return nil
}
