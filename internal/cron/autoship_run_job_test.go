package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/auroralife/aurora-backend/internal/autoship"
	"github.com/auroralife/aurora-backend/pkg/db/models"
	"github.com/auroralife/aurora-backend/pkg/enums"
	"github.com/auroralife/aurora-backend/pkg/logger"
)

type fakeRunner struct {
	lastParams autoship.RunParams
	runs       []models.AutoshipRun
	err        error
}

func (f *fakeRunner) Run(_ context.Context, params autoship.RunParams) ([]models.AutoshipRun, error) {
	f.lastParams = params
	return f.runs, f.err
}

func TestAutoshipRunJob(t *testing.T) {
	log := logger.New(logger.Options{ServiceName: "worker-test"})
	now := time.Date(2026, time.April, 15, 13, 45, 0, 0, time.UTC)

	t.Run("runs the batch for today's date at midnight utc", func(t *testing.T) {
		runner := &fakeRunner{runs: []models.AutoshipRun{
			{ID: uuid.New(), State: enums.AutoshipRunStateCompleted},
			{ID: uuid.New(), State: enums.AutoshipRunStateSkipped},
		}}
		job, err := NewAutoshipRunJob(AutoshipRunJobParams{
			Logger: log,
			Runner: runner,
			Now:    func() time.Time { return now },
		})
		if err != nil {
			t.Fatalf("NewAutoshipRunJob: %v", err)
		}

		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}
		want := time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC)
		if !runner.lastParams.Date.Equal(want) {
			t.Fatalf("expected run date %s, got %s", want, runner.lastParams.Date)
		}
		if runner.lastParams.AutoshipID != nil {
			t.Fatal("the scheduled job must process the whole batch, not one subscription")
		}
	})

	t.Run("propagates candidate loading failures", func(t *testing.T) {
		runner := &fakeRunner{err: errors.New("connection refused")}
		job, err := NewAutoshipRunJob(AutoshipRunJobParams{
			Logger: log,
			Runner: runner,
			Now:    func() time.Time { return now },
		})
		if err != nil {
			t.Fatalf("NewAutoshipRunJob: %v", err)
		}

		if err := job.Run(context.Background()); err == nil {
			t.Fatal("expected an error when the batch cannot load candidates")
		}
	})
}
