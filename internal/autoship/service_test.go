package autoship

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/auroralife/aurora-backend/pkg/db/models"
	"github.com/auroralife/aurora-backend/pkg/enums"
	pkgerrors "github.com/auroralife/aurora-backend/pkg/errors"
	"github.com/auroralife/aurora-backend/pkg/pagination"
)

func newServiceForTest(t *testing.T, repo *fakeRepo, now time.Time) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		Repo:              repo,
		TransactionRunner: fakeTxRunner{},
		Now:               func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func validCreateInput() CreateInput {
	return CreateInput{
		UserID:            uuid.New(),
		ShippingAddressID: uuid.New(),
		BillingAddressID:  uuid.New(),
		ShippingMethodID:  uuid.New(),
		ActiveDate:        15,
		FrequencyByMonth:  1,
		Items: []ItemInput{
			{CatalogCode: "VITA-C", RoleID: 1, VariantID: 1, Qty: 2},
		},
	}
}

func TestServiceCreate(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	t.Run("opens a cart subscription with the first run date set", func(t *testing.T) {
		repo := &fakeRepo{}
		svc := newServiceForTest(t, repo, now)

		autoship, err := svc.Create(context.Background(), validCreateInput())
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if autoship.State != enums.AutoshipStateCart {
			t.Fatalf("expected cart state, got %s", autoship.State)
		}
		want := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
		if autoship.NextAutoshipDate == nil || !autoship.NextAutoshipDate.Equal(want) {
			t.Fatalf("expected next run %s, got %v", want, autoship.NextAutoshipDate)
		}
	})

	t.Run("defaults the frequency to monthly", func(t *testing.T) {
		repo := &fakeRepo{}
		svc := newServiceForTest(t, repo, now)

		input := validCreateInput()
		input.FrequencyByMonth = 0

		autoship, err := svc.Create(context.Background(), input)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if autoship.FrequencyByMonth != 1 {
			t.Fatalf("expected frequency 1, got %d", autoship.FrequencyByMonth)
		}
	})

	t.Run("rejects active days outside 1-28", func(t *testing.T) {
		repo := &fakeRepo{}
		svc := newServiceForTest(t, repo, now)

		for _, day := range []int{0, 29, 31, -3} {
			input := validCreateInput()
			input.ActiveDate = day
			if _, err := svc.Create(context.Background(), input); !pkgerrors.HasCode(err, pkgerrors.CodeInvalidAutoshipDate) {
				t.Fatalf("day %d: expected INVALID_AUTOSHIP_DATE, got %v", day, err)
			}
		}
	})

	t.Run("rejects empty or invalid item sets", func(t *testing.T) {
		repo := &fakeRepo{}
		svc := newServiceForTest(t, repo, now)

		input := validCreateInput()
		input.Items = nil
		if _, err := svc.Create(context.Background(), input); !pkgerrors.HasCode(err, pkgerrors.CodeInvalidAutoshipItems) {
			t.Fatalf("expected INVALID_AUTOSHIP_ITEMS, got %v", err)
		}

		input = validCreateInput()
		input.Items[0].Qty = 0
		if _, err := svc.Create(context.Background(), input); !pkgerrors.HasCode(err, pkgerrors.CodeInvalidAutoshipItems) {
			t.Fatalf("expected INVALID_AUTOSHIP_ITEMS, got %v", err)
		}
	})
}

func TestServiceUpdate(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	t.Run("changes the schedule and recomputes the next run", func(t *testing.T) {
		repo := &fakeRepo{}
		svc := newServiceForTest(t, repo, now)

		created, err := svc.Create(context.Background(), validCreateInput())
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		newDay := 20
		updated, err := svc.Update(context.Background(), created.ID, UpdateInput{ActiveDate: &newDay})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		want := time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC)
		if updated.NextAutoshipDate == nil || !updated.NextAutoshipDate.Equal(want) {
			t.Fatalf("expected next run %s, got %v", want, updated.NextAutoshipDate)
		}
	})

	t.Run("replaces items wholesale", func(t *testing.T) {
		repo := &fakeRepo{}
		svc := newServiceForTest(t, repo, now)

		created, err := svc.Create(context.Background(), validCreateInput())
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		updated, err := svc.Update(context.Background(), created.ID, UpdateInput{
			Items: []ItemInput{
				{CatalogCode: "OMEGA-3", RoleID: 1, VariantID: 2, Qty: 1},
				{CatalogCode: "ZINC", RoleID: 1, VariantID: 1, Qty: 3},
			},
		})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if len(updated.Items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(updated.Items))
		}
	})

	t.Run("refuses to touch a cancelled subscription", func(t *testing.T) {
		repo := &fakeRepo{}
		svc := newServiceForTest(t, repo, now)

		created, err := svc.Create(context.Background(), validCreateInput())
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := svc.Cancel(context.Background(), created.ID); err != nil {
			t.Fatalf("Cancel: %v", err)
		}

		newDay := 20
		_, err = svc.Update(context.Background(), created.ID, UpdateInput{ActiveDate: &newDay})
		if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
			t.Fatalf("expected STATE_CONFLICT, got %v", err)
		}
	})

	t.Run("rejects an invalid new frequency", func(t *testing.T) {
		repo := &fakeRepo{}
		svc := newServiceForTest(t, repo, now)

		created, err := svc.Create(context.Background(), validCreateInput())
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		zero := 0
		_, err = svc.Update(context.Background(), created.ID, UpdateInput{FrequencyByMonth: &zero})
		if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidAutoshipDate) {
			t.Fatalf("expected INVALID_AUTOSHIP_DATE, got %v", err)
		}
	})
}

func TestServiceCancel(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	repo := &fakeRepo{}
	svc := newServiceForTest(t, repo, now)

	created, err := svc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Cancel(context.Background(), created.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	got, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != enums.AutoshipStateCancelled {
		t.Fatalf("expected cancelled, got %s", got.State)
	}

	// Idempotent.
	if err := svc.Cancel(context.Background(), created.ID); err != nil {
		t.Fatalf("second Cancel: %v", err)
	}

	if err := svc.Cancel(context.Background(), uuid.New()); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestServiceListRuns(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	repo := &fakeRepo{}
	svc := newServiceForTest(t, repo, now)

	created, err := svc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 3; i++ {
		repo.runs = append(repo.runs, models.AutoshipRun{
			ID:         uuid.New(),
			AutoshipID: created.ID,
			State:      enums.AutoshipRunStateCompleted,
			Details:    "order created",
			CreatedAt:  now.AddDate(0, 0, -i),
		})
	}

	list, err := svc.ListRuns(context.Background(), created.ID, pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(list.Runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(list.Runs))
	}
	if list.NextCursor != "" {
		t.Fatalf("no further pages exist, cursor should be empty")
	}

	paged, err := svc.ListRuns(context.Background(), created.ID, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("ListRuns paged: %v", err)
	}
	if len(paged.Runs) != 2 {
		t.Fatalf("expected the page to hold 2 runs, got %d", len(paged.Runs))
	}
	last := paged.Runs[1]
	want := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	if paged.NextCursor != want {
		t.Fatalf("cursor should point at the last returned run")
	}

	if _, err := svc.ListRuns(context.Background(), uuid.New(), pagination.Params{}); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
