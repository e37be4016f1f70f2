package autoship

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/auroralife/aurora-backend/pkg/db/models"
	"github.com/auroralife/aurora-backend/pkg/enums"
	"github.com/auroralife/aurora-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an autoship repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, autoship *models.Autoship) error {
	return r.db.WithContext(ctx).Create(autoship).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Autoship, error) {
	var autoship models.Autoship
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Adjustments").
		Where("id = ?", id).
		First(&autoship).Error
	if err != nil {
		return nil, err
	}
	return &autoship, nil
}

func (r *repository) FindDueByDate(ctx context.Context, date time.Time) ([]models.Autoship, error) {
	var due []models.Autoship
	err := r.db.WithContext(ctx).
		Where("state = ? AND next_autoship_date = ?", enums.AutoshipStateComplete, date).
		Order("created_at ASC").
		Find(&due).Error
	if err != nil {
		return nil, err
	}
	return due, nil
}

func (r *repository) UpdateState(ctx context.Context, id uuid.UUID, state enums.AutoshipState) error {
	return r.db.WithContext(ctx).
		Model(&models.Autoship{}).
		Where("id = ?", id).
		Update("state", state).Error
}

func (r *repository) UpdateSchedule(ctx context.Context, id uuid.UUID, lastRun, nextRun time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Autoship{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_autoship_date": lastRun,
			"next_autoship_date": nextRun,
		}).Error
}

func (r *repository) UpdateSettings(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Autoship{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ReplaceItems swaps the full line-item set in one transaction; items are
// never diffed.
func (r *repository) ReplaceItems(ctx context.Context, autoshipID uuid.UUID, items []models.AutoshipItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("autoship_id = ?", autoshipID).Delete(&models.AutoshipItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].AutoshipID = autoshipID
		}
		return tx.Create(&items).Error
	})
}

func (r *repository) FindItems(ctx context.Context, autoshipID uuid.UUID) ([]models.AutoshipItem, error) {
	var items []models.AutoshipItem
	err := r.db.WithContext(ctx).
		Where("autoship_id = ?", autoshipID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ReplaceAdjustments(ctx context.Context, autoshipID uuid.UUID, adjustments []models.AutoshipAdjustment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("autoship_id = ?", autoshipID).Delete(&models.AutoshipAdjustment{}).Error; err != nil {
			return err
		}
		if len(adjustments) == 0 {
			return nil
		}
		for i := range adjustments {
			adjustments[i].AutoshipID = autoshipID
		}
		return tx.Create(&adjustments).Error
	})
}

func (r *repository) FindActiveAdjustments(ctx context.Context, autoshipID uuid.UUID) ([]models.AutoshipAdjustment, error) {
	var adjustments []models.AutoshipAdjustment
	err := r.db.WithContext(ctx).
		Where("autoship_id = ? AND active = ?", autoshipID, true).
		Order("created_at ASC").
		Find(&adjustments).Error
	if err != nil {
		return nil, err
	}
	return adjustments, nil
}

func (r *repository) DeactivatePayments(ctx context.Context, autoshipID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.AutoshipPayment{}).
		Where("autoship_id = ? AND active = ?", autoshipID, true).
		Update("active", false).Error
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.AutoshipPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) FindActivePayment(ctx context.Context, autoshipID uuid.UUID) (*models.AutoshipPayment, error) {
	var payment models.AutoshipPayment
	err := r.db.WithContext(ctx).
		Where("autoship_id = ? AND active = ?", autoshipID, true).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) CreateRun(ctx context.Context, run *models.AutoshipRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *repository) ListRuns(ctx context.Context, autoshipID uuid.UUID, params pagination.Params) ([]models.AutoshipRun, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Where("autoship_id = ?", autoshipID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if cursor, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, nil, err
	} else if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var runs []models.AutoshipRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, nil, err
	}

	// The buffer row only signals that another page exists; the cursor
	// points at the last row actually returned.
	if len(runs) > limit {
		runs = runs[:limit]
		last := runs[limit-1]
		return runs, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return runs, nil, nil
}
