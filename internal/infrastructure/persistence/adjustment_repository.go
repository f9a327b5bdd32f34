package persistence

import (
	"context"
	"errors"

	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/mtax/backend/internal/domain/shared"
	"github.com/mtax/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAdjustmentRepository implements AdjustmentRepository using GORM
type GormAdjustmentRepository struct {
	db *gorm.DB
}

// NewGormAdjustmentRepository creates a new GormAdjustmentRepository
func NewGormAdjustmentRepository(db *gorm.DB) *GormAdjustmentRepository {
	return &GormAdjustmentRepository{db: db}
}

// FindByID finds an adjustment by ID
func (r *GormAdjustmentRepository) FindByID(ctx context.Context, id int64) (*ledger.Adjustment, error) {
	var model models.AdjustmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive returns the ACTIVE adjustment of a kind for a demand
func (r *GormAdjustmentRepository) FindActive(ctx context.Context, demandID int64, kind ledger.AdjustmentKind) (*ledger.Adjustment, error) {
	var model models.AdjustmentModel
	if err := r.db.WithContext(ctx).
		Where("demand_id = ? AND kind = ? AND status = ?", demandID, kind, ledger.AdjustmentStatusActive).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByDemand returns every ACTIVE adjustment of a demand
func (r *GormAdjustmentRepository) FindActiveByDemand(ctx context.Context, demandID int64) ([]ledger.Adjustment, error) {
	var list []models.AdjustmentModel
	if err := r.db.WithContext(ctx).
		Where("demand_id = ? AND status = ?", demandID, ledger.AdjustmentStatusActive).
		Order("id").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return toAdjustments(list), nil
}

// FindByDemand returns every adjustment of a demand, newest first
func (r *GormAdjustmentRepository) FindByDemand(ctx context.Context, demandID int64) ([]ledger.Adjustment, error) {
	var list []models.AdjustmentModel
	if err := r.db.WithContext(ctx).
		Where("demand_id = ?", demandID).
		Order("created_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return toAdjustments(list), nil
}

// Create inserts a new adjustment. The partial unique index rejects a second
// ACTIVE row of the same kind; that violation surfaces as ErrAdjustmentActive.
func (r *GormAdjustmentRepository) Create(ctx context.Context, adjustment *ledger.Adjustment) error {
	model := models.AdjustmentModelFromDomain(adjustment)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return ledger.ErrAdjustmentActive.WithDetails(map[string]any{
				"demand_id": adjustment.DemandID,
				"kind":      adjustment.Kind.String(),
			})
		}
		return err
	}
	adjustment.ID = model.ID
	adjustment.CreatedAt = model.CreatedAt
	adjustment.UpdatedAt = model.UpdatedAt
	return nil
}

// Save updates an existing adjustment
func (r *GormAdjustmentRepository) Save(ctx context.Context, adjustment *ledger.Adjustment) error {
	model := models.AdjustmentModelFromDomain(adjustment)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ledger.ErrAdjustmentActive
		}
		return result.Error
	}
	adjustment.UpdatedAt = model.UpdatedAt
	return nil
}

func toAdjustments(list []models.AdjustmentModel) []ledger.Adjustment {
	out := make([]ledger.Adjustment, len(list))
	for i := range list {
		out[i] = *list[i].ToDomain()
	}
	return out
}

// Ensure GormAdjustmentRepository implements AdjustmentRepository
var _ ledger.AdjustmentRepository = (*GormAdjustmentRepository)(nil)
