package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/mtax/backend/internal/domain/shared"
	"github.com/mtax/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// itemAllocationOrder loads items property first, then water, then by id
const itemAllocationOrder = "CASE tax_type WHEN 'PROPERTY' THEN 0 WHEN 'WATER' THEN 1 ELSE 2 END, id"

// GormDemandRepository implements DemandRepository using GORM
type GormDemandRepository struct {
	db *gorm.DB
}

// NewGormDemandRepository creates a new GormDemandRepository
func NewGormDemandRepository(db *gorm.DB) *GormDemandRepository {
	return &GormDemandRepository{db: db}
}

// FindByID loads a demand with its items
func (r *GormDemandRepository) FindByID(ctx context.Context, id int64) (*ledger.Demand, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate loads a demand with its items and holds SELECT ... FOR UPDATE
// on the demand row until the transaction ends. Items are only written under
// this lock, so they are read without one.
func (r *GormDemandRepository) FindByIDForUpdate(ctx context.Context, id int64) (*ledger.Demand, error) {
	query := r.db.WithContext(ctx)
	if query.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.find(query, id)
}

func (r *GormDemandRepository) find(query *gorm.DB, id int64) (*ledger.Demand, error) {
	var model models.DemandModel
	if err := query.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	var items []models.DemandItemModel
	if err := r.db.WithContext(query.Statement.Context).
		Where("demand_id = ?", id).
		Order(itemAllocationOrder).
		Find(&items).Error; err != nil {
		return nil, err
	}
	model.Items = items
	return model.ToDomain(), nil
}

// SaveWithLock writes the monetary fields of the demand if the stored
// version still matches, then bumps the version on both sides.
func (r *GormDemandRepository) SaveWithLock(ctx context.Context, demand *ledger.Demand) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.DemandModel{}).
		Where("id = ? AND version = ?", demand.ID, demand.Version).
		Updates(map[string]interface{}{
			"final_amount":   demand.FinalAmount,
			"penalty_waived": demand.PenaltyWaived,
			"paid_amount":    demand.PaidAmount,
			"balance_amount": demand.BalanceAmount,
			"status":         demand.Status,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     now,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	demand.IncrementVersion()
	demand.UpdatedAt = now
	return nil
}

// SaveItems writes the paid amounts of the given items
func (r *GormDemandRepository) SaveItems(ctx context.Context, items []ledger.DemandItem) error {
	now := time.Now()
	for _, item := range items {
		result := r.db.WithContext(ctx).
			Model(&models.DemandItemModel{}).
			Where("id = ? AND demand_id = ?", item.ID, item.DemandID).
			Updates(map[string]interface{}{
				"paid_amount": item.PaidAmount,
				"updated_at":  now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
	}
	return nil
}

// Create inserts a demand together with its items. Demand generation lives
// outside the ledger; this is used by seeding and tests.
func (r *GormDemandRepository) Create(ctx context.Context, demand *ledger.Demand) error {
	model := models.DemandModelFromDomain(demand)
	if model.Version == 0 {
		model.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	*demand = *model.ToDomain()
	return nil
}

// Ensure GormDemandRepository implements DemandRepository
var _ ledger.DemandRepository = (*GormDemandRepository)(nil)
