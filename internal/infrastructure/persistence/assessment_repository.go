package persistence

import (
	"context"
	"errors"

	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/mtax/backend/internal/domain/shared"
	"github.com/mtax/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAssessmentRepository resolves assessment links using GORM.
// The assessment tables belong to the water and shop modules; the ledger only reads them.
type GormAssessmentRepository struct {
	db *gorm.DB
}

// NewGormAssessmentRepository creates a new GormAssessmentRepository
func NewGormAssessmentRepository(db *gorm.DB) *GormAssessmentRepository {
	return &GormAssessmentRepository{db: db}
}

// FindWaterConnectionID returns the connection of a water tax assessment
func (r *GormAssessmentRepository) FindWaterConnectionID(ctx context.Context, assessmentID int64) (int64, error) {
	var model models.WaterTaxAssessmentModel
	if err := r.db.WithContext(ctx).
		Select("id", "water_connection_id").
		First(&model, "id = ?", assessmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return model.WaterConnectionID, nil
}

// FindShopID returns the shop of a shop tax assessment
func (r *GormAssessmentRepository) FindShopID(ctx context.Context, assessmentID int64) (int64, error) {
	var model models.ShopTaxAssessmentModel
	if err := r.db.WithContext(ctx).
		Select("id", "shop_id").
		First(&model, "id = ?", assessmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return model.ShopID, nil
}

var _ ledger.AssessmentRepository = (*GormAssessmentRepository)(nil)
