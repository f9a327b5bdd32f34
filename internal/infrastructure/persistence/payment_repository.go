package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/mtax/backend/internal/domain/shared"
	"github.com/mtax/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByGatewayOrderID finds the payment created for a gateway order
func (r *GormPaymentRepository) FindByGatewayOrderID(ctx context.Context, orderID string) (*ledger.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).First(&model, "gateway_order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByDemand lists payments of a demand with the total count for pagination
func (r *GormPaymentRepository) FindByDemand(ctx context.Context, demandID int64, filter shared.Filter) ([]ledger.Payment, int64, error) {
	byDemand := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.PaymentModel{}).Where("demand_id = ?", demandID)
	}

	var total int64
	if err := byDemand().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []models.PaymentModel
	if err := r.applyFilter(byDemand(), filter).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	payments := make([]ledger.Payment, len(list))
	for i := range list {
		payments[i] = *list[i].ToDomain()
	}
	return payments, total, nil
}

// Create inserts a new payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *ledger.Payment) error {
	return r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(payment)).Error
}

// SaveUnlessCompleted updates a payment that has not been completed yet. The
// status predicate lets exactly one of two racing callbacks complete an order.
func (r *GormPaymentRepository) SaveUnlessCompleted(ctx context.Context, payment *ledger.Payment) error {
	m := models.PaymentModelFromDomain(payment)
	res := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("id = ? AND status <> ?", m.ID, ledger.PaymentStatusCompleted).
		Updates(map[string]any{
			"status":             m.Status,
			"gateway_payment_id": m.GatewayPaymentID,
			"failure_reason":     m.FailureReason,
			"paid_at":            m.PaidAt,
			"updated_at":         m.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledger.ErrDuplicateGatewayEvent
	}
	return nil
}

// applyFilter applies pagination and ordering to the query
func (r *GormPaymentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	return query.Order(orderClause(filter.OrderBy, filter.OrderDir, PaymentSortFields, "created_at"))
}

var _ ledger.PaymentRepository = (*GormPaymentRepository)(nil)
