package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/mtax/backend/internal/domain/shared"
)

// DemandRepository defines persistence for demands and their items.
// Implementations return shared.ErrNotFound for missing demands.
type DemandRepository interface {
	// FindByID loads a demand with its items in allocation order
	FindByID(ctx context.Context, id int64) (*Demand, error)

	// FindByIDForUpdate loads a demand with its items and holds a row lock
	// on the demand until the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id int64) (*Demand, error)

	// SaveWithLock persists the demand's monetary fields, failing with
	// shared.ErrConcurrencyConflict when the stored version moved on
	SaveWithLock(ctx context.Context, demand *Demand) error

	// SaveItems persists the paid amounts of the given items
	SaveItems(ctx context.Context, items []DemandItem) error
}

// AdjustmentRepository defines persistence for discounts and penalty waivers
type AdjustmentRepository interface {
	// FindByID finds an adjustment by ID
	FindByID(ctx context.Context, id int64) (*Adjustment, error)

	// FindActive returns the ACTIVE adjustment of a kind for a demand,
	// or shared.ErrNotFound when there is none
	FindActive(ctx context.Context, demandID int64, kind AdjustmentKind) (*Adjustment, error)

	// FindActiveByDemand returns every ACTIVE adjustment of a demand
	FindActiveByDemand(ctx context.Context, demandID int64) ([]Adjustment, error)

	// FindByDemand returns every adjustment of a demand, newest first
	FindByDemand(ctx context.Context, demandID int64) ([]Adjustment, error)

	// Create inserts a new adjustment. A second ACTIVE adjustment of the
	// same kind on a demand fails with ErrAdjustmentActive.
	Create(ctx context.Context, adjustment *Adjustment) error

	// Save updates an existing adjustment
	Save(ctx context.Context, adjustment *Adjustment) error
}

// AssessmentRepository resolves the assessment links of a demand to the
// entity that owns it
type AssessmentRepository interface {
	// FindWaterConnectionID returns the connection of a water tax assessment
	FindWaterConnectionID(ctx context.Context, assessmentID int64) (int64, error)

	// FindShopID returns the shop of a shop tax assessment
	FindShopID(ctx context.Context, assessmentID int64) (int64, error)
}

// PaymentRepository defines persistence for payment records
type PaymentRepository interface {
	// FindByID finds a payment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByGatewayOrderID finds the payment created for a gateway order
	FindByGatewayOrderID(ctx context.Context, orderID string) (*Payment, error)

	// FindByDemand lists payments of a demand
	FindByDemand(ctx context.Context, demandID int64, filter shared.Filter) ([]Payment, int64, error)

	// Create inserts a new payment
	Create(ctx context.Context, payment *Payment) error

	// SaveUnlessCompleted writes the payment's new state unless the stored
	// row is already completed, in which case it returns
	// ErrDuplicateGatewayEvent and writes nothing.
	SaveUnlessCompleted(ctx context.Context, payment *Payment) error
}

// AuditSink stores audit entries. Inside a transaction scope the sink writes
// through the same transaction as the change it describes.
type AuditSink interface {
	Record(ctx context.Context, entry *AuditEntry) error
}
