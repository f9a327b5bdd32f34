package ledger

import (
	"context"

	"github.com/mtax/backend/internal/domain/ledger"
)

// TransactionScope provides transactional access to ledger repositories.
// Every repository handed to fn shares one database transaction, which is
// committed when fn returns nil and rolled back on any error.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the ledger repositories within a transaction.
//
// Locking notes:
//   - DemandRepo().FindByIDForUpdate takes the row lock that serializes every
//     adjustment and distribution on a demand. Take it before reading
//     adjustments or items.
//   - Items are only written through DemandRepo().SaveItems inside the same
//     transaction as the demand update.
type TransactionalRepositories interface {
	// DemandRepo returns the demand repository scoped to the current transaction
	DemandRepo() ledger.DemandRepository
	// AdjustmentRepo returns the adjustment repository scoped to the current transaction
	AdjustmentRepo() ledger.AdjustmentRepository
	// AssessmentRepo returns the assessment lookups scoped to the current transaction
	AssessmentRepo() ledger.AssessmentRepository
	// PaymentRepo returns the payment repository scoped to the current transaction
	PaymentRepo() ledger.PaymentRepository
	// AuditSink returns an audit sink writing through the current transaction
	AuditSink() ledger.AuditSink
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	demandRepo     ledger.DemandRepository
	adjustmentRepo ledger.AdjustmentRepository
	assessmentRepo ledger.AssessmentRepository
	paymentRepo    ledger.PaymentRepository
	auditSink      ledger.AuditSink
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	demandRepo ledger.DemandRepository,
	adjustmentRepo ledger.AdjustmentRepository,
	assessmentRepo ledger.AssessmentRepository,
	paymentRepo ledger.PaymentRepository,
	auditSink ledger.AuditSink,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		demandRepo:     demandRepo,
		adjustmentRepo: adjustmentRepo,
		assessmentRepo: assessmentRepo,
		paymentRepo:    paymentRepo,
		auditSink:      auditSink,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// DemandRepo returns the demand repository.
func (s *NoOpTransactionScope) DemandRepo() ledger.DemandRepository {
	return s.demandRepo
}

// AdjustmentRepo returns the adjustment repository.
func (s *NoOpTransactionScope) AdjustmentRepo() ledger.AdjustmentRepository {
	return s.adjustmentRepo
}

// AssessmentRepo returns the assessment repository.
func (s *NoOpTransactionScope) AssessmentRepo() ledger.AssessmentRepository {
	return s.assessmentRepo
}

// PaymentRepo returns the payment repository.
func (s *NoOpTransactionScope) PaymentRepo() ledger.PaymentRepository {
	return s.paymentRepo
}

// AuditSink returns the audit sink.
func (s *NoOpTransactionScope) AuditSink() ledger.AuditSink {
	return s.auditSink
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
