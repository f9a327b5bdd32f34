package persistence

import (
	"context"

	appledger "github.com/mtax/backend/internal/application/ledger"
	"github.com/mtax/backend/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// DemandRepo returns the demand repository scoped to the current transaction.
func (r *gormTransactionalRepositories) DemandRepo() ledger.DemandRepository {
	return NewGormDemandRepository(r.tx)
}

// AdjustmentRepo returns the adjustment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) AdjustmentRepo() ledger.AdjustmentRepository {
	return NewGormAdjustmentRepository(r.tx)
}

// AssessmentRepo returns the assessment lookups scoped to the current transaction.
func (r *gormTransactionalRepositories) AssessmentRepo() ledger.AssessmentRepository {
	return NewGormAssessmentRepository(r.tx)
}

// PaymentRepo returns the payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PaymentRepo() ledger.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// AuditSink returns an audit sink writing through the current transaction.
func (r *gormTransactionalRepositories) AuditSink() ledger.AuditSink {
	return NewGormAuditSink(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appledger.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appledger.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
