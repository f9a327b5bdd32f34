package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DistributionService allocates payments onto demands and audits the result
type DistributionService struct {
	scope   TransactionScope
	demands ledger.DemandRepository
	audit   ledger.AuditSink
	metrics Metrics
	logger  *zap.Logger

	skipIntegrityCheck bool
}

// DistributionServiceConfig holds the dependencies of DistributionService
type DistributionServiceConfig struct {
	Scope TransactionScope
	// DemandRepo and AuditSink serve the read-only operations, which run
	// outside any transaction
	DemandRepo ledger.DemandRepository
	AuditSink  ledger.AuditSink
	Metrics    Metrics
	Logger     *zap.Logger
	// SkipIntegrityCheck turns off the check after each distribution.
	// ValidateDistributionIntegrity stays available on demand.
	SkipIntegrityCheck bool
}

// NewDistributionService creates a new DistributionService
func NewDistributionService(cfg DistributionServiceConfig) *DistributionService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &DistributionService{
		scope:   cfg.Scope,
		demands: cfg.DemandRepo,
		audit:   cfg.AuditSink,
		metrics: metrics,
		logger:  logger,

		skipIntegrityCheck: cfg.SkipIntegrityCheck,
	}
}

// DistributePayment allocates an amount onto a demand in its own transaction,
// then runs the integrity check. A failed check is logged and audited but
// never undoes the distribution.
func (s *DistributionService) DistributePayment(ctx context.Context, demandID int64, amount decimal.Decimal) (*ledger.DistributionResult, error) {
	var result *ledger.DistributionResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		result, err = s.DistributeWithin(ctx, repos, demandID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.checkAfterDistribution(ctx, demandID)
	return result, nil
}

// DistributeWithin allocates an amount using the caller's transaction. The
// demand row is locked before its balance is read.
func (s *DistributionService) DistributeWithin(ctx context.Context, repos TransactionalRepositories, demandID int64, amount decimal.Decimal) (*ledger.DistributionResult, error) {
	demand, err := lockDemand(ctx, repos.DemandRepo(), demandID)
	if err != nil {
		return nil, err
	}

	result, changed, err := ledger.Distribute(demand, amount)
	if err != nil {
		return nil, err
	}

	if len(changed) > 0 {
		if err := repos.DemandRepo().SaveItems(ctx, changed); err != nil {
			return nil, fmt.Errorf("save demand items: %w", err)
		}
	}
	if err := repos.DemandRepo().SaveWithLock(ctx, demand); err != nil {
		return nil, fmt.Errorf("save demand: %w", err)
	}

	s.logger.Info("Payment distributed",
		zap.Int64("demand_id", demandID),
		zap.String("amount", result.PaymentAmount.StringFixed(2)),
		zap.Bool("direct", result.DirectDemandPayment),
		zap.String("property_tax_paid", result.PropertyTaxPaid.StringFixed(2)),
		zap.String("water_tax_paid", result.WaterTaxPaid.StringFixed(2)),
		zap.String("balance", result.BalanceAmount.StringFixed(2)),
		zap.String("status", result.Status.String()))
	return result, nil
}

// ValidateDistributionIntegrity recomputes a demand's totals from its items.
// It never modifies the demand. Mismatches are logged and sent to the audit
// sink for back-office review.
func (s *DistributionService) ValidateDistributionIntegrity(ctx context.Context, demandID int64) (*ledger.IntegrityReport, error) {
	demand, err := s.demands.FindByID(ctx, demandID)
	demand, err = demandOrNotFound(demand, err, demandID)
	if err != nil {
		return nil, err
	}

	report := ledger.CheckIntegrity(demand)
	if report.IsValid {
		return report, nil
	}

	warning := report.Warning()
	s.metrics.RecordIntegrityIssue(ctx, demandID, len(report.Issues))
	s.logger.Warn("Payment distribution integrity check failed",
		zap.Int64("demand_id", demandID),
		zap.Strings("issues", report.Issues),
		zap.Error(warning))

	entry := ledger.NewAuditEntry(ledger.AuditActionIntegrityWarning, ledger.AuditEntityDemand,
		strconv.FormatInt(demandID, 10), "system",
		"Integrity check failed: "+strings.Join(report.Issues, "; ")).
		WithDiff(nil, demand.Snapshot()).
		WithMetadata(map[string]any{"issues": report.Issues})
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to record integrity warning",
			zap.Int64("demand_id", demandID),
			zap.Error(err))
	}
	return report, nil
}

// GetDistributionSummary returns the item-level breakdown of a demand
func (s *DistributionService) GetDistributionSummary(ctx context.Context, demandID int64) (*ledger.DistributionSummary, error) {
	demand, err := s.demands.FindByID(ctx, demandID)
	demand, err = demandOrNotFound(demand, err, demandID)
	if err != nil {
		return nil, err
	}
	return ledger.Summarize(demand), nil
}

// checkAfterDistribution runs the integrity check without letting it fail the caller
func (s *DistributionService) checkAfterDistribution(ctx context.Context, demandID int64) *ledger.IntegrityReport {
	if s.skipIntegrityCheck {
		return nil
	}
	report, err := s.ValidateDistributionIntegrity(ctx, demandID)
	if err != nil {
		s.logger.Error("Integrity check could not run",
			zap.Int64("demand_id", demandID),
			zap.Error(err))
		return nil
	}
	return report
}
