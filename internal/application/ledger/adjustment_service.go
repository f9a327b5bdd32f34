package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/mtax/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AdjustmentService applies and revokes discounts and penalty waivers.
// Each operation runs in one transaction that holds the demand row lock, so
// two concurrent requests of the same kind on a demand cannot both succeed.
type AdjustmentService struct {
	scope       TransactionScope
	adjustments ledger.AdjustmentRepository
	metrics     Metrics
	logger      *zap.Logger
}

// AdjustmentServiceConfig holds the dependencies of AdjustmentService
type AdjustmentServiceConfig struct {
	Scope          TransactionScope
	AdjustmentRepo ledger.AdjustmentRepository
	Metrics        Metrics
	Logger         *zap.Logger
}

// NewAdjustmentService creates a new AdjustmentService
func NewAdjustmentService(cfg AdjustmentServiceConfig) *AdjustmentService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &AdjustmentService{
		scope:       cfg.Scope,
		adjustments: cfg.AdjustmentRepo,
		metrics:     metrics,
		logger:      logger,
	}
}

// ApplyDiscount applies a discount to the principal of a demand
func (s *AdjustmentService) ApplyDiscount(ctx context.Context, in ApplyAdjustmentInput) (*ApplyAdjustmentResult, error) {
	return s.apply(ctx, ledger.AdjustmentKindDiscount, in)
}

// ApplyPenaltyWaiver waives part or all of a demand's penalty and interest
func (s *AdjustmentService) ApplyPenaltyWaiver(ctx context.Context, in ApplyAdjustmentInput) (*ApplyAdjustmentResult, error) {
	return s.apply(ctx, ledger.AdjustmentKindPenaltyWaiver, in)
}

func (s *AdjustmentService) apply(ctx context.Context, kind ledger.AdjustmentKind, in ApplyAdjustmentInput) (*ApplyAdjustmentResult, error) {
	module := ledger.ModuleType(strings.ToUpper(strings.TrimSpace(in.ModuleType)))
	typ := ledger.AdjustmentType(strings.ToUpper(strings.TrimSpace(in.Type)))

	if in.DemandID <= 0 {
		return nil, ledger.NewValidationError("demand_id", "Demand ID is required")
	}
	if in.EntityID <= 0 {
		return nil, ledger.NewValidationError("entity_id", "Entity ID is required")
	}
	if err := ledger.ValidateAdjustmentFields(kind, module, typ, in.Reason, in.DocumentURL); err != nil {
		return nil, err
	}

	var result *ApplyAdjustmentResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		demand, err := lockDemand(ctx, repos.DemandRepo(), in.DemandID)
		if err != nil {
			return err
		}

		if err := ledger.CheckModuleCompatibility(module, demand); err != nil {
			return err
		}
		resolver := ledger.NewOwnershipResolver(repos.AssessmentRepo())
		if err := resolver.VerifyOwner(ctx, module, demand, in.EntityID); err != nil {
			return err
		}
		if err := demand.CheckAdjustable(kind); err != nil {
			return err
		}

		active, err := repos.AdjustmentRepo().FindActiveByDemand(ctx, demand.ID)
		if err != nil {
			return fmt.Errorf("load active adjustments: %w", err)
		}
		for _, a := range active {
			if a.Kind == kind {
				return ledger.ErrAdjustmentActive.
					Withf("%s #%d is already active on demand %s; revoke it first", kind.Label(), a.ID, demand.Label()).
					WithDetails(map[string]any{"adjustment_id": a.ID})
			}
		}

		amount, err := demand.AdjustmentAmount(kind, typ, in.Value)
		if err != nil {
			return err
		}

		before := demand.Snapshot()
		breakdown, err := demand.ApplyAdjustments(ledger.ActiveAmountsFrom(active).With(kind, amount))
		if err != nil {
			return err
		}

		adjustment, err := ledger.NewAdjustment(ledger.AdjustmentSpec{
			Kind:        kind,
			ModuleType:  module,
			EntityID:    in.EntityID,
			DemandID:    demand.ID,
			Type:        typ,
			Value:       in.Value,
			Amount:      amount,
			Reason:      in.Reason,
			DocumentURL: in.DocumentURL,
			ApprovedBy:  in.ActorID,
		})
		if err != nil {
			return err
		}

		if err := repos.DemandRepo().SaveWithLock(ctx, demand); err != nil {
			return fmt.Errorf("save demand: %w", err)
		}
		if err := repos.AdjustmentRepo().Create(ctx, adjustment); err != nil {
			return err
		}

		action := ledger.AuditActionDiscountApplied
		if kind == ledger.AdjustmentKindPenaltyWaiver {
			action = ledger.AuditActionWaiverApplied
		}
		entry := ledger.NewAuditEntry(action, ledger.AuditEntityDemand, strconv.FormatInt(demand.ID, 10), in.ActorID,
			fmt.Sprintf("%s of %s applied to demand %s", kind.Label(), amount.StringFixed(2), demand.Label())).
			WithDiff(before, demand.Snapshot()).
			WithMetadata(adjustmentMetadata(adjustment))
		if err := repos.AuditSink().Record(ctx, entry); err != nil {
			return fmt.Errorf("record audit entry: %w", err)
		}

		result = &ApplyAdjustmentResult{
			Adjustment: ToAdjustmentDTO(adjustment),
			Demand:     demand.Snapshot(),
			Breakdown:  breakdown,
		}
		return nil
	})
	if err != nil {
		s.logRejection("Adjustment rejected", kind, in, err)
		return nil, err
	}

	s.metrics.RecordAdjustmentApplied(ctx, kind, module)
	s.logger.Info("Adjustment applied",
		zap.String("kind", kind.String()),
		zap.Int64("demand_id", in.DemandID),
		zap.Int64("adjustment_id", result.Adjustment.ID),
		zap.String("amount", result.Adjustment.Amount.StringFixed(2)),
		zap.String("final_amount", result.Breakdown.FinalAmount.StringFixed(2)),
		zap.String("actor_id", in.ActorID))
	return result, nil
}

// RevokeAdjustment marks an active adjustment REVOKED and recomputes the
// demand from whatever adjustment of the other kind remains active
func (s *AdjustmentService) RevokeAdjustment(ctx context.Context, in RevokeAdjustmentInput) (*ApplyAdjustmentResult, error) {
	if in.AdjustmentID <= 0 {
		return nil, ledger.NewValidationError("adjustment_id", "Adjustment ID is required")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, ledger.NewValidationError("reason", "Revoke reason is required")
	}

	var result *ApplyAdjustmentResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		adjustment, err := findAdjustment(ctx, repos.AdjustmentRepo(), in.AdjustmentID)
		if err != nil {
			return err
		}
		demand, err := lockDemand(ctx, repos.DemandRepo(), adjustment.DemandID)
		if err != nil {
			return err
		}
		// Re-read under the demand lock so a concurrent revoke is seen
		adjustment, err = findAdjustment(ctx, repos.AdjustmentRepo(), in.AdjustmentID)
		if err != nil {
			return err
		}
		if err := adjustment.Revoke(in.ActorID, in.Reason); err != nil {
			return err
		}

		active, err := repos.AdjustmentRepo().FindActiveByDemand(ctx, demand.ID)
		if err != nil {
			return fmt.Errorf("load active adjustments: %w", err)
		}
		remaining := make([]ledger.Adjustment, 0, len(active))
		for _, a := range active {
			if a.ID != adjustment.ID {
				remaining = append(remaining, a)
			}
		}

		before := demand.Snapshot()
		// the revoked kind is zeroed explicitly so a revoked waiver does not
		// fall back to the amount still recorded on the demand
		breakdown, err := demand.ApplyAdjustments(ledger.ActiveAmountsFrom(remaining).With(adjustment.Kind, decimal.Zero))
		if err != nil {
			return err
		}

		if err := repos.AdjustmentRepo().Save(ctx, adjustment); err != nil {
			return fmt.Errorf("save adjustment: %w", err)
		}
		if err := repos.DemandRepo().SaveWithLock(ctx, demand); err != nil {
			return fmt.Errorf("save demand: %w", err)
		}

		entry := ledger.NewAuditEntry(ledger.AuditActionAdjustmentRevoked, ledger.AuditEntityDemand,
			strconv.FormatInt(demand.ID, 10), in.ActorID,
			fmt.Sprintf("%s #%d revoked on demand %s", adjustment.Kind.Label(), adjustment.ID, demand.Label())).
			WithDiff(before, demand.Snapshot()).
			WithMetadata(adjustmentMetadata(adjustment))
		if err := repos.AuditSink().Record(ctx, entry); err != nil {
			return fmt.Errorf("record audit entry: %w", err)
		}

		result = &ApplyAdjustmentResult{
			Adjustment: ToAdjustmentDTO(adjustment),
			Demand:     demand.Snapshot(),
			Breakdown:  breakdown,
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Adjustment revoke rejected",
			zap.Int64("adjustment_id", in.AdjustmentID),
			zap.String("actor_id", in.ActorID),
			zap.Error(err))
		return nil, err
	}

	s.metrics.RecordAdjustmentRevoked(ctx, ledger.AdjustmentKind(result.Adjustment.Kind))
	s.logger.Info("Adjustment revoked",
		zap.Int64("adjustment_id", in.AdjustmentID),
		zap.Int64("demand_id", result.Adjustment.DemandID),
		zap.String("actor_id", in.ActorID))
	return result, nil
}

// ListAdjustments returns every adjustment of a demand, newest first
func (s *AdjustmentService) ListAdjustments(ctx context.Context, demandID int64) ([]AdjustmentDTO, error) {
	adjustments, err := s.adjustments.FindByDemand(ctx, demandID)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	out := make([]AdjustmentDTO, 0, len(adjustments))
	for i := range adjustments {
		out = append(out, ToAdjustmentDTO(&adjustments[i]))
	}
	return out, nil
}

func (s *AdjustmentService) logRejection(msg string, kind ledger.AdjustmentKind, in ApplyAdjustmentInput, err error) {
	fields := []zap.Field{
		zap.String("kind", kind.String()),
		zap.Int64("demand_id", in.DemandID),
		zap.Int64("entity_id", in.EntityID),
		zap.String("module_type", in.ModuleType),
		zap.String("actor_id", in.ActorID),
		zap.Error(err),
	}
	if _, ok := shared.AsDomainError(err); ok {
		s.logger.Info(msg, fields...)
		return
	}
	s.logger.Error(msg, fields...)
}

func adjustmentMetadata(a *ledger.Adjustment) map[string]any {
	return map[string]any{
		"adjustment_id": a.ID,
		"kind":          a.Kind.String(),
		"module_type":   a.ModuleType.String(),
		"entity_id":     a.EntityID,
		"type":          string(a.Type),
		"value":         a.Value.String(),
		"amount":        a.Amount.StringFixed(2),
		"reason":        a.Reason,
		"document_url":  a.DocumentURL,
		"status":        string(a.Status),
	}
}

// lockDemand loads the demand under a row lock, mapping a missing row to DEMAND_NOT_FOUND
func lockDemand(ctx context.Context, repo ledger.DemandRepository, id int64) (*ledger.Demand, error) {
	demand, err := repo.FindByIDForUpdate(ctx, id)
	return demandOrNotFound(demand, err, id)
}

func demandOrNotFound(demand *ledger.Demand, err error, id int64) (*ledger.Demand, error) {
	if errors.Is(err, shared.ErrNotFound) || (err == nil && demand == nil) {
		return nil, ledger.ErrDemandNotFound.Withf("Demand %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load demand %d: %w", id, err)
	}
	return demand, nil
}

func findAdjustment(ctx context.Context, repo ledger.AdjustmentRepository, id int64) (*ledger.Adjustment, error) {
	a, err := repo.FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) || (err == nil && a == nil) {
		return nil, ledger.ErrAdjustmentNotFound.Withf("Adjustment %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load adjustment %d: %w", id, err)
	}
	return a, nil
}
