package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/mtax/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SignatureVerifier checks gateway callback signatures
type SignatureVerifier interface {
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
}

// PaymentService is the entry point for every payment path: counter, field
// collection and online gateway. Each path runs the overpayment guard itself
// before any payment record exists, and audits every rejection.
type PaymentService struct {
	scope          TransactionScope
	demands        ledger.DemandRepository
	payments       ledger.PaymentRepository
	audit          ledger.AuditSink
	distribution   *DistributionService
	verifier       SignatureVerifier
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	metrics        Metrics
	logger         *zap.Logger
}

// PaymentServiceConfig holds the dependencies of PaymentService
type PaymentServiceConfig struct {
	Scope        TransactionScope
	DemandRepo   ledger.DemandRepository
	PaymentRepo  ledger.PaymentRepository
	AuditSink    ledger.AuditSink
	Distribution *DistributionService
	Verifier     SignatureVerifier
	// Idempotency deduplicates gateway callbacks; optional
	Idempotency    shared.IdempotencyStore
	IdempotencyTTL time.Duration
	Metrics        Metrics
	Logger         *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(cfg PaymentServiceConfig) *PaymentService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	ttl := cfg.IdempotencyTTL
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyConfig().TTL
	}
	return &PaymentService{
		scope:          cfg.Scope,
		demands:        cfg.DemandRepo,
		payments:       cfg.PaymentRepo,
		audit:          cfg.AuditSink,
		distribution:   cfg.Distribution,
		verifier:       cfg.Verifier,
		idempotency:    cfg.Idempotency,
		idempotencyTTL: ttl,
		metrics:        metrics,
		logger:         logger,
	}
}

// RecordCounterPayment records a cashier payment and distributes it
func (s *PaymentService) RecordCounterPayment(ctx context.Context, in RecordPaymentInput) (*PaymentResult, error) {
	return s.record(ctx, ledger.PaymentChannelCounter, in)
}

// RecordFieldPayment records a door-to-door collection and distributes it
func (s *PaymentService) RecordFieldPayment(ctx context.Context, in RecordPaymentInput) (*PaymentResult, error) {
	return s.record(ctx, ledger.PaymentChannelField, in)
}

func (s *PaymentService) record(ctx context.Context, channel ledger.PaymentChannel, in RecordPaymentInput) (*PaymentResult, error) {
	mode := ledger.PaymentMode(strings.ToUpper(strings.TrimSpace(in.Mode)))
	if mode == "" {
		mode = ledger.PaymentModeCash
	}
	if !mode.IsValid() {
		return nil, ledger.NewValidationError("mode", "Unknown payment mode "+in.Mode)
	}

	demand, err := s.findDemand(ctx, in.DemandID)
	if err != nil {
		return nil, err
	}

	guard, err := s.guard(ctx, channel, demand, in.Amount, in.ActorID)
	if err != nil {
		return nil, err
	}

	var (
		payment *ledger.Payment
		dist    *ledger.DistributionResult
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		payment, err = ledger.NewPayment(demand.ID, in.Amount, channel, mode, in.ActorID)
		if err != nil {
			return err
		}
		payment.Remarks = in.Remarks

		dist, err = s.distribution.DistributeWithin(ctx, repos, demand.ID, payment.Amount)
		if err != nil {
			return err
		}
		if err := payment.Complete(""); err != nil {
			return err
		}
		if err := repos.PaymentRepo().Create(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		return repos.AuditSink().Record(ctx, paymentRecordedEntry(payment, dist, in.ActorID))
	})
	if err != nil {
		if errors.Is(err, ledger.ErrOverpayment) || errors.Is(err, ledger.ErrInvalidAmount) {
			// The balance moved between the guard and the row lock
			s.recordRejection(ctx, channel, demand, in.Amount, in.ActorID, err)
		}
		return nil, err
	}

	s.metrics.RecordPaymentDistributed(ctx, channel, dist.PaymentAmount, dist.DirectDemandPayment)
	return &PaymentResult{
		Payment:      ToPaymentDTO(payment),
		Distribution: dist,
		Warning:      guard.Warning,
		Integrity:    s.distribution.checkAfterDistribution(ctx, demand.ID),
	}, nil
}

// CreateGatewayOrder guards the amount and records a pending online payment.
// The returned order id is what the gateway echoes back in its callback.
func (s *PaymentService) CreateGatewayOrder(ctx context.Context, in CreateGatewayOrderInput) (*PaymentDTO, error) {
	demand, err := s.findDemand(ctx, in.DemandID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard(ctx, ledger.PaymentChannelOnline, demand, in.Amount, in.ActorID); err != nil {
		return nil, err
	}

	payment, err := ledger.NewPayment(demand.ID, in.Amount, ledger.PaymentChannelOnline, ledger.PaymentModeOnline, in.ActorID)
	if err != nil {
		return nil, err
	}
	payment.GatewayOrderID = "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create gateway payment: %w", err)
	}

	s.logger.Info("Gateway order created",
		zap.Int64("demand_id", demand.ID),
		zap.String("order_id", payment.GatewayOrderID),
		zap.String("amount", payment.Amount.StringFixed(2)))
	dto := ToPaymentDTO(payment)
	return &dto, nil
}

// HandleGatewayCallback completes an online payment once its signature
// verifies, then distributes it. Replayed callbacks return the stored
// payment without distributing twice.
func (s *PaymentService) HandleGatewayCallback(ctx context.Context, in GatewayCallbackInput) (*PaymentResult, error) {
	if in.OrderID == "" || in.PaymentID == "" || in.Signature == "" {
		return nil, ledger.NewValidationError("signature", "order_id, payment_id and signature are required")
	}

	if s.verifier == nil || !s.verifier.VerifyPaymentSignature(in.OrderID, in.PaymentID, in.Signature) {
		entry := ledger.NewAuditEntry(ledger.AuditActionSignatureRejected, ledger.AuditEntityPayment, in.OrderID, "gateway",
			"Gateway callback signature verification failed").
			WithMetadata(map[string]any{"order_id": in.OrderID, "payment_id": in.PaymentID})
		s.recordAudit(ctx, entry)
		s.logger.Warn("Gateway signature rejected",
			zap.String("order_id", in.OrderID),
			zap.String("payment_id", in.PaymentID))
		return nil, ledger.ErrInvalidSignature
	}

	payment, err := s.payments.FindByGatewayOrderID(ctx, in.OrderID)
	if errors.Is(err, shared.ErrNotFound) || (err == nil && payment == nil) {
		return nil, ledger.ErrPaymentNotFound.Withf("No payment for gateway order %s", in.OrderID)
	}
	if err != nil {
		return nil, fmt.Errorf("load gateway payment: %w", err)
	}
	if payment.Status == ledger.PaymentStatusCompleted {
		return &PaymentResult{Payment: ToPaymentDTO(payment), AlreadyProcessed: true}, nil
	}

	// One key per order: the gateway may deliver the same order under
	// different payment ids.
	key := "gateway:order:" + in.OrderID
	if s.idempotency != nil {
		fresh, err := s.idempotency.MarkProcessed(ctx, key, s.idempotencyTTL)
		if err != nil {
			s.logger.Warn("Idempotency store unavailable, relying on conditional completion",
				zap.String("key", key), zap.Error(err))
		} else if !fresh {
			s.logger.Info("Gateway callback already processed",
				zap.String("order_id", in.OrderID),
				zap.String("payment_id", in.PaymentID))
			return &PaymentResult{Payment: ToPaymentDTO(payment), AlreadyProcessed: true}, nil
		}
	}

	demand, err := s.findDemand(ctx, payment.DemandID)
	if err != nil {
		return nil, err
	}
	guard, err := s.guard(ctx, ledger.PaymentChannelOnline, demand, payment.Amount, "gateway")
	if err != nil {
		if errors.Is(s.failPayment(ctx, payment, err), ledger.ErrDuplicateGatewayEvent) {
			return s.completedElsewhere(ctx, in)
		}
		s.releaseIdempotencyKey(ctx, key)
		return nil, err
	}

	var dist *ledger.DistributionResult
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		dist, err = s.distribution.DistributeWithin(ctx, repos, payment.DemandID, payment.Amount)
		if err != nil {
			return err
		}
		if err := payment.Complete(in.PaymentID); err != nil {
			return err
		}
		// Runs under the demand lock; a concurrent callback that completed
		// the order first makes this a no-op and rolls the credit back.
		if err := repos.PaymentRepo().SaveUnlessCompleted(ctx, payment); err != nil {
			if errors.Is(err, ledger.ErrDuplicateGatewayEvent) {
				return err
			}
			return fmt.Errorf("save payment: %w", err)
		}
		return repos.AuditSink().Record(ctx, paymentRecordedEntry(payment, dist, "gateway"))
	})
	if errors.Is(err, ledger.ErrDuplicateGatewayEvent) {
		return s.completedElsewhere(ctx, in)
	}
	if err != nil {
		if errors.Is(err, ledger.ErrOverpayment) {
			s.recordRejection(ctx, ledger.PaymentChannelOnline, demand, payment.Amount, "gateway", err)
			if errors.Is(s.failPayment(ctx, payment, err), ledger.ErrDuplicateGatewayEvent) {
				return s.completedElsewhere(ctx, in)
			}
		}
		s.releaseIdempotencyKey(ctx, key)
		return nil, err
	}

	s.metrics.RecordPaymentDistributed(ctx, ledger.PaymentChannelOnline, dist.PaymentAmount, dist.DirectDemandPayment)
	return &PaymentResult{
		Payment:      ToPaymentDTO(payment),
		Distribution: dist,
		Warning:      guard.Warning,
		Integrity:    s.distribution.checkAfterDistribution(ctx, payment.DemandID),
	}, nil
}

// ListPayments returns the payments recorded against a demand
func (s *PaymentService) ListPayments(ctx context.Context, demandID int64, filter shared.Filter) (shared.Paginated[PaymentDTO], error) {
	filter = filter.Normalize()
	payments, total, err := s.payments.FindByDemand(ctx, demandID, filter)
	if err != nil {
		return shared.Paginated[PaymentDTO]{}, fmt.Errorf("list payments: %w", err)
	}
	items := make([]PaymentDTO, 0, len(payments))
	for i := range payments {
		items = append(items, ToPaymentDTO(&payments[i]))
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// guard runs the overpayment guard and audits a rejection
func (s *PaymentService) guard(ctx context.Context, channel ledger.PaymentChannel, demand *ledger.Demand, amount decimal.Decimal, actorID string) (ledger.GuardResult, error) {
	res := ledger.GuardPayment(amount, demand.BalanceAmount, demand.Label())
	if res.IsValid {
		return res, nil
	}
	s.recordRejection(ctx, channel, demand, amount, actorID, res.Err())
	return res, res.Err()
}

// recordRejection audits a blocked payment attempt. Audit failures are
// logged; the rejection itself is returned to the caller regardless.
func (s *PaymentService) recordRejection(ctx context.Context, channel ledger.PaymentChannel, demand *ledger.Demand, amount decimal.Decimal, actorID string, cause error) {
	code := ""
	if de, ok := shared.AsDomainError(cause); ok {
		code = de.Code
	}
	s.metrics.RecordPaymentRejected(ctx, channel, code)
	s.logger.Warn("Payment rejected",
		zap.String("channel", string(channel)),
		zap.Int64("demand_id", demand.ID),
		zap.String("attempted_amount", amount.StringFixed(2)),
		zap.String("balance_amount", demand.BalanceAmount.StringFixed(2)),
		zap.String("actor_id", actorID),
		zap.String("code", code))

	entry := ledger.NewAuditEntry(ledger.AuditActionPaymentRejected, ledger.AuditEntityDemand,
		strconv.FormatInt(demand.ID, 10), actorID, cause.Error()).
		WithMetadata(map[string]any{
			"channel":          string(channel),
			"code":             code,
			"attempted_amount": amount.StringFixed(2),
			"balance_amount":   demand.BalanceAmount.StringFixed(2),
		})
	s.recordAudit(ctx, entry)
}

func (s *PaymentService) recordAudit(ctx context.Context, entry *ledger.AuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to record audit entry",
			zap.String("action", entry.Action.String()),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err))
	}
}

// failPayment marks a gateway payment failed. It returns
// ErrDuplicateGatewayEvent when another callback completed it meanwhile.
func (s *PaymentService) failPayment(ctx context.Context, payment *ledger.Payment, cause error) error {
	payment.Fail(cause.Error())
	err := s.payments.SaveUnlessCompleted(ctx, payment)
	if err != nil && !errors.Is(err, ledger.ErrDuplicateGatewayEvent) {
		s.logger.Error("Failed to mark payment failed",
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err))
	}
	return err
}

// completedElsewhere answers a callback that lost the race for its order
// with the stored payment.
func (s *PaymentService) completedElsewhere(ctx context.Context, in GatewayCallbackInput) (*PaymentResult, error) {
	s.logger.Info("Gateway order settled by a concurrent callback",
		zap.String("order_id", in.OrderID),
		zap.String("payment_id", in.PaymentID))
	stored, err := s.payments.FindByGatewayOrderID(ctx, in.OrderID)
	if err != nil {
		return nil, fmt.Errorf("reload gateway payment: %w", err)
	}
	return &PaymentResult{Payment: ToPaymentDTO(stored), AlreadyProcessed: true}, nil
}

// releaseIdempotencyKey lets the gateway retry a callback that failed
func (s *PaymentService) releaseIdempotencyKey(ctx context.Context, key string) {
	if s.idempotency == nil {
		return
	}
	if err := s.idempotency.Release(ctx, key); err != nil {
		s.logger.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(err))
	}
}

func (s *PaymentService) findDemand(ctx context.Context, id int64) (*ledger.Demand, error) {
	if id <= 0 {
		return nil, ledger.NewValidationError("demand_id", "Demand ID is required")
	}
	demand, err := s.demands.FindByID(ctx, id)
	return demandOrNotFound(demand, err, id)
}

func paymentRecordedEntry(p *ledger.Payment, dist *ledger.DistributionResult, actorID string) *ledger.AuditEntry {
	return ledger.NewAuditEntry(ledger.AuditActionPaymentRecorded, ledger.AuditEntityPayment, p.ID.String(), actorID,
		fmt.Sprintf("Payment %s of %s recorded", p.ReceiptNumber, p.Amount.StringFixed(2))).
		WithDiff(nil, dist).
		WithMetadata(map[string]any{
			"demand_id":      p.DemandID,
			"channel":        string(p.Channel),
			"mode":           string(p.Mode),
			"receipt_number": p.ReceiptNumber,
		})
}
