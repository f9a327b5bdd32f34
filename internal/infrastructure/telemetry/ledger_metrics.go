package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when LedgerMetrics is built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Attribute keys shared by the ledger instruments
var (
	AttrKind    = attribute.Key("ledger.adjustment.kind")
	AttrModule  = attribute.Key("ledger.module")
	AttrChannel = attribute.Key("ledger.payment.channel")
	AttrPath    = attribute.Key("ledger.distribution.path")
	AttrCode    = attribute.Key("ledger.error.code")
)

// LedgerMetrics records adjustment and payment events as OpenTelemetry
// instruments.
type LedgerMetrics struct {
	logger *zap.Logger

	adjustmentsApplied  metric.Int64Counter
	adjustmentsRevoked  metric.Int64Counter
	paymentsDistributed metric.Int64Counter
	paymentAmount       metric.Float64Counter
	paymentsRejected    metric.Int64Counter
	integrityIssues     metric.Int64Histogram
}

// NewLedgerMetrics creates the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter, logger *zap.Logger) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &LedgerMetrics{logger: logger.Named("ledger.metrics")}

	var err error
	if m.adjustmentsApplied, err = meter.Int64Counter("ledger.adjustments.applied",
		metric.WithDescription("Discounts and penalty waivers applied to demands"),
		metric.WithUnit("{adjustment}")); err != nil {
		return nil, fmt.Errorf("create adjustments applied counter: %w", err)
	}
	if m.adjustmentsRevoked, err = meter.Int64Counter("ledger.adjustments.revoked",
		metric.WithDescription("Adjustments revoked"),
		metric.WithUnit("{adjustment}")); err != nil {
		return nil, fmt.Errorf("create adjustments revoked counter: %w", err)
	}
	if m.paymentsDistributed, err = meter.Int64Counter("ledger.payments.distributed",
		metric.WithDescription("Payments applied to demands"),
		metric.WithUnit("{payment}")); err != nil {
		return nil, fmt.Errorf("create payments distributed counter: %w", err)
	}
	if m.paymentAmount, err = meter.Float64Counter("ledger.payments.amount",
		metric.WithDescription("Total amount applied to demands"),
		metric.WithUnit("{currency}")); err != nil {
		return nil, fmt.Errorf("create payment amount counter: %w", err)
	}
	if m.paymentsRejected, err = meter.Int64Counter("ledger.payments.rejected",
		metric.WithDescription("Payments refused before any ledger change"),
		metric.WithUnit("{payment}")); err != nil {
		return nil, fmt.Errorf("create payments rejected counter: %w", err)
	}
	if m.integrityIssues, err = meter.Int64Histogram("ledger.integrity.issues",
		metric.WithDescription("Issues found per failed pre-payment integrity check"),
		metric.WithUnit("{issue}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 5, 10)); err != nil {
		return nil, fmt.Errorf("create integrity issues histogram: %w", err)
	}
	return m, nil
}

func (m *LedgerMetrics) RecordAdjustmentApplied(ctx context.Context, kind ledger.AdjustmentKind, module ledger.ModuleType) {
	m.adjustmentsApplied.Add(ctx, 1, metric.WithAttributes(
		AttrKind.String(kind.String()),
		AttrModule.String(module.String()),
	))
}

func (m *LedgerMetrics) RecordAdjustmentRevoked(ctx context.Context, kind ledger.AdjustmentKind) {
	m.adjustmentsRevoked.Add(ctx, 1, metric.WithAttributes(AttrKind.String(kind.String())))
}

// RecordPaymentDistributed counts the payment and adds its amount. direct marks
// demands without items, where the whole amount lands on the demand itself.
func (m *LedgerMetrics) RecordPaymentDistributed(ctx context.Context, channel ledger.PaymentChannel, amount decimal.Decimal, direct bool) {
	path := "itemized"
	if direct {
		path = "direct"
	}
	attrs := metric.WithAttributes(AttrChannel.String(string(channel)), AttrPath.String(path))
	m.paymentsDistributed.Add(ctx, 1, attrs)
	m.paymentAmount.Add(ctx, amount.InexactFloat64(), attrs)
}

func (m *LedgerMetrics) RecordPaymentRejected(ctx context.Context, channel ledger.PaymentChannel, code string) {
	m.paymentsRejected.Add(ctx, 1, metric.WithAttributes(
		AttrChannel.String(string(channel)),
		AttrCode.String(code),
	))
}

// RecordIntegrityIssue records the issue count of a failed check. The demand
// id goes to the log only; it is too high-cardinality for an attribute.
func (m *LedgerMetrics) RecordIntegrityIssue(ctx context.Context, demandID int64, issues int) {
	if issues <= 0 {
		return
	}
	m.integrityIssues.Record(ctx, int64(issues))
	m.logger.Debug("Integrity issues recorded",
		zap.Int64("demand_id", demandID),
		zap.Int("issues", issues))
}
