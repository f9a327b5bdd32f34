package ledger

import (
	"context"

	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// Metrics receives ledger business events. The telemetry package provides
// the OpenTelemetry implementation.
type Metrics interface {
	RecordAdjustmentApplied(ctx context.Context, kind ledger.AdjustmentKind, module ledger.ModuleType)
	RecordAdjustmentRevoked(ctx context.Context, kind ledger.AdjustmentKind)
	RecordPaymentDistributed(ctx context.Context, channel ledger.PaymentChannel, amount decimal.Decimal, direct bool)
	RecordPaymentRejected(ctx context.Context, channel ledger.PaymentChannel, code string)
	RecordIntegrityIssue(ctx context.Context, demandID int64, issues int)
}

// NoopMetrics discards every event
type NoopMetrics struct{}

func (NoopMetrics) RecordAdjustmentApplied(context.Context, ledger.AdjustmentKind, ledger.ModuleType) {
}

func (NoopMetrics) RecordAdjustmentRevoked(context.Context, ledger.AdjustmentKind) {}

func (NoopMetrics) RecordPaymentDistributed(context.Context, ledger.PaymentChannel, decimal.Decimal, bool) {
}

func (NoopMetrics) RecordPaymentRejected(context.Context, ledger.PaymentChannel, string) {}

func (NoopMetrics) RecordIntegrityIssue(context.Context, int64, int) {}

var _ Metrics = NoopMetrics{}
