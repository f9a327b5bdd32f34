package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/mtax/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	*testRepos
	verifier    *MockSignatureVerifier
	idempotency *MemoryIdempotencyStore
	metrics     *MockMetrics
	service     *PaymentService
}

func newPaymentFixture() *paymentFixture {
	r := newTestRepos()
	f := &paymentFixture{
		testRepos:   r,
		verifier:    new(MockSignatureVerifier),
		idempotency: NewMemoryIdempotencyStore(),
		metrics:     new(MockMetrics),
	}
	f.service = NewPaymentService(PaymentServiceConfig{
		Scope:       r.scope,
		DemandRepo:  r.demands,
		PaymentRepo: r.payments,
		AuditSink:   r.audit,
		Distribution: NewDistributionService(DistributionServiceConfig{
			Scope:      r.scope,
			DemandRepo: r.demands,
			AuditSink:  r.audit,
		}),
		Verifier:       f.verifier,
		Idempotency:    f.idempotency,
		IdempotencyTTL: time.Hour,
		Metrics:        f.metrics,
	})
	return f
}

// expectDistribution wires the calls of a successful distribution on demand
func (f *paymentFixture) expectDistribution(demand *ledger.Demand) {
	f.demands.On("FindByID", mock.Anything, demand.ID).Return(demand, nil)
	f.demands.On("FindByIDForUpdate", mock.Anything, demand.ID).Return(demand, nil)
	f.demands.On("SaveWithLock", mock.Anything, demand).Return(nil)
	if demand.HasItems() {
		f.demands.On("SaveItems", mock.Anything, mock.Anything).Return(nil)
	}
}

func TestPaymentService_RecordCounterPayment(t *testing.T) {
	t.Run("records and distributes a payment", func(t *testing.T) {
		f := newPaymentFixture()
		demand := newHouseTaxDemand()
		f.expectDistribution(demand)
		f.payments.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Payment")).Return(nil)
		f.metrics.On("RecordPaymentDistributed", mock.Anything, ledger.PaymentChannelCounter, decEq("400"), true).Return()

		result, err := f.service.RecordCounterPayment(context.Background(), RecordPaymentInput{
			DemandID: 1,
			Amount:   dec("400"),
			Mode:     "cash",
			ActorID:  "cashier-1",
		})
		require.NoError(t, err)

		assert.Equal(t, "completed", result.Payment.Status)
		assert.Equal(t, "COUNTER", result.Payment.Channel)
		assert.Equal(t, "CASH", result.Payment.Mode)
		assert.Regexp(t, `^CNT-\d{8}-[0-9A-F]{8}$`, result.Payment.ReceiptNumber)
		assert.NotNil(t, result.Payment.PaidAt)
		assert.Empty(t, result.Warning)
		require.NotNil(t, result.Integrity)
		assert.True(t, result.Integrity.IsValid)
		assert.True(t, dec("600").Equal(demand.BalanceAmount))
		assert.Equal(t, ledger.DemandStatusPartiallyPaid, demand.Status)
		assert.Len(t, f.audit.ByAction(ledger.AuditActionPaymentRecorded), 1)
		f.metrics.AssertExpectations(t)
	})

	t.Run("full settlement carries a warning", func(t *testing.T) {
		f := newPaymentFixture()
		demand := newHouseTaxDemand()
		f.expectDistribution(demand)
		f.payments.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.metrics.On("RecordPaymentDistributed", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

		result, err := f.service.RecordCounterPayment(context.Background(), RecordPaymentInput{
			DemandID: 1, Amount: dec("1000"), ActorID: "cashier-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "This payment will fully settle DMD-2026-0001", result.Warning)
		assert.Equal(t, ledger.DemandStatusPaid, demand.Status)
	})

	t.Run("overpayment is rejected and audited without mutation", func(t *testing.T) {
		f := newPaymentFixture()
		demand := newSettledShopDemand()
		before := demand.Snapshot()
		f.demands.On("FindByID", mock.Anything, int64(2)).Return(demand, nil)
		f.metrics.On("RecordPaymentRejected", mock.Anything, ledger.PaymentChannelCounter, ledger.CodeOverpayment).Return()

		_, err := f.service.RecordCounterPayment(context.Background(), RecordPaymentInput{
			DemandID: 2, Amount: dec("1"), ActorID: "cashier-1",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ledger.ErrOverpayment))

		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "1.00", de.Details["attempted_amount"])
		assert.Equal(t, "0.00", de.Details["balance_amount"])

		assert.Equal(t, before, demand.Snapshot())
		f.demands.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything)
		f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

		rejected := f.audit.ByAction(ledger.AuditActionPaymentRejected)
		require.Len(t, rejected, 1)
		assert.Equal(t, "cashier-1", rejected[0].ActorID)
		assert.Equal(t, "1.00", rejected[0].Metadata["attempted_amount"])
		f.metrics.AssertExpectations(t)
	})

	t.Run("zero amount is invalid", func(t *testing.T) {
		f := newPaymentFixture()
		f.demands.On("FindByID", mock.Anything, int64(1)).Return(newHouseTaxDemand(), nil)
		f.metrics.On("RecordPaymentRejected", mock.Anything, ledger.PaymentChannelCounter, ledger.CodeInvalidAmount).Return()

		_, err := f.service.RecordCounterPayment(context.Background(), RecordPaymentInput{DemandID: 1, Amount: dec("0")})
		assert.True(t, errors.Is(err, ledger.ErrInvalidAmount))
	})

	t.Run("unknown mode", func(t *testing.T) {
		f := newPaymentFixture()
		_, err := f.service.RecordCounterPayment(context.Background(), RecordPaymentInput{DemandID: 1, Amount: dec("1"), Mode: "BARTER"})
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})
}

func TestPaymentService_RecordFieldPayment(t *testing.T) {
	f := newPaymentFixture()
	demand := newUnifiedDemand()
	f.expectDistribution(demand)
	f.payments.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.metrics.On("RecordPaymentDistributed", mock.Anything, ledger.PaymentChannelField, decEq("700"), false).Return()

	result, err := f.service.RecordFieldPayment(context.Background(), RecordPaymentInput{
		DemandID: 1, Amount: dec("700"), Mode: "UPI", ActorID: "collector-3",
	})
	require.NoError(t, err)
	assert.Equal(t, "FIELD", result.Payment.Channel)
	assert.True(t, dec("600").Equal(result.Distribution.PropertyTaxPaid))
	assert.True(t, dec("100").Equal(result.Distribution.WaterTaxPaid))
	assert.True(t, dec("300").Equal(demand.BalanceAmount))
}

func TestPaymentService_CreateGatewayOrder(t *testing.T) {
	f := newPaymentFixture()
	f.demands.On("FindByID", mock.Anything, int64(1)).Return(newHouseTaxDemand(), nil)
	f.payments.On("Create", mock.Anything, mock.AnythingOfType("*ledger.Payment")).Return(nil)

	dto, err := f.service.CreateGatewayOrder(context.Background(), CreateGatewayOrderInput{
		DemandID: 1, Amount: dec("250"), ActorID: "citizen-5",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", dto.Status)
	assert.Equal(t, "ONLINE", dto.Channel)
	assert.Regexp(t, `^order_[0-9a-f]{32}$`, dto.GatewayOrderID)
}

func pendingGatewayPayment(t *testing.T, demandID int64, amount string) *ledger.Payment {
	t.Helper()
	p, err := ledger.NewPayment(demandID, dec(amount), ledger.PaymentChannelOnline, ledger.PaymentModeOnline, "citizen-5")
	require.NoError(t, err)
	p.GatewayOrderID = "order_abc"
	return p
}

func TestPaymentService_HandleGatewayCallback(t *testing.T) {
	callback := GatewayCallbackInput{OrderID: "order_abc", PaymentID: "pay_123", Signature: "sig"}

	t.Run("verified callback completes and distributes", func(t *testing.T) {
		f := newPaymentFixture()
		demand := newHouseTaxDemand()
		payment := pendingGatewayPayment(t, 1, "400")
		f.verifier.On("VerifyPaymentSignature", "order_abc", "pay_123", "sig").Return(true)
		f.payments.On("FindByGatewayOrderID", mock.Anything, "order_abc").Return(payment, nil)
		f.payments.On("SaveUnlessCompleted", mock.Anything, payment).Return(nil)
		f.expectDistribution(demand)
		f.metrics.On("RecordPaymentDistributed", mock.Anything, ledger.PaymentChannelOnline, decEq("400"), true).Return()

		result, err := f.service.HandleGatewayCallback(context.Background(), callback)
		require.NoError(t, err)
		assert.False(t, result.AlreadyProcessed)
		assert.Equal(t, "completed", result.Payment.Status)
		assert.Equal(t, "pay_123", result.Payment.GatewayPaymentID)
		assert.True(t, dec("600").Equal(demand.BalanceAmount))

		// A replay sees the completed payment and does not distribute again
		again, err := f.service.HandleGatewayCallback(context.Background(), callback)
		require.NoError(t, err)
		assert.True(t, again.AlreadyProcessed)
		assert.True(t, dec("600").Equal(demand.BalanceAmount))
		f.demands.AssertNumberOfCalls(t, "FindByIDForUpdate", 1)
	})

	t.Run("duplicate delivery is deduplicated by key", func(t *testing.T) {
		f := newPaymentFixture()
		payment := pendingGatewayPayment(t, 1, "400")
		_, _ = f.idempotency.MarkProcessed(context.Background(), "gateway:order:order_abc", time.Hour)
		f.verifier.On("VerifyPaymentSignature", "order_abc", "pay_123", "sig").Return(true)
		f.payments.On("FindByGatewayOrderID", mock.Anything, "order_abc").Return(payment, nil)

		result, err := f.service.HandleGatewayCallback(context.Background(), callback)
		require.NoError(t, err)
		assert.True(t, result.AlreadyProcessed)
		f.demands.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("a redelivery under another payment id is deduplicated by order", func(t *testing.T) {
		f := newPaymentFixture()
		payment := pendingGatewayPayment(t, 1, "400")
		_, _ = f.idempotency.MarkProcessed(context.Background(), "gateway:order:order_abc", time.Hour)
		f.verifier.On("VerifyPaymentSignature", "order_abc", "pay_456", "sig").Return(true)
		f.payments.On("FindByGatewayOrderID", mock.Anything, "order_abc").Return(payment, nil)

		result, err := f.service.HandleGatewayCallback(context.Background(),
			GatewayCallbackInput{OrderID: "order_abc", PaymentID: "pay_456", Signature: "sig"})
		require.NoError(t, err)
		assert.True(t, result.AlreadyProcessed)
		f.demands.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("losing the completion race reports the stored payment", func(t *testing.T) {
		f := newPaymentFixture()
		demand := newHouseTaxDemand()
		pending := pendingGatewayPayment(t, 1, "400")
		stored := *pending
		require.NoError(t, stored.Complete("pay_999"))

		f.verifier.On("VerifyPaymentSignature", "order_abc", "pay_123", "sig").Return(true)
		f.payments.On("FindByGatewayOrderID", mock.Anything, "order_abc").Return(pending, nil).Once()
		f.payments.On("FindByGatewayOrderID", mock.Anything, "order_abc").Return(&stored, nil).Once()
		f.payments.On("SaveUnlessCompleted", mock.Anything, pending).Return(ledger.ErrDuplicateGatewayEvent)
		f.expectDistribution(demand)

		result, err := f.service.HandleGatewayCallback(context.Background(), callback)
		require.NoError(t, err)
		assert.True(t, result.AlreadyProcessed)
		assert.Equal(t, "pay_999", result.Payment.GatewayPaymentID)
		assert.Empty(t, f.audit.ByAction(ledger.AuditActionPaymentRecorded))
		f.metrics.AssertNotCalled(t, "RecordPaymentDistributed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bad signature is rejected and audited", func(t *testing.T) {
		f := newPaymentFixture()
		f.verifier.On("VerifyPaymentSignature", "order_abc", "pay_123", "sig").Return(false)

		_, err := f.service.HandleGatewayCallback(context.Background(), callback)
		assert.True(t, errors.Is(err, ledger.ErrInvalidSignature))
		assert.Len(t, f.audit.ByAction(ledger.AuditActionSignatureRejected), 1)
		f.payments.AssertNotCalled(t, "FindByGatewayOrderID", mock.Anything, mock.Anything)
	})

	t.Run("overpaying callback fails the payment and frees the key", func(t *testing.T) {
		f := newPaymentFixture()
		demand := newHouseTaxDemand()
		demand.PaidAmount = dec("900")
		demand.BalanceAmount = dec("100")
		demand.Status = ledger.DemandStatusPartiallyPaid
		payment := pendingGatewayPayment(t, 1, "400")

		f.verifier.On("VerifyPaymentSignature", "order_abc", "pay_123", "sig").Return(true)
		f.payments.On("FindByGatewayOrderID", mock.Anything, "order_abc").Return(payment, nil)
		f.payments.On("SaveUnlessCompleted", mock.Anything, payment).Return(nil)
		f.demands.On("FindByID", mock.Anything, int64(1)).Return(demand, nil)
		f.metrics.On("RecordPaymentRejected", mock.Anything, ledger.PaymentChannelOnline, ledger.CodeOverpayment).Return()

		_, err := f.service.HandleGatewayCallback(context.Background(), callback)
		assert.True(t, errors.Is(err, ledger.ErrOverpayment))
		assert.Equal(t, ledger.PaymentStatusFailed, payment.Status)
		assert.Contains(t, f.idempotency.released, "gateway:order:order_abc")
		assert.Len(t, f.audit.ByAction(ledger.AuditActionPaymentRejected), 1)
		assert.True(t, dec("100").Equal(demand.BalanceAmount))
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newPaymentFixture()
		f.verifier.On("VerifyPaymentSignature", "order_abc", "pay_123", "sig").Return(true)
		f.payments.On("FindByGatewayOrderID", mock.Anything, "order_abc").Return(nil, shared.ErrNotFound)

		_, err := f.service.HandleGatewayCallback(context.Background(), callback)
		assert.True(t, errors.Is(err, ledger.ErrPaymentNotFound))
	})
}

func TestPaymentService_ListPayments(t *testing.T) {
	f := newPaymentFixture()
	p := pendingGatewayPayment(t, 1, "10")
	f.payments.On("FindByDemand", mock.Anything, int64(1), mock.AnythingOfType("shared.Filter")).
		Return([]ledger.Payment{*p}, int64(21), nil)

	page, err := f.service.ListPayments(context.Background(), 1, shared.Filter{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Page)
}
