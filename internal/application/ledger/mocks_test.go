package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/mtax/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Repository mocks
// =============================================================================

// MockDemandRepository is a mock implementation of ledger.DemandRepository
type MockDemandRepository struct {
	mock.Mock
}

func (m *MockDemandRepository) FindByID(ctx context.Context, id int64) (*ledger.Demand, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Demand), args.Error(1)
}

func (m *MockDemandRepository) FindByIDForUpdate(ctx context.Context, id int64) (*ledger.Demand, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Demand), args.Error(1)
}

func (m *MockDemandRepository) SaveWithLock(ctx context.Context, demand *ledger.Demand) error {
	args := m.Called(ctx, demand)
	return args.Error(0)
}

func (m *MockDemandRepository) SaveItems(ctx context.Context, items []ledger.DemandItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

// MockAdjustmentRepository is a mock implementation of ledger.AdjustmentRepository
type MockAdjustmentRepository struct {
	mock.Mock
}

func (m *MockAdjustmentRepository) FindByID(ctx context.Context, id int64) (*ledger.Adjustment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Adjustment), args.Error(1)
}

func (m *MockAdjustmentRepository) FindActive(ctx context.Context, demandID int64, kind ledger.AdjustmentKind) (*ledger.Adjustment, error) {
	args := m.Called(ctx, demandID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Adjustment), args.Error(1)
}

func (m *MockAdjustmentRepository) FindActiveByDemand(ctx context.Context, demandID int64) ([]ledger.Adjustment, error) {
	args := m.Called(ctx, demandID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Adjustment), args.Error(1)
}

func (m *MockAdjustmentRepository) FindByDemand(ctx context.Context, demandID int64) ([]ledger.Adjustment, error) {
	args := m.Called(ctx, demandID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Adjustment), args.Error(1)
}

func (m *MockAdjustmentRepository) Create(ctx context.Context, adjustment *ledger.Adjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

func (m *MockAdjustmentRepository) Save(ctx context.Context, adjustment *ledger.Adjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

// MockAssessmentRepository is a mock implementation of ledger.AssessmentRepository
type MockAssessmentRepository struct {
	mock.Mock
}

func (m *MockAssessmentRepository) FindWaterConnectionID(ctx context.Context, assessmentID int64) (int64, error) {
	args := m.Called(ctx, assessmentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAssessmentRepository) FindShopID(ctx context.Context, assessmentID int64) (int64, error) {
	args := m.Called(ctx, assessmentID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPaymentRepository is a mock implementation of ledger.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByGatewayOrderID(ctx context.Context, orderID string) (*ledger.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByDemand(ctx context.Context, demandID int64, filter shared.Filter) ([]ledger.Payment, int64, error) {
	args := m.Called(ctx, demandID, filter)
	return args.Get(0).([]ledger.Payment), args.Get(1).(int64), args.Error(2)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *ledger.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) SaveUnlessCompleted(ctx context.Context, payment *ledger.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

// =============================================================================
// Collaborator fakes
// =============================================================================

// RecordingAuditSink keeps every audit entry in memory
type RecordingAuditSink struct {
	mu      sync.Mutex
	entries []*ledger.AuditEntry
	err     error
}

func NewRecordingAuditSink() *RecordingAuditSink {
	return &RecordingAuditSink{}
}

func (s *RecordingAuditSink) Record(_ context.Context, entry *ledger.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *RecordingAuditSink) Entries() []*ledger.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ledger.AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *RecordingAuditSink) ByAction(action ledger.AuditAction) []*ledger.AuditEntry {
	var out []*ledger.AuditEntry
	for _, e := range s.Entries() {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// MockMetrics is a mock implementation of Metrics
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordAdjustmentApplied(ctx context.Context, kind ledger.AdjustmentKind, module ledger.ModuleType) {
	m.Called(ctx, kind, module)
}

func (m *MockMetrics) RecordAdjustmentRevoked(ctx context.Context, kind ledger.AdjustmentKind) {
	m.Called(ctx, kind)
}

func (m *MockMetrics) RecordPaymentDistributed(ctx context.Context, channel ledger.PaymentChannel, amount decimal.Decimal, direct bool) {
	m.Called(ctx, channel, amount, direct)
}

func (m *MockMetrics) RecordPaymentRejected(ctx context.Context, channel ledger.PaymentChannel, code string) {
	m.Called(ctx, channel, code)
}

func (m *MockMetrics) RecordIntegrityIssue(ctx context.Context, demandID int64, issues int) {
	m.Called(ctx, demandID, issues)
}

// MockSignatureVerifier is a mock implementation of SignatureVerifier
type MockSignatureVerifier struct {
	mock.Mock
}

func (m *MockSignatureVerifier) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	args := m.Called(orderID, paymentID, signature)
	return args.Bool(0)
}

// MemoryIdempotencyStore is a map-backed shared.IdempotencyStore
type MemoryIdempotencyStore struct {
	mu       sync.Mutex
	keys     map[string]bool
	released []string
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{keys: make(map[string]bool)}
}

func (s *MemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *MemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key], nil
}

func (s *MemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	s.released = append(s.released, key)
	return nil
}

func (s *MemoryIdempotencyStore) Close() error { return nil }

// MockProofStorage is a mock implementation of ProofStorage
type MockProofStorage struct {
	mock.Mock
}

func (m *MockProofStorage) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	args := m.Called(ctx, storageKey, data, contentType)
	return args.Error(0)
}

func (m *MockProofStorage) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockProofStorage) ObjectURL(storageKey string) string {
	args := m.Called(storageKey)
	return args.String(0)
}

var (
	_ ledger.DemandRepository     = (*MockDemandRepository)(nil)
	_ ledger.AdjustmentRepository = (*MockAdjustmentRepository)(nil)
	_ ledger.AssessmentRepository = (*MockAssessmentRepository)(nil)
	_ ledger.PaymentRepository    = (*MockPaymentRepository)(nil)
	_ ledger.AuditSink            = (*RecordingAuditSink)(nil)
	_ Metrics                     = (*MockMetrics)(nil)
	_ SignatureVerifier           = (*MockSignatureVerifier)(nil)
	_ shared.IdempotencyStore     = (*MemoryIdempotencyStore)(nil)
	_ ProofStorage                = (*MockProofStorage)(nil)
)

// =============================================================================
// Fixtures
// =============================================================================

type testRepos struct {
	demands     *MockDemandRepository
	adjustments *MockAdjustmentRepository
	assessments *MockAssessmentRepository
	payments    *MockPaymentRepository
	audit       *RecordingAuditSink
	scope       *NoOpTransactionScope
}

func newTestRepos() *testRepos {
	r := &testRepos{
		demands:     new(MockDemandRepository),
		adjustments: new(MockAdjustmentRepository),
		assessments: new(MockAssessmentRepository),
		payments:    new(MockPaymentRepository),
		audit:       NewRecordingAuditSink(),
	}
	r.scope = NewNoOpTransactionScope(r.demands, r.adjustments, r.assessments, r.payments, r.audit)
	return r
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// decEq matches a decimal argument by value regardless of its exponent
func decEq(s string) interface{} {
	want := dec(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func int64Ptr(v int64) *int64 {
	return &v
}

// newHouseTaxDemand is the demand used by the worked examples:
// total 1000 with 100 penalty, nothing paid, owned by property 42
func newHouseTaxDemand() *ledger.Demand {
	d := &ledger.Demand{
		DemandNumber:  "DMD-2026-0001",
		ServiceType:   ledger.ServiceTypeHouseTax,
		FinancialYear: "2026-27",
		TotalAmount:   dec("1000"),
		PenaltyAmount: dec("100"),
		BalanceAmount: dec("1000"),
		Status:        ledger.DemandStatusPending,
		PropertyID:    int64Ptr(42),
	}
	d.ID = 1
	d.Version = 1
	return d
}

func newUnifiedDemand() *ledger.Demand {
	d := newHouseTaxDemand()
	d.PenaltyAmount = decimal.Zero
	d.Remarks = "UNIFIED property and water demand"
	d.Items = []ledger.DemandItem{
		{ID: 10, DemandID: d.ID, TaxType: ledger.TaxTypeProperty, TotalAmount: dec("600")},
		{ID: 11, DemandID: d.ID, TaxType: ledger.TaxTypeWater, TotalAmount: dec("400")},
	}
	return d
}

func newSettledShopDemand() *ledger.Demand {
	d := &ledger.Demand{
		DemandNumber:        "DMD-2026-0002",
		ServiceType:         ledger.ServiceTypeShopTax,
		TotalAmount:         dec("500"),
		PaidAmount:          dec("500"),
		BalanceAmount:       decimal.Zero,
		Status:              ledger.DemandStatusPaid,
		ShopTaxAssessmentID: int64Ptr(7),
	}
	d.ID = 2
	d.Version = 3
	return d
}
