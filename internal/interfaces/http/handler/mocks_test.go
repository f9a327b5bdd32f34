package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	appledger "github.com/mtax/backend/internal/application/ledger"
	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/mtax/backend/internal/domain/shared"
	"github.com/mtax/backend/internal/interfaces/http/dto"
	"github.com/mtax/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

const testOfficer = "officer-17"

// MockAdjustmentUseCases is a mock implementation of AdjustmentUseCases
type MockAdjustmentUseCases struct {
	mock.Mock
}

func (m *MockAdjustmentUseCases) ApplyDiscount(ctx context.Context, in appledger.ApplyAdjustmentInput) (*appledger.ApplyAdjustmentResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.ApplyAdjustmentResult), args.Error(1)
}

func (m *MockAdjustmentUseCases) ApplyPenaltyWaiver(ctx context.Context, in appledger.ApplyAdjustmentInput) (*appledger.ApplyAdjustmentResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.ApplyAdjustmentResult), args.Error(1)
}

func (m *MockAdjustmentUseCases) RevokeAdjustment(ctx context.Context, in appledger.RevokeAdjustmentInput) (*appledger.ApplyAdjustmentResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.ApplyAdjustmentResult), args.Error(1)
}

func (m *MockAdjustmentUseCases) ListAdjustments(ctx context.Context, demandID int64) ([]appledger.AdjustmentDTO, error) {
	args := m.Called(ctx, demandID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appledger.AdjustmentDTO), args.Error(1)
}

// MockDistributionUseCases is a mock implementation of DistributionUseCases
type MockDistributionUseCases struct {
	mock.Mock
}

func (m *MockDistributionUseCases) GetDistributionSummary(ctx context.Context, demandID int64) (*ledger.DistributionSummary, error) {
	args := m.Called(ctx, demandID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.DistributionSummary), args.Error(1)
}

func (m *MockDistributionUseCases) ValidateDistributionIntegrity(ctx context.Context, demandID int64) (*ledger.IntegrityReport, error) {
	args := m.Called(ctx, demandID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.IntegrityReport), args.Error(1)
}

// MockPaymentUseCases is a mock implementation of PaymentUseCases
type MockPaymentUseCases struct {
	mock.Mock
}

func (m *MockPaymentUseCases) RecordCounterPayment(ctx context.Context, in appledger.RecordPaymentInput) (*appledger.PaymentResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.PaymentResult), args.Error(1)
}

func (m *MockPaymentUseCases) RecordFieldPayment(ctx context.Context, in appledger.RecordPaymentInput) (*appledger.PaymentResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.PaymentResult), args.Error(1)
}

func (m *MockPaymentUseCases) CreateGatewayOrder(ctx context.Context, in appledger.CreateGatewayOrderInput) (*appledger.PaymentDTO, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.PaymentDTO), args.Error(1)
}

func (m *MockPaymentUseCases) HandleGatewayCallback(ctx context.Context, in appledger.GatewayCallbackInput) (*appledger.PaymentResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.PaymentResult), args.Error(1)
}

func (m *MockPaymentUseCases) ListPayments(ctx context.Context, demandID int64, filter shared.Filter) (shared.Paginated[appledger.PaymentDTO], error) {
	args := m.Called(ctx, demandID, filter)
	return args.Get(0).(shared.Paginated[appledger.PaymentDTO]), args.Error(1)
}

// MockDocumentUseCases is a mock implementation of DocumentUseCases
type MockDocumentUseCases struct {
	mock.Mock
}

func (m *MockDocumentUseCases) UploadProof(ctx context.Context, in appledger.UploadProofInput) (*appledger.ProofDocument, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.ProofDocument), args.Error(1)
}

func (m *MockDocumentUseCases) PresignProofUpload(ctx context.Context, in appledger.PresignProofInput) (*appledger.PresignedProof, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.PresignedProof), args.Error(1)
}

// asOfficer simulates the JWT middleware having authenticated a user
func asOfficer(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.JWTUserIDKey, userID)
		}
		c.Next()
	}
}

func newTestEngine(userID string) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID(), asOfficer(userID))
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// dataAs re-decodes the envelope's data into out
func dataAs(t *testing.T, resp dto.Response, out any) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

// requireErrorCode asserts status and error code of a failed response
func requireErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) dto.Response {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	resp := decodeResponse(t, w)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	require.Equal(t, code, resp.Error.Code)
	return resp
}
