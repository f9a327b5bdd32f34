package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appledger "github.com/mtax/backend/internal/application/ledger"
	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/mtax/backend/internal/domain/shared"
	"github.com/mtax/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupPaymentRoutes(userID string) (*gin.Engine, *MockPaymentUseCases) {
	svc := new(MockPaymentUseCases)
	h := NewPaymentHandler(svc)
	engine := newTestEngine(userID)
	engine.POST("/demands/:id/payments", h.RecordCounterPayment)
	engine.GET("/demands/:id/payments", h.ListPayments)
	engine.POST("/demands/:id/field-payments", h.RecordFieldPayment)
	engine.POST("/demands/:id/gateway-orders", h.CreateGatewayOrder)
	return engine, svc
}

func paymentResult(amount string) *appledger.PaymentResult {
	return &appledger.PaymentResult{
		Payment: appledger.PaymentDTO{
			ID:            uuid.New(),
			ReceiptNumber: "RCPT-2026-000123",
			DemandID:      42,
			Amount:        decimal.RequireFromString(amount),
			Channel:       "COUNTER",
			Mode:          "CASH",
			Status:        "COMPLETED",
			CollectedBy:   testOfficer,
		},
		Distribution: &ledger.DistributionResult{},
	}
}

func TestPaymentHandler_RecordCounterPayment(t *testing.T) {
	engine, svc := setupPaymentRoutes(testOfficer)
	svc.On("RecordCounterPayment", mock.Anything, mock.MatchedBy(func(in appledger.RecordPaymentInput) bool {
		return in.DemandID == 42 && in.Amount.Equal(decimal.RequireFromString("1500.50")) &&
			in.Mode == "CASH" && in.Remarks == "ward office" && in.ActorID == testOfficer
	})).Return(paymentResult("1500.50"), nil)

	w := doJSON(t, engine, http.MethodPost, "/demands/42/payments",
		`{"amount": "1500.50", "mode": "CASH", "remarks": "ward office"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var got appledger.PaymentResult
	dataAs(t, decodeResponse(t, w), &got)
	assert.Equal(t, "RCPT-2026-000123", got.Payment.ReceiptNumber)
	assert.True(t, got.Payment.Amount.Equal(decimal.RequireFromString("1500.5")))
	svc.AssertExpectations(t)
}

func TestPaymentHandler_RecordFieldPayment(t *testing.T) {
	engine, svc := setupPaymentRoutes(testOfficer)
	result := paymentResult("200")
	result.Payment.Channel = "FIELD"
	svc.On("RecordFieldPayment", mock.Anything, mock.MatchedBy(func(in appledger.RecordPaymentInput) bool {
		return in.DemandID == 9 && in.Mode == "UPI"
	})).Return(result, nil)

	w := doJSON(t, engine, http.MethodPost, "/demands/9/field-payments", `{"amount": 200, "mode": "UPI"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	svc.AssertNotCalled(t, "RecordCounterPayment", mock.Anything, mock.Anything)
}

func TestPaymentHandler_RecordCounterPayment_Rejections(t *testing.T) {
	overpay := ledger.ErrOverpayment.
		Withf("Payment of 1,200.00 exceeds the outstanding balance of 1,000.00 on demand D-42 by 200.00").
		WithDetails(map[string]any{"excess": "200.00"})

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"overpayment", overpay, http.StatusBadRequest, ledger.CodeOverpayment},
		{"zero amount", ledger.ErrInvalidAmount, http.StatusBadRequest, ledger.CodeInvalidAmount},
		{"settled demand", ledger.ErrDemandSettled, http.StatusBadRequest, ledger.CodeDemandSettled},
		{"unknown demand", ledger.ErrDemandNotFound, http.StatusNotFound, ledger.CodeDemandNotFound},
		{"lost optimistic lock", shared.ErrConcurrencyConflict, http.StatusConflict, shared.ErrConcurrencyConflict.Code},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, svc := setupPaymentRoutes(testOfficer)
			svc.On("RecordCounterPayment", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := doJSON(t, engine, http.MethodPost, "/demands/42/payments", `{"amount": 1200, "mode": "CASH"}`)
			requireErrorCode(t, w, tt.status, tt.code)
		})
	}

	t.Run("overpayment message and details reach the client", func(t *testing.T) {
		engine, svc := setupPaymentRoutes(testOfficer)
		svc.On("RecordCounterPayment", mock.Anything, mock.Anything).Return(nil, overpay)

		w := doJSON(t, engine, http.MethodPost, "/demands/42/payments", `{"amount": 1200, "mode": "CASH"}`)
		resp := requireErrorCode(t, w, http.StatusBadRequest, ledger.CodeOverpayment)
		assert.Contains(t, resp.Error.Message, "by 200.00")
		assert.Equal(t, "200.00", resp.Error.Details["excess"])
	})
}

func TestPaymentHandler_RecordCounterPayment_BindFailures(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		code  string
		field string
	}{
		{"three decimal places", `{"amount": 10.005, "mode": "CASH"}`, dto.ErrCodeValidation, "amount"},
		{"missing mode", `{"amount": 10}`, dto.ErrCodeValidation, "mode"},
		{"amount not a number", `{"amount": "lots", "mode": "CASH"}`, dto.ErrCodeInvalidJSON, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, svc := setupPaymentRoutes(testOfficer)
			w := doJSON(t, engine, http.MethodPost, "/demands/42/payments", tt.body)

			resp := requireErrorCode(t, w, http.StatusBadRequest, tt.code)
			if tt.field != "" {
				require.NotEmpty(t, resp.Error.Fields)
				assert.Equal(t, tt.field, resp.Error.Fields[0].Field)
			}
			svc.AssertNotCalled(t, "RecordCounterPayment", mock.Anything, mock.Anything)
		})
	}
}

func TestPaymentHandler_ZeroAmountReachesLedger(t *testing.T) {
	engine, svc := setupPaymentRoutes(testOfficer)
	svc.On("RecordCounterPayment", mock.Anything, mock.MatchedBy(func(in appledger.RecordPaymentInput) bool {
		return in.Amount.IsZero()
	})).Return(nil, ledger.ErrInvalidAmount)

	w := doJSON(t, engine, http.MethodPost, "/demands/42/payments", `{"amount": 0, "mode": "CASH"}`)

	requireErrorCode(t, w, http.StatusBadRequest, ledger.CodeInvalidAmount)
	svc.AssertExpectations(t)
}

func TestPaymentHandler_CreateGatewayOrder(t *testing.T) {
	engine, svc := setupPaymentRoutes(testOfficer)
	order := &appledger.PaymentDTO{
		ID:             uuid.New(),
		DemandID:       42,
		Amount:         decimal.NewFromInt(500),
		Channel:        "ONLINE",
		Status:         "PENDING",
		GatewayOrderID: "order_abc",
	}
	svc.On("CreateGatewayOrder", mock.Anything, mock.MatchedBy(func(in appledger.CreateGatewayOrderInput) bool {
		return in.DemandID == 42 && in.Amount.Equal(decimal.NewFromInt(500)) && in.ActorID == testOfficer
	})).Return(order, nil)

	w := doJSON(t, engine, http.MethodPost, "/demands/42/gateway-orders", `{"amount": 500}`)

	require.Equal(t, http.StatusCreated, w.Code)
	var got appledger.PaymentDTO
	dataAs(t, decodeResponse(t, w), &got)
	assert.Equal(t, "order_abc", got.GatewayOrderID)
	assert.Equal(t, "PENDING", got.Status)
}

func TestPaymentHandler_ListPayments(t *testing.T) {
	engine, svc := setupPaymentRoutes(testOfficer)
	items := []appledger.PaymentDTO{paymentResult("100").Payment, paymentResult("50").Payment}
	svc.On("ListPayments", mock.Anything, int64(42), shared.Filter{
		Page:     2,
		PageSize: 2,
		OrderBy:  "created_at",
		OrderDir: "asc",
	}).Return(shared.NewPaginated(items, 5, 2, 2), nil)

	w := doJSON(t, engine, http.MethodGet, "/demands/42/payments?page=2&page_size=2&order_dir=asc", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(5), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	var got []appledger.PaymentDTO
	dataAs(t, resp, &got)
	assert.Len(t, got, 2)
}

func TestPaymentHandler_ListPayments_BadQuery(t *testing.T) {
	engine, _ := setupPaymentRoutes(testOfficer)

	w := doJSON(t, engine, http.MethodGet, "/demands/42/payments?page_size=500", nil)
	requireErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	w = doJSON(t, engine, http.MethodGet, "/demands/42/payments?order_dir=sideways", nil)
	requireErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}
