package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	appledger "github.com/mtax/backend/internal/application/ledger"
	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/mtax/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupAdjustmentRoutes(userID string) (*gin.Engine, *MockAdjustmentUseCases) {
	svc := new(MockAdjustmentUseCases)
	h := NewAdjustmentHandler(svc)
	engine := newTestEngine(userID)
	engine.POST("/demands/:id/discounts", h.ApplyDiscount)
	engine.POST("/demands/:id/penalty-waivers", h.ApplyPenaltyWaiver)
	engine.POST("/adjustments/:id/revoke", h.RevokeAdjustment)
	engine.GET("/demands/:id/adjustments", h.ListAdjustments)
	return engine, svc
}

func discountResult() *appledger.ApplyAdjustmentResult {
	return &appledger.ApplyAdjustmentResult{
		Adjustment: appledger.AdjustmentDTO{
			ID:         5,
			Kind:       "DISCOUNT",
			ModuleType: "PROPERTY",
			EntityID:   1024,
			DemandID:   42,
			Type:       "PERCENTAGE",
			Value:      decimal.NewFromInt(10),
			Amount:     decimal.NewFromInt(100),
			Reason:     "Senior citizen rebate",
			ApprovedBy: testOfficer,
			Status:     "ACTIVE",
		},
		Breakdown: ledger.FinalAmountBreakdown{FinalAmount: decimal.NewFromInt(1000)},
	}
}

func TestAdjustmentHandler_ApplyDiscount(t *testing.T) {
	engine, svc := setupAdjustmentRoutes(testOfficer)

	want := appledger.ApplyAdjustmentInput{
		ModuleType:  "PROPERTY",
		EntityID:    1024,
		DemandID:    42,
		Type:        "PERCENTAGE",
		Value:       decimal.RequireFromString("10"),
		Reason:      "Senior citizen rebate",
		DocumentURL: "https://docs.example.org/proofs/1.pdf",
		ActorID:     testOfficer,
	}
	svc.On("ApplyDiscount", mock.Anything, mock.MatchedBy(func(in appledger.ApplyAdjustmentInput) bool {
		return in.ModuleType == want.ModuleType && in.EntityID == want.EntityID && in.DemandID == want.DemandID &&
			in.Type == want.Type && in.Value.Equal(want.Value) && in.Reason == want.Reason &&
			in.DocumentURL == want.DocumentURL && in.ActorID == want.ActorID
	})).Return(discountResult(), nil)

	w := doJSON(t, engine, http.MethodPost, "/demands/42/discounts", `{
		"module_type": "PROPERTY",
		"entity_id": 1024,
		"type": "PERCENTAGE",
		"value": 10,
		"reason": "Senior citizen rebate",
		"document_url": "https://docs.example.org/proofs/1.pdf"
	}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var got appledger.ApplyAdjustmentResult
	dataAs(t, decodeResponse(t, w), &got)
	assert.Equal(t, int64(5), got.Adjustment.ID)
	assert.Equal(t, "ACTIVE", got.Adjustment.Status)
	assert.True(t, got.Breakdown.FinalAmount.Equal(decimal.NewFromInt(1000)))
	svc.AssertExpectations(t)
}

func TestAdjustmentHandler_ApplyPenaltyWaiver_UsesWaiverPath(t *testing.T) {
	engine, svc := setupAdjustmentRoutes(testOfficer)
	svc.On("ApplyPenaltyWaiver", mock.Anything, mock.MatchedBy(func(in appledger.ApplyAdjustmentInput) bool {
		return in.DemandID == 7 && in.Type == "FIXED"
	})).Return(discountResult(), nil)

	w := doJSON(t, engine, http.MethodPost, "/demands/7/penalty-waivers",
		`{"module_type":"WATER","entity_id":3,"type":"FIXED","value":"50.00","reason":"Hardship","document_url":"https://x/y.pdf"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
	svc.AssertNotCalled(t, "ApplyDiscount", mock.Anything, mock.Anything)
}

func TestAdjustmentHandler_ApplyDiscount_DomainErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		details map[string]any
	}{
		{
			name:    "missing reason",
			err:     ledger.NewValidationError("reason", "Reason is required"),
			status:  http.StatusBadRequest,
			code:    ledger.CodeValidation,
			details: map[string]any{"field": "reason"},
		},
		{
			name:   "percentage out of range",
			err:    ledger.ErrPercentageOutOfRange,
			status: http.StatusBadRequest,
			code:   ledger.ErrPercentageOutOfRange.Code,
		},
		{
			name:   "unknown demand",
			err:    ledger.ErrDemandNotFound,
			status: http.StatusNotFound,
			code:   ledger.ErrDemandNotFound.Code,
		},
		{
			name:    "discount already active",
			err:     ledger.ErrAdjustmentActive.WithDetails(map[string]any{"adjustment_id": 3}),
			status:  http.StatusBadRequest,
			code:    ledger.ErrAdjustmentActive.Code,
			details: map[string]any{"adjustment_id": float64(3)},
		},
		{
			name:   "infrastructure failure is hidden",
			err:    errors.New("connection reset by peer"),
			status: http.StatusInternalServerError,
			code:   dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, svc := setupAdjustmentRoutes(testOfficer)
			svc.On("ApplyDiscount", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := doJSON(t, engine, http.MethodPost, "/demands/42/discounts",
				`{"module_type":"PROPERTY","entity_id":1,"type":"PERCENTAGE","value":150}`)

			resp := requireErrorCode(t, w, tt.status, tt.code)
			assert.NotEmpty(t, resp.Error.RequestID)
			for k, v := range tt.details {
				assert.Equal(t, v, resp.Error.Details[k])
			}
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "connection reset")
			}
		})
	}
}

func TestAdjustmentHandler_RequestRejectedBeforeService(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		path   string
		body   string
		status int
		code   string
	}{
		{"non-numeric demand", testOfficer, "/demands/abc/discounts", `{}`, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"zero demand", testOfficer, "/demands/0/discounts", `{}`, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"anonymous", "", "/demands/1/discounts", `{}`, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"malformed json", testOfficer, "/demands/1/discounts", `{"value":`, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
		{"wrong value type", testOfficer, "/demands/1/penalty-waivers", `{"value":"ten"}`, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, svc := setupAdjustmentRoutes(tt.userID)
			w := doJSON(t, engine, http.MethodPost, tt.path, tt.body)
			requireErrorCode(t, w, tt.status, tt.code)
			svc.AssertNotCalled(t, "ApplyDiscount", mock.Anything, mock.Anything)
			svc.AssertNotCalled(t, "ApplyPenaltyWaiver", mock.Anything, mock.Anything)
		})
	}
}

func TestAdjustmentHandler_RevokeAdjustment(t *testing.T) {
	engine, svc := setupAdjustmentRoutes(testOfficer)
	result := discountResult()
	result.Adjustment.Status = "REVOKED"
	svc.On("RevokeAdjustment", mock.Anything, appledger.RevokeAdjustmentInput{
		AdjustmentID: 5,
		Reason:       "Wrong financial year",
		ActorID:      testOfficer,
	}).Return(result, nil)

	w := doJSON(t, engine, http.MethodPost, "/adjustments/5/revoke", map[string]string{"reason": "Wrong financial year"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got appledger.ApplyAdjustmentResult
	dataAs(t, decodeResponse(t, w), &got)
	assert.Equal(t, "REVOKED", got.Adjustment.Status)
	svc.AssertExpectations(t)
}

func TestAdjustmentHandler_RevokeAdjustment_NotActive(t *testing.T) {
	engine, svc := setupAdjustmentRoutes(testOfficer)
	svc.On("RevokeAdjustment", mock.Anything, mock.Anything).Return(nil, ledger.ErrAdjustmentNotActive)

	w := doJSON(t, engine, http.MethodPost, "/adjustments/5/revoke", map[string]string{"reason": "again"})

	requireErrorCode(t, w, http.StatusBadRequest, ledger.ErrAdjustmentNotActive.Code)
}

func TestAdjustmentHandler_ListAdjustments(t *testing.T) {
	engine, svc := setupAdjustmentRoutes(testOfficer)
	svc.On("ListAdjustments", mock.Anything, int64(42)).Return([]appledger.AdjustmentDTO{
		{ID: 9, Kind: "PENALTY_WAIVER", Status: "ACTIVE"},
		{ID: 5, Kind: "DISCOUNT", Status: "REVOKED"},
	}, nil)

	w := doJSON(t, engine, http.MethodGet, "/demands/42/adjustments", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got []appledger.AdjustmentDTO
	dataAs(t, decodeResponse(t, w), &got)
	require.Len(t, got, 2)
	assert.Equal(t, int64(9), got[0].ID)
	assert.Equal(t, "REVOKED", got[1].Status)
}
