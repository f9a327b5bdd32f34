package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	appledger "github.com/mtax/backend/internal/application/ledger"
	"github.com/shopspring/decimal"
)

// AdjustmentHandler handles discount and penalty waiver endpoints
type AdjustmentHandler struct {
	BaseHandler
	adjustments AdjustmentUseCases
}

// NewAdjustmentHandler creates a new AdjustmentHandler
func NewAdjustmentHandler(adjustments AdjustmentUseCases) *AdjustmentHandler {
	return &AdjustmentHandler{adjustments: adjustments}
}

// ApplyAdjustmentRequest is the body shared by discounts and penalty waivers.
// Business rules (reason, proof document, module) are enforced by the
// ledger so they surface with ledger error codes.
//
//	@Description	Discount or penalty waiver request
type ApplyAdjustmentRequest struct {
	ModuleType  string          `json:"module_type" example:"PROPERTY"`
	EntityID    int64           `json:"entity_id" example:"1024"`
	Type        string          `json:"type" example:"PERCENTAGE" enums:"PERCENTAGE,FIXED"`
	Value       decimal.Decimal `json:"value" swaggertype:"string" example:"10"`
	Reason      string          `json:"reason" binding:"max=500" example:"Senior citizen rebate"`
	DocumentURL string          `json:"document_url" binding:"omitempty,max=1024" example:"https://docs.example.org/proofs/1.pdf"`
}

// RevokeAdjustmentRequest is the body of a revoke call
//
//	@Description	Adjustment revoke request
type RevokeAdjustmentRequest struct {
	Reason string `json:"reason" binding:"max=500" example:"Applied to the wrong financial year"`
}

// ApplyDiscount godoc
//
//	@ID				applyDiscountLedger
//	@Summary		Apply a discount to a demand
//	@Description	Reduces the base tax of a demand. Only one discount may be active per demand.
//	@Tags			adjustments
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Demand ID"
//	@Param			request	body		ApplyAdjustmentRequest	true	"Discount"
//	@Success		201		{object}	APIResponse[appledger.ApplyAdjustmentResult]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/ledger/demands/{id}/discounts [post]
func (h *AdjustmentHandler) ApplyDiscount(c *gin.Context) {
	h.apply(c, h.adjustments.ApplyDiscount)
}

// ApplyPenaltyWaiver godoc
//
//	@ID				applyPenaltyWaiverLedger
//	@Summary		Waive penalty and interest on a demand
//	@Description	Reduces penalty plus interest of a demand. Only one waiver may be active per demand.
//	@Tags			adjustments
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Demand ID"
//	@Param			request	body		ApplyAdjustmentRequest	true	"Penalty waiver"
//	@Success		201		{object}	APIResponse[appledger.ApplyAdjustmentResult]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/ledger/demands/{id}/penalty-waivers [post]
func (h *AdjustmentHandler) ApplyPenaltyWaiver(c *gin.Context) {
	h.apply(c, h.adjustments.ApplyPenaltyWaiver)
}

type applyFunc func(ctx context.Context, in appledger.ApplyAdjustmentInput) (*appledger.ApplyAdjustmentResult, error)

func (h *AdjustmentHandler) apply(c *gin.Context, fn applyFunc) {
	demandID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	actor, ok := h.actingUser(c)
	if !ok {
		return
	}

	var req ApplyAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := fn(c.Request.Context(), appledger.ApplyAdjustmentInput{
		ModuleType:  req.ModuleType,
		EntityID:    req.EntityID,
		DemandID:    demandID,
		Type:        req.Type,
		Value:       req.Value,
		Reason:      req.Reason,
		DocumentURL: req.DocumentURL,
		ActorID:     actor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// RevokeAdjustment godoc
//
//	@ID				revokeAdjustmentLedger
//	@Summary		Revoke an active adjustment
//	@Description	Marks the adjustment REVOKED and recomputes the demand from the adjustments still active
//	@Tags			adjustments
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Adjustment ID"
//	@Param			request	body		RevokeAdjustmentRequest	true	"Revoke reason"
//	@Success		200		{object}	APIResponse[appledger.ApplyAdjustmentResult]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/ledger/adjustments/{id}/revoke [post]
func (h *AdjustmentHandler) RevokeAdjustment(c *gin.Context) {
	adjustmentID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	actor, ok := h.actingUser(c)
	if !ok {
		return
	}

	var req RevokeAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.adjustments.RevokeAdjustment(c.Request.Context(), appledger.RevokeAdjustmentInput{
		AdjustmentID: adjustmentID,
		Reason:       req.Reason,
		ActorID:      actor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListAdjustments godoc
//
//	@ID				listAdjustmentsLedger
//	@Summary		List adjustments of a demand
//	@Description	Returns active and revoked adjustments, newest first
//	@Tags			adjustments
//	@Produce		json
//	@Param			id	path		int	true	"Demand ID"
//	@Success		200	{object}	APIResponse[[]appledger.AdjustmentDTO]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/ledger/demands/{id}/adjustments [get]
func (h *AdjustmentHandler) ListAdjustments(c *gin.Context) {
	demandID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	adjustments, err := h.adjustments.ListAdjustments(c.Request.Context(), demandID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, adjustments)
}
