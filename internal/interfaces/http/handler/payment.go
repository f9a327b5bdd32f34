package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	appledger "github.com/mtax/backend/internal/application/ledger"
	"github.com/mtax/backend/internal/domain/shared"
	"github.com/mtax/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles the officer-facing payment endpoints
type PaymentHandler struct {
	BaseHandler
	payments PaymentUseCases
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments PaymentUseCases) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// RecordPaymentRequest is a counter or field collection payment
//
//	@Description	Payment collected by an officer
type RecordPaymentRequest struct {
	Amount  decimal.Decimal `json:"amount" binding:"money" swaggertype:"string" example:"1500.00"`
	Mode    string          `json:"mode" binding:"required" example:"CASH" enums:"CASH,CHEQUE,UPI,CARD"`
	Remarks string          `json:"remarks" binding:"max=500" example:"Collected at ward office"`
}

// CreateGatewayOrderRequest starts an online payment
//
//	@Description	Online payment order request
type CreateGatewayOrderRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"money" swaggertype:"string" example:"1500.00"`
}

// ListPaymentsQuery holds paging and ordering for the payment list
type ListPaymentsQuery struct {
	dto.PageRequest
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// RecordCounterPayment godoc
//
//	@ID				recordCounterPaymentLedger
//	@Summary		Record a counter payment
//	@Description	Guards against overpayment, records the payment and distributes it across the demand
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Demand ID"
//	@Param			request	body		RecordPaymentRequest	true	"Payment"
//	@Success		201		{object}	APIResponse[appledger.PaymentResult]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/ledger/demands/{id}/payments [post]
func (h *PaymentHandler) RecordCounterPayment(c *gin.Context) {
	h.record(c, h.payments.RecordCounterPayment)
}

// RecordFieldPayment godoc
//
//	@ID				recordFieldPaymentLedger
//	@Summary		Record a field collection payment
//	@Description	Same guard and distribution as the counter path, recorded against the field channel
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Demand ID"
//	@Param			request	body		RecordPaymentRequest	true	"Payment"
//	@Success		201		{object}	APIResponse[appledger.PaymentResult]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/ledger/demands/{id}/field-payments [post]
func (h *PaymentHandler) RecordFieldPayment(c *gin.Context) {
	h.record(c, h.payments.RecordFieldPayment)
}

type recordFunc func(ctx context.Context, in appledger.RecordPaymentInput) (*appledger.PaymentResult, error)

func (h *PaymentHandler) record(c *gin.Context, fn recordFunc) {
	demandID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	actor, ok := h.actingUser(c)
	if !ok {
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := fn(c.Request.Context(), appledger.RecordPaymentInput{
		DemandID: demandID,
		Amount:   req.Amount,
		Mode:     req.Mode,
		Remarks:  req.Remarks,
		ActorID:  actor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// CreateGatewayOrder godoc
//
//	@ID				createGatewayOrderLedger
//	@Summary		Create an online payment order
//	@Description	Guards the amount and records a pending online payment whose order id the gateway echoes back
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Demand ID"
//	@Param			request	body		CreateGatewayOrderRequest	true	"Order"
//	@Success		201		{object}	APIResponse[appledger.PaymentDTO]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/ledger/demands/{id}/gateway-orders [post]
func (h *PaymentHandler) CreateGatewayOrder(c *gin.Context) {
	demandID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	actor, ok := h.actingUser(c)
	if !ok {
		return
	}

	var req CreateGatewayOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.payments.CreateGatewayOrder(c.Request.Context(), appledger.CreateGatewayOrderInput{
		DemandID: demandID,
		Amount:   req.Amount,
		ActorID:  actor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// ListPayments godoc
//
//	@ID				listPaymentsLedger
//	@Summary		List payments of a demand
//	@Tags			payments
//	@Produce		json
//	@Param			id			path		int		true	"Demand ID"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)	maximum(100)
//	@Param			order_dir	query		string	false	"Order"			Enums(asc, desc)
//	@Success		200			{object}	APIResponse[[]appledger.PaymentDTO]
//	@Failure		400			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/ledger/demands/{id}/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	demandID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var q ListPaymentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.payments.ListPayments(c.Request.Context(), demandID, shared.Filter{
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  "created_at",
		OrderDir: q.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
