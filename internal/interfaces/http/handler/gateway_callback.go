package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	appledger "github.com/mtax/backend/internal/application/ledger"
	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/mtax/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// WebhookSignatureHeader carries the HMAC of the raw callback body
const WebhookSignatureHeader = "X-Gateway-Webhook-Signature"

// GatewayCallbackHandler receives online payment confirmations. The route is
// public; authenticity comes from the payment signature in the body and,
// when a webhook secret is configured, the signature over the whole body.
type GatewayCallbackHandler struct {
	BaseHandler
	payments PaymentUseCases
	webhook  WebhookVerifier
}

// NewGatewayCallbackHandler creates a new GatewayCallbackHandler. webhook may
// be nil when body signatures are not used.
func NewGatewayCallbackHandler(payments PaymentUseCases, webhook WebhookVerifier) *GatewayCallbackHandler {
	return &GatewayCallbackHandler{payments: payments, webhook: webhook}
}

// GatewayCallbackRequest is the gateway's payment confirmation
//
//	@Description	Gateway payment callback
type GatewayCallbackRequest struct {
	OrderID   string `json:"order_id" example:"order_5f1c0e9a2b7d4c1e8f3a6b9d0c2e4f7a"`
	PaymentID string `json:"payment_id" example:"pay_29QQoUBi66xm2f"`
	Signature string `json:"signature" example:"9ef4dffbfd84f1318f6739a3ce19f9d85851857ae648f114332d8401e0949a3d"`
}

// HandleCallback godoc
//
//	@ID				handleGatewayCallbackLedger
//	@Summary		Handle a payment gateway callback
//	@Description	Verifies the signature, completes the pending online payment and distributes it. Replays return the stored payment.
//	@Tags			payment-callbacks
//	@Accept			json
//	@Produce		json
//	@Param			X-Gateway-Webhook-Signature	header		string					false	"HMAC-SHA256 of the raw body, required when webhooks are enabled"
//	@Param			request						body		GatewayCallbackRequest	true	"Callback"
//	@Success		200							{object}	APIResponse[appledger.PaymentResult]
//	@Failure		400							{object}	ErrorResponse
//	@Failure		401							{object}	ErrorResponse
//	@Failure		429							{object}	ErrorResponse
//	@Router			/ledger/payments/gateway/callback [post]
func (h *GatewayCallbackHandler) HandleCallback(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.BadRequest(c, "Unable to read request body")
		return
	}

	if h.webhook != nil && h.webhook.WebhookEnabled() &&
		!h.webhook.VerifyWebhookSignature(body, c.GetHeader(WebhookSignatureHeader)) {
		logger.FromContext(c.Request.Context()).Warn("Gateway webhook signature rejected",
			zap.String("client_ip", c.ClientIP()))
		h.HandleError(c, ledger.ErrInvalidSignature)
		return
	}

	var req GatewayCallbackRequest
	if err := binding.JSON.BindBody(body, &req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.payments.HandleGatewayCallback(c.Request.Context(), appledger.GatewayCallbackInput{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
