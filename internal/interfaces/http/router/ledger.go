package router

import (
	"github.com/gin-gonic/gin"
	"github.com/mtax/backend/internal/interfaces/http/handler"
)

// LedgerHandlers groups the handlers mounted under /ledger
type LedgerHandlers struct {
	Adjustments  *handler.AdjustmentHandler
	Payments     *handler.PaymentHandler
	Distribution *handler.DistributionHandler
	Documents    *handler.DocumentHandler
	Callback     *handler.GatewayCallbackHandler
}

// NewLedgerRoutes builds the /ledger group. callbackGuard runs only in
// front of the public gateway callback (typically a rate limiter); pass nil
// to mount the callback unguarded.
func NewLedgerRoutes(h LedgerHandlers, callbackGuard gin.HandlerFunc) *DomainGroup {
	routes := NewDomainGroup("/ledger")

	demands := routes.Group("/demands/:id")
	demands.POST("/discounts", h.Adjustments.ApplyDiscount)
	demands.POST("/penalty-waivers", h.Adjustments.ApplyPenaltyWaiver)
	demands.GET("/adjustments", h.Adjustments.ListAdjustments)
	demands.POST("/payments", h.Payments.RecordCounterPayment)
	demands.GET("/payments", h.Payments.ListPayments)
	demands.POST("/field-payments", h.Payments.RecordFieldPayment)
	demands.POST("/gateway-orders", h.Payments.CreateGatewayOrder)
	demands.GET("/distribution-summary", h.Distribution.GetDistributionSummary)
	demands.GET("/integrity", h.Distribution.ValidateIntegrity)

	routes.POST("/adjustments/:id/revoke", h.Adjustments.RevokeAdjustment)

	routes.POST("/documents", h.Documents.UploadProof)
	routes.POST("/documents/presign", h.Documents.PresignProofUpload)

	callback := []gin.HandlerFunc{h.Callback.HandleCallback}
	if callbackGuard != nil {
		callback = append([]gin.HandlerFunc{callbackGuard}, callback...)
	}
	routes.POST("/payments/gateway/callback", callback...)

	return routes
}

// NewSystemRoutes builds the /system group
func NewSystemRoutes(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("/system").
		GET("/info", h.GetSystemInfo).
		GET("/ping", h.Ping)
}
