package handler

import (
	"context"

	appledger "github.com/mtax/backend/internal/application/ledger"
	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/mtax/backend/internal/domain/shared"
)

// AdjustmentUseCases is the slice of the adjustment service the HTTP layer needs
type AdjustmentUseCases interface {
	ApplyDiscount(ctx context.Context, in appledger.ApplyAdjustmentInput) (*appledger.ApplyAdjustmentResult, error)
	ApplyPenaltyWaiver(ctx context.Context, in appledger.ApplyAdjustmentInput) (*appledger.ApplyAdjustmentResult, error)
	RevokeAdjustment(ctx context.Context, in appledger.RevokeAdjustmentInput) (*appledger.ApplyAdjustmentResult, error)
	ListAdjustments(ctx context.Context, demandID int64) ([]appledger.AdjustmentDTO, error)
}

// DistributionUseCases exposes the read side of payment distribution
type DistributionUseCases interface {
	GetDistributionSummary(ctx context.Context, demandID int64) (*ledger.DistributionSummary, error)
	ValidateDistributionIntegrity(ctx context.Context, demandID int64) (*ledger.IntegrityReport, error)
}

// PaymentUseCases covers the counter, field and gateway payment paths
type PaymentUseCases interface {
	RecordCounterPayment(ctx context.Context, in appledger.RecordPaymentInput) (*appledger.PaymentResult, error)
	RecordFieldPayment(ctx context.Context, in appledger.RecordPaymentInput) (*appledger.PaymentResult, error)
	CreateGatewayOrder(ctx context.Context, in appledger.CreateGatewayOrderInput) (*appledger.PaymentDTO, error)
	HandleGatewayCallback(ctx context.Context, in appledger.GatewayCallbackInput) (*appledger.PaymentResult, error)
	ListPayments(ctx context.Context, demandID int64, filter shared.Filter) (shared.Paginated[appledger.PaymentDTO], error)
}

// DocumentUseCases stores adjustment proof documents
type DocumentUseCases interface {
	UploadProof(ctx context.Context, in appledger.UploadProofInput) (*appledger.ProofDocument, error)
	PresignProofUpload(ctx context.Context, in appledger.PresignProofInput) (*appledger.PresignedProof, error)
}

// WebhookVerifier authenticates raw gateway webhook bodies
type WebhookVerifier interface {
	WebhookEnabled() bool
	VerifyWebhookSignature(body []byte, signature string) bool
}

var (
	_ AdjustmentUseCases   = (*appledger.AdjustmentService)(nil)
	_ DistributionUseCases = (*appledger.DistributionService)(nil)
	_ PaymentUseCases      = (*appledger.PaymentService)(nil)
	_ DocumentUseCases     = (*appledger.DocumentService)(nil)
)
