package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// ApplyAdjustmentInput is the request to apply a discount or penalty waiver
type ApplyAdjustmentInput struct {
	ModuleType  string
	EntityID    int64
	DemandID    int64
	Type        string
	Value       decimal.Decimal
	Reason      string
	DocumentURL string
	ActorID     string
}

// ApplyAdjustmentResult is returned after an adjustment was applied
type ApplyAdjustmentResult struct {
	Adjustment AdjustmentDTO               `json:"adjustment"`
	Demand     ledger.DemandSnapshot       `json:"demand"`
	Breakdown  ledger.FinalAmountBreakdown `json:"breakdown"`
}

// RevokeAdjustmentInput is the request to revoke an active adjustment
type RevokeAdjustmentInput struct {
	AdjustmentID int64
	Reason       string
	ActorID      string
}

// AdjustmentDTO is the response representation of an adjustment
type AdjustmentDTO struct {
	ID           int64           `json:"id"`
	Kind         string          `json:"kind"`
	ModuleType   string          `json:"module_type"`
	EntityID     int64           `json:"entity_id"`
	DemandID     int64           `json:"demand_id"`
	Type         string          `json:"type"`
	Value        decimal.Decimal `json:"value"`
	Amount       decimal.Decimal `json:"amount"`
	Reason       string          `json:"reason"`
	DocumentURL  string          `json:"document_url"`
	ApprovedBy   string          `json:"approved_by"`
	Status       string          `json:"status"`
	RevokedBy    string          `json:"revoked_by,omitempty"`
	RevokedAt    *time.Time      `json:"revoked_at,omitempty"`
	RevokeReason string          `json:"revoke_reason,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ToAdjustmentDTO converts a domain adjustment to its response form
func ToAdjustmentDTO(a *ledger.Adjustment) AdjustmentDTO {
	return AdjustmentDTO{
		ID:           a.ID,
		Kind:         a.Kind.String(),
		ModuleType:   a.ModuleType.String(),
		EntityID:     a.EntityID,
		DemandID:     a.DemandID,
		Type:         string(a.Type),
		Value:        a.Value,
		Amount:       a.Amount,
		Reason:       a.Reason,
		DocumentURL:  a.DocumentURL,
		ApprovedBy:   a.ApprovedBy,
		Status:       string(a.Status),
		RevokedBy:    a.RevokedBy,
		RevokedAt:    a.RevokedAt,
		RevokeReason: a.RevokeReason,
		CreatedAt:    a.CreatedAt,
	}
}

// RecordPaymentInput is a counter or field payment request
type RecordPaymentInput struct {
	DemandID int64
	Amount   decimal.Decimal
	Mode     string
	Remarks  string
	ActorID  string
}

// CreateGatewayOrderInput starts an online payment
type CreateGatewayOrderInput struct {
	DemandID int64
	Amount   decimal.Decimal
	ActorID  string
}

// GatewayCallbackInput is the verified-by-signature callback of the gateway
type GatewayCallbackInput struct {
	OrderID   string
	PaymentID string
	Signature string
}

// PaymentDTO is the response representation of a payment
type PaymentDTO struct {
	ID               uuid.UUID       `json:"id"`
	ReceiptNumber    string          `json:"receipt_number"`
	DemandID         int64           `json:"demand_id"`
	Amount           decimal.Decimal `json:"amount"`
	Channel          string          `json:"channel"`
	Mode             string          `json:"mode"`
	Status           string          `json:"status"`
	GatewayOrderID   string          `json:"gateway_order_id,omitempty"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty"`
	CollectedBy      string          `json:"collected_by,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ToPaymentDTO converts a domain payment to its response form
func ToPaymentDTO(p *ledger.Payment) PaymentDTO {
	return PaymentDTO{
		ID:               p.ID,
		ReceiptNumber:    p.ReceiptNumber,
		DemandID:         p.DemandID,
		Amount:           p.Amount,
		Channel:          string(p.Channel),
		Mode:             string(p.Mode),
		Status:           string(p.Status),
		GatewayOrderID:   p.GatewayOrderID,
		GatewayPaymentID: p.GatewayPaymentID,
		CollectedBy:      p.CollectedBy,
		PaidAt:           p.PaidAt,
		CreatedAt:        p.CreatedAt,
	}
}

// PaymentResult is returned after a payment was recorded and distributed
type PaymentResult struct {
	Payment          PaymentDTO                 `json:"payment"`
	Distribution     *ledger.DistributionResult `json:"distribution,omitempty"`
	Warning          string                     `json:"warning,omitempty"`
	Integrity        *ledger.IntegrityReport    `json:"integrity,omitempty"`
	AlreadyProcessed bool                       `json:"already_processed,omitempty"`
}
