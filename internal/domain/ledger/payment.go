package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mtax/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentChannel identifies the entry path a payment arrived through
type PaymentChannel string

const (
	PaymentChannelCounter PaymentChannel = "COUNTER"
	PaymentChannelOnline  PaymentChannel = "ONLINE"
	PaymentChannelField   PaymentChannel = "FIELD"
)

// IsValid checks if the channel is valid
func (c PaymentChannel) IsValid() bool {
	switch c {
	case PaymentChannelCounter, PaymentChannelOnline, PaymentChannelField:
		return true
	}
	return false
}

// PaymentMode is the instrument used to pay
type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "CASH"
	PaymentModeCheque PaymentMode = "CHEQUE"
	PaymentModeUPI    PaymentMode = "UPI"
	PaymentModeCard   PaymentMode = "CARD"
	PaymentModeOnline PaymentMode = "ONLINE"
)

// IsValid checks if the mode is valid
func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentModeCash, PaymentModeCheque, PaymentModeUPI, PaymentModeCard, PaymentModeOnline:
		return true
	}
	return false
}

// PaymentStatus represents the status of a payment record
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment is a single payment against a demand. Only completed payments
// have been distributed onto the demand.
type Payment struct {
	ID               uuid.UUID
	ReceiptNumber    string
	DemandID         int64
	Amount           decimal.Decimal
	Channel          PaymentChannel
	Mode             PaymentMode
	Status           PaymentStatus
	GatewayOrderID   string
	GatewayPaymentID string
	CollectedBy      string
	Remarks          string
	FailureReason    string
	PaidAt           *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewPayment creates a pending payment record with the amount rounded to
// paise. Callers run the overpayment guard before constructing one.
func NewPayment(demandID int64, amount decimal.Decimal, channel PaymentChannel, mode PaymentMode, collectedBy string) (*Payment, error) {
	amount = valueobject.Round2(amount)
	if demandID <= 0 {
		return nil, NewValidationError("demand_id", "Demand ID is required")
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !channel.IsValid() {
		return nil, NewValidationError("channel", "Unknown payment channel")
	}
	if !mode.IsValid() {
		return nil, NewValidationError("mode", "Unknown payment mode")
	}

	now := time.Now()
	id := uuid.New()
	return &Payment{
		ID:            id,
		ReceiptNumber: receiptNumber(channel, now, id),
		DemandID:      demandID,
		Amount:        amount,
		Channel:       channel,
		Mode:          mode,
		Status:        PaymentStatusPending,
		CollectedBy:   collectedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Complete marks the payment completed
func (p *Payment) Complete(gatewayPaymentID string) error {
	if p.Status == PaymentStatusCompleted {
		return NewValidationError("status", "Payment is already completed")
	}
	now := time.Now()
	p.Status = PaymentStatusCompleted
	if gatewayPaymentID != "" {
		p.GatewayPaymentID = gatewayPaymentID
	}
	p.PaidAt = &now
	p.UpdatedAt = now
	return nil
}

// Fail marks the payment failed with a reason
func (p *Payment) Fail(reason string) {
	p.Status = PaymentStatusFailed
	p.FailureReason = reason
	p.UpdatedAt = time.Now()
}

// receiptNumber renders e.g. CNT-20260418-1A2B3C4D
func receiptNumber(channel PaymentChannel, at time.Time, id uuid.UUID) string {
	prefix := map[PaymentChannel]string{
		PaymentChannelCounter: "CNT",
		PaymentChannelOnline:  "ONL",
		PaymentChannelField:   "FLD",
	}[channel]
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, at.Format("20060102"), suffix)
}
