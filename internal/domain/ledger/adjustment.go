package ledger

import (
	"strings"
	"time"

	"github.com/mtax/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AdjustmentKind discriminates discounts from penalty waivers
type AdjustmentKind string

const (
	AdjustmentKindDiscount      AdjustmentKind = "DISCOUNT"
	AdjustmentKindPenaltyWaiver AdjustmentKind = "PENALTY_WAIVER"
)

// IsValid checks if the kind is valid
func (k AdjustmentKind) IsValid() bool {
	return k == AdjustmentKindDiscount || k == AdjustmentKindPenaltyWaiver
}

// Other returns the opposite kind. The final-amount formula always needs the
// other kind's active amount when one kind changes.
func (k AdjustmentKind) Other() AdjustmentKind {
	if k == AdjustmentKindDiscount {
		return AdjustmentKindPenaltyWaiver
	}
	return AdjustmentKindDiscount
}

// Label returns the wording used in messages
func (k AdjustmentKind) Label() string {
	if k == AdjustmentKindDiscount {
		return "Discount"
	}
	return "Penalty waiver"
}

// String returns the string representation of AdjustmentKind
func (k AdjustmentKind) String() string {
	return string(k)
}

// ModuleType is the caller-facing tax module an adjustment is requested under
type ModuleType string

const (
	ModuleTypeProperty ModuleType = "PROPERTY"
	ModuleTypeWater    ModuleType = "WATER"
	ModuleTypeShop     ModuleType = "SHOP"
	ModuleTypeD2DC     ModuleType = "D2DC"
	ModuleTypeUnified  ModuleType = "UNIFIED"
)

// String returns the string representation of ModuleType
func (m ModuleType) String() string {
	return string(m)
}

// AllowedFor reports whether the module may carry an adjustment of the kind.
// Penalty waivers are not offered on unified demands.
func (m ModuleType) AllowedFor(kind AdjustmentKind) bool {
	switch m {
	case ModuleTypeProperty, ModuleTypeWater, ModuleTypeShop, ModuleTypeD2DC:
		return true
	case ModuleTypeUnified:
		return kind == AdjustmentKindDiscount
	default:
		return false
	}
}

// AdjustmentType selects how Value is interpreted
type AdjustmentType string

const (
	AdjustmentTypePercentage AdjustmentType = "PERCENTAGE"
	AdjustmentTypeFixed      AdjustmentType = "FIXED"
)

// IsValid checks if the adjustment type is valid
func (t AdjustmentType) IsValid() bool {
	return t == AdjustmentTypePercentage || t == AdjustmentTypeFixed
}

// AdjustmentStatus tracks whether an adjustment still reduces its demand
type AdjustmentStatus string

const (
	AdjustmentStatusActive  AdjustmentStatus = "ACTIVE"
	AdjustmentStatusRevoked AdjustmentStatus = "REVOKED"
)

// Adjustment is a discretionary discount or penalty waiver applied once to a demand
type Adjustment struct {
	shared.BaseEntity
	Kind         AdjustmentKind
	ModuleType   ModuleType
	EntityID     int64
	DemandID     int64
	Type         AdjustmentType
	Value        decimal.Decimal
	Amount       decimal.Decimal
	Reason       string
	DocumentURL  string
	ApprovedBy   string
	Status       AdjustmentStatus
	RevokedBy    string
	RevokedAt    *time.Time
	RevokeReason string
}

// AdjustmentSpec carries the validated request fields used to build an Adjustment
type AdjustmentSpec struct {
	Kind        AdjustmentKind
	ModuleType  ModuleType
	EntityID    int64
	DemandID    int64
	Type        AdjustmentType
	Value       decimal.Decimal
	Amount      decimal.Decimal
	Reason      string
	DocumentURL string
	ApprovedBy  string
}

// NewAdjustment creates an ACTIVE adjustment after checking the fields that
// do not depend on the demand.
func NewAdjustment(spec AdjustmentSpec) (*Adjustment, error) {
	if err := ValidateAdjustmentFields(spec.Kind, spec.ModuleType, spec.Type, spec.Reason, spec.DocumentURL); err != nil {
		return nil, err
	}
	if spec.DemandID <= 0 {
		return nil, NewValidationError("demand_id", "Demand ID is required")
	}
	if !spec.Amount.IsPositive() {
		return nil, ErrZeroOrNegativeAmount
	}

	return &Adjustment{
		BaseEntity:  shared.NewBaseEntity(),
		Kind:        spec.Kind,
		ModuleType:  spec.ModuleType,
		EntityID:    spec.EntityID,
		DemandID:    spec.DemandID,
		Type:        spec.Type,
		Value:       spec.Value,
		Amount:      spec.Amount,
		Reason:      strings.TrimSpace(spec.Reason),
		DocumentURL: strings.TrimSpace(spec.DocumentURL),
		ApprovedBy:  spec.ApprovedBy,
		Status:      AdjustmentStatusActive,
	}, nil
}

// ValidateAdjustmentFields checks required fields and enum membership
func ValidateAdjustmentFields(kind AdjustmentKind, module ModuleType, typ AdjustmentType, reason, documentURL string) error {
	if !kind.IsValid() {
		return NewValidationError("kind", "Unknown adjustment kind")
	}
	if !module.AllowedFor(kind) {
		return NewValidationError("module_type",
			"Module type "+module.String()+" is not allowed for "+kind.Label())
	}
	if !typ.IsValid() {
		return NewValidationError("type", "Type must be PERCENTAGE or FIXED")
	}
	if strings.TrimSpace(reason) == "" {
		return NewValidationError("reason", "Reason is required")
	}
	if strings.TrimSpace(documentURL) == "" {
		return NewValidationError("document_url", "Approval document is required")
	}
	return nil
}

// IsActive reports whether the adjustment still applies to its demand
func (a *Adjustment) IsActive() bool {
	return a.Status == AdjustmentStatusActive
}

// Revoke marks the adjustment REVOKED
func (a *Adjustment) Revoke(by, reason string) error {
	if !a.IsActive() {
		return ErrAdjustmentNotActive.Withf("Adjustment %d is already %s", a.ID, a.Status)
	}
	if strings.TrimSpace(reason) == "" {
		return NewValidationError("reason", "Revoke reason is required")
	}
	now := time.Now()
	a.Status = AdjustmentStatusRevoked
	a.RevokedBy = by
	a.RevokedAt = &now
	a.RevokeReason = strings.TrimSpace(reason)
	a.Touch()
	return nil
}
