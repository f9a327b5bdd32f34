package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// DemandModel is the persistence model for the Demand aggregate root.
type DemandModel struct {
	VersionedModel
	DemandNumber         string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	ServiceType          ledger.ServiceType  `gorm:"type:varchar(20);not null;index"`
	FinancialYear        string              `gorm:"type:varchar(9);not null"`
	TotalAmount          decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	BaseAmount           decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	ArrearsAmount        decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	PenaltyAmount        decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	InterestAmount       decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	PenaltyWaived        decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	FinalAmount          *decimal.Decimal    `gorm:"type:decimal(18,2)"`
	PaidAmount           decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	BalanceAmount        decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	Status               ledger.DemandStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	DueDate              *time.Time
	Remarks              string            `gorm:"type:text"`
	PropertyID           *int64            `gorm:"index"`
	WaterTaxAssessmentID *int64            `gorm:"index"`
	ShopTaxAssessmentID  *int64            `gorm:"index"`
	Items                []DemandItemModel `gorm:"foreignKey:DemandID;references:ID"`
}

// TableName returns the table name for GORM
func (DemandModel) TableName() string {
	return "demands"
}

// ToDomain converts the persistence model to a domain Demand entity.
// Items are returned in the order they were loaded.
func (m *DemandModel) ToDomain() *ledger.Demand {
	d := &ledger.Demand{
		DemandNumber:         m.DemandNumber,
		ServiceType:          m.ServiceType,
		FinancialYear:        m.FinancialYear,
		TotalAmount:          m.TotalAmount,
		BaseAmount:           m.BaseAmount,
		ArrearsAmount:        m.ArrearsAmount,
		PenaltyAmount:        m.PenaltyAmount,
		InterestAmount:       m.InterestAmount,
		PenaltyWaived:        m.PenaltyWaived,
		PaidAmount:           m.PaidAmount,
		BalanceAmount:        m.BalanceAmount,
		Status:               m.Status,
		DueDate:              m.DueDate,
		Remarks:              m.Remarks,
		PropertyID:           m.PropertyID,
		WaterTaxAssessmentID: m.WaterTaxAssessmentID,
		ShopTaxAssessmentID:  m.ShopTaxAssessmentID,
	}
	d.BaseAggregateRoot = m.aggregate()
	if m.FinalAmount != nil {
		final := *m.FinalAmount
		d.FinalAmount = &final
	}
	if len(m.Items) > 0 {
		d.Items = make([]ledger.DemandItem, len(m.Items))
		for i := range m.Items {
			d.Items[i] = m.Items[i].ToDomain()
		}
	}
	return d
}

// FromDomain populates the persistence model from a domain Demand entity.
func (m *DemandModel) FromDomain(d *ledger.Demand) {
	m.setAggregate(d.BaseAggregateRoot)
	m.DemandNumber = d.DemandNumber
	m.ServiceType = d.ServiceType
	m.FinancialYear = d.FinancialYear
	m.TotalAmount = d.TotalAmount
	m.BaseAmount = d.BaseAmount
	m.ArrearsAmount = d.ArrearsAmount
	m.PenaltyAmount = d.PenaltyAmount
	m.InterestAmount = d.InterestAmount
	m.PenaltyWaived = d.PenaltyWaived
	m.FinalAmount = nil
	if d.FinalAmount != nil {
		final := *d.FinalAmount
		m.FinalAmount = &final
	}
	m.PaidAmount = d.PaidAmount
	m.BalanceAmount = d.BalanceAmount
	m.Status = d.Status
	m.DueDate = d.DueDate
	m.Remarks = d.Remarks
	m.PropertyID = d.PropertyID
	m.WaterTaxAssessmentID = d.WaterTaxAssessmentID
	m.ShopTaxAssessmentID = d.ShopTaxAssessmentID
	m.Items = make([]DemandItemModel, len(d.Items))
	for i := range d.Items {
		m.Items[i].FromDomain(d.Items[i])
	}
}

// DemandModelFromDomain creates a new persistence model from a domain Demand entity.
func DemandModelFromDomain(d *ledger.Demand) *DemandModel {
	m := &DemandModel{}
	m.FromDomain(d)
	return m
}

// DemandItemModel is the persistence model for a tax-type line of a unified demand.
type DemandItemModel struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	DemandID    int64           `gorm:"not null;index"`
	TaxType     ledger.TaxType  `gorm:"type:varchar(20);not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PaidAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DemandItemModel) TableName() string {
	return "demand_items"
}

// ToDomain converts the persistence model to a domain DemandItem.
func (m *DemandItemModel) ToDomain() ledger.DemandItem {
	return ledger.DemandItem{
		ID:          m.ID,
		DemandID:    m.DemandID,
		TaxType:     m.TaxType,
		TotalAmount: m.TotalAmount,
		PaidAmount:  m.PaidAmount,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain DemandItem.
func (m *DemandItemModel) FromDomain(i ledger.DemandItem) {
	m.ID = i.ID
	m.DemandID = i.DemandID
	m.TaxType = i.TaxType
	m.TotalAmount = i.TotalAmount
	m.PaidAmount = i.PaidAmount
	m.UpdatedAt = i.UpdatedAt
}

// AdjustmentModel is the persistence model for discounts and penalty waivers.
// The partial unique index keeps a single ACTIVE row per demand and kind.
type AdjustmentModel struct {
	BaseModel
	Kind         ledger.AdjustmentKind   `gorm:"type:varchar(20);not null;uniqueIndex:uq_demand_adjustments_active,where:status = 'ACTIVE'"`
	ModuleType   ledger.ModuleType       `gorm:"type:varchar(20);not null"`
	EntityID     int64                   `gorm:"not null"`
	DemandID     int64                   `gorm:"not null;index;uniqueIndex:uq_demand_adjustments_active,where:status = 'ACTIVE'"`
	Type         ledger.AdjustmentType   `gorm:"type:varchar(20);not null"`
	Value        decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	Amount       decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	Reason       string                  `gorm:"type:text;not null"`
	DocumentURL  string                  `gorm:"type:varchar(1024);not null"`
	ApprovedBy   string                  `gorm:"type:varchar(100)"`
	Status       ledger.AdjustmentStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	RevokedBy    string                  `gorm:"type:varchar(100)"`
	RevokedAt    *time.Time
	RevokeReason string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (AdjustmentModel) TableName() string {
	return "demand_adjustments"
}

// ToDomain converts the persistence model to a domain Adjustment entity.
func (m *AdjustmentModel) ToDomain() *ledger.Adjustment {
	return &ledger.Adjustment{
		BaseEntity:   m.entity(),
		Kind:         m.Kind,
		ModuleType:   m.ModuleType,
		EntityID:     m.EntityID,
		DemandID:     m.DemandID,
		Type:         m.Type,
		Value:        m.Value,
		Amount:       m.Amount,
		Reason:       m.Reason,
		DocumentURL:  m.DocumentURL,
		ApprovedBy:   m.ApprovedBy,
		Status:       m.Status,
		RevokedBy:    m.RevokedBy,
		RevokedAt:    m.RevokedAt,
		RevokeReason: m.RevokeReason,
	}
}

// FromDomain populates the persistence model from a domain Adjustment entity.
func (m *AdjustmentModel) FromDomain(a *ledger.Adjustment) {
	m.setEntity(a.BaseEntity)
	m.Kind = a.Kind
	m.ModuleType = a.ModuleType
	m.EntityID = a.EntityID
	m.DemandID = a.DemandID
	m.Type = a.Type
	m.Value = a.Value
	m.Amount = a.Amount
	m.Reason = a.Reason
	m.DocumentURL = a.DocumentURL
	m.ApprovedBy = a.ApprovedBy
	m.Status = a.Status
	m.RevokedBy = a.RevokedBy
	m.RevokedAt = a.RevokedAt
	m.RevokeReason = a.RevokeReason
}

// AdjustmentModelFromDomain creates a new persistence model from a domain Adjustment entity.
func AdjustmentModelFromDomain(a *ledger.Adjustment) *AdjustmentModel {
	m := &AdjustmentModel{}
	m.FromDomain(a)
	return m
}

// PaymentModel is the persistence model for a payment record.
type PaymentModel struct {
	ID               uuid.UUID             `gorm:"type:uuid;primaryKey"`
	ReceiptNumber    string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	DemandID         int64                 `gorm:"not null;index"`
	Amount           decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	Channel          ledger.PaymentChannel `gorm:"type:varchar(20);not null"`
	Mode             ledger.PaymentMode    `gorm:"type:varchar(20);not null"`
	Status           ledger.PaymentStatus  `gorm:"type:varchar(20);not null;default:'pending';index"`
	GatewayOrderID   *string               `gorm:"type:varchar(64);uniqueIndex"`
	GatewayPaymentID string                `gorm:"type:varchar(64)"`
	CollectedBy      string                `gorm:"type:varchar(100)"`
	Remarks          string                `gorm:"type:text"`
	FailureReason    string                `gorm:"type:text"`
	PaidAt           *time.Time
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *ledger.Payment {
	p := &ledger.Payment{
		ID:               m.ID,
		ReceiptNumber:    m.ReceiptNumber,
		DemandID:         m.DemandID,
		Amount:           m.Amount,
		Channel:          m.Channel,
		Mode:             m.Mode,
		Status:           m.Status,
		GatewayPaymentID: m.GatewayPaymentID,
		CollectedBy:      m.CollectedBy,
		Remarks:          m.Remarks,
		FailureReason:    m.FailureReason,
		PaidAt:           m.PaidAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.GatewayOrderID != nil {
		p.GatewayOrderID = *m.GatewayOrderID
	}
	return p
}

// FromDomain populates the persistence model from a domain Payment.
// Counter and field payments carry no gateway order, stored as NULL so
// the unique index only covers gateway payments.
func (m *PaymentModel) FromDomain(p *ledger.Payment) {
	m.ID = p.ID
	m.ReceiptNumber = p.ReceiptNumber
	m.DemandID = p.DemandID
	m.Amount = p.Amount
	m.Channel = p.Channel
	m.Mode = p.Mode
	m.Status = p.Status
	m.GatewayOrderID = nil
	if p.GatewayOrderID != "" {
		orderID := p.GatewayOrderID
		m.GatewayOrderID = &orderID
	}
	m.GatewayPaymentID = p.GatewayPaymentID
	m.CollectedBy = p.CollectedBy
	m.Remarks = p.Remarks
	m.FailureReason = p.FailureReason
	m.PaidAt = p.PaidAt
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *ledger.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// WaterTaxAssessmentModel is the read-only slice of a water tax assessment
// the ledger needs to resolve demand ownership.
type WaterTaxAssessmentModel struct {
	ID                int64 `gorm:"primaryKey"`
	WaterConnectionID int64 `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (WaterTaxAssessmentModel) TableName() string {
	return "water_tax_assessments"
}

// ShopTaxAssessmentModel is the read-only slice of a shop tax assessment
// the ledger needs to resolve demand ownership.
type ShopTaxAssessmentModel struct {
	ID     int64 `gorm:"primaryKey"`
	ShopID int64 `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ShopTaxAssessmentModel) TableName() string {
	return "shop_tax_assessments"
}

// LedgerModels lists every model owned by the ledger, in creation order.
func LedgerModels() []any {
	return []any{
		&DemandModel{},
		&DemandItemModel{},
		&AdjustmentModel{},
		&PaymentModel{},
		&AuditLogModel{},
		&WaterTaxAssessmentModel{},
		&ShopTaxAssessmentModel{},
	}
}
