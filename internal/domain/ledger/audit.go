package ledger

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction is the closed set of actions the ledger records. Call sites
// pass one of these constants; there is no free-text action label.
type AuditAction string

const (
	AuditActionDiscountApplied   AuditAction = "DISCOUNT_APPLIED"
	AuditActionWaiverApplied     AuditAction = "PENALTY_WAIVER_APPLIED"
	AuditActionAdjustmentRevoked AuditAction = "ADJUSTMENT_REVOKED"
	AuditActionPaymentRecorded   AuditAction = "PAYMENT_RECORDED"
	AuditActionPaymentRejected   AuditAction = "PAYMENT_REJECTED"
	AuditActionIntegrityWarning  AuditAction = "INTEGRITY_WARNING"
	AuditActionSignatureRejected AuditAction = "GATEWAY_SIGNATURE_REJECTED"
	AuditActionDocumentUploaded  AuditAction = "DOCUMENT_UPLOADED"
)

// AuditCategory is the coarse stored classification of an audit entry
type AuditCategory string

const (
	AuditCategoryCreate   AuditCategory = "CREATE"
	AuditCategoryUpdate   AuditCategory = "UPDATE"
	AuditCategoryPayment  AuditCategory = "PAYMENT"
	AuditCategorySecurity AuditCategory = "SECURITY"
	AuditCategoryOther    AuditCategory = "OTHER"
)

// auditCategories maps every AuditAction to its stored category
var auditCategories = map[AuditAction]AuditCategory{
	AuditActionDiscountApplied:   AuditCategoryUpdate,
	AuditActionWaiverApplied:     AuditCategoryUpdate,
	AuditActionAdjustmentRevoked: AuditCategoryUpdate,
	AuditActionPaymentRecorded:   AuditCategoryPayment,
	AuditActionPaymentRejected:   AuditCategorySecurity,
	AuditActionIntegrityWarning:  AuditCategoryOther,
	AuditActionSignatureRejected: AuditCategorySecurity,
	AuditActionDocumentUploaded:  AuditCategoryCreate,
}

// IsValid reports whether the action belongs to the closed set
func (a AuditAction) IsValid() bool {
	_, ok := auditCategories[a]
	return ok
}

// Category returns the stored category; unknown actions fall into OTHER
func (a AuditAction) Category() AuditCategory {
	if c, ok := auditCategories[a]; ok {
		return c
	}
	return AuditCategoryOther
}

// String returns the string representation of AuditAction
func (a AuditAction) String() string {
	return string(a)
}

// AuditActions returns every known action
func AuditActions() []AuditAction {
	return []AuditAction{
		AuditActionDiscountApplied,
		AuditActionWaiverApplied,
		AuditActionAdjustmentRevoked,
		AuditActionPaymentRecorded,
		AuditActionPaymentRejected,
		AuditActionIntegrityWarning,
		AuditActionSignatureRejected,
		AuditActionDocumentUploaded,
	}
}

// Entity types recorded in audit entries
const (
	AuditEntityDemand     = "DEMAND"
	AuditEntityAdjustment = "ADJUSTMENT"
	AuditEntityPayment    = "PAYMENT"
	AuditEntityDocument   = "DOCUMENT"
)

// AuditEntry is one record handed to the audit sink
type AuditEntry struct {
	ID           uuid.UUID
	Action       AuditAction
	EntityType   string
	EntityID     string
	PreviousData any
	NewData      any
	Description  string
	Metadata     map[string]any
	ActorID      string
	CreatedAt    time.Time
}

// NewAuditEntry creates an entry stamped with a fresh ID and the current time
func NewAuditEntry(action AuditAction, entityType, entityID, actorID, description string) *AuditEntry {
	return &AuditEntry{
		ID:          uuid.New(),
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
		ActorID:     actorID,
		Metadata:    map[string]any{},
		CreatedAt:   time.Now(),
	}
}

// WithDiff attaches before/after state
func (e *AuditEntry) WithDiff(previous, next any) *AuditEntry {
	e.PreviousData = previous
	e.NewData = next
	return e
}

// WithMetadata merges metadata into the entry
func (e *AuditEntry) WithMetadata(kv map[string]any) *AuditEntry {
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	for k, v := range kv {
		e.Metadata[k] = v
	}
	return e
}
