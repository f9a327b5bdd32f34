package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mtax/backend/internal/domain/ledger"
	"go.uber.org/zap"
)

var modelLogger = zap.L().Named("ledger.models")

// AuditLogModel is the persistence model for ledger audit entries.
// Audit logs are append-only and are never updated after insert.
type AuditLogModel struct {
	ID               uuid.UUID            `gorm:"type:uuid;primaryKey"`
	ActionType       ledger.AuditAction   `gorm:"type:varchar(50);not null;index"`
	Category         ledger.AuditCategory `gorm:"type:varchar(20);not null;index"`
	EntityType       string               `gorm:"type:varchar(30);not null;index:idx_audit_logs_entity"`
	EntityID         string               `gorm:"type:varchar(64);not null;index:idx_audit_logs_entity"`
	PreviousDataJSON string               `gorm:"column:previous_data;type:jsonb"`
	NewDataJSON      string               `gorm:"column:new_data;type:jsonb"`
	Description      string               `gorm:"type:text"`
	MetadataJSON     string               `gorm:"column:metadata;type:jsonb"`
	ActorID          string               `gorm:"type:varchar(100);index"`
	CreatedAt        time.Time            `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ToDomain converts the persistence model to a domain AuditEntry.
// Stored diffs come back as generic JSON values.
func (m *AuditLogModel) ToDomain() *ledger.AuditEntry {
	entry := &ledger.AuditEntry{
		ID:          m.ID,
		Action:      m.ActionType,
		EntityType:  m.EntityType,
		EntityID:    m.EntityID,
		Description: m.Description,
		Metadata:    map[string]any{},
		ActorID:     m.ActorID,
		CreatedAt:   m.CreatedAt,
	}
	entry.PreviousData = m.decode("previous_data", m.PreviousDataJSON)
	entry.NewData = m.decode("new_data", m.NewDataJSON)

	if m.MetadataJSON != "" && m.MetadataJSON != "{}" {
		var metadata map[string]any
		if err := json.Unmarshal([]byte(m.MetadataJSON), &metadata); err != nil {
			modelLogger.Warn("failed to parse audit log metadata JSON",
				zap.String("audit_id", m.ID.String()),
				zap.Error(err))
		} else {
			entry.Metadata = metadata
		}
	}
	return entry
}

func (m *AuditLogModel) decode(column, raw string) any {
	if raw == "" || raw == "null" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		modelLogger.Warn("failed to parse audit log JSON column",
			zap.String("audit_id", m.ID.String()),
			zap.String("column", column),
			zap.Error(err))
		return nil
	}
	return v
}

// FromDomain populates the persistence model from a domain AuditEntry.
// Values that cannot be encoded are stored as NULL rather than failing the write.
func (m *AuditLogModel) FromDomain(e *ledger.AuditEntry) {
	m.ID = e.ID
	m.ActionType = e.Action
	m.Category = e.Action.Category()
	m.EntityType = e.EntityType
	m.EntityID = e.EntityID
	m.Description = e.Description
	m.ActorID = e.ActorID
	m.CreatedAt = e.CreatedAt
	m.PreviousDataJSON = encodeJSON(e.PreviousData, "null")
	m.NewDataJSON = encodeJSON(e.NewData, "null")
	if len(e.Metadata) > 0 {
		m.MetadataJSON = encodeJSON(e.Metadata, "{}")
	} else {
		m.MetadataJSON = "{}"
	}
}

// AuditLogModelFromDomain creates a new persistence model from a domain AuditEntry.
func AuditLogModelFromDomain(e *ledger.AuditEntry) *AuditLogModel {
	m := &AuditLogModel{}
	m.FromDomain(e)
	return m
}

func encodeJSON(v any, fallback string) string {
	if v == nil {
		return fallback
	}
	b, err := json.Marshal(v)
	if err != nil {
		modelLogger.Warn("failed to encode audit log JSON", zap.Error(err))
		return fallback
	}
	return string(b)
}
