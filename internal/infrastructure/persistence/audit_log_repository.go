package persistence

import (
	"context"
	"fmt"

	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/mtax/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditSink appends ledger audit entries to audit_logs.
// Built from a transaction handle it writes in that transaction.
type GormAuditSink struct {
	db *gorm.DB
}

// NewGormAuditSink creates a new GormAuditSink
func NewGormAuditSink(db *gorm.DB) *GormAuditSink {
	return &GormAuditSink{db: db}
}

// Record inserts the entry
func (s *GormAuditSink) Record(ctx context.Context, entry *ledger.AuditEntry) error {
	if entry == nil {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(models.AuditLogModelFromDomain(entry)).Error; err != nil {
		return fmt.Errorf("record audit %s: %w", entry.Action, err)
	}
	return nil
}

// FindByEntity lists audit entries for one entity, newest first
func (s *GormAuditSink) FindByEntity(ctx context.Context, entityType, entityID string, limit int) ([]ledger.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var list []models.AuditLogModel
	if err := s.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	entries := make([]ledger.AuditEntry, len(list))
	for i := range list {
		entries[i] = *list[i].ToDomain()
	}
	return entries, nil
}

var _ ledger.AuditSink = (*GormAuditSink)(nil)
