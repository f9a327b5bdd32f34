package migration

import (
	"fmt"

	"github.com/mtax/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AutoMigrate creates the ledger tables from the GORM models. It is used for
// the SQLite local mode, where the PostgreSQL migrations do not apply.
func AutoMigrate(db *gorm.DB, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.AutoMigrate(models.LedgerModels()...); err != nil {
		return fmt.Errorf("auto-migrate ledger schema: %w", err)
	}
	logger.Info("Ledger schema synchronized from models",
		zap.String("dialect", db.Dialector.Name()))
	return nil
}
