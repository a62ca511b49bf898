package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erp/bridge/internal/domain/shared"
	syncdomain "github.com/erp/bridge/internal/domain/sync"
	"github.com/erp/bridge/internal/infrastructure/persistence/models"
)

// GormSyncCursorRepository implements the cursor store using GORM
type GormSyncCursorRepository struct {
	db *gorm.DB
}

// Compile-time interface check
var _ syncdomain.CursorStore = (*GormSyncCursorRepository)(nil)

// NewGormSyncCursorRepository creates a new GormSyncCursorRepository
func NewGormSyncCursorRepository(db *gorm.DB) *GormSyncCursorRepository {
	return &GormSyncCursorRepository{db: db}
}

// Get returns the stored instant for a cursor
func (r *GormSyncCursorRepository) Get(ctx context.Context, name string) (time.Time, bool, error) {
	var model models.SyncCursorModel
	if err := r.db.WithContext(ctx).First(&model, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("%w: reading cursor %s: %v", shared.ErrPersistenceFailed, name, err)
	}
	return model.LastSyncedAt, true, nil
}

// Set writes the cursor, overwriting any previous value
func (r *GormSyncCursorRepository) Set(ctx context.Context, name string, ts time.Time) error {
	model := models.SyncCursorModel{
		Name:         name,
		LastSyncedAt: ts,
		UpdatedAt:    time.Now(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_synced_at", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("%w: writing cursor %s: %v", shared.ErrPersistenceFailed, name, err)
	}
	return nil
}
