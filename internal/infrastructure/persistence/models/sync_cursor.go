package models

import "time"

// SyncCursorModel stores the high-water mark of a polling sync. One row per
// named cursor; the product pull uses a single well-known name.
type SyncCursorModel struct {
	Name         string    `gorm:"type:varchar(64);primary_key"`
	LastSyncedAt time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncCursorModel) TableName() string {
	return "sync_cursors"
}
