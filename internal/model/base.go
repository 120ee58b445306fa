package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the columns every persistent entity shares: an internal
// autoincrement id that never leaves the process, an immutable external
// UUID assigned at creation, timestamps, and the uniform soft-delete column.
type Base struct {
	ID        uint           `json:"-" gorm:"primaryKey"`
	UUID      string         `json:"uuid" gorm:"type:varchar(36);uniqueIndex"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns the external identifier.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.UUID == "" {
		b.UUID = uuid.New().String()
	}
	return nil
}

// Tenant-scoped entities declare their own tenant_id column so each table
// can fold it into its composite unique indexes. The column is never
// nullable on kernel tables; platform-level tables omit it entirely.
