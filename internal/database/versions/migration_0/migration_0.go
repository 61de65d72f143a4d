package migration_0

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AppState struct {
	Scope         string `gorm:"primaryKey;size:32"`
	ActiveProfile string
	ActiveModel   string
	ActiveStyle   string `gorm:"size:64"`
	UpdateTime    time.Time
}

type Turn struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Model   string
	Style   string `gorm:"size:64"`
	Command string `gorm:"size:20;not null"`
	Status  string `gorm:"size:20;not null;index"`

	Message  string
	Response string
	Error    string

	Suggestions   datatypes.JSON `gorm:"type:jsonb"`
	SearchResults datatypes.JSON `gorm:"type:jsonb"`

	ChunkCount int `gorm:"default:0"`
	DurationMs int64

	CreationTime time.Time `gorm:"index"`
}

func Migration(db *gorm.DB) error {
	if err := db.AutoMigrate(&AppState{}, &Turn{}); err != nil {
		return fmt.Errorf("initial migration failed: %w", err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&AppState{}, &Turn{}); err != nil {
		return fmt.Errorf("rollback of initial migration failed: %w", err)
	}
	return nil
}
