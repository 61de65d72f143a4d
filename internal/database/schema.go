package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const SettingsScope = "active"

// AppState holds the persisted session settings. There is a single row keyed
// by SettingsScope.
type AppState struct {
	Scope         string `gorm:"primaryKey;size:32"`
	ActiveProfile string
	ActiveModel   string
	ActiveStyle   string `gorm:"size:64"`
	UpdateTime    time.Time
}

const (
	TurnCompleted string = "COMPLETED"
	TurnFailed    string = "FAILED"
	TurnAborted   string = "ABORTED"
)

type Turn struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Model   string
	Style   string `gorm:"size:64"`
	Command string `gorm:"size:20;not null"`
	Status  string `gorm:"size:20;not null;index"`

	Message  string
	Response string
	Error    string

	Suggestions   datatypes.JSON `gorm:"type:jsonb"` // ["…",…]
	SearchResults datatypes.JSON `gorm:"type:jsonb"` // [{"title":"…","url":"…","snippet":"…"},…]

	ImageCount   int `gorm:"default:0"`
	HistoryCount int `gorm:"default:0"`
	ChunkCount   int `gorm:"default:0"`
	DurationMs   int64

	CreationTime time.Time `gorm:"index"`
}
