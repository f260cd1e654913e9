package models

import (
	"time"

	"gorm.io/datatypes"
)

// Session tracks one editing session known to the engine.
type Session struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)"`
	Dialect      string    `gorm:"type:varchar(20)"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	LastActivity time.Time `gorm:"autoUpdateTime"`

	// Statistics
	AnalysisCount int `gorm:"default:0"`

	// Relationship
	Snapshot *Snapshot `gorm:"foreignKey:SessionID"`
}

// Snapshot is the latest completed analysis result for a session. One row
// per session, upserted on every completed cycle; no history is kept.
type Snapshot struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	SessionID string `gorm:"type:varchar(64);uniqueIndex;not null"`
	Dialect   string `gorm:"type:varchar(20);not null"`

	// Result summary
	Valid        bool `gorm:"default:true"`
	ErrorCount   int  `gorm:"default:0"`
	WarningCount int  `gorm:"default:0"`

	// Full finding payloads
	Errors      datatypes.JSON `gorm:"type:jsonb"`
	Warnings    datatypes.JSON `gorm:"type:jsonb"`
	Suggestions datatypes.JSON `gorm:"type:jsonb"`

	ComputedAt time.Time
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName customizations for cleaner names
func (Session) TableName() string  { return "sessions" }
func (Snapshot) TableName() string { return "snapshots" }
