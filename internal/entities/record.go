package entities

import (
	"time"
)

// Record is a persisted JSON document addressed by key.
type Record struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Record) TableName() string {
	return "records"
}

// Known record keys
const (
	RecordKeyQueue    = "khelo_local_queue"
	RecordKeySettings = "khelo_settings"
)
