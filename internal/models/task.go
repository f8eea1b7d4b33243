package models

import (
	"strings"
	"time"
)

// Task is the canonical task record. Remote payloads are reconciled into it once, at ingestion.
type Task struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"TaskID"`
	Name        string    `gorm:"type:varchar(255);not null" json:"Name"`
	Description string    `gorm:"type:text" json:"Description"`
	CreatedBy   string    `gorm:"type:varchar(36);index;not null" json:"CreatedBy"`
	AssignedTo  []string  `gorm:"serializer:json;type:text" json:"AssignedTo"`
	FileKey     *string   `gorm:"type:varchar(1024)" json:"FileKey,omitempty"`
	FileURL     *string   `gorm:"type:varchar(2048)" json:"FileURL,omitempty"`
	CreatedAt   time.Time `json:"CreatedAt"`
}

func (Task) TableName() string {
	return tableNames.Tasks
}

// IsVisibleTo reports whether userID created the task or is one of its assignees.
func (t *Task) IsVisibleTo(userID string) bool {
	id := strings.TrimSpace(userID)
	if id == "" {
		return false
	}
	if strings.TrimSpace(t.CreatedBy) == id {
		return true
	}
	return t.IsAssignee(id)
}

func (t *Task) IsAssignee(userID string) bool {
	id := strings.TrimSpace(userID)
	for _, a := range t.AssignedTo {
		if strings.TrimSpace(a) == id {
			return true
		}
	}
	return false
}

func (t *Task) IsCreator(userID string) bool {
	return strings.TrimSpace(t.CreatedBy) == strings.TrimSpace(userID)
}

// AttachmentKey returns the task's own object key, or "" when there is none.
func (t *Task) AttachmentKey() string {
	if t.FileKey == nil {
		return ""
	}
	return *t.FileKey
}
