package models

import "time"

// TaskAssignment is a write-only fan-out row, one per assignee, recorded when a task is created.
type TaskAssignment struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"AssignmentID"`
	TaskID     string    `gorm:"type:varchar(36);index;not null" json:"TaskID"`
	UserID     string    `gorm:"type:varchar(36);index;not null" json:"UserID"`
	AssignedAt time.Time `json:"AssignedAt"`
}

func (TaskAssignment) TableName() string {
	return tableNames.TaskAssignments
}
