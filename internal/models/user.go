package models

import "time"

type User struct {
	ID           string     `gorm:"type:varchar(36);primaryKey" json:"UserID"`
	Username     string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"Username"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"Email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	Role         string     `gorm:"type:varchar(20);not null;default:'User'" json:"Role"`
	CreatedAt    time.Time  `json:"CreatedAt"`
	LastLogin    *time.Time `json:"LastLogin"`
}

func (User) TableName() string {
	return tableNames.Users
}
