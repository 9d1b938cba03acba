package models

import (
	"time"
)

type User struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Username         string    `gorm:"uniqueIndex;not null" json:"username"` // case-sensitive
	PasswordHash     string    `gorm:"not null" json:"-"`
	RegistrationIP   string    `gorm:"index;size:64" json:"-"`
	RegistrationTime time.Time `gorm:"not null;index" json:"registration_time"`
}
