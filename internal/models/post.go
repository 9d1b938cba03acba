package models

import (
	"time"
)

type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	AuthorID uint      `gorm:"not null;index" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Title    string    `gorm:"not null" json:"title"`
	Body     string    `gorm:"type:text;not null" json:"body"`
	Image    []byte    `json:"-"` // NULL when the post has no image
	Created  time.Time `gorm:"not null;index" json:"created"`
}
