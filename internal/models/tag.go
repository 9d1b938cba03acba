package models

type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null;check:name <> ''" json:"name"`
}

// PostTag associates a post with one of its tags.
type PostTag struct {
	PostID uint `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	Post   Post `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	TagID  uint `gorm:"primaryKey;autoIncrement:false;index" json:"tag_id"`
	Tag    Tag  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
