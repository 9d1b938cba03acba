package models

// Like is present while the user likes the post.
type Like struct {
	PostID uint `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	Post   Post `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID uint `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	User   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
