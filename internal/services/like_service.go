package services

import (
	"context"
	"fmt"

	"inkblog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LikeService struct {
	db *gorm.DB
}

func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{db: db}
}

// SetLike records whether the user likes the post. Repeating the same call is a no-op.
func (s *LikeService) SetLike(ctx context.Context, postID, userID uint, liked bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := postExists(tx, postID); err != nil {
			return err
		}
		like := models.Like{PostID: postID, UserID: userID}
		if liked {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return fmt.Errorf("failed to like post %d: %w", postID, err)
			}
			return nil
		}
		if err := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{}).Error; err != nil {
			return fmt.Errorf("failed to unlike post %d: %w", postID, err)
		}
		return nil
	})
}

func (s *LikeService) CountLikes(ctx context.Context, postID uint) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count likes of post %d: %w", postID, err)
	}
	return n, nil
}

// IsLiked is always false for anonymous viewers.
func (s *LikeService) IsLiked(ctx context.Context, postID uint, viewer Actor) (bool, error) {
	if !viewer.Authenticated() {
		return false, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ? AND user_id = ?", postID, viewer.UserID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up like: %w", err)
	}
	return n > 0, nil
}

func postExists(tx *gorm.DB, postID uint) error {
	var n int64
	if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to look up post %d: %w", postID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
