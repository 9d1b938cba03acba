package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"inkblog/internal/models"

	"gorm.io/gorm"
)

type CommentService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db, now: time.Now}
}

type CommentView struct {
	ID       uint
	PostID   uint
	AuthorID uint
	Username string
	Body     string
	Created  time.Time
}

// Create returns NotFound when the post does not exist. A zero created means now.
func (s *CommentService) Create(ctx context.Context, postID, authorID uint, body string, created time.Time) (uint, error) {
	if created.IsZero() {
		created = s.now()
	}
	comment := models.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Body:     body,
		Created:  created.UTC(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := postExists(tx, postID); err != nil {
			return err
		}
		if err := tx.Create(&comment).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Printf("[comments] user %d commented on post %d", authorID, postID)
	return comment.ID, nil
}

func (s *CommentService) selectViews(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table("comments").
		Select("comments.id, comments.post_id, comments.author_id, users.username, comments.body, comments.created").
		Joins("JOIN users ON users.id = comments.author_id")
}

// ListForPost returns the comments of a post, oldest first.
func (s *CommentService) ListForPost(ctx context.Context, postID uint) ([]CommentView, error) {
	var comments []CommentView
	err := s.selectViews(ctx).
		Where("comments.post_id = ?", postID).
		Order("comments.created ASC, comments.id ASC").
		Scan(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments of post %d: %w", postID, err)
	}
	return comments, nil
}

// Get returns NotFound unless the comment belongs to the post.
func (s *CommentService) Get(ctx context.Context, postID, commentID uint) (*CommentView, error) {
	var comment CommentView
	res := s.selectViews(ctx).
		Where("comments.post_id = ? AND comments.id = ?", postID, commentID).
		Limit(1).
		Scan(&comment)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to load comment %d: %w", commentID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &comment, nil
}

// Update does not check ownership; callers do.
func (s *CommentService) Update(ctx context.Context, commentID uint, body string) error {
	res := s.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", commentID).Update("body", body)
	if res.Error != nil {
		return fmt.Errorf("failed to update comment %d: %w", commentID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete does not check ownership; callers do.
func (s *CommentService) Delete(ctx context.Context, commentID uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Comment{}, commentID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete comment %d: %w", commentID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LastCommentTime is nil when the user never commented.
func (s *CommentService) LastCommentTime(ctx context.Context, userID uint) (*time.Time, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Select("created").
		Where("author_id = ?", userID).
		Order("created DESC").
		Limit(1).
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up last comment of user %d: %w", userID, err)
	}
	if len(comments) == 0 {
		return nil, nil
	}
	return &comments[0].Created, nil
}
