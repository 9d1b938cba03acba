package services

import (
	"context"
	"errors"
	"fmt"

	"inkblog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TagService struct {
	db       *gorm.DB
	pageSize int
}

func NewTagService(db *gorm.DB, pageSize int) *TagService {
	return &TagService{db: db, pageSize: pageSize}
}

type TagCount struct {
	Name  string
	Count int64
}

// ResolveOrCreate returns the id of the named tag, creating it on first use.
func (s *TagService) ResolveOrCreate(ctx context.Context, name string) (uint, error) {
	return resolveTag(s.db.WithContext(ctx), name)
}

// resolveTag inserts first and falls back to a lookup, so two callers racing
// on a new name both end up with the single stored row.
func resolveTag(tx *gorm.DB, name string) (uint, error) {
	if name == "" {
		return 0, ErrEmptyTagName
	}

	tag := models.Tag{Name: name}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&tag)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return 0, fmt.Errorf("failed to create tag %q: %w", name, res.Error)
	}
	if res.Error == nil && res.RowsAffected == 1 && tag.ID != 0 {
		return tag.ID, nil
	}

	var existing models.Tag
	if err := tx.Where("name = ?", name).Take(&existing).Error; err != nil {
		return 0, fmt.Errorf("failed to look up tag %q: %w", name, err)
	}
	return existing.ID, nil
}

func (s *TagService) TagsForPost(ctx context.Context, postID uint) ([]string, error) {
	tags, err := tagsForPosts(s.db.WithContext(ctx), []uint{postID})
	if err != nil {
		return nil, err
	}
	return tags[postID], nil
}

// PostsForTag pages through the posts carrying name, newest first.
func (s *TagService) PostsForTag(ctx context.Context, name string, page int, viewer Actor) (int64, []PostView, error) {
	var (
		total int64
		posts []PostView
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		total, posts, err = listPosts(tx, postFilter{tag: name}, page, s.pageSize, viewer)
		return err
	}, snapshotOptions(s.db)...)
	return total, posts, err
}

// RemovePostTag drops one association. The tag row itself is kept.
func (s *TagService) RemovePostTag(ctx context.Context, postID uint, name string) error {
	return removePostTags(s.db.WithContext(ctx), postID, []string{name})
}

func removePostTags(tx *gorm.DB, postID uint, names []string) error {
	if len(names) == 0 {
		return nil
	}
	err := tx.Where("post_id = ? AND tag_id IN (?)", postID,
		tx.Session(&gorm.Session{NewDB: true}).Model(&models.Tag{}).Select("id").Where("name IN ?", names),
	).Delete(&models.PostTag{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove tags from post %d: %w", postID, err)
	}
	return nil
}

// TagCounts lists tags in use, most used first.
func (s *TagService) TagCounts(ctx context.Context) ([]TagCount, error) {
	var counts []TagCount
	err := s.db.WithContext(ctx).Table("tags").
		Select("tags.name, COUNT(post_tags.post_id) AS count").
		Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
		Group("tags.id, tags.name").
		Order("count DESC, tags.name").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count tags: %w", err)
	}
	return counts, nil
}
