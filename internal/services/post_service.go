package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"inkblog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostService struct {
	db       *gorm.DB
	pageSize int
	now      func() time.Time
}

func NewPostService(db *gorm.DB, pageSize int) *PostService {
	return &PostService{db: db, pageSize: pageSize, now: time.Now}
}

func (s *PostService) PageSize() int {
	return s.pageSize
}

// NewPost carries the fields of a post to create. A zero Created means now.
type NewPost struct {
	AuthorID uint
	Title    string
	Body     string
	Tags     []string
	Image    []byte
	Created  time.Time
}

// PostUpdate replaces title, body and tags. Image is applied only when non-empty,
// DeleteImage clears the stored one.
type PostUpdate struct {
	Title       string
	Body        string
	Tags        []string
	Image       []byte
	DeleteImage bool
}

// Create stores the post and its tag associations in one transaction.
func (s *PostService) Create(ctx context.Context, p NewPost) (uint, error) {
	created := p.Created
	if created.IsZero() {
		created = s.now()
	}
	post := models.Post{
		AuthorID: p.AuthorID,
		Title:    p.Title,
		Body:     p.Body,
		Created:  created.UTC(),
	}
	if len(p.Image) > 0 {
		post.Image = p.Image
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		return addPostTags(tx, post.ID, uniqueNames(p.Tags))
	})
	if err != nil {
		return 0, err
	}
	log.Printf("[posts] user %d created post %d", p.AuthorID, post.ID)
	return post.ID, nil
}

// Update rewrites a post and diffs its tag set in one transaction.
func (s *PostService) Update(ctx context.Context, id uint, u PostUpdate) error {
	if u.DeleteImage && len(u.Image) > 0 {
		return ErrInvalidImageRequest
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]interface{}{
			"title": u.Title,
			"body":  u.Body,
		}
		switch {
		case u.DeleteImage:
			fields["image"] = nil
		case len(u.Image) > 0:
			fields["image"] = u.Image
		}

		res := tx.Model(&models.Post{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return fmt.Errorf("failed to update post %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		current, err := tagsForPosts(tx, []uint{id})
		if err != nil {
			return err
		}
		added, removed := diffNames(current[id], uniqueNames(u.Tags))
		if err := removePostTags(tx, id, removed); err != nil {
			return err
		}
		return addPostTags(tx, id, added)
	})
}

// Get returns NotFound when the post is missing.
func (s *PostService) Get(ctx context.Context, id uint, viewer Actor) (*PostView, error) {
	var view *PostView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row postRow
		res := selectPostViews(tx, viewer).
			Joins("JOIN users ON users.id = posts.author_id").
			Where("posts.id = ?", id).
			Limit(1).
			Scan(&row)
		if res.Error != nil {
			return fmt.Errorf("failed to load post %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		v := row.view()
		tags, err := tagsForPosts(tx, []uint{id})
		if err != nil {
			return err
		}
		v.Tags = tags[id]
		view = &v
		return nil
	}, snapshotOptions(s.db)...)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// GetOwned is Get for pages that modify the post: anyone but its author gets Forbidden.
func (s *PostService) GetOwned(ctx context.Context, id uint, owner Actor) (*PostView, error) {
	view, err := s.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if !owner.Owns(view.AuthorID) {
		return nil, ErrForbidden
	}
	return view, nil
}

// Delete removes the post with its tag associations, likes and comments.
func (s *PostService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []interface{}{&models.PostTag{}, &models.Like{}, &models.Comment{}} {
			if err := tx.Where("post_id = ?", id).Delete(child).Error; err != nil {
				return fmt.Errorf("failed to delete %T rows of post %d: %w", child, id, err)
			}
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete post %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("[posts] deleted post %d", id)
	return nil
}

// List pages through all posts, or those whose title or body contains query.
func (s *PostService) List(ctx context.Context, page int, query string, viewer Actor) (int64, []PostView, error) {
	var (
		total int64
		posts []PostView
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		total, posts, err = listPosts(tx, postFilter{search: query}, page, s.pageSize, viewer)
		return err
	}, snapshotOptions(s.db)...)
	return total, posts, err
}

// GetImage returns NotFound both for a missing post and a post without image.
func (s *PostService) GetImage(ctx context.Context, id uint) ([]byte, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Select("id", "image").Take(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load image of post %d: %w", id, err)
	}
	if post.Image == nil {
		return nil, ErrNotFound
	}
	return post.Image, nil
}

func (s *PostService) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

// LastPostTime is nil when the user never posted.
func (s *PostService) LastPostTime(ctx context.Context, userID uint) (*time.Time, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Select("created").
		Where("author_id = ?", userID).
		Order("created DESC").
		Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up last post of user %d: %w", userID, err)
	}
	return &post.Created, nil
}

func addPostTags(tx *gorm.DB, postID uint, names []string) error {
	for _, name := range names {
		tagID, err := resolveTag(tx, name)
		if err != nil {
			return err
		}
		err = tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.PostTag{PostID: postID, TagID: tagID}).Error
		if err != nil {
			return fmt.Errorf("failed to tag post %d with %q: %w", postID, name, err)
		}
	}
	return nil
}

func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// diffNames returns the names only in next and the names only in current.
func diffNames(current, next []string) (added, removed []string) {
	have := make(map[string]bool, len(current))
	for _, n := range current {
		have[n] = true
	}
	want := make(map[string]bool, len(next))
	for _, n := range next {
		want[n] = true
		if !have[n] {
			added = append(added, n)
		}
	}
	for _, n := range current {
		if !want[n] {
			removed = append(removed, n)
		}
	}
	return added, removed
}
