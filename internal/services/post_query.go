package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// PostView is a post as shown to one viewer.
type PostView struct {
	ID       uint
	Title    string
	Body     string
	Created  time.Time
	AuthorID uint
	Username string
	HasImage bool
	Liked    bool
	Likes    int64
	Tags     []string
}

type postRow struct {
	ID       uint
	Title    string
	Body     string
	Created  time.Time
	AuthorID uint
	Username string
	HasImage bool
	Liked    bool
	Likes    int64
	Total    int64
}

func (r postRow) view() PostView {
	return PostView{
		ID:       r.ID,
		Title:    r.Title,
		Body:     r.Body,
		Created:  r.Created,
		AuthorID: r.AuthorID,
		Username: r.Username,
		HasImage: r.HasImage,
		Liked:    r.Liked,
		Likes:    r.Likes,
	}
}

// postFilter narrows a listing. The zero value matches every post.
type postFilter struct {
	search string
	tag    string
}

func (f postFilter) apply(q *gorm.DB) *gorm.DB {
	q = q.Joins("JOIN users ON users.id = posts.author_id")
	if f.tag != "" {
		q = q.Joins("JOIN post_tags ON post_tags.post_id = posts.id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("tags.name = ?", f.tag)
	}
	if f.search != "" {
		pattern := likePattern(f.search)
		q = q.Where(`(LOWER(posts.title) LIKE LOWER(?) ESCAPE '\' OR LOWER(posts.body) LIKE LOWER(?) ESCAPE '\')`, pattern, pattern)
	}
	return q
}

// selectPostViews selects every PostView column plus the window total of the filtered set.
func selectPostViews(tx *gorm.DB, viewer Actor) *gorm.DB {
	return tx.Table("posts").Select(`posts.id, posts.title, posts.body, posts.created, posts.author_id, users.username,
		posts.image IS NOT NULL AS has_image,
		(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes,
		EXISTS (SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS liked,
		COUNT(*) OVER () AS total`, viewer.UserID)
}

// listPosts returns one newest-first page and the size of the whole filtered set.
// Callers run it inside a transaction so both numbers come from one read.
func listPosts(tx *gorm.DB, f postFilter, page, size int, viewer Actor) (int64, []PostView, error) {
	var rows []postRow
	if offset, ok := pageOffset(page, size); ok {
		err := f.apply(selectPostViews(tx, viewer)).
			Order("posts.created DESC, posts.id DESC").
			Limit(size).
			Offset(offset).
			Scan(&rows).Error
		if err != nil {
			return 0, nil, fmt.Errorf("failed to list posts: %w", err)
		}
	}

	var total int64
	if len(rows) > 0 {
		total = rows[0].Total
	} else if err := f.apply(tx.Table("posts")).Count(&total).Error; err != nil {
		return 0, nil, fmt.Errorf("failed to count posts: %w", err)
	}

	posts := make([]PostView, len(rows))
	ids := make([]uint, len(rows))
	for i, r := range rows {
		posts[i] = r.view()
		ids[i] = r.ID
	}
	tags, err := tagsForPosts(tx, ids)
	if err != nil {
		return 0, nil, err
	}
	for i := range posts {
		posts[i].Tags = tags[posts[i].ID]
	}
	return total, posts, nil
}

type postTagName struct {
	PostID uint
	Name   string
}

func tagsForPosts(tx *gorm.DB, postIDs []uint) (map[uint][]string, error) {
	out := make(map[uint][]string, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var rows []postTagName
	err := tx.Table("post_tags").
		Select("post_tags.post_id, tags.name").
		Joins("JOIN tags ON tags.id = post_tags.tag_id").
		Where("post_tags.post_id IN ?", postIDs).
		Order("tags.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	for _, r := range rows {
		out[r.PostID] = append(out[r.PostID], r.Name)
	}
	return out, nil
}
