package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"inkblog/internal/config"
	"inkblog/internal/db"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPageSize = 5

type fixture struct {
	db       *gorm.DB
	auth     *AuthService
	posts    *PostService
	tags     *TagService
	likes    *LikeService
	comments *CommentService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := config.Default()
	cfg.Debug = false
	cfg.DatabaseURL = filepath.Join(t.TempDir(), "test.db")
	conn, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := newTestDB(t)
	return &fixture{
		db:       conn,
		auth:     newAuthService(conn, bcrypt.MinCost),
		posts:    NewPostService(conn, testPageSize),
		tags:     NewTagService(conn, testPageSize),
		likes:    NewLikeService(conn),
		comments: NewCommentService(conn),
	}
}

func (f *fixture) user(t *testing.T, name string) uint {
	t.Helper()
	id, err := f.auth.Register(context.Background(), name, "pw-"+name, "10.0.0.1", time.Now())
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return id
}

func (f *fixture) post(t *testing.T, p NewPost) uint {
	t.Helper()
	id, err := f.posts.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("create post %q: %v", p.Title, err)
	}
	return id
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, n := range a {
		seen[n]++
	}
	for _, n := range b {
		seen[n]--
		if seen[n] < 0 {
			return false
		}
	}
	return true
}
