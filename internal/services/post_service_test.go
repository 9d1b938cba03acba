package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestCreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "alice")

	tests := []struct {
		name  string
		tags  []string
		image []byte
	}{
		{"no tags no image", nil, nil},
		{"tags", []string{"go", "sql"}, nil},
		{"image", nil, []byte{0xff, 0xd8, 0xff}},
		{"tags and image", []string{"go"}, []byte("jpeg")},
		{"empty image counts as none", []string{"x"}, []byte{}},
		{"duplicate tags collapse", []string{"go", "go"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := f.post(t, NewPost{AuthorID: author, Title: tt.name, Body: "body", Tags: tt.tags, Image: tt.image})

			view, err := f.posts.Get(ctx, id, Anonymous)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !sameNames(view.Tags, uniqueNames(tt.tags)) {
				t.Errorf("tags = %v, want %v", view.Tags, tt.tags)
			}
			if view.HasImage != (len(tt.image) > 0) {
				t.Errorf("HasImage = %v for image %v", view.HasImage, tt.image)
			}
			if view.Title != tt.name || view.Body != "body" || view.AuthorID != author || view.Username != "alice" {
				t.Errorf("unexpected view %+v", view)
			}
		})
	}
}

func TestCreateUsesGivenTimestamp(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "alice")
	id := f.post(t, NewPost{AuthorID: author, Title: "t", Body: "b", Created: epoch})

	view, err := f.posts.Get(context.Background(), id, Anonymous)
	if err != nil {
		t.Fatal(err)
	}
	if !view.Created.Equal(epoch) {
		t.Errorf("created = %v, want %v", view.Created, epoch)
	}
}

func TestCreateRejectsEmptyTag(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "alice")

	_, err := f.posts.Create(context.Background(), NewPost{AuthorID: author, Title: "t", Body: "b", Tags: []string{"ok", ""}})
	if !errors.Is(err, ErrEmptyTagName) {
		t.Fatalf("expected ErrEmptyTagName, got %v", err)
	}
	if n, _ := f.posts.Count(context.Background()); n != 0 {
		t.Errorf("expected create to roll back, found %d posts", n)
	}
}

func TestGetNotFoundAndOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	id := f.post(t, NewPost{AuthorID: alice, Title: "t", Body: "b"})

	if _, err := f.posts.Get(ctx, id+1, Anonymous); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.posts.GetOwned(ctx, id+1, AsUser(alice)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound before ownership, got %v", err)
	}
	if _, err := f.posts.GetOwned(ctx, id, AsUser(bob)); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for bob, got %v", err)
	}
	if _, err := f.posts.GetOwned(ctx, id, Anonymous); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for anonymous, got %v", err)
	}
	if _, err := f.posts.GetOwned(ctx, id, AsUser(alice)); err != nil {
		t.Errorf("expected author to pass, got %v", err)
	}
	if _, err := f.posts.Get(ctx, id, AsUser(bob)); err != nil {
		t.Errorf("expected read-only get to ignore ownership, got %v", err)
	}
}

func TestGetLikeState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	id := f.post(t, NewPost{AuthorID: alice, Title: "t", Body: "b"})

	if err := f.likes.SetLike(ctx, id, bob, true); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		viewer Actor
		liked  bool
	}{
		{Anonymous, false},
		{AsUser(alice), false},
		{AsUser(bob), true},
	} {
		view, err := f.posts.Get(ctx, id, tc.viewer)
		if err != nil {
			t.Fatal(err)
		}
		if view.Liked != tc.liked || view.Likes != 1 {
			t.Errorf("viewer %d: liked=%v likes=%d", tc.viewer.UserID, view.Liked, view.Likes)
		}
	}
}

func TestUpdateDiffsTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "alice")
	id := f.post(t, NewPost{AuthorID: author, Title: "t", Body: "b", Tags: []string{"A", "B"}})

	tagA, err := f.tags.ResolveOrCreate(ctx, "A")
	if err != nil {
		t.Fatal(err)
	}

	if err := f.posts.Update(ctx, id, PostUpdate{Title: "t2", Body: "b2", Tags: []string{"B", "C"}}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	tags, err := f.tags.TagsForPost(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !sameNames(tags, []string{"B", "C"}) {
		t.Errorf("tags = %v, want [B C]", tags)
	}

	again, err := f.tags.ResolveOrCreate(ctx, "A")
	if err != nil || again != tagA {
		t.Errorf("expected tag A to survive with id %d, got %d %v", tagA, again, err)
	}

	view, err := f.posts.Get(ctx, id, Anonymous)
	if err != nil {
		t.Fatal(err)
	}
	if view.Title != "t2" || view.Body != "b2" {
		t.Errorf("title/body not replaced: %+v", view)
	}
}

func TestUpdateImage(t *testing.T) {
	ctx := context.Background()
	original := []byte("original")
	replacement := []byte("replacement")

	tests := []struct {
		name      string
		update    PostUpdate
		wantErr   error
		wantImage []byte
	}{
		{"untouched", PostUpdate{}, nil, original},
		{"replace", PostUpdate{Image: replacement}, nil, replacement},
		{"delete", PostUpdate{DeleteImage: true}, nil, nil},
		{"delete and replace", PostUpdate{Image: replacement, DeleteImage: true}, ErrInvalidImageRequest, original},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			author := f.user(t, "alice")
			id := f.post(t, NewPost{AuthorID: author, Title: "before", Body: "b", Tags: []string{"keep"}, Image: original})

			tt.update.Title = "after"
			tt.update.Body = "b"
			err := f.posts.Update(ctx, id, tt.update)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			img, err := f.posts.GetImage(ctx, id)
			if tt.wantImage == nil {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("expected image to be gone, got %q %v", img, err)
				}
			} else if err != nil || !bytes.Equal(img, tt.wantImage) {
				t.Errorf("image = %q %v, want %q", img, err, tt.wantImage)
			}

			if tt.wantErr != nil {
				view, _ := f.posts.Get(ctx, id, Anonymous)
				if view.Title != "before" || !sameNames(view.Tags, []string{"keep"}) {
					t.Errorf("rejected update changed the post: %+v", view)
				}
			}
		})
	}
}

func TestUpdateMissingPost(t *testing.T) {
	f := newFixture(t)
	err := f.posts.Update(context.Background(), 42, PostUpdate{Title: "t", Body: "b"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "alice")
	withImage := f.post(t, NewPost{AuthorID: author, Title: "t", Body: "b", Image: []byte{1, 2, 3}})
	without := f.post(t, NewPost{AuthorID: author, Title: "t", Body: "b"})

	img, err := f.posts.GetImage(ctx, withImage)
	if err != nil || !bytes.Equal(img, []byte{1, 2, 3}) {
		t.Errorf("GetImage = %v %v", img, err)
	}
	for _, id := range []uint{without, without + 100} {
		if _, err := f.posts.GetImage(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("post %d: expected ErrNotFound, got %v", id, err)
		}
	}
}

func seedPosts(t *testing.T, f *fixture, author uint, n int) []uint {
	t.Helper()
	ids := make([]uint, n)
	for i := 0; i < n; i++ {
		ids[i] = f.post(t, NewPost{
			AuthorID: author,
			Title:    fmt.Sprintf("title%d", i),
			Body:     fmt.Sprintf("BODY%d", i),
			Created:  epoch.Add(time.Duration(i) * time.Minute),
		})
	}
	return ids
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()

	for _, n := range []int{0, 1, 5, 6, 12} {
		t.Run(fmt.Sprintf("%d posts", n), func(t *testing.T) {
			f := newFixture(t)
			seedPosts(t, f, f.user(t, "alice"), n)

			last := NumPages(int64(n), testPageSize)
			total, posts, err := f.posts.List(ctx, last, "", Anonymous)
			if err != nil {
				t.Fatal(err)
			}
			if total != int64(n) {
				t.Errorf("total = %d, want %d", total, n)
			}
			want := 0
			if n > 0 {
				want = (n-1)%testPageSize + 1
			}
			if len(posts) != want {
				t.Errorf("last page has %d rows, want %d", len(posts), want)
			}

			total, posts, err = f.posts.List(ctx, last+1, "", Anonymous)
			if err != nil || len(posts) != 0 || total != int64(n) {
				t.Errorf("past the end: total=%d rows=%d err=%v", total, len(posts), err)
			}
		})
	}
}

func TestListPagesOutOfRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "alice")
	f.post(t, NewPost{AuthorID: author, Title: "only", Body: "b", Tags: []string{"go"}})

	for _, page := range []int{0, -1, math.MaxInt/testPageSize + 2} {
		total, posts, err := f.posts.List(ctx, page, "", Anonymous)
		if err != nil || total != 1 || len(posts) != 0 {
			t.Errorf("List page %d: total=%d rows=%d err=%v", page, total, len(posts), err)
		}
		total, posts, err = f.tags.PostsForTag(ctx, "go", page, Anonymous)
		if err != nil || total != 1 || len(posts) != 0 {
			t.Errorf("PostsForTag page %d: total=%d rows=%d err=%v", page, total, len(posts), err)
		}
	}
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(t)
	ids := seedPosts(t, f, f.user(t, "alice"), 7)

	_, posts, err := f.posts.List(context.Background(), 1, "", Anonymous)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range posts {
		if want := ids[len(ids)-1-i]; p.ID != want {
			t.Errorf("position %d: got post %d, want %d", i, p.ID, want)
		}
		if p.Username != "alice" {
			t.Errorf("username = %q", p.Username)
		}
	}
}

func TestListSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "alice")
	seedPosts(t, f, author, 4)
	f.post(t, NewPost{AuthorID: author, Title: "discount", Body: "now 50% off"})
	f.post(t, NewPost{AuthorID: author, Title: "other", Body: "500 items"})

	tests := []struct {
		query string
		want  int64
	}{
		{"bOdY2", 1},
		{"TITLE", 4},
		{"50%", 1},
		{"5_0", 0},
		{"missing", 0},
	}
	for _, tt := range tests {
		total, posts, err := f.posts.List(ctx, 1, tt.query, Anonymous)
		if err != nil {
			t.Fatalf("List(%q): %v", tt.query, err)
		}
		if total != tt.want || int64(len(posts)) != tt.want {
			t.Errorf("List(%q) total=%d rows=%d, want %d", tt.query, total, len(posts), tt.want)
		}
	}
}

func TestListViewerAnnotations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	liked := f.post(t, NewPost{AuthorID: alice, Title: "liked", Body: "b", Image: []byte("img"), Tags: []string{"go"}, Created: epoch})
	f.post(t, NewPost{AuthorID: alice, Title: "plain", Body: "b", Created: epoch.Add(time.Minute)})
	if err := f.likes.SetLike(ctx, liked, bob, true); err != nil {
		t.Fatal(err)
	}

	_, posts, err := f.posts.List(ctx, 1, "", AsUser(bob))
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	plain, first := posts[0], posts[1]
	if !first.Liked || !first.HasImage || first.Likes != 1 || !sameNames(first.Tags, []string{"go"}) {
		t.Errorf("unexpected annotations on liked post: %+v", first)
	}
	if plain.Liked || plain.HasImage || plain.Likes != 0 || len(plain.Tags) != 0 {
		t.Errorf("unexpected annotations on plain post: %+v", plain)
	}
}

func TestDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	doomed := f.post(t, NewPost{AuthorID: alice, Title: "t", Body: "b", Tags: []string{"shared", "solo"}})
	kept := f.post(t, NewPost{AuthorID: alice, Title: "t", Body: "b", Tags: []string{"shared"}})
	sharedID, _ := f.tags.ResolveOrCreate(ctx, "shared")

	if err := f.likes.SetLike(ctx, doomed, bob, true); err != nil {
		t.Fatal(err)
	}
	if _, err := f.comments.Create(ctx, doomed, bob, "hi", time.Time{}); err != nil {
		t.Fatal(err)
	}

	if err := f.posts.Delete(ctx, doomed); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if tags, _ := f.tags.TagsForPost(ctx, doomed); len(tags) != 0 {
		t.Errorf("tags left behind: %v", tags)
	}
	if n, _ := f.likes.CountLikes(ctx, doomed); n != 0 {
		t.Errorf("likes left behind: %d", n)
	}
	if comments, _ := f.comments.ListForPost(ctx, doomed); len(comments) != 0 {
		t.Errorf("comments left behind: %v", comments)
	}
	if _, err := f.posts.Get(ctx, doomed, Anonymous); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected deleted post to be gone, got %v", err)
	}
	if id, _ := f.tags.ResolveOrCreate(ctx, "shared"); id != sharedID {
		t.Errorf("shared tag was recreated")
	}
	if tags, _ := f.tags.TagsForPost(ctx, kept); !sameNames(tags, []string{"shared"}) {
		t.Errorf("other post lost its tags: %v", tags)
	}

	if err := f.posts.Delete(ctx, doomed); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCountAndLastPostTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	if last, err := f.posts.LastPostTime(ctx, alice); err != nil || last != nil {
		t.Fatalf("expected no post yet, got %v %v", last, err)
	}
	seedPosts(t, f, alice, 3)

	if n, err := f.posts.Count(ctx); err != nil || n != 3 {
		t.Errorf("Count = %d %v", n, err)
	}
	last, err := f.posts.LastPostTime(ctx, alice)
	if err != nil || last == nil || !last.Equal(epoch.Add(2*time.Minute)) {
		t.Errorf("LastPostTime = %v %v", last, err)
	}
	if last, _ := f.posts.LastPostTime(ctx, bob); last != nil {
		t.Errorf("expected bob to have no posts, got %v", last)
	}
}
