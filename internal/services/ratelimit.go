package services

import (
	"context"
	"time"

	"inkblog/internal/config"
)

// ExceedsLimit reports whether an action at now comes within window of the previous one.
// An actor who never acted is never limited.
func ExceedsLimit(last *time.Time, now time.Time, window time.Duration) bool {
	if last == nil {
		return false
	}
	return now.Sub(*last) <= window
}

type registrationLookup interface {
	LastRegistrationTime(ctx context.Context, ip string) (*time.Time, error)
}

type postLookup interface {
	LastPostTime(ctx context.Context, userID uint) (*time.Time, error)
}

type commentLookup interface {
	LastCommentTime(ctx context.Context, userID uint) (*time.Time, error)
}

// RateLimiter applies ExceedsLimit to the most recent registration, post or comment.
type RateLimiter struct {
	limits   config.RateLimits
	users    registrationLookup
	posts    postLookup
	comments commentLookup
	now      func() time.Time
}

func NewRateLimiter(limits config.RateLimits, users registrationLookup, posts postLookup, comments commentLookup) *RateLimiter {
	return &RateLimiter{
		limits:   limits,
		users:    users,
		posts:    posts,
		comments: comments,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (r *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	r.now = now
	return r
}

func (r *RateLimiter) RegistrationLimited(ctx context.Context, ip string) (bool, error) {
	last, err := r.users.LastRegistrationTime(ctx, ip)
	if err != nil {
		return false, err
	}
	return ExceedsLimit(last, r.now(), r.limits.Registration), nil
}

func (r *RateLimiter) PostingLimited(ctx context.Context, userID uint) (bool, error) {
	last, err := r.posts.LastPostTime(ctx, userID)
	if err != nil {
		return false, err
	}
	return ExceedsLimit(last, r.now(), r.limits.Posting), nil
}

func (r *RateLimiter) CommentingLimited(ctx context.Context, userID uint) (bool, error) {
	last, err := r.comments.LastCommentTime(ctx, userID)
	if err != nil {
		return false, err
	}
	return ExceedsLimit(last, r.now(), r.limits.Commenting), nil
}
