package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"inkblog/internal/services"
	"inkblog/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"
)

const feedDescriptionChars = 100

type FeedHandler struct {
	posts       *services.PostService
	cache       *utils.Cache
	siteURL     string
	title       string
	description string
}

func NewFeedHandler(posts *services.PostService, cache *utils.Cache, siteURL, title, description string) *FeedHandler {
	return &FeedHandler{
		posts:       posts,
		cache:       cache,
		siteURL:     strings.TrimSuffix(siteURL, "/"),
		title:       title,
		description: description,
	}
}

// RSS serves the newest page of posts as RSS 2.0.
func (h *FeedHandler) RSS(c *gin.Context) {
	rss, ok := h.cache.Get(feedCacheKey).(string)
	if !ok {
		var err error
		rss, err = h.build(c)
		if err != nil {
			abortWithError(c, err)
			return
		}
		h.cache.Set(feedCacheKey, rss, 5*time.Minute)
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.String(http.StatusOK, rss)
}

func (h *FeedHandler) build(c *gin.Context) (string, error) {
	_, posts, err := h.posts.List(c.Request.Context(), 1, "", services.Anonymous)
	if err != nil {
		return "", err
	}

	feed := &feeds.Feed{
		Title:       h.title,
		Link:        &feeds.Link{Href: h.siteURL + "/"},
		Description: h.description,
		Created:     time.Now(),
	}
	for _, p := range posts {
		link := fmt.Sprintf("%s/%d", h.siteURL, p.ID)
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       p.Title,
			Link:        &feeds.Link{Href: link},
			Id:          link,
			Author:      &feeds.Author{Name: p.Username},
			Description: utils.Excerpt(p.Body, feedDescriptionChars),
			Created:     p.Created,
		})
	}
	return feed.ToRss()
}
