package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"inkblog/internal/middleware"
	"inkblog/internal/services"
	"inkblog/internal/utils"

	"github.com/gin-gonic/gin"
)

type TagHandler struct {
	tags     *services.TagService
	pageSize int
	cache    *utils.Cache
}

func NewTagHandler(tags *services.TagService, pageSize int, cache *utils.Cache) *TagHandler {
	return &TagHandler{tags: tags, pageSize: pageSize, cache: cache}
}

// List shows every tag in use with its post count.
func (h *TagHandler) List(c *gin.Context) {
	counts, ok := h.cache.Get(tagCountsCacheKey).([]services.TagCount)
	if !ok {
		var err error
		counts, err = h.tags.TagCounts(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		h.cache.Set(tagCountsCacheKey, counts, time.Minute)
	}
	Render(c, http.StatusOK, "blog/tags.html", gin.H{"Title": "Tags", "TagCounts": counts})
}

// Posts lists the posts carrying a tag; a tag without posts is a 404.
func (h *TagHandler) Posts(c *gin.Context) {
	tag := c.Param("tag")
	page, ok := pageParam(c)
	if !ok {
		c.Redirect(http.StatusFound, "/tags/"+url.PathEscape(tag))
		return
	}

	total, posts, err := h.tags.PostsForTag(c.Request.Context(), tag, page, middleware.CurrentActor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if len(posts) == 0 {
		RenderError(c, http.StatusNotFound, "Not Found")
		return
	}
	renderPosts(c, fmt.Sprintf("Posts tagged with %q", tag), page, h.pageSize, total, posts, gin.H{"Tag": tag})
}
