package handlers

import (
	"fmt"
	"net/http"

	"inkblog/internal/middleware"
	"inkblog/internal/services"
	"inkblog/internal/utils"

	"github.com/gin-gonic/gin"
)

type BlogHandler struct {
	posts    *services.PostService
	comments *services.CommentService
	limiter  *services.RateLimiter
	captcha  CaptchaVerifier
	cache    *utils.Cache
}

func NewBlogHandler(posts *services.PostService, comments *services.CommentService, limiter *services.RateLimiter, captcha CaptchaVerifier, cache *utils.Cache) *BlogHandler {
	return &BlogHandler{
		posts:    posts,
		comments: comments,
		limiter:  limiter,
		captcha:  captcha,
		cache:    cache,
	}
}

// renderPosts shows one page of a listing, or reports false when page is past the end.
func renderPosts(c *gin.Context, title string, page, pageSize int, total int64, posts []services.PostView, extra gin.H) bool {
	totalPages := services.NumPages(total, pageSize)
	if page > totalPages {
		return false
	}
	data := gin.H{
		"Title":       title,
		"Posts":       posts,
		"CurrentPage": page,
		"TotalPages":  totalPages,
		"ResultRange": utils.ResultRangeString(page, pageSize, total),
	}
	for k, v := range extra {
		data[k] = v
	}
	Render(c, http.StatusOK, "blog/posts.html", data)
	return true
}

// Index lists the latest posts, or the results of ?searchquery=.
func (h *BlogHandler) Index(c *gin.Context) {
	page, ok := pageParam(c)
	if !ok {
		c.Redirect(http.StatusFound, "/")
		return
	}
	query := c.Query("searchquery")

	total, posts, err := h.posts.List(c.Request.Context(), page, query, middleware.CurrentActor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	title := "Latest posts"
	if query != "" {
		title = fmt.Sprintf("Search for %q", query)
	}
	if !renderPosts(c, title, page, h.posts.PageSize(), total, posts, gin.H{"SearchQuery": query}) {
		c.Redirect(http.StatusFound, "/")
	}
}

func (h *BlogHandler) ShowCreate(c *gin.Context) {
	Render(c, http.StatusOK, "blog/edit.html", gin.H{"SiteKey": h.captcha.SiteKey()})
}

func (h *BlogHandler) renderForm(c *gin.Context, code int, message string, post *services.PostView) {
	Render(c, code, "blog/edit.html", gin.H{
		"Error":   message,
		"Post":    post,
		"Form":    gin.H{"Title": c.PostForm("title"), "Body": c.PostForm("body"), "Tags": c.PostForm("tags")},
		"SiteKey": h.captcha.SiteKey(),
	})
}

func (h *BlogHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	image, err := readUpload(c, "file")
	if err != nil {
		abortWithError(c, err)
		return
	}
	title := c.PostForm("title")
	body := c.PostForm("body")

	if title == "" {
		h.renderForm(c, http.StatusBadRequest, "Missing title", nil)
		return
	}
	if body == "" {
		h.renderForm(c, http.StatusBadRequest, "Missing body", nil)
		return
	}
	if !checkCaptcha(c, h.captcha) {
		h.renderForm(c, http.StatusBadRequest, "Invalid captcha", nil)
		return
	}
	limited, err := h.limiter.PostingLimited(c.Request.Context(), user.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if limited {
		h.renderForm(c, http.StatusTooManyRequests, "You must wait a little before posting again with this user", nil)
		return
	}

	id, err := h.posts.Create(c.Request.Context(), services.NewPost{
		AuthorID: user.ID,
		Title:    title,
		Body:     body,
		Tags:     utils.SplitTags(c.PostForm("tags")),
		Image:    image,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	invalidateListings(h.cache)
	c.Redirect(http.StatusFound, fmt.Sprintf("/%d", id))
}

func (h *BlogHandler) Detail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	post, err := h.posts.Get(c.Request.Context(), id, middleware.CurrentActor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	comments, err := h.comments.ListForPost(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	Render(c, http.StatusOK, "blog/post.html", gin.H{
		"Title":    post.Title,
		"Post":     post,
		"Comments": comments,
		"Likes":    utils.LikesSentence(post.Likes, post.Liked),
	})
}

func (h *BlogHandler) ShowUpdate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	post, err := h.posts.GetOwned(c.Request.Context(), id, middleware.CurrentActor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	Render(c, http.StatusOK, "blog/edit.html", gin.H{"Post": post})
}

func (h *BlogHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	post, err := h.posts.GetOwned(c.Request.Context(), id, middleware.CurrentActor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	image, err := readUpload(c, "file")
	if err != nil {
		abortWithError(c, err)
		return
	}
	title := c.PostForm("title")
	body := c.PostForm("body")

	if title == "" {
		h.renderForm(c, http.StatusBadRequest, "Missing title", post)
		return
	}
	if body == "" {
		h.renderForm(c, http.StatusBadRequest, "Missing body", post)
		return
	}

	err = h.posts.Update(c.Request.Context(), id, services.PostUpdate{
		Title:       title,
		Body:        body,
		Tags:        utils.SplitTags(c.PostForm("tags")),
		Image:       image,
		DeleteImage: c.PostForm("delete_image") == "on",
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	invalidateListings(h.cache)
	c.Redirect(http.StatusFound, fmt.Sprintf("/%d", id))
}

func (h *BlogHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := h.posts.GetOwned(c.Request.Context(), id, middleware.CurrentActor(c)); err != nil {
		abortWithError(c, err)
		return
	}
	if err := h.posts.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	invalidateListings(h.cache)
	c.Redirect(http.StatusFound, "/")
}

func (h *BlogHandler) Image(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	img, err := h.posts.GetImage(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(img), img)
}
