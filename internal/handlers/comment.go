package handlers

import (
	"fmt"
	"net/http"
	"time"

	"inkblog/internal/middleware"
	"inkblog/internal/services"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	posts    *services.PostService
	comments *services.CommentService
	limiter  *services.RateLimiter
	captcha  CaptchaVerifier
}

func NewCommentHandler(posts *services.PostService, comments *services.CommentService, limiter *services.RateLimiter, captcha CaptchaVerifier) *CommentHandler {
	return &CommentHandler{posts: posts, comments: comments, limiter: limiter, captcha: captcha}
}

// load fetches the post and, when the route has one, the comment.
func (h *CommentHandler) load(c *gin.Context) (*services.PostView, *services.CommentView, bool) {
	postID, ok := paramID(c, "id")
	if !ok {
		return nil, nil, false
	}
	post, err := h.posts.Get(c.Request.Context(), postID, middleware.CurrentActor(c))
	if err != nil {
		abortWithError(c, err)
		return nil, nil, false
	}
	if c.Param("cid") == "" {
		return post, nil, true
	}
	commentID, ok := paramID(c, "cid")
	if !ok {
		return nil, nil, false
	}
	comment, err := h.comments.Get(c.Request.Context(), postID, commentID)
	if err != nil {
		abortWithError(c, err)
		return nil, nil, false
	}
	return post, comment, true
}

// loadOwned is load plus a check that the current user wrote the comment.
func (h *CommentHandler) loadOwned(c *gin.Context) (*services.PostView, *services.CommentView, bool) {
	post, comment, ok := h.load(c)
	if !ok {
		return nil, nil, false
	}
	if !middleware.CurrentActor(c).Owns(comment.AuthorID) {
		abortWithError(c, services.ErrForbidden)
		return nil, nil, false
	}
	return post, comment, true
}

func (h *CommentHandler) renderForm(c *gin.Context, code int, message string, post *services.PostView, comment *services.CommentView) {
	Render(c, code, "comments/edit.html", gin.H{
		"Error":   message,
		"Post":    post,
		"Comment": comment,
		"Body":    c.PostForm("body"),
		"SiteKey": h.captcha.SiteKey(),
	})
}

func (h *CommentHandler) ShowCreate(c *gin.Context) {
	post, _, ok := h.load(c)
	if !ok {
		return
	}
	h.renderForm(c, http.StatusOK, "", post, nil)
}

func (h *CommentHandler) Create(c *gin.Context) {
	post, _, ok := h.load(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	body := c.PostForm("body")

	if body == "" {
		h.renderForm(c, http.StatusBadRequest, "Missing comment body", post, nil)
		return
	}
	if !checkCaptcha(c, h.captcha) {
		h.renderForm(c, http.StatusBadRequest, "Invalid captcha", post, nil)
		return
	}
	limited, err := h.limiter.CommentingLimited(c.Request.Context(), user.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if limited {
		h.renderForm(c, http.StatusTooManyRequests, "You must wait a little before commenting again with this user", post, nil)
		return
	}

	id, err := h.comments.Create(c.Request.Context(), post.ID, user.ID, body, time.Now())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/%d#comment%d", post.ID, id))
}

func (h *CommentHandler) Show(c *gin.Context) {
	post, comment, ok := h.load(c)
	if !ok {
		return
	}
	Render(c, http.StatusOK, "comments/comment.html", gin.H{"Post": post, "Comment": comment})
}

func (h *CommentHandler) ShowUpdate(c *gin.Context) {
	post, comment, ok := h.loadOwned(c)
	if !ok {
		return
	}
	Render(c, http.StatusOK, "comments/edit.html", gin.H{"Post": post, "Comment": comment, "Body": comment.Body})
}

func (h *CommentHandler) Update(c *gin.Context) {
	post, comment, ok := h.loadOwned(c)
	if !ok {
		return
	}
	body := c.PostForm("body")
	if body == "" {
		h.renderForm(c, http.StatusBadRequest, "Missing comment body", post, comment)
		return
	}
	if err := h.comments.Update(c.Request.Context(), comment.ID, body); err != nil {
		abortWithError(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/%d#comment%d", post.ID, comment.ID))
}

func (h *CommentHandler) Delete(c *gin.Context) {
	post, comment, ok := h.loadOwned(c)
	if !ok {
		return
	}
	if err := h.comments.Delete(c.Request.Context(), comment.ID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/%d", post.ID))
}
