package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"inkblog/internal/middleware"
	"inkblog/internal/services"
	"inkblog/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	feedCacheKey      = "feed:rss"
	tagCountsCacheKey = "tags:counts"
)

// CaptchaVerifier decides whether a reCAPTCHA response is valid.
type CaptchaVerifier interface {
	Verify(ctx context.Context, response string) (bool, error)
	SiteKey() string
}

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}
	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message, "Code": code})
}

// abortWithError maps service errors to error pages.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		RenderError(c, http.StatusNotFound, "Not Found")
	case errors.Is(err, services.ErrForbidden):
		RenderError(c, http.StatusForbidden, "Forbidden")
	case errors.Is(err, services.ErrInvalidImageRequest):
		RenderError(c, http.StatusBadRequest, "Cannot delete and replace the image at the same time")
	case isTooLarge(err):
		RenderError(c, http.StatusRequestEntityTooLarge, "Upload too large")
	default:
		log.Printf("[handlers] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		RenderError(c, http.StatusInternalServerError, "Internal Server Error")
	}
	c.Abort()
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

// paramID reads a numeric path parameter, rendering 404 when it is malformed.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		RenderError(c, http.StatusNotFound, "Not Found")
		c.Abort()
	}
	return id, ok
}

// pageParam returns the requested page, false when it is not a positive number.
func pageParam(c *gin.Context) (int, bool) {
	p := c.Query("page")
	if p == "" {
		return 1, true
	}
	page := utils.StringToInt(p)
	if page < 1 {
		return 0, false
	}
	return page, true
}

// readUpload returns the uploaded file's bytes, nil when nothing was uploaded.
func readUpload(c *gin.Context, field string) ([]byte, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

// checkCaptcha logs verifier failures and treats them as a failed check.
func checkCaptcha(c *gin.Context, captcha CaptchaVerifier) bool {
	ok, err := captcha.Verify(c.Request.Context(), c.PostForm("g-recaptcha-response"))
	if err != nil {
		log.Printf("[captcha] verification failed: %v", err)
		return false
	}
	return ok
}

func invalidateListings(cache *utils.Cache) {
	cache.Delete(feedCacheKey, tagCountsCacheKey)
}
