package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"inkblog/internal/middleware"
	"inkblog/internal/services"

	"github.com/gin-gonic/gin"
)

type LikeHandler struct {
	likes *services.LikeService
}

func NewLikeHandler(likes *services.LikeService) *LikeHandler {
	return &LikeHandler{likes: likes}
}

// Like sets the current user's like from the like=0|1 form field.
func (h *LikeHandler) Like(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var liked bool
	switch c.PostForm("like") {
	case "1":
		liked = true
	case "0":
	default:
		RenderError(c, http.StatusBadRequest, "Bad Request")
		return
	}

	user := middleware.CurrentUser(c)
	if err := h.likes.SetLike(c.Request.Context(), id, user.ID, liked); err != nil {
		abortWithError(c, err)
		return
	}

	c.Redirect(http.StatusFound, localReferer(c))
}

// localReferer returns the path and query of a Referer on this host, or "/".
func localReferer(c *gin.Context) string {
	ref, err := url.Parse(c.GetHeader("Referer"))
	if err != nil || ref.Path == "" {
		return "/"
	}
	if ref.Scheme != "" || ref.Host != "" {
		if (ref.Scheme != "http" && ref.Scheme != "https") || ref.Host != c.Request.Host {
			return "/"
		}
	}
	if !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") || strings.Contains(ref.Path, `\`) {
		return "/"
	}
	back := ref.EscapedPath()
	if ref.RawQuery != "" {
		back += "?" + ref.RawQuery
	}
	return back
}
