package router

import (
	"html/template"
	"path/filepath"
	"strings"
	"time"

	"inkblog/internal/utils"

	"github.com/gin-contrib/multitemplate"
)

var views = []string{
	"auth/login.html",
	"auth/register.html",
	"blog/posts.html",
	"blog/post.html",
	"blog/edit.html",
	"blog/tags.html",
	"comments/edit.html",
	"comments/comment.html",
	"error.html",
}

// LoadTemplates pairs every view with the shared layouts.
func LoadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}

	funcMap := template.FuncMap{
		"add":      func(a, b int) int { return a + b },
		"sub":      func(a, b int) int { return a - b },
		"markdown": utils.RenderMarkdown,
		"likes":    utils.LikesSentence,
		"join":     strings.Join,
		"date": func(t time.Time) string {
			return t.Format("2006-01-02 15:04")
		},
	}

	for _, view := range views {
		files := append(append([]string{}, layouts...), templatesDir+"/views/"+view)
		r.AddFromFilesFuncs(view, funcMap, files...)
	}
	return r
}
