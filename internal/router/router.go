package router

import (
	"inkblog/internal/config"
	"inkblog/internal/handlers"
	"inkblog/internal/middleware"
	"inkblog/internal/services"
	"inkblog/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// Deps are the services the web layer is built on.
type Deps struct {
	Auth     *services.AuthService
	Posts    *services.PostService
	Tags     *services.TagService
	Likes    *services.LikeService
	Comments *services.CommentService
	Limiter  *services.RateLimiter
	Captcha  handlers.CaptchaVerifier
	Cache    *utils.Cache
}

// New builds the engine with sessions, templates and every route.
func New(cfg config.Config, d Deps, webDir string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 86400 * 30})
	r.Use(sessions.Sessions("inkblog_session", store))

	r.HTMLRender = LoadTemplates(webDir + "/templates")
	r.Static("/static", webDir+"/static")

	r.Use(middleware.MaxBodySize(cfg.MaxContentLength))
	r.Use(middleware.LoadUser(d.Auth))

	RegisterRoutes(r, cfg, d)
	return r
}

func RegisterRoutes(r *gin.Engine, cfg config.Config, d Deps) {
	authHandler := handlers.NewAuthHandler(d.Auth, d.Limiter, d.Captcha)
	blogHandler := handlers.NewBlogHandler(d.Posts, d.Comments, d.Limiter, d.Captcha, d.Cache)
	likeHandler := handlers.NewLikeHandler(d.Likes)
	tagHandler := handlers.NewTagHandler(d.Tags, cfg.PageSize, d.Cache)
	commentHandler := handlers.NewCommentHandler(d.Posts, d.Comments, d.Limiter, d.Captcha)
	feedHandler := handlers.NewFeedHandler(d.Posts, d.Cache, cfg.SiteURL, cfg.FeedTitle, cfg.FeedDescription)

	// Public Routes
	r.GET("/", blogHandler.Index)
	r.GET("/feed.rss", feedHandler.RSS)
	r.GET("/tags/", tagHandler.List)
	r.GET("/tags/:tag", tagHandler.Posts)
	r.GET("/:id", blogHandler.Detail)
	r.GET("/:id/image.jpg", blogHandler.Image)
	r.GET("/:id/comments/:cid", commentHandler.Show)

	auth := r.Group("/auth")
	{
		auth.GET("/register", authHandler.ShowRegister)
		auth.POST("/register", authHandler.Register)
		auth.GET("/login", authHandler.ShowLogin)
		auth.POST("/login", authHandler.Login)
		auth.GET("/logout", authHandler.Logout)
	}

	// Protected Routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/create", blogHandler.ShowCreate)
		authorized.POST("/create", blogHandler.Create)
		authorized.GET("/:id/update", blogHandler.ShowUpdate)
		authorized.POST("/:id/update", blogHandler.Update)
		authorized.POST("/:id/delete", blogHandler.Delete)
		authorized.POST("/:id/like", likeHandler.Like)

		authorized.GET("/:id/comments/new", commentHandler.ShowCreate)
		authorized.POST("/:id/comments/new", commentHandler.Create)
		authorized.GET("/:id/comments/:cid/update", commentHandler.ShowUpdate)
		authorized.POST("/:id/comments/:cid/update", commentHandler.Update)
		authorized.POST("/:id/comments/:cid/delete", commentHandler.Delete)
	}
}
