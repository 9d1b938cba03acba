package main

import (
	"log"

	"inkblog/internal/config"
	"inkblog/internal/db"
	"inkblog/internal/router"
	"inkblog/internal/services"
	"inkblog/internal/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatal(err)
	}

	auth := services.NewAuthService(conn)
	posts := services.NewPostService(conn, cfg.PageSize)
	comments := services.NewCommentService(conn)

	r := router.New(cfg, router.Deps{
		Auth:     auth,
		Posts:    posts,
		Tags:     services.NewTagService(conn, cfg.PageSize),
		Likes:    services.NewLikeService(conn),
		Comments: comments,
		Limiter:  services.NewRateLimiter(cfg.RateLimits, auth, posts, comments),
		Captcha:  services.NewCaptchaService(cfg.RecaptchaSiteKey, cfg.RecaptchaSecretKey),
		Cache:    utils.NewCache(128),
	}, "./web")

	log.Printf("Inkblog server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
