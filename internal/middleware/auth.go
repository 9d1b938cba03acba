package middleware

import (
	"context"
	"log"
	"net/http"

	"inkblog/internal/models"
	"inkblog/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CheckUserKey   = "user"
	SessionUserKey = "user_id"
)

type userLoader interface {
	LoadUser(ctx context.Context, id uint) (*models.User, error)
}

// LoadUser resolves the session's user id and stores the user in the context.
func LoadUser(users userLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if userID, ok := session.Get(SessionUserKey).(uint); ok {
			user, err := users.LoadUser(c.Request.Context(), userID)
			switch {
			case err != nil:
				log.Printf("[auth] failed to load session user %d: %v", userID, err)
			case user == nil:
				// account no longer exists
				session.Delete(SessionUserKey)
				session.Save()
			default:
				c.Set(CheckUserKey, user)
			}
		}
		c.Next()
	}
}

// AuthRequired redirects anonymous visitors to the login page.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CheckUserKey); !exists {
			c.Redirect(http.StatusFound, "/auth/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser is nil for anonymous visitors.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

func CurrentActor(c *gin.Context) services.Actor {
	if user := CurrentUser(c); user != nil {
		return services.AsUser(user.ID)
	}
	return services.Anonymous
}
