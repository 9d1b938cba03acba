package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"inkblog/internal/middleware"
	"inkblog/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth    *services.AuthService
	limiter *services.RateLimiter
	captcha CaptchaVerifier
}

func NewAuthHandler(auth *services.AuthService, limiter *services.RateLimiter, captcha CaptchaVerifier) *AuthHandler {
	return &AuthHandler{auth: auth, limiter: limiter, captcha: captcha}
}

func (h *AuthHandler) ShowRegister(c *gin.Context) {
	Render(c, http.StatusOK, "auth/register.html", gin.H{"SiteKey": h.captcha.SiteKey()})
}

func (h *AuthHandler) renderRegister(c *gin.Context, code int, message string) {
	Render(c, code, "auth/register.html", gin.H{
		"Error":    message,
		"Username": c.PostForm("username"),
		"SiteKey":  h.captcha.SiteKey(),
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	ip := c.ClientIP()

	if username == "" {
		h.renderRegister(c, http.StatusBadRequest, "Username is required")
		return
	}
	if password == "" {
		h.renderRegister(c, http.StatusBadRequest, "Password is required")
		return
	}
	limited, err := h.limiter.RegistrationLimited(c.Request.Context(), ip)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if limited {
		h.renderRegister(c, http.StatusTooManyRequests, "You must wait a little before registering more users from this computer")
		return
	}
	if !checkCaptcha(c, h.captcha) {
		h.renderRegister(c, http.StatusBadRequest, "Invalid captcha")
		return
	}

	if _, err := h.auth.Register(c.Request.Context(), username, password, ip, time.Now()); err != nil {
		if errors.Is(err, services.ErrDuplicateUser) {
			h.renderRegister(c, http.StatusConflict, fmt.Sprintf("User %s is already registered", username))
			return
		}
		abortWithError(c, err)
		return
	}
	log.Printf("[auth] registered %q from %s", username, ip)
	c.Redirect(http.StatusFound, "/auth/login")
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, "auth/login.html", nil)
}

func (h *AuthHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := h.auth.VerifyCredentials(c.Request.Context(), username, password)
	if errors.Is(err, services.ErrUnknownUser) || errors.Is(err, services.ErrWrongPassword) {
		// same message for both so usernames cannot be probed
		Render(c, http.StatusUnauthorized, "auth/login.html", gin.H{
			"Error":    "Incorrect username or password",
			"Username": username,
		})
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		log.Printf("[auth] failed to save session for user %d: %v", user.ID, err)
	}

	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		log.Printf("[auth] failed to clear session: %v", err)
	}
	c.Redirect(http.StatusFound, "/")
}
