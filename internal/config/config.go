package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Google's always-pass reCAPTCHA keys, used when none are configured in debug mode.
const (
	testRecaptchaSiteKey   = "6LeIxAcTAAAAAJcZVRqyHh71UMIEGNQ_MXjiZKhI"
	testRecaptchaSecretKey = "6LeIxAcTAAAAAGG-vFI1TnRWxMZNFuojJ4WifJWe"
)

// RateLimits holds the minimum spacing between two actions of the same kind.
type RateLimits struct {
	Registration time.Duration
	Posting      time.Duration
	Commenting   time.Duration
}

type Config struct {
	Debug bool
	Port  string

	DBDriver    string
	DatabaseURL string

	SessionSecret string
	SiteURL       string

	PageSize         int
	MaxContentLength int64
	RateLimits       RateLimits

	RecaptchaSiteKey   string
	RecaptchaSecretKey string

	FeedTitle       string
	FeedDescription string
}

// Default returns the configuration used when no environment overrides are present.
func Default() Config {
	return Config{
		Debug:            true,
		Port:             "8080",
		DBDriver:         "sqlite",
		DatabaseURL:      "inkblog.sqlite",
		SiteURL:          "http://localhost:8080",
		PageSize:         5,
		MaxContentLength: 2 * 1024 * 1024,
		RateLimits: RateLimits{
			Registration: 1800 * time.Second,
			Posting:      300 * time.Second,
			Commenting:   120 * time.Second,
		},
		FeedTitle:       "Inkblog all posts feed",
		FeedDescription: "Latest posts from Inkblog",
	}
}

// Load reads .env (if any) and the process environment on top of Default.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	cfg := Default()
	cfg.Debug = os.Getenv("GIN_MODE") != "release"
	setString(&cfg.Port, "PORT")
	setString(&cfg.DBDriver, "DATABASE_DRIVER")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.SessionSecret, "SESSION_SECRET")
	setString(&cfg.SiteURL, "SITE_URL")
	setString(&cfg.RecaptchaSiteKey, "RECAPTCHA_SITEKEY")
	setString(&cfg.RecaptchaSecretKey, "RECAPTCHA_SECRETKEY")
	setString(&cfg.FeedTitle, "FEED_TITLE")
	setString(&cfg.FeedDescription, "FEED_DESCRIPTION")

	if err := setInt(&cfg.PageSize, "PAGE_SIZE"); err != nil {
		return cfg, err
	}
	var maxLen int
	if v := os.Getenv("MAX_CONTENT_LENGTH"); v != "" {
		if err := setInt(&maxLen, "MAX_CONTENT_LENGTH"); err != nil {
			return cfg, err
		}
		cfg.MaxContentLength = int64(maxLen)
	}
	for _, s := range []struct {
		key string
		dst *time.Duration
	}{
		{"REGISTRATION_RATE_LIMIT_SECONDS", &cfg.RateLimits.Registration},
		{"POSTING_RATE_LIMIT_SECONDS", &cfg.RateLimits.Posting},
		{"COMMENTING_RATE_LIMIT_SECONDS", &cfg.RateLimits.Commenting},
	} {
		if err := setSeconds(s.dst, s.key); err != nil {
			return cfg, err
		}
	}

	if cfg.Debug {
		if cfg.SessionSecret == "" {
			cfg.SessionSecret = "secret_key_change_me"
		}
		if cfg.RecaptchaSiteKey == "" && cfg.RecaptchaSecretKey == "" {
			cfg.RecaptchaSiteKey = testRecaptchaSiteKey
			cfg.RecaptchaSecretKey = testRecaptchaSecretKey
		}
	}

	return cfg, cfg.Validate()
}

// Validate reports settings that would leave the server unusable.
func (c Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET must be set")
	}
	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.MaxContentLength < 1 {
		return fmt.Errorf("MAX_CONTENT_LENGTH must be positive, got %d", c.MaxContentLength)
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DBDriver)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setSeconds(dst *time.Duration, key string) error {
	n := int(*dst / time.Second)
	if err := setInt(&n, key); err != nil {
		return err
	}
	*dst = time.Duration(n) * time.Second
	return nil
}
