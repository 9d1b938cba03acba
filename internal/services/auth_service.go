package services

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"inkblog/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService owns user identities and their password hashes.
type AuthService struct {
	db        *gorm.DB
	cost      int
	dummyHash []byte
}

func NewAuthService(db *gorm.DB) *AuthService {
	return newAuthService(db, bcrypt.DefaultCost)
}

func newAuthService(db *gorm.DB, cost int) *AuthService {
	// Compared against when the username is unknown so both failures cost one bcrypt round.
	dummy, err := bcrypt.GenerateFromPassword(prehash("inkblog-placeholder-password"), cost)
	if err != nil {
		panic(fmt.Sprintf("bcrypt: %v", err))
	}
	return &AuthService{db: db, cost: cost, dummyHash: dummy}
}

// prehash digests the password so bcrypt's 72-byte input limit never truncates or rejects it.
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// Register stores a new user and returns its id.
func (s *AuthService) Register(ctx context.Context, username, password, ip string, registeredAt time.Time) (uint, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(password), s.cost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:         username,
		PasswordHash:     string(hash),
		RegistrationIP:   ip,
		RegistrationTime: registeredAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, fmt.Errorf("register %q: %w", username, ErrDuplicateUser)
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return user.ID, nil
}

// VerifyCredentials returns the user when the password matches.
func (s *AuthService) VerifyCredentials(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		bcrypt.CompareHashAndPassword(s.dummyHash, prehash(password))
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), prehash(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrWrongPassword
		}
		return nil, fmt.Errorf("failed to compare password: %w", err)
	}
	return &user, nil
}

// LoadUser returns nil without error when the id is unknown.
func (s *AuthService) LoadUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Take(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return &user, nil
}

// LastRegistrationTime is nil when nobody registered from ip.
func (s *AuthService) LastRegistrationTime(ctx context.Context, ip string) (*time.Time, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Select("registration_time").
		Where("registration_ip = ?", ip).
		Order("registration_time DESC").
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up registrations for %s: %w", ip, err)
	}
	return &user.RegistrationTime, nil
}
