// Package services – AuthService
//
// This file implements the AuthService, which owns account registration,
// credential verification, and JWT issuance. Passwords are hashed with
// bcrypt; tokens carry the user id and email and expire after the configured
// TTL. Service-level errors (ErrEmailTaken, ErrInvalidCredentials) are
// returned for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gamehub/go-game-backend/internal/domain"
	"github.com/gamehub/go-game-backend/internal/repo"
)

// Claims is the JWT payload issued on register/login. The identity fields
// mirror what the auth middleware resolves back into the request context.
type Claims struct {
	UserID uint   `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService provides registration, login, and profile lookup.
type AuthService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// Secret signs issued tokens (HMAC-SHA256).
	Secret []byte
	// TokenTTL bounds token validity.
	TokenTTL time.Duration
	// BcryptCost is the hashing work factor.
	BcryptCost int
}

// NewAuthService constructs an AuthService with sane defaults.
func NewAuthService(db *gorm.DB, secret string, ttl time.Duration, cost int) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{DB: db, Secret: []byte(secret), TokenTTL: ttl, BcryptCost: cost}
}

// Register creates a new account and returns the user with a signed token.
// The email is normalized (trimmed, lowercased) before the uniqueness check.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	email = normalizeEmail(email)

	if _, err := repo.GetUserByEmail(ctx, s.DB, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.BcryptCost)
	if err != nil {
		return nil, "", err
	}

	u, err := repo.CreateUser(ctx, s.DB, strings.TrimSpace(name), email, string(hash))
	if err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login verifies credentials and returns the user with a fresh token.
// Unknown email and wrong password both map to ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := repo.GetUserByEmail(ctx, s.DB, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Profile returns the account behind an authenticated user id.
func (s *AuthService) Profile(ctx context.Context, userID uint) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// issueToken signs a Claims payload for u valid for TokenTTL.
func (s *AuthService) issueToken(u *domain.User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

// normalizeEmail trims whitespace and lowercases an email address.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
