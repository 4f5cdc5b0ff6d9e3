package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gamehub/go-game-backend/internal/domain"
)

func newAuthDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:authsvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// Low bcrypt cost keeps the suite fast.
func newAuthSvc(db *gorm.DB) *AuthService {
	return NewAuthService(db, "test-secret", time.Hour, 4)
}

func TestAuthService_Register_Success(t *testing.T) {
	s := newAuthSvc(newAuthDB(t))

	u, token, err := s.Register(context.Background(), "Ada", "  Ada@Example.COM ", "hunter22")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "ada@example.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	if u.Password == "hunter22" || u.Password == "" {
		t.Fatal("password stored in the clear or missing")
	}
	if token == "" {
		t.Fatal("no token issued")
	}

	// Token must verify with the same secret and carry the identity.
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.UserID != u.ID || claims.Email != u.Email {
		t.Fatalf("claims = %+v, want id=%d email=%s", claims, u.ID, u.Email)
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) <= 0 {
		t.Fatalf("bad expiry: %v", claims.ExpiresAt)
	}
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	s := newAuthSvc(newAuthDB(t))
	ctx := context.Background()

	if _, _, err := s.Register(ctx, "Ada", "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	// Same address with different casing still collides.
	_, _, err := s.Register(ctx, "Imposter", "ADA@example.com", "other-pass")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	s := newAuthSvc(newAuthDB(t))
	ctx := context.Background()

	if _, _, err := s.Register(ctx, "Ada", "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}

	u, token, err := s.Login(ctx, "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.Name != "Ada" || token == "" {
		t.Fatalf("login result: user=%+v token=%q", u, token)
	}

	// Wrong password and unknown email collapse into the same error.
	if _, _, err := s.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", err)
	}
	if _, _, err := s.Login(ctx, "nobody@example.com", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v", err)
	}
}

func TestAuthService_Profile(t *testing.T) {
	s := newAuthSvc(newAuthDB(t))
	ctx := context.Background()

	u, _, err := s.Register(ctx, "Ada", "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := s.Profile(ctx, u.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if got.Email != "ada@example.com" || got.Role != "user" {
		t.Fatalf("profile = %+v", got)
	}

	if _, err := s.Profile(ctx, 9999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing user: got %v", err)
	}
}
