package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gamehub/go-game-backend/internal/domain"
)

func newRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestOpenSQLite_And_Migrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for _, table := range []string{"users", "games", "favorites", "ai_requests"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("table %q missing after migrate", table)
		}
	}
}

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	if _, err := OpenSQLite(filepath.Join(t.TempDir(), "nope", "app.db")); err == nil {
		t.Fatal("expected error for missing parent directory")
	}
}

func TestSeedGames(t *testing.T) {
	db := newRepoDB(t)

	seed := filepath.Join(t.TempDir(), "games.json")
	payload := `[
		{"title":"Celeste","genre":"Platformer","platform":"PC","publisher":"EXOK"},
		{"title":"Hades","genre":"Roguelike","platform":"PC","publisher":"Supergiant"}
	]`
	if err := os.WriteFile(seed, []byte(payload), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	if err := SeedGames(db, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var count int64
	db.Model(&domain.Game{}).Count(&count)
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	// Second run must not duplicate anything.
	if err := SeedGames(db, seed); err != nil {
		t.Fatalf("re-seed: %v", err)
	}
	db.Model(&domain.Game{}).Count(&count)
	if count != 2 {
		t.Fatalf("count after re-seed = %d, want 2", count)
	}

	// Empty path is a no-op, missing file is an error.
	if err := SeedGames(db, ""); err != nil {
		t.Fatalf("empty path: %v", err)
	}
	fresh := newRepoDB(t)
	if err := SeedGames(fresh, filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing seed file")
	}
}

func TestLatestAIRequest_Ordering(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	if _, err := LatestAIRequest(ctx, db, 1); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("empty history: got %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := CreateAIRequest(ctx, db, 1, "p", fmt.Sprintf("[%d]", i)); err != nil {
			t.Fatalf("create #%d: %v", i, err)
		}
	}
	// Another user's newer row must not shadow ours.
	if _, err := CreateAIRequest(ctx, db, 2, "p", "[99]"); err != nil {
		t.Fatalf("create foreign: %v", err)
	}

	latest, err := LatestAIRequest(ctx, db, 1)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Response != "[2]" || latest.UserID != 1 {
		t.Fatalf("latest = %+v, want the newest owned row", latest)
	}
}

func TestListGamesByIDs(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	for _, title := range []string{"Celeste", "Hades"} {
		if err := db.Create(&domain.Game{Title: title}).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	games, err := ListGamesByIDs(ctx, db, []uint{2, 999, 1})
	if err != nil {
		t.Fatalf("list by ids: %v", err)
	}
	// Unknown ids are silently absent, never an error.
	if len(games) != 2 {
		t.Fatalf("len = %d, want 2", len(games))
	}

	games, err = ListGamesByIDs(ctx, db, nil)
	if err != nil || len(games) != 0 {
		t.Fatalf("nil ids: %v, %d rows", err, len(games))
	}
}

func TestFavoriteUniqueConstraint(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	if err := db.Create(&domain.Game{Title: "Celeste"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := CreateFavorite(ctx, db, 1, 1); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := CreateFavorite(ctx, db, 1, 1); err == nil {
		t.Fatal("duplicate pair accepted")
	}
	// Different user, same game is fine.
	if _, err := CreateFavorite(ctx, db, 2, 1); err != nil {
		t.Fatalf("other user: %v", err)
	}
}

func TestGamesStats(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	count, maxTS, err := GamesStats(ctx, db)
	if err != nil {
		t.Fatalf("empty stats: %v", err)
	}
	if count != 0 || maxTS != nil {
		t.Fatalf("empty stats = %d, %v", count, maxTS)
	}

	if err := db.Create(&domain.Game{Title: "Celeste"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	count, maxTS, err = GamesStats(ctx, db)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 1 || maxTS == nil || maxTS.IsZero() {
		t.Fatalf("stats = %d, %v", count, maxTS)
	}
}
