package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gamehub/go-game-backend/internal/domain"
)

func newFavDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:favsvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(&domain.User{}, &domain.Game{}, &domain.Favorite{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func favSeed(t *testing.T, db *gorm.DB) []domain.Game {
	t.Helper()
	games := []domain.Game{
		{Title: "Celeste", Genre: "Platformer"},
		{Title: "Hades", Genre: "Roguelike"},
	}
	for i := range games {
		if err := db.Create(&games[i]).Error; err != nil {
			t.Fatalf("seed game: %v", err)
		}
	}
	return games
}

func TestFavoriteService_Add(t *testing.T) {
	db := newFavDB(t)
	games := favSeed(t, db)
	s := NewFavoriteService(db)
	ctx := context.Background()

	fav, err := s.Add(ctx, 1, games[0].ID)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if fav.UserID != 1 || fav.GameID != games[0].ID {
		t.Fatalf("favorite = %+v", fav)
	}

	// Same pair again is rejected.
	if _, err := s.Add(ctx, 1, games[0].ID); !errors.Is(err, ErrDuplicateFavorite) {
		t.Fatalf("duplicate: got %v", err)
	}

	// A different user may favorite the same game.
	if _, err := s.Add(ctx, 2, games[0].ID); err != nil {
		t.Fatalf("other user: %v", err)
	}

	// Unknown game id.
	if _, err := s.Add(ctx, 1, 999); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("missing game: got %v", err)
	}
}

func TestFavoriteService_List_NewestFirstWithGames(t *testing.T) {
	db := newFavDB(t)
	games := favSeed(t, db)
	s := NewFavoriteService(db)
	ctx := context.Background()

	if _, err := s.Add(ctx, 1, games[0].ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Insertion order breaks timestamp ties, but keep them distinct anyway.
	time.Sleep(20 * time.Millisecond)
	if _, err := s.Add(ctx, 1, games[1].ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	favs, err := s.List(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(favs) != 2 {
		t.Fatalf("len = %d", len(favs))
	}
	if favs[0].Game.Title != "Hades" || favs[1].Game.Title != "Celeste" {
		t.Fatalf("ordering/preload wrong: %q, %q", favs[0].Game.Title, favs[1].Game.Title)
	}

	// Another user's list stays empty.
	favs, err = s.List(ctx, 2)
	if err != nil || len(favs) != 0 {
		t.Fatalf("foreign list = %+v, %v", favs, err)
	}
}

func TestFavoriteService_Remove(t *testing.T) {
	db := newFavDB(t)
	games := favSeed(t, db)
	s := NewFavoriteService(db)
	ctx := context.Background()

	if _, err := s.Add(ctx, 1, games[0].ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := s.Remove(ctx, 1, games[0].ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	// Second remove finds nothing.
	if err := s.Remove(ctx, 1, games[0].ID); !errors.Is(err, ErrFavoriteNotFound) {
		t.Fatalf("second remove: got %v", err)
	}
	// Removing someone else's favorite is also not found.
	if _, err := s.Add(ctx, 2, games[0].ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Remove(ctx, 1, games[0].ID); !errors.Is(err, ErrFavoriteNotFound) {
		t.Fatalf("cross-user remove: got %v", err)
	}
}
