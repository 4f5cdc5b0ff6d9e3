package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gamehub/go-game-backend/internal/domain"
	"github.com/gamehub/go-game-backend/internal/repo"
)

// ---------- test helpers ----------

func newRecDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:recsvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(&domain.User{}, &domain.Game{}, &domain.Favorite{}, &domain.AIRequest{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedCatalog(t *testing.T, db *gorm.DB, titles ...string) []domain.Game {
	t.Helper()
	games := make([]domain.Game, 0, len(titles))
	for _, title := range titles {
		g := domain.Game{Title: title, Genre: "RPG", Platform: "PC"}
		if err := db.Create(&g).Error; err != nil {
			t.Fatalf("seed game %q: %v", title, err)
		}
		games = append(games, g)
	}
	return games
}

func seedFavorite(t *testing.T, db *gorm.DB, userID, gameID uint) {
	t.Helper()
	if err := db.Create(&domain.Favorite{UserID: userID, GameID: gameID}).Error; err != nil {
		t.Fatalf("seed favorite: %v", err)
	}
}

// fakeGenerator records prompts and call contexts and replays canned
// responses.
type fakeGenerator struct {
	calls     int
	prompts   []string
	ctxs      []context.Context
	responses []string
	err       error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.ctxs = append(f.ctxs, ctx)
	if f.err != nil {
		return "", f.err
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

// ---------- Generate() ----------

func TestRecommendationService_Generate_NotConfigured(t *testing.T) {
	db := newRecDB(t)
	s := NewRecommendationService(db, nil)
	_, err := s.Generate(context.Background(), 1)
	if !errors.Is(err, ErrAINotConfigured) {
		t.Fatalf("expected ErrAINotConfigured, got %v", err)
	}
}

func TestRecommendationService_Generate_NoFavoritesPrompt(t *testing.T) {
	db := newRecDB(t)
	seedCatalog(t, db, "Celeste", "Hades")

	gen := &fakeGenerator{responses: []string{"[1, 2]"}}
	s := NewRecommendationService(db, gen)

	rec, err := s.Generate(context.Background(), 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rec.BasedOnFavorites != 0 {
		t.Fatalf("basedOnFavorites = %d, want 0", rec.BasedOnFavorites)
	}

	p := gen.prompts[0]
	if !strings.Contains(p, "no favorite games") {
		t.Fatalf("cold-start prompt variant missing: %q", p)
	}
	if !strings.Contains(p, `[1, "Celeste"]`) || !strings.Contains(p, `[2, "Hades"]`) {
		t.Fatalf("prompt missing catalog grounding: %q", p)
	}
	if !strings.Contains(p, "JSON array of game IDs") {
		t.Fatalf("prompt missing output contract: %q", p)
	}
}

func TestRecommendationService_Generate_WithFavoritesPrompt(t *testing.T) {
	db := newRecDB(t)
	games := seedCatalog(t, db, "Celeste", "Hades", "Stardew Valley")
	seedFavorite(t, db, 7, games[0].ID)
	seedFavorite(t, db, 7, games[2].ID)

	gen := &fakeGenerator{responses: []string{"[2]"}}
	s := NewRecommendationService(db, gen)

	rec, err := s.Generate(context.Background(), 7)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rec.BasedOnFavorites != 2 {
		t.Fatalf("basedOnFavorites = %d, want 2", rec.BasedOnFavorites)
	}

	p := gen.prompts[0]
	if !strings.Contains(p, "favorite games:") ||
		!strings.Contains(p, "Celeste") || !strings.Contains(p, "Stardew Valley") {
		t.Fatalf("personalized prompt missing favorite titles: %q", p)
	}
	if strings.Contains(p, "no favorite games") {
		t.Fatalf("wrong prompt variant used: %q", p)
	}
}

func TestRecommendationService_Generate_PersistsHistory(t *testing.T) {
	db := newRecDB(t)
	seedCatalog(t, db, "Celeste", "Hades")

	gen := &fakeGenerator{responses: []string{"[1, 2]"}}
	s := NewRecommendationService(db, gen)

	rec, err := s.Generate(context.Background(), 3)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rec.Request == nil || rec.Request.ID == 0 {
		t.Fatalf("history row not persisted: %+v", rec.Request)
	}
	if rec.Request.Response != "[1,2]" {
		t.Fatalf("stored response = %q, want canonical id array", rec.Request.Response)
	}

	stored, err := repo.LatestAIRequest(context.Background(), db, 3)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if stored.ID != rec.Request.ID {
		t.Fatalf("latest row id = %d, want %d", stored.ID, rec.Request.ID)
	}
}

func TestRecommendationService_Generate_FenceStripping(t *testing.T) {
	db := newRecDB(t)
	seedCatalog(t, db, "Celeste", "Hades")

	gen := &fakeGenerator{responses: []string{"```json\n[1, 2]\n```"}}
	s := NewRecommendationService(db, gen)

	rec, err := s.Generate(context.Background(), 1)
	if err != nil {
		t.Fatalf("generate with fenced output: %v", err)
	}
	if len(rec.GameIDs) != 2 || rec.GameIDs[0] != 1 || rec.GameIDs[1] != 2 {
		t.Fatalf("gameIDs = %v, want [1 2]", rec.GameIDs)
	}
}

func TestRecommendationService_Generate_DropsUnresolvedIDs(t *testing.T) {
	db := newRecDB(t)
	games := seedCatalog(t, db, "Celeste")

	gen := &fakeGenerator{responses: []string{"[1, 999]"}}
	s := NewRecommendationService(db, gen)

	rec, err := s.Generate(context.Background(), 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// The raw id list keeps 999, the hydrated games drop it.
	if len(rec.GameIDs) != 2 {
		t.Fatalf("gameIDs = %v, want both ids kept", rec.GameIDs)
	}
	if len(rec.Games) != 1 || rec.Games[0].ID != games[0].ID {
		t.Fatalf("games = %+v, want only the resolvable id", rec.Games)
	}
}

func TestRecommendationService_Generate_ParseVsFormatErrors(t *testing.T) {
	cases := []struct {
		name     string
		response string
		want     error
	}{
		{"prose", "Sure! Here are my picks: 1, 2, 3", ErrAIResponseParse},
		{"object", `{"ids":[1,2]}`, ErrAIResponseFormat},
		{"empty array", "[]", ErrAIResponseFormat},
		{"string elements", `["1","2"]`, ErrAIResponseFormat},
		{"negative", "[-1, 2]", ErrAIResponseFormat},
		{"fractional", "[1.5]", ErrAIResponseFormat},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := newRecDB(t)
			seedCatalog(t, db, "Celeste")
			gen := &fakeGenerator{responses: []string{tc.response}}
			s := NewRecommendationService(db, gen)

			_, err := s.Generate(context.Background(), 1)
			if !errors.Is(err, tc.want) {
				t.Fatalf("response %q: got %v, want %v", tc.response, err, tc.want)
			}

			// Unusable output must not be persisted.
			if _, lerr := repo.LatestAIRequest(context.Background(), db, 1); !errors.Is(lerr, gorm.ErrRecordNotFound) {
				t.Fatalf("history row persisted for bad output, err=%v", lerr)
			}
		})
	}
}

func TestRecommendationService_Generate_GeneratorErrorPropagates(t *testing.T) {
	db := newRecDB(t)
	seedCatalog(t, db, "Celeste")

	upstream := errors.New("upstream boom")
	s := NewRecommendationService(db, &fakeGenerator{err: upstream})

	_, err := s.Generate(context.Background(), 1)
	if !errors.Is(err, upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestRecommendationService_Generate_BoundsGeneratorCall(t *testing.T) {
	db := newRecDB(t)
	seedCatalog(t, db, "Celeste")

	gen := &fakeGenerator{responses: []string{"[1]"}}
	s := NewRecommendationService(db, gen)
	s.CallTimeout = 9 * time.Second

	// The incoming context carries no deadline; the service must add one.
	before := time.Now()
	if _, err := s.Generate(context.Background(), 1); err != nil {
		t.Fatalf("generate: %v", err)
	}

	dl, ok := gen.ctxs[0].Deadline()
	if !ok {
		t.Fatal("generator context carries no deadline")
	}
	if remaining := dl.Sub(before); remaining <= 0 || remaining > 9*time.Second {
		t.Fatalf("deadline %v ahead of call, want within the 9s bound", remaining)
	}
}

func TestRecommendationService_Generate_DefaultTimeoutWhenUnset(t *testing.T) {
	db := newRecDB(t)
	seedCatalog(t, db, "Celeste")

	gen := &fakeGenerator{responses: []string{"[1]"}}
	s := &RecommendationService{DB: db, Generator: gen}

	if _, err := s.Generate(context.Background(), 1); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, ok := gen.ctxs[0].Deadline(); !ok {
		t.Fatal("zero-value service left the generator call unbounded")
	}
}

func TestRecommendationService_Generate_FavoritesWindow(t *testing.T) {
	db := newRecDB(t)
	titles := make([]string, 12)
	for i := range titles {
		titles[i] = fmt.Sprintf("Game %02d", i)
	}
	games := seedCatalog(t, db, titles...)
	for _, g := range games {
		seedFavorite(t, db, 1, g.ID)
	}

	gen := &fakeGenerator{responses: []string{"[1]"}}
	s := NewRecommendationService(db, gen)

	rec, err := s.Generate(context.Background(), 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rec.BasedOnFavorites != defaultFavoritesWindow {
		t.Fatalf("basedOnFavorites = %d, want the %d newest", rec.BasedOnFavorites, defaultFavoritesWindow)
	}
}

// ---------- History() ----------

func TestRecommendationService_History_GeneratesWhenEmpty(t *testing.T) {
	db := newRecDB(t)
	seedCatalog(t, db, "Celeste", "Hades")

	gen := &fakeGenerator{responses: []string{"[2]"}}
	s := NewRecommendationService(db, gen)

	rec, fromCache, err := s.History(context.Background(), 1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if fromCache {
		t.Fatal("empty history reported as cache hit")
	}
	if gen.calls != 1 {
		t.Fatalf("generator calls = %d, want 1", gen.calls)
	}
	if len(rec.Games) != 1 || rec.Games[0].Title != "Hades" {
		t.Fatalf("games = %+v", rec.Games)
	}
}

func TestRecommendationService_History_CacheIsIdempotent(t *testing.T) {
	db := newRecDB(t)
	seedCatalog(t, db, "Celeste", "Hades")

	gen := &fakeGenerator{responses: []string{"[1, 2]"}}
	s := NewRecommendationService(db, gen)

	if _, _, err := s.History(context.Background(), 1); err != nil {
		t.Fatalf("first history: %v", err)
	}

	for i := 0; i < 2; i++ {
		rec, fromCache, err := s.History(context.Background(), 1)
		if err != nil {
			t.Fatalf("history #%d: %v", i+2, err)
		}
		if !fromCache {
			t.Fatalf("history #%d not served from cache", i+2)
		}
		if len(rec.Games) != 2 {
			t.Fatalf("history #%d games = %+v", i+2, rec.Games)
		}
	}
	if gen.calls != 1 {
		t.Fatalf("generator calls = %d, want exactly 1", gen.calls)
	}
}

func TestRecommendationService_History_UnparseableCacheRegenerates(t *testing.T) {
	db := newRecDB(t)
	seedCatalog(t, db, "Celeste", "Hades")
	if _, err := repo.CreateAIRequest(context.Background(), db, 1, "p", "not json"); err != nil {
		t.Fatalf("seed corrupt history: %v", err)
	}

	gen := &fakeGenerator{responses: []string{"[1]"}}
	s := NewRecommendationService(db, gen)

	rec, fromCache, err := s.History(context.Background(), 1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if fromCache {
		t.Fatal("corrupt cache row served as hit")
	}
	if gen.calls != 1 {
		t.Fatalf("generator calls = %d, want 1", gen.calls)
	}
	if len(rec.GameIDs) != 1 || rec.GameIDs[0] != 1 {
		t.Fatalf("gameIDs = %v", rec.GameIDs)
	}
}

func TestRecommendationService_History_ScopedToUser(t *testing.T) {
	db := newRecDB(t)
	seedCatalog(t, db, "Celeste", "Hades")
	if _, err := repo.CreateAIRequest(context.Background(), db, 99, "p", "[2]"); err != nil {
		t.Fatalf("seed other user's history: %v", err)
	}

	gen := &fakeGenerator{responses: []string{"[1]"}}
	s := NewRecommendationService(db, gen)

	rec, fromCache, err := s.History(context.Background(), 1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if fromCache {
		t.Fatal("served another user's cache row")
	}
	if rec.Request.UserID != 1 {
		t.Fatalf("history row owner = %d, want 1", rec.Request.UserID)
	}
}

// ---------- DeleteHistory() ----------

func TestRecommendationService_DeleteHistory(t *testing.T) {
	db := newRecDB(t)
	ctx := context.Background()
	mine, err := repo.CreateAIRequest(ctx, db, 1, "p", "[1]")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	theirs, err := repo.CreateAIRequest(ctx, db, 2, "p", "[2]")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := NewRecommendationService(db, nil)

	if err := s.DeleteHistory(ctx, 1, 4242); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("missing row: got %v, want ErrRequestNotFound", err)
	}
	if err := s.DeleteHistory(ctx, 1, theirs.ID); !errors.Is(err, ErrNotRequestOwner) {
		t.Fatalf("foreign row: got %v, want ErrNotRequestOwner", err)
	}
	// The foreign row must survive the rejected delete.
	if _, err := repo.GetAIRequest(ctx, db, theirs.ID); err != nil {
		t.Fatalf("foreign row deleted: %v", err)
	}

	if err := s.DeleteHistory(ctx, 1, mine.ID); err != nil {
		t.Fatalf("own row: %v", err)
	}
	if _, err := repo.GetAIRequest(ctx, db, mine.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("own row still present, err=%v", err)
	}
}

// ---------- parsing helpers ----------

func Test_stripCodeFences(t *testing.T) {
	cases := map[string]string{
		"[1,2]":                   "[1,2]",
		"```json\n[1,2]\n```":     "[1,2]",
		"```\n[1,2]\n```":         "[1,2]",
		"  \n```json[1,2]```\n  ": "[1,2]",
	}
	for in, want := range cases {
		if got := stripCodeFences(in); got != want {
			t.Fatalf("stripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}
