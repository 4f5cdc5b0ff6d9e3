// Package services – RecommendationService
//
// This file implements RecommendationService, the application-level component
// that owns AI-generated game recommendations. It builds a grounded prompt
// from the user's recent favorites (or the whole catalog when they have
// none), invokes the injected text generator once, validates and persists
// the outcome, and serves "get or generate" reads over the append-only
// history.
//
// The newest history row per user is the recommendation cache. Rows are
// never updated in place; concurrent generations append duplicates and
// latest-wins reads tolerate that by design, so no locking is needed.
//
// Observability: the public methods are OpenTelemetry-instrumented; spans
// include the user identifier and whether a cached row was served.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/gamehub/go-game-backend/internal/domain"
	"github.com/gamehub/go-game-backend/internal/genai"
	"github.com/gamehub/go-game-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// defaultFavoritesWindow bounds how many recent favorites inform the prompt.
const defaultFavoritesWindow = 10

// defaultCallTimeout bounds the outbound generation call when no explicit
// timeout is configured.
const defaultCallTimeout = 15 * time.Second

// Recommendation is the outcome of one generation or cache read.
type Recommendation struct {
	// Request is the persisted history row backing this result.
	Request *domain.AIRequest
	// Games are the recommended catalog entries, hydrated from GameIDs.
	// IDs with no matching catalog row are dropped, never substituted.
	Games []domain.Game
	// GameIDs is the raw identifier list the model returned (or the cache held).
	GameIDs []uint
	// BasedOnFavorites is how many favorites informed the prompt.
	// Zero for cache reads, where the original count is not retained.
	BasedOnFavorites int
}

// RecommendationService coordinates prompt construction, the external
// generation call, response validation, and history persistence.
type RecommendationService struct {
	DB *gorm.DB
	// Generator is the injected text-generation backend; nil means the
	// credential was never configured and every generation fails fast
	// with ErrAINotConfigured.
	Generator genai.TextGenerator

	// FavoritesWindow caps how many recent favorites feed the prompt
	// (defaultFavoritesWindow when <= 0).
	FavoritesWindow int

	// CallTimeout bounds each outbound generation call
	// (defaultCallTimeout when <= 0). The incoming request context carries
	// no deadline of its own, so without this bound a stalled upstream
	// would pin the handler until the client gives up.
	CallTimeout time.Duration
}

// NewRecommendationService constructs a RecommendationService.
// gen may be nil when no generation credential is configured.
func NewRecommendationService(db *gorm.DB, gen genai.TextGenerator) *RecommendationService {
	return &RecommendationService{
		DB:              db,
		Generator:       gen,
		FavoritesWindow: defaultFavoritesWindow,
		CallTimeout:     defaultCallTimeout,
	}
}

// Generate produces a fresh recommendation for userID and persists it as a
// new history row. Exactly one outbound generation call and one insert
// happen per successful invocation.
//
// Failure conditions:
//   - ErrAINotConfigured when no generator is wired (fatal, never retried).
//   - The generator's error, propagated as-is, when the external call fails.
//   - ErrAIResponseParse / ErrAIResponseFormat for unusable model output.
//
// The service never retries: retry-with-backoff is the API client's job.
func (s *RecommendationService) Generate(ctx context.Context, userID uint) (*Recommendation, error) {
	tr := otel.Tracer("services/RecommendationService")
	ctx, span := tr.Start(ctx, "Generate",
		trace.WithAttributes(attribute.Int64("user.id", int64(userID))),
	)
	defer span.End()

	if s.Generator == nil {
		return nil, ErrAINotConfigured
	}

	// Catalog grounding: every (id, title) pair the model may pick from.
	games, err := repo.ListGames(ctx, s.DB)
	if err != nil {
		return nil, err
	}

	window := s.FavoritesWindow
	if window <= 0 {
		window = defaultFavoritesWindow
	}
	favorites, err := repo.ListRecentFavorites(ctx, s.DB, userID, window)
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(games, favorites)

	timeout := s.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	genCtx, cancel := context.WithTimeout(ctx, timeout)
	raw, err := s.Generator.Generate(genCtx, prompt)
	cancel()
	if err != nil {
		return nil, err
	}

	ids, err := parseGameIDs(raw)
	if err != nil {
		return nil, err
	}

	serialized, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	summary := fmt.Sprintf("auto-generated based on %d favorite games", len(favorites))
	req, err := repo.CreateAIRequest(ctx, s.DB, userID, summary, string(serialized))
	if err != nil {
		return nil, err
	}

	recommended, err := repo.ListGamesByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}

	return &Recommendation{
		Request:          req,
		Games:            recommended,
		GameIDs:          ids,
		BasedOnFavorites: len(favorites),
	}, nil
}

// History serves the latest cached recommendation, falling back to Generate
// when the user has no history or the cached response no longer parses.
// fromCache reports which path produced the result (handlers map it to
// 200 vs 201).
func (s *RecommendationService) History(ctx context.Context, userID uint) (rec *Recommendation, fromCache bool, err error) {
	tr := otel.Tracer("services/RecommendationService")
	ctx, span := tr.Start(ctx, "History",
		trace.WithAttributes(attribute.Int64("user.id", int64(userID))),
	)
	defer span.End()

	latest, err := repo.LatestAIRequest(ctx, s.DB, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if latest != nil && latest.Response != "" {
		if ids, perr := parseGameIDs(latest.Response); perr == nil {
			recommended, gerr := repo.ListGamesByIDs(ctx, s.DB, ids)
			if gerr != nil {
				return nil, false, gerr
			}
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &Recommendation{
				Request: latest,
				Games:   recommended,
				GameIDs: ids,
			}, true, nil
		}
		// Unparseable cache rows fall through to regeneration.
	}

	span.SetAttributes(attribute.Bool("cache.hit", false))
	rec, err = s.Generate(ctx, userID)
	return rec, false, err
}

// DeleteHistory removes one history row owned by userID.
// Missing rows map to ErrRequestNotFound; rows owned by another user map to
// ErrNotRequestOwner and are left untouched.
func (s *RecommendationService) DeleteHistory(ctx context.Context, userID, requestID uint) error {
	req, err := repo.GetAIRequest(ctx, s.DB, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		return err
	}
	if req.UserID != userID {
		return ErrNotRequestOwner
	}
	return repo.DeleteAIRequest(ctx, s.DB, requestID)
}

// --- Prompt construction ---

// buildPrompt renders the generation prompt. Both variants ground the model
// on the full catalog as an [id, title] list and demand a bare JSON array of
// numeric game IDs with no prose.
func buildPrompt(games []domain.Game, favorites []domain.Favorite) string {
	var b strings.Builder

	if len(favorites) == 0 {
		b.WriteString("The user has no favorite games. Please recommend 3-5 popular games from the following list:\n")
	} else {
		titles := make([]string, 0, len(favorites))
		for _, f := range favorites {
			titles = append(titles, f.Game.Title)
		}
		b.WriteString("Based on the user's favorite games: ")
		b.WriteString(strings.Join(titles, ", "))
		b.WriteString(". Provide 3-5 game recommendations. Use the following game data as your reference when generating recommendations:\n")
	}

	b.WriteString("[[id, title]]\n")
	for i, g := range games {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "[%d, %q]", g.ID, g.Title)
	}
	b.WriteString("\nReturn the result only as a JSON array of game IDs (numbers) - without any text, explanation, or extra formatting.\n")

	return b.String()
}

// --- Model output parsing ---

// stripCodeFences removes Markdown code-fence artifacts (``` and an optional
// json tag) that models frequently wrap around JSON output.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// parseGameIDs turns raw model output into a list of game IDs.
//
// Taxonomy:
//   - invalid JSON (after fence stripping)      -> ErrAIResponseParse
//   - valid JSON but not a non-empty number array -> ErrAIResponseFormat
//
// Negative and fractional values are rejected as format errors; the catalog
// only holds positive integer identifiers.
func parseGameIDs(raw string) ([]uint, error) {
	clean := stripCodeFences(raw)

	var v any
	if err := json.Unmarshal([]byte(clean), &v); err != nil {
		return nil, ErrAIResponseParse
	}

	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return nil, ErrAIResponseFormat
	}

	ids := make([]uint, 0, len(arr))
	for _, el := range arr {
		n, ok := el.(float64)
		if !ok || n <= 0 || n != float64(uint(n)) {
			return nil, ErrAIResponseFormat
		}
		ids = append(ids, uint(n))
	}
	return ids, nil
}
