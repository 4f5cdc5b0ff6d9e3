package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// limitedRouter installs rl behind an optional middleware that fakes an
// authenticated identity, mirroring where the per-user limiter sits in the
// real router (after Auth).
func limitedRouter(rl *RateLimiter, identity gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{}
	if identity != nil {
		handlers = append(handlers, identity)
	}
	handlers = append(handlers, rl.Handler(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/limited", handlers...)
	return r
}

func hitLimited(r *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestKeyByClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "203.0.113.7:5123"

	if got := KeyByClientIP()(c); got != "ip:203.0.113.7" {
		t.Fatalf("key = %q, want ip:203.0.113.7", got)
	}

	// An authenticated identity must not change the key.
	c.Set(ctxKeyUserID, uint(42))
	if got := KeyByClientIP()(c); got != "ip:203.0.113.7" {
		t.Fatalf("key with identity = %q, want ip:203.0.113.7", got)
	}
}

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "203.0.113.7:5123"

	if got := KeyByUserOrIP()(c); got != "ip:203.0.113.7" {
		t.Fatalf("anonymous key = %q, want ip:203.0.113.7", got)
	}

	c.Set(ctxKeyUserID, uint(42))
	if got := KeyByUserOrIP()(c); got != "user:42" {
		t.Fatalf("authenticated key = %q, want user:42", got)
	}
}

func TestRateLimiter_BurstExhaustion429(t *testing.T) {
	// rps well below 1 so tokens do not refill mid-test.
	rl := NewRateLimiter(0.001, 2, KeyByClientIP())
	r := limitedRouter(rl, nil)

	for i := 0; i < 2; i++ {
		if w := hitLimited(r, "198.51.100.1:1000"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, w.Code)
		}
	}

	w := hitLimited(r, "198.51.100.1:1000")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("over burst: status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("Retry-After = %q, want 1", got)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["code"] != "rate_limited" {
		t.Fatalf("code = %q, want rate_limited", body["code"])
	}
}

func TestRateLimiter_UserBucketsAreIndependent(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, KeyByUserOrIP())

	// All requests share one IP; only the resolved user ID separates them.
	router := func(userID uint) *gin.Engine {
		return limitedRouter(rl, func(c *gin.Context) {
			c.Set(ctxKeyUserID, userID)
			c.Next()
		})
	}

	for id := uint(1); id <= 3; id++ {
		r := router(id)
		if w := hitLimited(r, "198.51.100.9:1000"); w.Code != http.StatusOK {
			t.Fatalf("user %d first request: status = %d, want 200", id, w.Code)
		}
	}

	// Each user's single-token bucket is now drained.
	for id := uint(1); id <= 3; id++ {
		r := router(id)
		if w := hitLimited(r, "198.51.100.9:1000"); w.Code != http.StatusTooManyRequests {
			t.Fatalf("user %d second request: status = %d, want 429", id, w.Code)
		}
	}
}
