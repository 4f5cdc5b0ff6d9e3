package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func silentLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// fastClient shrinks the retry schedule so the full loop runs in milliseconds.
func fastClient(baseURL string) *Client {
	c := New(baseURL, "test-token")
	c.BaseDelay = time.Millisecond
	c.AttemptTimeout = time.Second
	c.Logger = silentLogger()
	return c
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestRefreshRecommendations_SendsBearer(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	if err := c.RefreshRecommendations(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if gotPath != "/ai/recommend" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("auth = %q", gotAuth)
	}
}

func TestRefreshInBackground_RetriesTransientThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	c.RefreshInBackground(context.Background())

	// 3 transient failures then success on the 4th and final attempt.
	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt32(&calls) == 4 })
	time.Sleep(20 * time.Millisecond)
	if n := atomic.LoadInt32(&calls); n != 4 {
		t.Fatalf("calls = %d, want exactly 4", n)
	}
}

func TestRefreshInBackground_GivesUpAfterAllAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	c.RefreshInBackground(context.Background())

	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt32(&calls) == 4 })
	// The loop is bounded; no fifth attempt may arrive.
	time.Sleep(20 * time.Millisecond)
	if n := atomic.LoadInt32(&calls); n != 4 {
		t.Fatalf("calls = %d, want exactly 4", n)
	}
}

func TestRefreshInBackground_BackoffDoublesBetweenAttempts(t *testing.T) {
	var mu sync.Mutex
	var hits []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits = append(hits, time.Now())
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	base := 50 * time.Millisecond
	c := fastClient(srv.URL)
	c.BaseDelay = base

	start := time.Now()
	c.RefreshInBackground(context.Background())

	attemptCount := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(hits)
	}
	waitFor(t, 3*time.Second, func() bool { return attemptCount() == 4 })

	mu.Lock()
	defer mu.Unlock()

	// First attempt fires without any initial delay.
	if d := hits[0].Sub(start); d > base {
		t.Fatalf("first attempt delayed by %v, want immediate", d)
	}

	// Waits between attempts follow the doubling schedule: 1x, 2x, 4x base.
	// Each gap must be at least its scheduled delay; the upper bound is
	// loose to tolerate scheduler jitter.
	const slack = 250 * time.Millisecond
	for i, mult := range []time.Duration{1, 2, 4} {
		want := base * mult
		gap := hits[i+1].Sub(hits[i])
		if gap < want {
			t.Fatalf("gap %d = %v, want at least %v", i+1, gap, want)
		}
		if gap > want+slack {
			t.Fatalf("gap %d = %v, want about %v", i+1, gap, want)
		}
	}
}

func TestRefreshInBackground_PermanentFailureStopsImmediately(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	c.RefreshInBackground(context.Background())

	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&calls) == 1 })
	// 4xx is permanent; the loop must not try again.
	time.Sleep(20 * time.Millisecond)
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("calls = %d, want exactly 1", n)
	}
}

func TestRefreshInBackground_ContextCancelStopsRetrying(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	c.BaseDelay = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	c.RefreshInBackground(ctx)

	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&calls) == 1 })
	cancel()
	// Cancelled while waiting for the first backoff; no further attempts.
	time.Sleep(120 * time.Millisecond)
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("calls = %d, want 1 after cancel", n)
	}
}

func TestAddFavorite_TriggersBackgroundRefresh(t *testing.T) {
	var favCalls, recCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/favorites/7" && r.Method == http.MethodPost:
			atomic.AddInt32(&favCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.URL.Path == "/ai/recommend":
			atomic.AddInt32(&recCalls, 1)
			w.Write([]byte(`{"success":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	if err := c.AddFavorite(context.Background(), 7); err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	if n := atomic.LoadInt32(&favCalls); n != 1 {
		t.Fatalf("favorite calls = %d", n)
	}
	// The refresh is detached from the mutation and completes on its own.
	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&recCalls) == 1 })
}

func TestRemoveFavorite_FailureSkipsRefresh(t *testing.T) {
	var recCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ai/recommend" {
			atomic.AddInt32(&recCalls, 1)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	if err := c.RemoveFavorite(context.Background(), 7); err == nil {
		t.Fatal("expected error for rejected mutation")
	}
	time.Sleep(20 * time.Millisecond)
	if n := atomic.LoadInt32(&recCalls); n != 0 {
		t.Fatalf("refresh ran after failed mutation: %d calls", n)
	}
}

func TestRefreshRecommendations_TimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := fastClient(srv.URL)
	c.AttemptTimeout = 30 * time.Millisecond

	err := c.RefreshRecommendations(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	var te *transientError
	if !errors.As(err, &te) {
		t.Fatalf("timeout not classified transient: %v", err)
	}
}
