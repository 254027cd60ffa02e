package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestMemoryLimiterEnforcesFixedWindow(t *testing.T) {
	limiter := NewMemoryLimiter(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "1.2.3.4:/api/v1/login")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allowed, err := limiter.Allow(ctx, "1.2.3.4:/api/v1/login")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("third request in the window should be denied")
	}

	// other keys have their own window
	allowed, _ = limiter.Allow(ctx, "5.6.7.8:/api/v1/login")
	if !allowed {
		t.Fatalf("unrelated key should not be limited")
	}
}

func TestMemoryLimiterWindowExpiry(t *testing.T) {
	limiter := NewMemoryLimiter(1, 10*time.Millisecond)
	ctx := context.Background()

	if allowed, _ := limiter.Allow(ctx, "k"); !allowed {
		t.Fatalf("first request denied")
	}
	if allowed, _ := limiter.Allow(ctx, "k"); allowed {
		t.Fatalf("second request in the window should be denied")
	}

	time.Sleep(15 * time.Millisecond)

	if allowed, _ := limiter.Allow(ctx, "k"); !allowed {
		t.Fatalf("request after the window expired should be allowed")
	}
}

func TestMemoryLimiterSweepsExpiredEntries(t *testing.T) {
	limiter := NewMemoryLimiter(1, 5*time.Millisecond)
	ctx := context.Background()

	limiter.Allow(ctx, "a")
	limiter.Allow(ctx, "b")
	time.Sleep(10 * time.Millisecond)
	limiter.Allow(ctx, "c")

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if len(limiter.entries) != 1 {
		t.Fatalf("expected only the live key after sweep, got %d entries", len(limiter.entries))
	}
}

type deniedLimiter struct{}

func (deniedLimiter) Allow(context.Context, string) (bool, error) { return false, nil }

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("backend down")
}

func newLimitedRouter(limiter Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(limiter))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return router
}

func TestRateLimitRejectsWithTooManyRequests(t *testing.T) {
	router := newLimitedRouter(deniedLimiter{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d, got %d", http.StatusTooManyRequests, w.Code)
	}
}

func TestRateLimitFailsOpenOnLimiterError(t *testing.T) {
	router := newLimitedRouter(brokenLimiter{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("a broken limiter must not block requests, got status %d", w.Code)
	}
}
