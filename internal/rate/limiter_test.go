package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, cfg), mr
}

func TestSignInBudget(t *testing.T) {
	limiter, _ := newTestLimiter(t, Config{
		MaxSignInAttempts: 3,
		SignInCooldown:    time.Minute,
	})
	ctx := context.Background()

	// Within budget the check passes and failures accumulate.
	for i := 0; i < 3; i++ {
		if err := limiter.CheckSignIn(ctx, "a@b.com", ""); err != nil {
			t.Fatalf("check %d failed: %v", i+1, err)
		}
		if err := limiter.IncrementSignIn(ctx, "a@b.com", ""); err != nil {
			t.Fatalf("increment %d failed: %v", i+1, err)
		}
	}

	// The next failed attempt overflows the budget.
	if err := limiter.IncrementSignIn(ctx, "a@b.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on overflow, got %v", err)
	}
	if err := limiter.CheckSignIn(ctx, "a@b.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on check, got %v", err)
	}

	// A different identifier is untouched.
	if err := limiter.CheckSignIn(ctx, "c@d.com", ""); err != nil {
		t.Fatalf("unrelated identifier must pass, got %v", err)
	}
}

func TestSignInWindowExpires(t *testing.T) {
	limiter, mr := newTestLimiter(t, Config{
		MaxSignInAttempts: 1,
		SignInCooldown:    time.Minute,
	})
	ctx := context.Background()

	if err := limiter.IncrementSignIn(ctx, "a@b.com", ""); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := limiter.IncrementSignIn(ctx, "a@b.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := limiter.CheckSignIn(ctx, "a@b.com", ""); err != nil {
		t.Fatalf("check after window expiry failed: %v", err)
	}
	if err := limiter.IncrementSignIn(ctx, "a@b.com", ""); err != nil {
		t.Fatalf("increment after window expiry failed: %v", err)
	}
}

func TestResetSignInClearsCounters(t *testing.T) {
	limiter, mr := newTestLimiter(t, Config{
		EnableIPThrottle:  true,
		MaxSignInAttempts: 1,
		SignInCooldown:    time.Minute,
	})
	ctx := context.Background()

	if err := limiter.IncrementSignIn(ctx, "a@b.com", "10.0.0.1"); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := limiter.ResetSignIn(ctx, "a@b.com", "10.0.0.1"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	if mr.Exists("ag:si:a@b.com") || mr.Exists("ag:sip:10.0.0.1") {
		t.Fatal("reset must delete both counters")
	}
}

func TestIPThrottleSharedAcrossIdentifiers(t *testing.T) {
	limiter, _ := newTestLimiter(t, Config{
		EnableIPThrottle:  true,
		MaxSignInAttempts: 2,
		SignInCooldown:    time.Minute,
	})
	ctx := context.Background()

	// Failures against distinct identifiers from one IP share the IP budget.
	if err := limiter.IncrementSignIn(ctx, "a@b.com", "10.0.0.1"); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := limiter.IncrementSignIn(ctx, "c@d.com", "10.0.0.1"); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := limiter.IncrementSignIn(ctx, "e@f.com", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited from the shared IP counter, got %v", err)
	}
	if err := limiter.CheckSignIn(ctx, "g@h.com", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited for a fresh identifier on the hot IP, got %v", err)
	}
}

func TestRefreshThrottle(t *testing.T) {
	limiter, mr := newTestLimiter(t, Config{
		EnableRefreshThrottle: true,
		MaxRefreshAttempts:    2,
		RefreshCooldown:       time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := limiter.CheckRefresh(ctx, "a@b.com"); err != nil {
			t.Fatalf("refresh %d failed: %v", i+1, err)
		}
	}
	if err := limiter.CheckRefresh(ctx, "a@b.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if err := limiter.CheckRefresh(ctx, "a@b.com"); err != nil {
		t.Fatalf("refresh after cooldown failed: %v", err)
	}
}

func TestRefreshThrottleDisabled(t *testing.T) {
	limiter, _ := newTestLimiter(t, Config{
		MaxRefreshAttempts: 1,
		RefreshCooldown:    time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := limiter.CheckRefresh(ctx, "a@b.com"); err != nil {
			t.Fatalf("disabled throttle must never limit, got %v", err)
		}
	}
}

func TestLimiterStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := New(client, Config{MaxSignInAttempts: 1, SignInCooldown: time.Minute})
	mr.Close()

	ctx := context.Background()
	if err := limiter.CheckSignIn(ctx, "a@b.com", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
	if err := limiter.IncrementSignIn(ctx, "a@b.com", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
