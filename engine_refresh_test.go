package authgate

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRefreshRotatesTokenPair(t *testing.T) {
	engine, _, rdb := newTestEngine(t, testConfig())
	ctx := context.Background()

	pair, err := engine.SignIn(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	rotated, err := engine.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if rotated.AccessToken == "" || rotated.RefreshToken == "" {
		t.Fatal("expected a full rotated pair")
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("rotation must issue a new refresh token")
	}

	stored, err := rdb.Get(ctx, testEmail).Result()
	if err != nil {
		t.Fatalf("reading session record: %v", err)
	}
	if stored != rotated.RefreshToken {
		t.Fatal("session record must hold the rotated refresh token")
	}
}

func TestRefreshReplayRejected(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	pair, err := engine.SignIn(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	rotated, err := engine.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	// The rotated-away token is cryptographically valid but no longer live.
	if _, err := engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("replay: expected ErrTokenInvalid, got %v", err)
	}

	// The replay attempt must not disturb the live token.
	if _, err := engine.Refresh(ctx, rotated.RefreshToken); err != nil {
		t.Fatalf("live token must still rotate after a replay attempt: %v", err)
	}
}

func TestRefreshWithoutSession(t *testing.T) {
	engine, _, rdb := newTestEngine(t, testConfig())
	ctx := context.Background()

	pair, err := engine.SignIn(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if err := rdb.Del(ctx, testEmail).Err(); err != nil {
		t.Fatalf("deleting session record: %v", err)
	}

	if _, err := engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid without a session, got %v", err)
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	for _, input := range []string{"", "garbage", "a.b.c"} {
		if _, err := engine.Refresh(ctx, input); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("input %q: expected ErrTokenInvalid, got %v", input, err)
		}
	}
}

func TestRefreshExpiredToken(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())

	expired := signWithExpiry(t, testEmail, time.Now().Add(-time.Minute))
	if _, err := engine.Refresh(context.Background(), expired); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestRefreshThrottled(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.EnableRefreshThrottle = true
	cfg.RateLimit.MaxRefreshAttempts = 2
	cfg.RateLimit.RefreshCooldown = time.Minute

	engine, mr, _ := newTestEngine(t, cfg)
	ctx := context.Background()

	pair, err := engine.SignIn(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	current := pair.RefreshToken
	for i := 0; i < 2; i++ {
		rotated, err := engine.Refresh(ctx, current)
		if err != nil {
			t.Fatalf("refresh %d failed: %v", i+1, err)
		}
		current = rotated.RefreshToken
	}

	if _, err := engine.Refresh(ctx, current); !errors.Is(err, ErrRefreshRateLimited) {
		t.Fatalf("expected ErrRefreshRateLimited, got %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := engine.Refresh(ctx, current); err != nil {
		t.Fatalf("refresh after cooldown failed: %v", err)
	}
}

func TestRefreshStoreUnavailable(t *testing.T) {
	engine, mr, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	pair, err := engine.SignIn(ctx, testEmail, testPassword)
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	mr.Close()
	if _, err := engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
