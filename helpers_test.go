package authgate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

var testSigningSecret = []byte("engine-test-secret-0123456789abcd")

const (
	testEmail    = "a@b.com"
	testPassword = "correct-horse-battery"
)

type stubVerifier struct {
	users map[string]string
}

func (s *stubVerifier) VerifyCredentials(_ context.Context, email, password string) error {
	if stored, ok := s.users[email]; ok && stored == password {
		return nil
	}
	return ErrInvalidCredentials
}

func newStubVerifier() *stubVerifier {
	return &stubVerifier{users: map[string]string{testEmail: testPassword}}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.Secret = testSigningSecret
	return cfg
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func buildTestEngine(t *testing.T, cfg Config, rdb *redis.Client, cv CredentialVerifier) *Engine {
	t.Helper()

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentials(cv).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, rdb := newTestRedis(t)
	return buildTestEngine(t, cfg, rdb, newStubVerifier()), mr, rdb
}

// signWithExpiry crafts a token with the engine's secret and an arbitrary
// expiry, for exercising expired-token paths without waiting.
func signWithExpiry(t *testing.T, subject string, expiresAt time.Time) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(expiresAt.Add(-time.Hour)),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningSecret)
	if err != nil {
		t.Fatalf("signing test token failed: %v", err)
	}
	return signed
}
