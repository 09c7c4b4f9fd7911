package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no session record exists for the principal.
var ErrNotFound = errors.New("session record not found")

// ErrTokenMismatch is returned by Rotate when the stored refresh token is not
// the presented one, meaning the presented token has been rotated away.
var ErrTokenMismatch = errors.New("refresh token mismatch")

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// DefaultBlacklistPrefix namespaces revocation records away from session
// records, which are keyed by the bare principal email.
const DefaultBlacklistPrefix = "Blacklist_"

const (
	rotateStatusNotFound int64 = 0
	rotateStatusMismatch int64 = 1
	rotateStatusRotated  int64 = 2
)

// Compare-and-set over the principal's session record. The overwrite happens
// only when the stored value is exactly the presented token, so of N
// concurrent refreshes carrying the same token at most one returns rotated.
const rotateScript = `
local current = redis.call("GET", KEYS[1])
if not current then
  return 0
end
if current ~= ARGV[1] then
  return 1
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 2
`

var rotateLua = redis.NewScript(rotateScript)

// Delete the session record and insert the blacklist record in one script:
// sign-out never leaves the store with the delete applied but the blacklist
// entry missing.
const revokeScript = `
redis.call("DEL", KEYS[1])
redis.call("SET", KEYS[2], ARGV[1], "PX", ARGV[2])
return 1
`

var revokeLua = redis.NewScript(revokeScript)

// Store reads and writes session and blacklist records. All methods issue
// blocking network calls; callers bound them with ctx.
type Store struct {
	redis           redis.UniversalClient
	blacklistPrefix string
}

// NewStore wraps a Redis client. An empty blacklistPrefix selects
// [DefaultBlacklistPrefix].
func NewStore(client redis.UniversalClient, blacklistPrefix string) *Store {
	if blacklistPrefix == "" {
		blacklistPrefix = DefaultBlacklistPrefix
	}
	return &Store{redis: client, blacklistPrefix: blacklistPrefix}
}

func (s *Store) blacklistKey(subject string) string {
	return s.blacklistPrefix + subject
}

// Save overwrites the principal's session record with refreshToken and resets
// its TTL. Used on sign-in, where superseding any prior session is intended.
func (s *Store) Save(ctx context.Context, subject, refreshToken string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, subject, refreshToken, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get returns the currently-live refresh token for the principal.
func (s *Store) Get(ctx context.Context, subject string) (string, error) {
	value, err := s.redis.Get(ctx, subject).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return value, nil
}

// Exists reports whether a session record is present for the principal.
func (s *Store) Exists(ctx context.Context, subject string) (bool, error) {
	n, err := s.redis.Exists(ctx, subject).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

// Delete removes the principal's session record. Deleting a missing record is
// not an error.
func (s *Store) Delete(ctx context.Context, subject string) error {
	if err := s.redis.Del(ctx, subject).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Rotate atomically replaces the stored refresh token with next, but only if
// the stored value equals presented. Returns ErrNotFound when no record
// exists and ErrTokenMismatch when the record holds a different token.
func (s *Store) Rotate(ctx context.Context, subject, presented, next string, ttl time.Duration) error {
	result, err := rotateLua.Run(
		ctx,
		s.redis,
		[]string{subject},
		presented,
		next,
		ttl.Milliseconds(),
	).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	code, ok := result.(int64)
	if !ok {
		return fmt.Errorf("%w: invalid rotate script response", ErrRedisUnavailable)
	}

	switch code {
	case rotateStatusNotFound:
		return ErrNotFound
	case rotateStatusMismatch:
		return ErrTokenMismatch
	case rotateStatusRotated:
		return nil
	default:
		return fmt.Errorf("%w: unknown rotate script status %d", ErrRedisUnavailable, code)
	}
}

// Revoke deletes the session record and records refreshToken in the
// blacklist with TTL=remaining, in one round trip. remaining must be
// positive; callers skip revocation for already-expired tokens.
func (s *Store) Revoke(ctx context.Context, subject, refreshToken string, remaining time.Duration) error {
	if remaining <= 0 {
		return errors.New("remaining validity must be positive")
	}
	err := revokeLua.Run(
		ctx,
		s.redis,
		[]string{subject, s.blacklistKey(subject)},
		refreshToken,
		remaining.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// IsBlacklisted reports whether refreshToken is the recorded revoked token
// for the principal. Expired blacklist entries read as not blacklisted; by
// then the token itself fails expiry checks.
func (s *Store) IsBlacklisted(ctx context.Context, subject, refreshToken string) (bool, error) {
	value, err := s.redis.Get(ctx, s.blacklistKey(subject)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return value == refreshToken, nil
}

// BlacklistTTL returns the remaining lifetime of the principal's blacklist
// record, or ErrNotFound when none exists.
func (s *Store) BlacklistTTL(ctx context.Context, subject string) (time.Duration, error) {
	d, err := s.redis.PTTL(ctx, s.blacklistKey(subject)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	// PTTL reports -2 for a missing key and -1 for a key without expiry.
	if d < 0 {
		return 0, ErrNotFound
	}
	return d, nil
}
