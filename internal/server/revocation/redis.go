// Package revocation keeps server-side session invalidations in Redis:
// single tokens (logout, account deletion) and per-user cutoffs (password
// change). Entries expire with the sessions they invalidate.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "coisando:revoked"

// kv is the slice of Redis the store needs.
type kv interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
}

type redisKV struct {
	c *redis.Client
}

func (r redisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.c.Set(ctx, key, value, ttl).Err()
}

func (r redisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Options configure the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// Store records and checks revocations.
type Store struct {
	kv     kv
	prefix string
	now    func() time.Time
}

func NewStore(client *redis.Client) *Store {
	return &Store{kv: redisKV{c: client}, prefix: defaultPrefix, now: time.Now}
}

func (s *Store) tokenKey(tokenID string) string { return s.prefix + ":token:" + tokenID }
func (s *Store) userKey(userID string) string   { return s.prefix + ":user:" + userID }

// RevokeToken invalidates one token until it would have expired anyway.
// Tokens that are already expired need no entry.
func (s *Store) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.kv.Set(ctx, s.tokenKey(tokenID), "1", ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// RevokeUserBefore invalidates every session of userID issued before
// cutoff (second precision). maxAge is the session lifetime; older tokens
// have expired on their own so the entry can go after that.
func (s *Store) RevokeUserBefore(ctx context.Context, userID string, cutoff time.Time, maxAge time.Duration) error {
	err := s.kv.Set(ctx, s.userKey(userID), strconv.FormatInt(cutoff.Unix(), 10), maxAge)
	if err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	return nil
}

// IsRevoked reports whether a token with the given id, owner and issue
// time was revoked.
func (s *Store) IsRevoked(ctx context.Context, tokenID, userID string, issuedAt time.Time) (bool, error) {
	if tokenID != "" {
		_, found, err := s.kv.Get(ctx, s.tokenKey(tokenID))
		if err != nil {
			return false, fmt.Errorf("check token: %w", err)
		}
		if found {
			return true, nil
		}
	}

	v, found, err := s.kv.Get(ctx, s.userKey(userID))
	if err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	if !found {
		return false, nil
	}
	cutoff, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return false, fmt.Errorf("check user: bad cutoff %q", v)
	}
	return issuedAt.Unix() < cutoff, nil
}
