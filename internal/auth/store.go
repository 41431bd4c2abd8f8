package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	tokenKeyPrefix = "token:"
	userKeyPrefix  = "usertoken:"
)

var (
	// ErrInvalidToken means the presented token is unknown.
	ErrInvalidToken = errors.New("invalid token")
	// ErrNoActiveSession means the user has no token to revoke.
	ErrNoActiveSession = errors.New("no active session")
)

// kv is the subset of Redis the store needs. Missing keys are reported as
// redis.Nil, exactly as the client does.
type kv interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key, value string) (bool, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
}

// redisKV adapts *redis.Client to kv. Tokens never expire on their own, so
// every write uses no TTL.
type redisKV struct {
	rdb *redis.Client
}

func (r redisKV) Get(ctx context.Context, key string) (string, error) {
	return r.rdb.Get(ctx, key).Result()
}

func (r redisKV) SetNX(ctx context.Context, key, value string) (bool, error) {
	return r.rdb.SetNX(ctx, key, value, 0).Result()
}

func (r redisKV) Set(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, key, value, 0).Err()
}

func (r redisKV) Del(ctx context.Context, keys ...string) error {
	return r.rdb.Del(ctx, keys...).Err()
}

// Store manages opaque bearer tokens in Redis. Each user holds at most one
// token; tokens carry no embedded structure and never expire on their own.
type Store struct {
	kv kv
}

// NewStore returns a new token store.
func NewStore(rdb *redis.Client) *Store {
	return &Store{kv: redisKV{rdb: rdb}}
}

// Issue returns the user's token, creating one if none exists. Calling it
// twice without an intervening Revoke returns the same value.
func (s *Store) Issue(ctx context.Context, userID int64) (string, error) {
	userKey := userKeyPrefix + strconv.FormatInt(userID, 10)

	tok, err := s.kv.Get(ctx, userKey)
	if err == nil {
		return tok, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", err
	}

	tok, err = newToken()
	if err != nil {
		return "", err
	}
	// SETNX so two concurrent logins settle on a single token.
	ok, err := s.kv.SetNX(ctx, userKey, tok)
	if err != nil {
		return "", err
	}
	if !ok {
		return s.kv.Get(ctx, userKey)
	}
	if err := s.kv.Set(ctx, tokenKeyPrefix+tok, strconv.FormatInt(userID, 10)); err != nil {
		return "", err
	}
	return tok, nil
}

// Resolve returns the user ID the token belongs to.
func (s *Store) Resolve(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrInvalidToken
	}
	raw, err := s.kv.Get(ctx, tokenKeyPrefix+token)
	if errors.Is(err, redis.Nil) {
		return 0, ErrInvalidToken
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// Revoke deletes the user's token. ErrNoActiveSession if there is none.
func (s *Store) Revoke(ctx context.Context, userID int64) error {
	userKey := userKeyPrefix + strconv.FormatInt(userID, 10)
	tok, err := s.kv.Get(ctx, userKey)
	if errors.Is(err, redis.Nil) {
		return ErrNoActiveSession
	}
	if err != nil {
		return err
	}
	return s.kv.Del(ctx, userKey, tokenKeyPrefix+tok)
}

func newToken() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}
