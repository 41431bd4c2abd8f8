package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
)

// fakeKV is an in-memory kv reporting misses as redis.Nil, like the client.
// afterGet, when set, runs after each Get so tests can interleave a competing
// writer between the store's read and its SETNX.
type fakeKV struct {
	data     map[string]string
	afterGet func(key string)
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if f.afterGet != nil {
		f.afterGet(key)
	}
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeKV) SetNX(_ context.Context, key, value string) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value
	return true, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string) error {
	f.data[key] = value
	return nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func newTestStore() *Store {
	return &Store{kv: newFakeKV()}
}

func TestIssueIsIdempotent(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	first, err := s.Issue(ctx, 1)
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	if first == "" {
		t.Fatalf("expected a token")
	}
	second, err := s.Issue(ctx, 1)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if second != first {
		t.Fatalf("issue not idempotent: %q then %q", first, second)
	}
}

func TestIssueDistinctUsersGetDistinctTokens(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	a, err := s.Issue(ctx, 1)
	if err != nil {
		t.Fatalf("issue user 1: %v", err)
	}
	b, err := s.Issue(ctx, 2)
	if err != nil {
		t.Fatalf("issue user 2: %v", err)
	}
	if a == b {
		t.Fatalf("two users share a token")
	}
}

func TestIssueSettlesOnExistingTokenWhenSetNXLoses(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	fk := s.kv.(*fakeKV)
	// A concurrent login writes the user key between our miss and our SETNX,
	// so SETNX loses and Issue must settle on the surviving token.
	const winner = "cafebabecafebabecafebabecafebabecafebabe"
	fk.afterGet = func(key string) {
		if key == userKeyPrefix+"1" {
			fk.data[key] = winner
			fk.data[tokenKeyPrefix+winner] = "1"
			fk.afterGet = nil
		}
	}

	got, err := s.Issue(ctx, 1)
	if err != nil {
		t.Fatalf("issue after race: %v", err)
	}
	if got != winner {
		t.Fatalf("expected the existing token %q, got %q", winner, got)
	}
}

func TestResolveRoundTrip(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	tok, err := s.Issue(ctx, 42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := s.Resolve(ctx, tok)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != 42 {
		t.Fatalf("resolved wrong user: %d", id)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	if _, err := s.Resolve(ctx, "deadbeef"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for unknown token, got %v", err)
	}
	if _, err := s.Resolve(ctx, ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty token, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	tok, err := s.Issue(ctx, 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := s.Revoke(ctx, 1); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := s.Resolve(ctx, tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected revoked token to be invalid, got %v", err)
	}
	if err := s.Revoke(ctx, 1); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession on second revoke, got %v", err)
	}
}

func TestRevokeWithoutSession(t *testing.T) {
	s := newTestStore()
	if err := s.Revoke(context.Background(), 99); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestIssueAfterRevokeRotatesToken(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	first, err := s.Issue(ctx, 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := s.Revoke(ctx, 1); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	second, err := s.Issue(ctx, 1)
	if err != nil {
		t.Fatalf("reissue: %v", err)
	}
	if second == first {
		t.Fatalf("expected a fresh token after revoke")
	}
	id, err := s.Resolve(ctx, second)
	if err != nil || id != 1 {
		t.Fatalf("fresh token does not resolve: %d %v", id, err)
	}
}
