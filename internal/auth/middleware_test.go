package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type stubResolver struct {
	userID int64
	err    error
	seen   string
}

func (s *stubResolver) Resolve(_ context.Context, token string) (int64, error) {
	s.seen = token
	return s.userID, s.err
}

func newTestRouter(r TokenResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.GET("/whoami", RequireToken(r), func(c *gin.Context) {
		c.String(http.StatusOK, fmt.Sprintf("%d", UserIDFromContext(c)))
	})
	return e
}

func doRequest(e *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestRequireTokenMissingHeader(t *testing.T) {
	e := newTestRouter(&stubResolver{userID: 42})
	if w := doRequest(e, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireTokenBadScheme(t *testing.T) {
	e := newTestRouter(&stubResolver{userID: 42})
	for _, header := range []string{"Basic abc", "Bearer", "Bearer ", "sometoken"} {
		if w := doRequest(e, header); w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestRequireTokenUnknownToken(t *testing.T) {
	e := newTestRouter(&stubResolver{err: ErrInvalidToken})
	if w := doRequest(e, "Bearer deadbeef"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireTokenSetsUserID(t *testing.T) {
	r := &stubResolver{userID: 42}
	e := newTestRouter(r)
	w := doRequest(e, "Bearer goodtoken")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "42" {
		t.Fatalf("expected user id 42 in context, got %q", w.Body.String())
	}
	if r.seen != "goodtoken" {
		t.Fatalf("resolver saw token %q", r.seen)
	}
}

func TestRequireTokenAcceptsTokenScheme(t *testing.T) {
	e := newTestRouter(&stubResolver{userID: 7})
	w := doRequest(e, "Token goodtoken")
	if w.Code != http.StatusOK || w.Body.String() != "7" {
		t.Fatalf("expected 200/7 for Token scheme, got %d/%q", w.Code, w.Body.String())
	}
}

func TestNewTokenIsOpaqueHex(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 32; i++ {
		tok, err := newToken()
		if err != nil {
			t.Fatalf("newToken: %v", err)
		}
		if len(tok) != 40 {
			t.Fatalf("expected 40 hex chars, got %d (%q)", len(tok), tok)
		}
		for _, r := range tok {
			if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
				t.Fatalf("non-hex rune %q in token %q", r, tok)
			}
		}
		if seen[tok] {
			t.Fatalf("duplicate token generated: %q", tok)
		}
		seen[tok] = true
	}
}
