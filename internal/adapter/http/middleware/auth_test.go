package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iho/gobid/internal/infrastructure/auth"
)

func TestAuthPinsSenderFromToken(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Minute)
	token, err := manager.Generate("alice")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	var gotSender string
	var gotOK bool

	mw := Auth(manager)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auctions/auc-1/bids", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSender, gotOK = SenderFromContext(r.Context())
	})).ServeHTTP(rr, req)

	if !gotOK || gotSender != "alice" {
		t.Fatalf("expected pinned sender alice, got %q ok=%v", gotSender, gotOK)
	}
}

func TestAuthPassesThroughWithoutToken(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Minute)

	var called bool
	mw := Auth(manager)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auctions/auc-1/bids", nil)
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := SenderFromContext(r.Context()); ok {
			t.Error("expected no pinned sender")
		}
	})).ServeHTTP(rr, req)

	if !called {
		t.Fatal("expected handler to run")
	}
}

func TestAuthRejectsBadToken(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Minute)

	tests := []struct {
		name   string
		header string
	}{
		{"malformed header", "Token abc"},
		{"garbage token", "Bearer not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := Auth(manager)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auctions/auc-1/bids", nil)
			req.Header.Set("Authorization", tt.header)
			rr := httptest.NewRecorder()

			mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler should not run")
			})).ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
		})
	}
}
