package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStaticAuthenticator(t *testing.T) {
	a := NewStatic(map[string]string{"tok1": "alice"})
	ctx := context.Background()

	p, err := a.Authenticate(ctx, "tok1")
	if err != nil || p.UserID != "alice" {
		t.Errorf("Authenticate = %+v, %v", p, err)
	}
	for _, token := range []string{"", "nope"} {
		if _, err := a.Authenticate(ctx, token); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Authenticate(%q) = %v", token, err)
		}
	}
}

func TestMiddleware(t *testing.T) {
	var got Principal
	h := Middleware(NewStatic(map[string]string{"tok1": "alice"}), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	}))

	tests := []struct {
		header string
		code   int
	}{
		{"Bearer tok1", http.StatusOK},
		{"bearer tok1", http.StatusOK},
		{"Bearer tok2", http.StatusUnauthorized},
		{"tok1", http.StatusUnauthorized},
		{"", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		got = Principal{}
		req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.code {
			t.Errorf("%q: code = %d, want %d", tt.header, rec.Code, tt.code)
		}
		if tt.code == http.StatusOK && got.UserID != "alice" {
			t.Errorf("%q: principal = %+v", tt.header, got)
		}
	}
}
