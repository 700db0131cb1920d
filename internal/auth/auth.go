package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmorgan81/neurophoto/internal/config"
	"github.com/dmorgan81/neurophoto/internal/log"
	"github.com/dmorgan81/neurophoto/internal/param"
	"github.com/samber/do"
	"github.com/samber/lo"
)

var ErrUnauthorized = errors.New("unauthorized")

// Principal scopes data to a user. Nothing but UserID is read from it.
type Principal struct {
	UserID string
}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Principal, error)
}

// StaticAuthenticator maps bearer tokens to users from a fixed table.
type StaticAuthenticator struct {
	tokens map[string]string
}

func NewStatic(tokens map[string]string) *StaticAuthenticator {
	return &StaticAuthenticator{tokens: lo.Assign(tokens)}
}

// NewStaticAuthenticator combines AUTH_TOKENS with the "token:user" values
// stored below AUTH_TOKENS_PARAM.
func NewStaticAuthenticator(i *do.Injector) (Authenticator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	tokens := lo.Assign(cfg.AuthTokens)
	if cfg.AuthTokensParam != "" {
		values, err := do.MustInvoke[param.Fetcher](i).FetchAll(context.Background(), cfg.AuthTokensParam)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			token, user, ok := strings.Cut(v, ":")
			if !ok || token == "" || user == "" {
				return nil, fmt.Errorf("malformed token entry below %s", cfg.AuthTokensParam)
			}
			tokens[token] = user
		}
	}
	return NewStatic(tokens), nil
}

func (a *StaticAuthenticator) Authenticate(ctx context.Context, token string) (Principal, error) {
	user, ok := a.tokens[token]
	if !ok || token == "" {
		return Principal{}, ErrUnauthorized
	}
	return Principal{UserID: user}, nil
}

type principalKey struct{}

func NewContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware rejects requests without a valid bearer token and otherwise
// adds the Principal to the request context.
func Middleware(a Authenticator, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		p, err := a.Authenticate(ctx, BearerToken(r))
		if err != nil {
			log.FromContextOrDiscard(ctx).WithGroup("auth").Info("rejected request", "err", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprintln(w, `{"error":"Unauthorized"}`)
			return
		}
		ctx = log.NewContext(ctx, log.FromContextOrDiscard(ctx).With("user", p.UserID))
		next.ServeHTTP(w, r.WithContext(NewContext(ctx, p)))
	})
}
