package chi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/stixfeed/internal/domain"
	"github.com/kailas-cloud/stixfeed/internal/domain/principal"
	"github.com/kailas-cloud/stixfeed/internal/logger"
)

// Authenticator resolves a bearer token to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*principal.Principal, error)
}

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

type principalKey struct{}

// ContextWithPrincipal stores the authenticated principal in the context.
func ContextWithPrincipal(ctx context.Context, p *principal.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the authenticated principal, or nil for anonymous requests.
func PrincipalFromContext(ctx context.Context) *principal.Principal {
	p, _ := ctx.Value(principalKey{}).(*principal.Principal)
	return p
}

// BearerAuthMiddleware resolves an optional Bearer token. Requests without an
// Authorization header proceed anonymously; unknown tokens are rejected.
func BearerAuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(header, bearerPrefix) {
				writeTAXIIError(w, http.StatusUnauthorized,
					"Unauthorized", "authorization header must use Bearer scheme")
				return
			}

			p, err := auth.Authenticate(r.Context(), strings.TrimSpace(header[len(bearerPrefix):]))
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthorized) {
					logger.FromContext(r.Context()).Error("authentication failed", zap.Error(err))
					writeTAXIIError(w, http.StatusInternalServerError, "Internal error", "")
					return
				}
				writeTAXIIError(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
		})
	}
}
