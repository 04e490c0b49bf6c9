package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/stixfeed/internal/domain"
	"github.com/kailas-cloud/stixfeed/internal/domain/principal"
)

type mockAuthenticator struct {
	authenticateFn func(ctx context.Context, token string) (*principal.Principal, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, token string) (*principal.Principal, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, token)
	}
	return nil, domain.ErrUnauthorized
}

func tokenAuth(token string, p *principal.Principal) *mockAuthenticator {
	return &mockAuthenticator{authenticateFn: func(_ context.Context, got string) (*principal.Principal, error) {
		if got != token {
			return nil, domain.ErrUnauthorized
		}
		return p, nil
	}}
}

// principalEcho responds 200 and reports the principal id it saw.
func principalEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := "anonymous"
		if p := PrincipalFromContext(r.Context()); p != nil {
			id = p.ID()
		}
		w.Header().Set("X-Principal", id)
		w.WriteHeader(http.StatusOK)
	})
}

func analyst(t *testing.T) *principal.Principal {
	t.Helper()
	p, err := principal.New("user-1", "analyst", nil, []principal.Capability{principal.CapabilityTAXIIAPI})
	if err != nil {
		t.Fatal(err)
	}
	return &p
}

func TestAuthMiddleware_NoHeader_Anonymous(t *testing.T) {
	handler := BearerAuthMiddleware(&mockAuthenticator{})(principalEcho())

	req := httptest.NewRequest("GET", "/taxii2/root/collections/", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("no header: got %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Header().Get("X-Principal") != "anonymous" {
		t.Errorf("principal: got %q", rr.Header().Get("X-Principal"))
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	handler := BearerAuthMiddleware(tokenAuth("secret", analyst(t)))(principalEcho())

	req := httptest.NewRequest("GET", "/taxii2/root/collections/", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("valid token: got %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Header().Get("X-Principal") != "user-1" {
		t.Errorf("principal: got %q", rr.Header().Get("X-Principal"))
	}
}

func TestAuthMiddleware_BasicScheme_401(t *testing.T) {
	handler := BearerAuthMiddleware(tokenAuth("secret", analyst(t)))(principalEcho())

	req := httptest.NewRequest("GET", "/taxii2/", http.NoBody)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("basic scheme: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_InvalidToken_401(t *testing.T) {
	handler := BearerAuthMiddleware(tokenAuth("secret", analyst(t)))(principalEcho())

	req := httptest.NewRequest("GET", "/taxii2/", http.NoBody)
	req.Header.Set("Authorization", "Bearer wrong-key")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/taxii+json;version=2.1" {
		t.Errorf("content type: got %q", ct)
	}

	var body taxiiError
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if body.HTTPStatus != "401" || body.Title != "Unauthorized" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestAuthMiddleware_StoreFailure_500(t *testing.T) {
	auth := &mockAuthenticator{authenticateFn: func(_ context.Context, _ string) (*principal.Principal, error) {
		return nil, errors.New("connection refused")
	}}
	handler := BearerAuthMiddleware(auth)(principalEcho())

	req := httptest.NewRequest("GET", "/taxii2/", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("store failure: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestAuthMiddleware_ExemptPaths(t *testing.T) {
	handler := BearerAuthMiddleware(&mockAuthenticator{})(principalEcho())

	for _, path := range []string{"/health", "/metrics"} {
		req := httptest.NewRequest("GET", path, http.NoBody)
		req.Header.Set("Authorization", "Bearer wrong-key")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("%s: got %d, want %d", path, rr.Code, http.StatusOK)
		}
	}
}

func TestAcceptsTAXII(t *testing.T) {
	tests := []struct {
		accept []string
		want   bool
	}{
		{nil, true},
		{[]string{"application/taxii+json;version=2.1"}, true},
		{[]string{"application/taxii+json"}, true},
		{[]string{"application/json, */*;q=0.1"}, true},
		{[]string{"application/*"}, true},
		{[]string{"application/taxii+json;version=2.0"}, false},
		{[]string{"application/json"}, false},
		{[]string{"text/html", "application/taxii+json;version=2.1;q=0"}, false},
	}
	for _, tc := range tests {
		if got := acceptsTAXII(tc.accept); got != tc.want {
			t.Errorf("acceptsTAXII(%q) = %v, want %v", tc.accept, got, tc.want)
		}
	}
}
