package principal

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/kailas-cloud/stixfeed/internal/domain"
	dompr "github.com/kailas-cloud/stixfeed/internal/domain/principal"
)

func analystHash() map[string]string {
	return map[string]string{
		"id":           "user-1",
		"name":         "analyst",
		"group_ids":    "group-1, org-1",
		"capabilities": "taxiiapi,",
	}
}

func TestAuthenticate_Success(t *testing.T) {
	repo, ms := newTestRepo(t)

	var gotKey string
	ms.hgetAllFn = func(_ context.Context, key string) (map[string]string, error) {
		gotKey = key
		return analystHash(), nil
	}

	p, err := repo.Authenticate(context.Background(), "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// sha256("secret")
	want := "stixfeed:principal:2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b"
	if gotKey != want {
		t.Errorf("key = %q, want %q", gotKey, want)
	}
	if p.ID() != "user-1" || !slices.Equal(p.GroupIDs(), []string{"group-1", "org-1"}) {
		t.Errorf("unexpected principal: %+v", p)
	}
	if !dompr.HasCapability(p, dompr.CapabilityTAXIIAPI) {
		t.Error("capability must be parsed case-insensitively")
	}
}

func TestAuthenticate_Cached(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return analystHash(), nil
	}

	for range 3 {
		if _, err := repo.Authenticate(context.Background(), "secret"); err != nil {
			t.Fatal(err)
		}
	}
	if ms.calls != 1 {
		t.Errorf("store calls = %d, want 1", ms.calls)
	}
}

func TestAuthenticate_CacheExpires(t *testing.T) {
	ms := &mockStore{hgetAllFn: func(_ context.Context, _ string) (map[string]string, error) {
		return analystHash(), nil
	}}
	repo := New(ms, 16, 10*time.Millisecond)

	if _, err := repo.Authenticate(context.Background(), "secret"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if _, err := repo.Authenticate(context.Background(), "secret"); err != nil {
		t.Fatal(err)
	}
	if ms.calls != 2 {
		t.Errorf("store calls = %d, want 2", ms.calls)
	}
}

func TestAuthenticate_UnknownToken(t *testing.T) {
	repo, ms := newTestRepo(t)

	for range 2 {
		_, err := repo.Authenticate(context.Background(), "nope")
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	}
	if ms.calls != 2 {
		t.Errorf("unknown tokens must not be cached, store calls = %d", ms.calls)
	}
}

func TestAuthenticate_EmptyToken(t *testing.T) {
	repo, ms := newTestRepo(t)
	if _, err := repo.Authenticate(context.Background(), ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if ms.calls != 0 {
		t.Error("store must not be called for an empty token")
	}
}

func TestAuthenticate_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	storeErr := errors.New("connection refused")
	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return nil, storeErr
	}
	_, err := repo.Authenticate(context.Background(), "secret")
	if !errors.Is(err, storeErr) || errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestAuthenticate_CorruptRecord(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return map[string]string{"name": "no id"}, nil
	}
	if _, err := repo.Authenticate(context.Background(), "secret"); err == nil {
		t.Fatal("expected error")
	}
}
