package principal

import (
	"context"
	"testing"
	"time"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hgetAllFn func(ctx context.Context, key string) (map[string]string, error)
	calls     int
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m.calls++
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, 16, time.Minute), ms
}
