package collection

import (
	"context"
	"testing"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	scanFn         func(ctx context.Context, pattern string) ([]string, error)
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return nil, nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func readHash(id, name string, public bool) map[string]string {
	pub := "false"
	if public {
		pub = "true"
	}
	return map[string]string{
		"id":                  id,
		"entity_type":         "TaxiiCollection",
		"name":                name,
		"description":         name + " feed",
		"filters":             `{"mode":"and","filters":[],"filterGroups":[]}`,
		"include_inferences":  "false",
		"score_to_confidence": "true",
		"taxii_public":        pub,
		"authorized_members":  `[{"id":"group-1","access_right":"view"}]`,
	}
}
