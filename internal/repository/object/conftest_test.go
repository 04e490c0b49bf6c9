package object

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"testing"

	"github.com/kailas-cloud/stixfeed/internal/db"
	"github.com/kailas-cloud/stixfeed/internal/domain/feed"
	"github.com/kailas-cloud/stixfeed/internal/domain/filter"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	createIndexFn  func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn  func(ctx context.Context, name string) (bool, error)
	searchSortedFn func(ctx context.Context, q *db.SortedQuery) (*db.SearchResult, error)
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	out := make([]map[string]string, len(keys))
	for i := range out {
		out[i] = map[string]string{}
	}
	return out, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) SearchSorted(ctx context.Context, q *db.SortedQuery) (*db.SearchResult, error) {
	if m.searchSortedFn != nil {
		return m.searchSortedFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

// record is one stored object as the fake index sees it.
type record struct {
	id        string
	updatedAt int64
}

// table serves records ordered by updated_at like FT.SEARCH would: updated_at
// range conditions are honoured, ties keep insertion order, then offset/limit apply.
type table struct {
	records []record
}

func newTable(n int) *table {
	tb := &table{}
	for i := range n {
		tb.records = append(tb.records, record{id: strconv.Itoa(i), updatedAt: 1700000000000 + int64(i)})
	}
	return tb
}

// touch moves a record to a new updated_at, as an edit on the platform would.
func (tb *table) touch(id string, updatedAt int64) {
	for i := range tb.records {
		if tb.records[i].id == id {
			tb.records[i].updatedAt = updatedAt
		}
	}
}

func (tb *table) search(_ context.Context, q *db.SortedQuery) (*db.SearchResult, error) {
	sorted := slices.Clone(tb.records)
	slices.SortStableFunc(sorted, func(a, b record) int { return cmp.Compare(a.updatedAt, b.updatedAt) })

	var hits []record
	for _, rec := range sorted {
		if matchesUpdatedAt(q.Filter, rec.updatedAt) {
			hits = append(hits, rec)
		}
	}

	res := &db.SearchResult{Total: len(hits)}
	for i := q.Offset; i < len(hits) && i < q.Offset+q.Limit; i++ {
		rec := hits[i]
		res.Entries = append(res.Entries, db.SearchEntry{
			Key: "stixfeed:object:" + rec.id,
			Fields: map[string]string{
				"internal_id": rec.id,
				"standard_id": "indicator--00000000-0000-4000-8000-" + leftPad(rec.id),
				"entity_type": "Indicator",
				"updated_at":  strconv.FormatInt(rec.updatedAt, 10),
			},
		})
	}
	return res, nil
}

// matchesUpdatedAt evaluates the updated_at bounds of a conjunctive filter tree.
func matchesUpdatedAt(g filter.Group, ms int64) bool {
	for _, c := range g.Conditions() {
		if c.Key() != feed.FieldUpdatedAt {
			continue
		}
		for _, n := range c.Numbers() {
			v := float64(ms)
			switch c.Operator() {
			case filter.OpGt:
				if v <= n {
					return false
				}
			case filter.OpGte:
				if v < n {
					return false
				}
			case filter.OpLt:
				if v >= n {
					return false
				}
			case filter.OpLte:
				if v > n {
					return false
				}
			}
		}
	}
	for _, sub := range g.Groups() {
		if !matchesUpdatedAt(sub, ms) {
			return false
		}
	}
	return true
}

// rows serves n records with strictly increasing updated_at.
func rows(n int) func(context.Context, *db.SortedQuery) (*db.SearchResult, error) {
	return newTable(n).search
}

func leftPad(s string) string {
	for len(s) < 12 {
		s = "0" + s
	}
	return s
}
