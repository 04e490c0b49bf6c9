package object

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/stixfeed/internal/db"
	"github.com/kailas-cloud/stixfeed/internal/domain"
	"github.com/kailas-cloud/stixfeed/internal/domain/feed"
	"github.com/kailas-cloud/stixfeed/internal/domain/filter"
	"github.com/kailas-cloud/stixfeed/internal/domain/stix"
)

// DefaultResultWindow is the deepest position reachable without bypassing the size limit.
const DefaultResultWindow = 10000

// store is the consumer interface for STIX objects (ISP).
type store interface {
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchSorted(ctx context.Context, q *db.SortedQuery) (*db.SearchResult, error)
}

// Repo implements usecase/feed.ObjectStore over FT indexes of object hashes.
type Repo struct {
	store  store
	window int
}

// New creates an object repository.
func New(s store) *Repo {
	return &Repo{store: s, window: DefaultResultWindow}
}

// WithResultWindow overrides the truncation guard applied when the size limit is not bypassed.
func (r *Repo) WithResultWindow(n int) *Repo {
	if n > 0 {
		r.window = n
	}
	return r
}

// EnsureIndexes creates the base and superset indexes when absent.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	for _, def := range indexDefinitions() {
		exists, err := r.store.IndexExists(ctx, def.Name)
		if err != nil {
			return fmt.Errorf("check index %s: %w", def.Name, err)
		}
		if exists {
			continue
		}
		if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
			return fmt.Errorf("create index %s: %w", def.Name, err)
		}
	}
	return nil
}

// IndexesReady reports an error naming the first object index that does not exist.
func (r *Repo) IndexesReady(ctx context.Context) error {
	for _, def := range indexDefinitions() {
		exists, err := r.store.IndexExists(ctx, def.Name)
		if err != nil {
			return fmt.Errorf("check index %s: %w", def.Name, err)
		}
		if !exists {
			return fmt.Errorf("index %s: %w", def.Name, db.ErrIndexNotFound)
		}
	}
	return nil
}

// Query returns one page of the ordered result set described by opts. Pages are
// keyed on the last edge's updated_at, so records moving to the end of the
// ordering between requests do not shift the continuation.
func (r *Repo) Query(ctx context.Context, opts feed.Options) (feed.Page, error) {
	if opts.PageSize <= 0 {
		return feed.Page{}, fmt.Errorf("page size must be positive")
	}

	var (
		resume   position
		boundary filter.Group
		err      error
	)
	if opts.After != "" {
		if opts.AfterExclude {
			boundary, err = afterBoundary(opts.After)
		} else {
			resume, err = decodeCursor(opts.After)
			if err == nil {
				boundary, err = resumeBoundary(resume.updatedAt)
			}
		}
		if err != nil {
			return feed.Page{}, err
		}
	}

	size := opts.PageSize
	if !opts.BypassSizeLimit {
		if resume.served >= r.window {
			return feed.Page{Edges: []feed.Edge{}}, nil
		}
		size = min(size, r.window-resume.served)
	}

	where, err := scope(opts)
	if err != nil {
		return feed.Page{}, err
	}

	res, err := r.store.SearchSorted(ctx, &db.SortedQuery{
		IndexName:    indexName(opts.Index),
		Filter:       filter.And(where, opts.Filters, boundary),
		SortBy:       feed.FieldUpdatedAt,
		Order:        db.SortAsc,
		Offset:       resume.ties, // rows at the resume key already served
		Limit:        size + 1,    // one extra row answers "is there a next page"
		ReturnFields: nodeFields,
	})
	if err != nil {
		return feed.Page{}, fmt.Errorf("search %s: %w", indexName(opts.Index), err)
	}

	n := min(len(res.Entries), size)
	edges := make([]feed.Edge, 0, n)
	last, ties := resume.updatedAt, resume.ties
	for i, e := range res.Entries[:n] {
		node, err := nodeFromFields(e.Key, e.Fields)
		if err != nil {
			return feed.Page{}, fmt.Errorf("parse %s: %w", e.Key, err)
		}
		if ms := node.UpdatedAt.UnixMilli(); ms == last {
			ties++
		} else {
			last, ties = ms, 1
		}
		edges = append(edges, feed.Edge{
			Cursor: encodeCursor(position{updatedAt: last, ties: ties, served: resume.served + i + 1}),
			Node:   node,
		})
	}

	more := len(res.Entries) > size
	if !opts.BypassSizeLimit && resume.served+n >= r.window {
		more = false
	}

	return feed.Page{Edges: edges, HasNextPage: more}, nil
}

// LoadByIDs batch-loads full STIX objects keyed by internal id. Base records win
// over inferred ones; unresolvable or malformed records are absent from the result.
func (r *Repo) LoadByIDs(ctx context.Context, ids []string) (map[string]stix.Object, error) {
	out := make(map[string]stix.Object, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	missing, err := r.loadInto(ctx, ids, baseKey, out)
	if err != nil {
		return nil, err
	}
	if len(missing) == 0 {
		return out, nil
	}
	if _, err := r.loadInto(ctx, missing, inferredKey, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) loadInto(
	ctx context.Context, ids []string, key func(string) string, out map[string]stix.Object,
) ([]string, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}
	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi objects: %w", err)
	}

	var missing []string
	for i, m := range results {
		raw, ok := m[feed.FieldStix]
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		obj, err := stix.ParseObject([]byte(raw))
		if err != nil {
			continue
		}
		out[ids[i]] = obj
	}
	return missing, nil
}

// scope narrows the query by the requested types and ids.
func scope(opts feed.Options) (filter.Group, error) {
	var groups []filter.Group
	if len(opts.Types) > 0 {
		c, err := filter.NewTag(feed.FieldParentTypes, filter.OpEq, filter.ModeOr, opts.Types)
		if err != nil {
			return filter.Group{}, fmt.Errorf("%w: %w", domain.ErrInvalidParameter, err)
		}
		groups = append(groups, filter.Match(c))
	}
	if len(opts.IDs) > 0 {
		c, err := filter.NewTag(feed.FieldStandardID, filter.OpEq, filter.ModeOr, opts.IDs)
		if err != nil {
			return filter.Group{}, fmt.Errorf("%w: %w", domain.ErrInvalidParameter, err)
		}
		groups = append(groups, filter.Match(c))
	}
	return filter.And(groups...), nil
}

// afterBoundary turns an RFC 3339 time into a strict lower bound on updated_at.
func afterBoundary(after string) (filter.Group, error) {
	ts, err := time.Parse(time.RFC3339Nano, after)
	if err != nil {
		return filter.Group{}, fmt.Errorf("%w: after %q is not a timestamp", domain.ErrInvalidParameter, after)
	}
	c, err := filter.NewNumeric(feed.FieldUpdatedAt, filter.OpGt, filter.ModeOr, []float64{float64(ts.UnixMilli())})
	if err != nil {
		return filter.Group{}, err
	}
	return filter.Match(c), nil
}

// resumeBoundary keeps records at or after the last served sort key.
func resumeBoundary(ms int64) (filter.Group, error) {
	c, err := filter.NewNumeric(feed.FieldUpdatedAt, filter.OpGte, filter.ModeOr, []float64{float64(ms)})
	if err != nil {
		return filter.Group{}, err
	}
	return filter.Match(c), nil
}

var nodeFields = []string{
	feed.FieldInternalID,
	feed.FieldStandardID,
	feed.FieldEntityType,
	feed.FieldUpdatedAt,
}

func nodeFromFields(key string, m map[string]string) (feed.Node, error) {
	id := m[feed.FieldInternalID]
	if id == "" {
		id = key[strings.LastIndex(key, ":")+1:]
	}
	ms, err := strconv.ParseInt(m[feed.FieldUpdatedAt], 10, 64)
	if err != nil {
		return feed.Node{}, fmt.Errorf("invalid %s: %w", feed.FieldUpdatedAt, err)
	}
	return feed.Node{
		InternalID: id,
		StandardID: m[feed.FieldStandardID],
		EntityType: m[feed.FieldEntityType],
		UpdatedAt:  time.UnixMilli(ms).UTC(),
	}, nil
}
