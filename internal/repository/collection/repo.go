package collection

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/kailas-cloud/stixfeed/internal/domain"
	domcol "github.com/kailas-cloud/stixfeed/internal/domain/collection"
	"github.com/kailas-cloud/stixfeed/internal/domain/principal"
)

// store is the consumer interface for collections (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/access.Repository over collection hashes.
type Repo struct {
	store store
}

// New creates a collection repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Get loads a collection of either kind by id, without a visibility check.
func (r *Repo) Get(ctx context.Context, id string) (domcol.Collection, error) {
	if id == "" {
		return domcol.Collection{}, domain.ErrNotFound
	}
	m, err := r.store.HGetAll(ctx, metaKey(id))
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("hgetall collection %s: %w", id, err)
	}
	if len(m) == 0 {
		return domcol.Collection{}, domain.ErrNotFound
	}

	col, err := collectionFromHash(m)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("parse collection %s: %w", id, err)
	}
	return col, nil
}

// FindByID loads a collection the principal may see. Invisible collections
// resolve as domain.ErrNotFound so their existence is not disclosed.
func (r *Repo) FindByID(ctx context.Context, p *principal.Principal, id string) (domcol.Collection, error) {
	col, err := r.Get(ctx, id)
	if err != nil {
		return domcol.Collection{}, err
	}
	if !visibleTo(col, p) {
		return domcol.Collection{}, domain.ErrNotFound
	}
	return col, nil
}

// List returns collections of the given kinds (all kinds when none given),
// sorted by name then id.
func (r *Repo) List(ctx context.Context, kinds ...domcol.Kind) ([]domcol.Collection, error) {
	keys, err := r.store.Scan(ctx, metaKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan collections: %w", err)
	}
	if len(keys) == 0 {
		return []domcol.Collection{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi collections: %w", err)
	}

	collections := make([]domcol.Collection, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		col, err := collectionFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse collection %s: %w", keys[i], err)
		}
		if len(kinds) > 0 && !slices.Contains(kinds, col.Kind()) {
			continue
		}
		collections = append(collections, col)
	}

	sort.Slice(collections, func(i, j int) bool {
		if collections[i].Name() != collections[j].Name() {
			return collections[i].Name() < collections[j].Name()
		}
		return collections[i].ID() < collections[j].ID()
	})

	return collections, nil
}

// Redis key pattern: stixfeed:collection:{id}

func metaKey(id string) string {
	return fmt.Sprintf("%scollection:%s", domain.KeyPrefix, id)
}
