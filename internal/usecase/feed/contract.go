package feed

import (
	"context"

	domfeed "github.com/kailas-cloud/stixfeed/internal/domain/feed"
	"github.com/kailas-cloud/stixfeed/internal/domain/stix"
)

// ObjectStore defines the paginated query and batch load primitives of the object store.
type ObjectStore interface {
	Query(ctx context.Context, opts domfeed.Options) (domfeed.Page, error)
	// LoadByIDs returns the objects it could resolve, keyed by internal id.
	LoadByIDs(ctx context.Context, ids []string) (map[string]stix.Object, error)
}
