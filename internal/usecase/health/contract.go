package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker checks that the object indexes are queryable.
type IndexChecker interface {
	IndexesReady(ctx context.Context) error
}
