package feed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	domcol "github.com/kailas-cloud/stixfeed/internal/domain/collection"
	domfeed "github.com/kailas-cloud/stixfeed/internal/domain/feed"
	"github.com/kailas-cloud/stixfeed/internal/domain/stix"
	"github.com/kailas-cloud/stixfeed/internal/logger"
	"github.com/kailas-cloud/stixfeed/internal/metrics"
)

const (
	endpointObjects  = "objects"
	endpointManifest = "manifest"
)

// Config holds the immutable settings of the feed service.
type Config struct {
	MaxPageSize int
}

// Service serves the objects and manifest feeds of a collection.
type Service struct {
	store       ObjectStore
	maxPageSize int
}

// New creates a feed service. A non-positive MaxPageSize falls back to domfeed.DefaultMaxPageSize.
func New(store ObjectStore, cfg Config) *Service {
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = domfeed.DefaultMaxPageSize
	}
	return &Service{store: store, maxPageSize: cfg.MaxPageSize}
}

// MaxPageSize returns the configured page size cap.
func (s *Service) MaxPageSize() int { return s.maxPageSize }

// FeedObjects returns one page of full STIX objects.
func (s *Service) FeedObjects(
	ctx context.Context, col domcol.Collection, args domfeed.Args,
) (domfeed.Envelope[stix.Object], error) {
	page, err := s.query(ctx, col, args)
	if err != nil {
		metrics.FeedPagesTotal.WithLabelValues(endpointObjects, "error").Inc()
		return domfeed.Envelope[stix.Object]{}, err
	}

	objects, err := s.materialize(ctx, col, page)
	if err != nil {
		metrics.FeedPagesTotal.WithLabelValues(endpointObjects, "error").Inc()
		return domfeed.Envelope[stix.Object]{}, fmt.Errorf("feed objects: %w", err)
	}

	metrics.FeedPagesTotal.WithLabelValues(endpointObjects, "ok").Inc()
	metrics.FeedObjectsTotal.WithLabelValues(endpointObjects).Add(float64(len(objects)))
	return domfeed.NewEnvelope(page, objects), nil
}

// FeedManifest returns one page of manifest entries. It shares the query path
// with FeedObjects, so cursors are interchangeable between the two.
func (s *Service) FeedManifest(
	ctx context.Context, col domcol.Collection, args domfeed.Args,
) (domfeed.Envelope[domfeed.ManifestEntry], error) {
	page, err := s.query(ctx, col, args)
	if err != nil {
		metrics.FeedPagesTotal.WithLabelValues(endpointManifest, "error").Inc()
		return domfeed.Envelope[domfeed.ManifestEntry]{}, err
	}

	entries := manifest(page)
	metrics.FeedPagesTotal.WithLabelValues(endpointManifest, "ok").Inc()
	metrics.FeedObjectsTotal.WithLabelValues(endpointManifest).Add(float64(len(entries)))
	return domfeed.NewEnvelope(page, entries), nil
}

func (s *Service) query(ctx context.Context, col domcol.Collection, args domfeed.Args) (domfeed.Page, error) {
	opts, err := Compile(col, args)
	if err != nil {
		return domfeed.Page{}, err
	}
	if err := paginate(&opts, args, s.maxPageSize); err != nil {
		return domfeed.Page{}, err
	}

	start := time.Now()
	page, err := s.store.Query(ctx, opts)
	duration := time.Since(start)
	metrics.StoreRequestDuration.WithLabelValues("query").Observe(duration.Seconds())
	if err != nil {
		return domfeed.Page{}, fmt.Errorf("query collection %s: %w", col.ID(), err)
	}

	logger.FromContext(ctx).Debug("Feed page queried",
		zap.String("collection_id", col.ID()),
		zap.Stringer("index", opts.Index),
		zap.Int("page_size", opts.PageSize),
		zap.Int("edges", len(page.Edges)),
		zap.Bool("more", page.HasNextPage),
		zap.Duration("duration", duration),
	)
	return page, nil
}
