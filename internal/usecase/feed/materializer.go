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

// materialize loads the full objects of a page in edge order. References the
// store cannot resolve are left out of the result.
func (s *Service) materialize(
	ctx context.Context, col domcol.Collection, page domfeed.Page,
) ([]stix.Object, error) {
	if len(page.Edges) == 0 {
		return []stix.Object{}, nil
	}

	ids := make([]string, len(page.Edges))
	for i, e := range page.Edges {
		ids[i] = e.Node.InternalID
	}

	start := time.Now()
	loaded, err := s.store.LoadByIDs(ctx, ids)
	metrics.StoreRequestDuration.WithLabelValues("load").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("load objects: %w", err)
	}

	objects := make([]stix.Object, 0, len(ids))
	var omitted []string
	for _, id := range ids {
		obj, ok := loaded[id]
		if !ok {
			omitted = append(omitted, id)
			continue
		}
		if col.ScoreToConfidence() {
			obj = substituteConfidence(obj)
		}
		objects = append(objects, obj)
	}

	if len(omitted) > 0 {
		metrics.FeedOmittedRecordsTotal.Add(float64(len(omitted)))
		logger.FromContext(ctx).Warn("Feed page has unresolved records",
			zap.String("collection_id", col.ID()),
			zap.Int("omitted", len(omitted)),
			zap.Strings("internal_ids", omitted),
		)
	}

	return objects, nil
}

// substituteConfidence overwrites an indicator's confidence with its score.
func substituteConfidence(obj stix.Object) stix.Object {
	switch obj.Kind() {
	case stix.KindIndicator:
		if score, ok := obj.Score(); ok {
			return obj.WithConfidence(score)
		}
		return obj
	default:
		return obj
	}
}
