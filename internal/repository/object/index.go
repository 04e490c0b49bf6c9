package object

import (
	"fmt"

	"github.com/kailas-cloud/stixfeed/internal/db"
	"github.com/kailas-cloud/stixfeed/internal/domain"
	"github.com/kailas-cloud/stixfeed/internal/domain/feed"
)

// Redis key patterns: stixfeed:object:{internal_id}, stixfeed:inferred:{internal_id}

func baseKey(id string) string {
	return fmt.Sprintf("%sobject:%s", domain.KeyPrefix, id)
}

func inferredKey(id string) string {
	return fmt.Sprintf("%sinferred:%s", domain.KeyPrefix, id)
}

func indexName(set feed.IndexSet) string {
	if set == feed.IndexStixWithInferred {
		return domain.KeyPrefix + "object_inferred:idx"
	}
	return domain.KeyPrefix + "object:idx"
}

// indexDefinitions returns the base index and its superset over inferred records.
func indexDefinitions() []*db.IndexDefinition {
	base := schema(db.NewIndex(indexName(feed.IndexStix)).
		Prefix(baseKey("")))
	superset := schema(db.NewIndex(indexName(feed.IndexStixWithInferred)).
		Prefix(baseKey(""), inferredKey("")))
	return []*db.IndexDefinition{base, superset}
}

func schema(b *db.IndexBuilder) *db.IndexDefinition {
	return b.
		Tag(feed.FieldInternalID).
		Tag(feed.FieldStandardID).
		Tag(feed.FieldEntityType).
		TagWithOpts(feed.FieldParentTypes, ",", false).
		SortableNumeric(feed.FieldUpdatedAt).
		Numeric(feed.FieldCreatedAt).
		Numeric(feed.FieldConfidence).
		Numeric(feed.FieldScore).
		TagWithOpts(feed.FieldObjectMarkingRefs, ",", false).
		Tag(feed.FieldCreatedByRef).
		TagWithOpts(feed.FieldLabels, ",", false).
		MustBuild()
}
