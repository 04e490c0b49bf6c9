// Package feed holds the request, query and response shapes of a collection feed.
package feed

import (
	"time"

	"github.com/kailas-cloud/stixfeed/internal/domain/filter"
	"github.com/kailas-cloud/stixfeed/internal/domain/stix"
)

// DefaultMaxPageSize caps a page when nothing else is configured.
const DefaultMaxPageSize = 500

// Match holds the match[...] query parameters. Empty strings mean absent.
type Match struct {
	ID          string // comma-separated STIX ids
	SpecVersion string
	Type        string // comma-separated STIX types
	Version     string
}

// Args are the client parameters of an objects or manifest request.
type Args struct {
	AddedAfter *time.Time
	Limit      *string // raw value; validated by the pagination manager
	Next       string  // opaque continuation token
	Match      Match
}

// IndexSet selects the data-plane indexes a query runs against.
type IndexSet int

const (
	// IndexStix covers base STIX records only.
	IndexStix IndexSet = iota
	// IndexStixWithInferred also covers inferred records.
	IndexStixWithInferred
)

func (i IndexSet) String() string {
	if i == IndexStixWithInferred {
		return "stix_with_inferred"
	}
	return "stix"
}

// Options is the compiled, request-scoped query handed to the object store.
type Options struct {
	Types   []string // nil: no type restriction
	IDs     []string // nil: no id restriction
	Filters filter.Group
	// After is an opaque store cursor, or an RFC 3339 time when AfterExclude is set.
	After           string
	AfterExclude    bool
	PageSize        int
	BypassSizeLimit bool
	Index           IndexSet
}

// Node is the summary projection of one stored object.
type Node struct {
	InternalID string
	StandardID string
	EntityType string
	UpdatedAt  time.Time
}

// Edge is one position in a page of results.
type Edge struct {
	Cursor string
	Node   Node
}

// Page is one slice of the ordered result set.
type Page struct {
	Edges       []Edge
	HasNextPage bool
}

// ManifestEntry summarizes one feed object.
type ManifestEntry struct {
	ID        string `json:"id"`
	DateAdded string `json:"date_added"`
	Version   string `json:"version"`
	MediaType string `json:"media_type"`
}

// Envelope is the response of the objects and manifest endpoints.
type Envelope[T any] struct {
	More    bool   `json:"more"`
	Next    string `json:"next"`
	Objects []T    `json:"objects"`

	// DateAddedFirst and DateAddedLast bound the page; zero when the page is empty.
	DateAddedFirst time.Time `json:"-"`
	DateAddedLast  time.Time `json:"-"`
}

// NewEnvelope builds an envelope from a page. next is the last edge's cursor.
func NewEnvelope[T any](page Page, objects []T) Envelope[T] {
	if objects == nil {
		objects = []T{}
	}
	env := Envelope[T]{More: page.HasNextPage, Objects: objects}
	if n := len(page.Edges); n > 0 {
		env.Next = page.Edges[n-1].Cursor
		env.DateAddedFirst = page.Edges[0].Node.UpdatedAt
		env.DateAddedLast = page.Edges[n-1].Node.UpdatedAt
	}
	return env
}

// Index field names of stored objects.
const (
	FieldInternalID        = "internal_id"
	FieldStandardID        = "standard_id"
	FieldEntityType        = "entity_type"
	FieldParentTypes       = "parent_types"
	FieldUpdatedAt         = "updated_at"
	FieldCreatedAt         = "created_at"
	FieldConfidence        = "confidence"
	FieldScore             = "x_opencti_score"
	FieldObjectMarkingRefs = "object_marking_refs"
	FieldCreatedByRef      = "created_by_ref"
	FieldLabels            = "labels"
	FieldStix              = "stix"
)

// FilterSchema whitelists the stored-filter keys a collection may use.
func FilterSchema() filter.Schema {
	return filter.Schema{
		"entity_type":     {Name: FieldParentTypes, Type: filter.FieldTag},
		"id":              {Name: FieldStandardID, Type: filter.FieldTag},
		"objectMarking":   {Name: FieldObjectMarkingRefs, Type: filter.FieldTag},
		"createdBy":       {Name: FieldCreatedByRef, Type: filter.FieldTag},
		"objectLabel":     {Name: FieldLabels, Type: filter.FieldTag},
		"confidence":      {Name: FieldConfidence, Type: filter.FieldNumeric},
		"x_opencti_score": {Name: FieldScore, Type: filter.FieldNumeric},
		"created_at":      {Name: FieldCreatedAt, Type: filter.FieldNumeric, Date: true},
		"updated_at":      {Name: FieldUpdatedAt, Type: filter.FieldNumeric, Date: true},
	}
}

// NewManifestEntry maps an edge node to its manifest entry.
func NewManifestEntry(n Node) ManifestEntry {
	ts := stix.FormatTimestamp(n.UpdatedAt)
	return ManifestEntry{
		ID:        n.StandardID,
		DateAdded: ts,
		Version:   ts,
		MediaType: stix.MediaType,
	}
}
