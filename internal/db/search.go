package db

import "github.com/kailas-cloud/stixfeed/internal/domain/filter"

// SortOrder is the direction of a SORTBY clause.
type SortOrder string

const (
	// SortAsc sorts ascending.
	SortAsc SortOrder = "ASC"
	// SortDesc sorts descending.
	SortDesc SortOrder = "DESC"
)

// SortedQuery is the input for an ordered, offset-paginated FT.SEARCH.
type SortedQuery struct {
	IndexName    string
	Filter       filter.Group // empty group matches every document
	SortBy       string
	Order        SortOrder
	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
