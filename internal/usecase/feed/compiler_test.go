package feed

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/kailas-cloud/stixfeed/internal/domain"
	domcol "github.com/kailas-cloud/stixfeed/internal/domain/collection"
	domfeed "github.com/kailas-cloud/stixfeed/internal/domain/feed"
	"github.com/kailas-cloud/stixfeed/internal/domain/stix"
)

const typedFilter = `{"mode":"and","filters":[{"key":["entity_type"],"values":["Indicator"],"operator":"eq","mode":"or"}],"filterGroups":[]}`

func TestCompile_DefaultScope(t *testing.T) {
	opts, err := Compile(makeCollection(t, domcol.Params{}), domfeed.Args{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(opts.Types, stix.DefaultScope()) {
		t.Errorf("Types = %v, want default scope", opts.Types)
	}
	if opts.IDs != nil || opts.After != "" || opts.AfterExclude {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.Index != domfeed.IndexStix || !opts.BypassSizeLimit {
		t.Errorf("unexpected index or bypass: %+v", opts)
	}
}

func TestCompile_CollectionDeclaresTypes(t *testing.T) {
	opts, err := Compile(makeCollection(t, domcol.Params{Filters: typedFilter}), domfeed.Args{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Types != nil {
		t.Errorf("Types = %v, want nil", opts.Types)
	}
	if !opts.Filters.HasKey(domfeed.FieldParentTypes) {
		t.Error("stored filter must be kept")
	}
}

func TestCompile_RequestNarrows(t *testing.T) {
	col := makeCollection(t, domcol.Params{Filters: typedFilter, IncludeInferences: true})
	opts, err := Compile(col, domfeed.Args{Match: domfeed.Match{
		Type: "indicator, malware",
		ID:   indicatorID + ",," + malwareID,
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(opts.Types, []string{"indicator", "malware"}) {
		t.Errorf("Types = %v", opts.Types)
	}
	if !slices.Equal(opts.IDs, []string{indicatorID, malwareID}) {
		t.Errorf("IDs = %v", opts.IDs)
	}
	if !opts.Filters.HasKey(domfeed.FieldParentTypes) {
		t.Error("request types must intersect with, not replace, the stored filter")
	}
	if opts.Index != domfeed.IndexStixWithInferred {
		t.Errorf("Index = %s, want stix_with_inferred", opts.Index)
	}
}

func TestCompile_AddedAfter(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	opts, err := Compile(makeCollection(t, domcol.Params{}), domfeed.Args{AddedAfter: &ts})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.After != "2024-01-02T02:04:05Z" || !opts.AfterExclude {
		t.Errorf("After = %q exclude=%v", opts.After, opts.AfterExclude)
	}
	if !opts.Filters.HasKey(domfeed.FieldUpdatedAt) {
		t.Error("added_after must be part of the filter tree")
	}
}

func TestPaginate_CursorOverridesTimeBoundary(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	args := domfeed.Args{AddedAfter: &ts, Next: "djE6Mg"}
	opts, err := Compile(makeCollection(t, domcol.Params{}), args)
	if err != nil {
		t.Fatal(err)
	}
	if err := paginate(&opts, args, 25); err != nil {
		t.Fatal(err)
	}
	if opts.After != "djE6Mg" || opts.AfterExclude {
		t.Errorf("After = %q exclude=%v", opts.After, opts.AfterExclude)
	}
	if opts.PageSize != 25 {
		t.Errorf("PageSize = %d", opts.PageSize)
	}
	if !opts.Filters.HasKey(domfeed.FieldUpdatedAt) {
		t.Error("time boundary must survive continuation")
	}
}

func TestCompile_InvalidFilter(t *testing.T) {
	for _, raw := range []string{
		`{`,
		`{"mode":"and","filters":[{"key":["unknown"],"values":["x"],"operator":"eq","mode":"or"}]}`,
	} {
		col := makeCollection(t, domcol.Params{Filters: raw})
		if _, err := Compile(col, domfeed.Args{}); !errors.Is(err, domain.ErrInvalidFilter) {
			t.Errorf("filter %s: expected ErrInvalidFilter, got %v", raw, err)
		}
	}
}

func TestCompile_ValidatesBeforeParsing(t *testing.T) {
	col := makeCollection(t, domcol.Params{Filters: `{`})
	_, err := Compile(col, domfeed.Args{Match: domfeed.Match{SpecVersion: "2.0"}})
	if !errors.Is(err, domain.ErrProtocolVersion) {
		t.Fatalf("expected ErrProtocolVersion, got %v", err)
	}
}
