package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/stixfeed/internal/domain"
	domcol "github.com/kailas-cloud/stixfeed/internal/domain/collection"
	domfeed "github.com/kailas-cloud/stixfeed/internal/domain/feed"
	"github.com/kailas-cloud/stixfeed/internal/domain/filter"
	"github.com/kailas-cloud/stixfeed/internal/domain/stix"
)

// Compile turns a collection's stored filter and the request parameters into
// store query options. PageSize is left for the pagination step.
func Compile(col domcol.Collection, args domfeed.Args) (domfeed.Options, error) {
	if v := args.Match.SpecVersion; v != "" && v != stix.SpecVersion {
		return domfeed.Options{}, &domain.ProtocolVersionError{Value: v}
	}
	if v := args.Match.Version; v != "" && v != stix.VersionLast {
		return domfeed.Options{}, &domain.UnsupportedVersionSelectorError{Value: v}
	}

	stored, err := filter.Parse(col.Filters(), domfeed.FilterSchema())
	if err != nil {
		return domfeed.Options{}, fmt.Errorf("collection %s: %w: %w", col.ID(), domain.ErrInvalidFilter, err)
	}

	opts := domfeed.Options{
		Filters:         stored,
		IDs:             splitList(args.Match.ID),
		BypassSizeLimit: true,
		Index:           indexSet(col),
	}

	switch types := splitList(args.Match.Type); {
	case len(types) > 0:
		opts.Types = types
	case stored.HasKey(domfeed.FieldParentTypes):
		// the collection already restricts types
	default:
		opts.Types = stix.DefaultScope()
	}

	if args.AddedAfter != nil {
		boundary, err := addedAfter(*args.AddedAfter)
		if err != nil {
			return domfeed.Options{}, err
		}
		// Kept in the filter tree so it still holds once a cursor replaces After.
		opts.Filters = filter.And(opts.Filters, boundary)
		opts.After = args.AddedAfter.UTC().Format(time.RFC3339Nano)
		opts.AfterExclude = true
	}

	return opts, nil
}

func addedAfter(t time.Time) (filter.Group, error) {
	c, err := filter.NewNumeric(domfeed.FieldUpdatedAt, filter.OpGt, filter.ModeOr, []float64{float64(t.UnixMilli())})
	if err != nil {
		return filter.Group{}, fmt.Errorf("%w: added_after: %w", domain.ErrInvalidParameter, err)
	}
	return filter.Match(c), nil
}

func indexSet(col domcol.Collection) domfeed.IndexSet {
	if col.IncludeInferences() {
		return domfeed.IndexStixWithInferred
	}
	return domfeed.IndexStix
}

// splitList parses a comma-separated parameter; blanks are dropped.
func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
