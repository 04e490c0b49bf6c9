package feed

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/stixfeed/internal/domain"
	domfeed "github.com/kailas-cloud/stixfeed/internal/domain/feed"
)

// EffectivePageSize clamps the requested limit to [1, maxSize]. An absent limit
// means maxSize; anything but a positive integer is an InvalidLimitError.
func EffectivePageSize(limit *string, maxSize int) (int, error) {
	if limit == nil {
		return maxSize, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(*limit))
	if err != nil || n <= 0 {
		return 0, &domain.InvalidLimitError{Value: *limit}
	}
	return min(n, maxSize), nil
}

// paginate sets the page size and, when continuing, replaces the time
// boundary with the store's cursor.
func paginate(opts *domfeed.Options, args domfeed.Args, maxSize int) error {
	size, err := EffectivePageSize(args.Limit, maxSize)
	if err != nil {
		return err
	}
	opts.PageSize = size
	if args.Next != "" {
		opts.After = args.Next
		opts.AfterExclude = false
	}
	return nil
}
