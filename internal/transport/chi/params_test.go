package chi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kailas-cloud/stixfeed/internal/domain"
)

func TestBindFeedArgs(t *testing.T) {
	req := httptest.NewRequest("GET",
		"/taxii2/root/collections/c/objects/?added_after=2024-01-01T00:00:00.000Z&limit=5&next=abc"+
			"&match[id]=a,b&match[type]=indicator&match[spec_version]=2.1&match[version]=last", http.NoBody)

	args, err := bindFeedArgs(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if args.AddedAfter == nil || !args.AddedAfter.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("added_after = %v", args.AddedAfter)
	}
	if args.Limit == nil || *args.Limit != "5" || args.Next != "abc" {
		t.Errorf("unexpected pagination args: %+v", args)
	}
	if args.Match.ID != "a,b" || args.Match.Type != "indicator" ||
		args.Match.SpecVersion != "2.1" || args.Match.Version != "last" {
		t.Errorf("unexpected match: %+v", args.Match)
	}
}

func TestBindFeedArgs_Absent(t *testing.T) {
	args, err := bindFeedArgs(httptest.NewRequest("GET", "/objects/", http.NoBody))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if args.AddedAfter != nil || args.Limit != nil || args.Next != "" {
		t.Errorf("expected empty args, got %+v", args)
	}
}

func TestBindFeedArgs_UnencodedOffset(t *testing.T) {
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{
		"2024-01-01T00:00:00+00:00",   // "+" decodes to a space
		"2024-01-01T00:00:00%2B00:00", // encoded
		"2024-01-01T02:00:00+02:00",
	} {
		req := httptest.NewRequest("GET", "/objects/?added_after="+raw, http.NoBody)
		args, err := bindFeedArgs(req)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", raw, err)
		}
		if !args.AddedAfter.Equal(want) {
			t.Errorf("%s: added_after = %v, want %v", raw, args.AddedAfter, want)
		}
	}
}

func TestBindFeedArgs_InvalidTimestamp(t *testing.T) {
	req := httptest.NewRequest("GET", "/objects/?added_after=yesterday", http.NoBody)
	if _, err := bindFeedArgs(req); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}
