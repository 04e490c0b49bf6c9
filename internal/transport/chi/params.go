package chi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/stixfeed/internal/domain"
	domfeed "github.com/kailas-cloud/stixfeed/internal/domain/feed"
)

// feedParams are the query parameters shared by the objects and manifest resources.
type feedParams struct {
	AddedAfter   *time.Time
	Limit        *string
	Next         *string
	MatchID      *string
	MatchType    *string
	MatchSpec    *string
	MatchVersion *string
}

// bindFeedArgs reads the TAXII filtering and pagination parameters.
func bindFeedArgs(r *http.Request) (domfeed.Args, error) {
	q := r.URL.Query()
	// An unencoded "+" in a UTC offset arrives as a space; timestamps never contain one.
	if v, ok := q["added_after"]; ok {
		for i := range v {
			v[i] = strings.ReplaceAll(v[i], " ", "+")
		}
	}
	var p feedParams
	bindings := []struct {
		name string
		dest any
	}{
		{"added_after", &p.AddedAfter},
		{"limit", &p.Limit},
		{"next", &p.Next},
		{"match[id]", &p.MatchID},
		{"match[type]", &p.MatchType},
		{"match[spec_version]", &p.MatchSpec},
		{"match[version]", &p.MatchVersion},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, q, b.dest); err != nil {
			return domfeed.Args{}, fmt.Errorf("%w: %s: %w", domain.ErrInvalidParameter, b.name, err)
		}
	}

	return domfeed.Args{
		AddedAfter: p.AddedAfter,
		Limit:      p.Limit,
		Next:       deref(p.Next),
		Match: domfeed.Match{
			ID:          deref(p.MatchID),
			SpecVersion: deref(p.MatchSpec),
			Type:        deref(p.MatchType),
			Version:     deref(p.MatchVersion),
		},
	}, nil
}

// collectionID reads the {id} path parameter.
func collectionID(r *http.Request) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return "", fmt.Errorf("%w: id: %w", domain.ErrInvalidParameter, err)
	}
	return id, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
