package chi

import (
	"net/http"
	"strings"

	"github.com/munnerz/goautoneg"

	"github.com/kailas-cloud/stixfeed/internal/domain/stix"
)

// NegotiateMiddleware rejects requests whose Accept header excludes the TAXII media type.
func NegotiateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !acceptsTAXII(r.Header.Values("Accept")) {
			writeTAXIIError(w, http.StatusNotAcceptable, "Not acceptable",
				"supported media type is "+stix.TaxiiMediaType)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// acceptsTAXII reports whether any accepted range covers application/taxii+json;version=2.1.
// An absent header accepts everything.
func acceptsTAXII(headers []string) bool {
	if len(headers) == 0 {
		return true
	}
	for _, a := range goautoneg.ParseAccept(strings.Join(headers, ",")) {
		if a.Q <= 0 {
			continue
		}
		switch {
		case a.Type == "*" && a.SubType == "*":
			return true
		case a.Type == "application" && a.SubType == "*":
			return true
		case a.Type == "application" && a.SubType == "taxii+json":
			if v, ok := a.Params["version"]; !ok || v == stix.SpecVersion {
				return true
			}
		}
	}
	return false
}
