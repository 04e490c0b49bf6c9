package collection

import (
	domcol "github.com/kailas-cloud/stixfeed/internal/domain/collection"
	"github.com/kailas-cloud/stixfeed/internal/domain/principal"
)

// visibleTo is the direct-access policy: public collections are visible to
// everyone, capability holders see everything, members need view access.
func visibleTo(col domcol.Collection, p *principal.Principal) bool {
	if col.TaxiiPublic() {
		return true
	}
	if p == nil {
		return false
	}
	if principal.HasCapability(p, principal.CapabilityTAXIIAPI) {
		return true
	}
	return col.GrantsView(p.MemberIDs()...)
}
