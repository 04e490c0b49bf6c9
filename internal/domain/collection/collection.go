package collection

import (
	"fmt"
	"slices"
)

// Kind is the collection variant. It decides which REST capability is exposed.
type Kind string

const (
	// KindRead is a filtered read view over the object store.
	KindRead Kind = "TaxiiCollection"
	// KindIngestion is a push target for an ingestion feed.
	KindIngestion Kind = "IngestionTaxiiCollection"
)

// IsValid checks if the kind is supported.
func (k Kind) IsValid() bool {
	return k == KindRead || k == KindIngestion
}

// AccessRight is the right a member holds on a collection.
type AccessRight string

const (
	// AccessView allows reading the collection.
	AccessView AccessRight = "view"
	// AccessEdit allows reading and editing.
	AccessEdit AccessRight = "edit"
	// AccessAdmin allows everything.
	AccessAdmin AccessRight = "admin"
)

// IsValid checks if the access right is known.
func (r AccessRight) IsValid() bool {
	return r == AccessView || r == AccessEdit || r == AccessAdmin
}

// Member grants a principal (user, group or organization) a right on a collection.
type Member struct {
	PrincipalID string
	AccessRight AccessRight
}

// CanView reports whether the right includes reading.
func (m Member) CanView() bool { return m.AccessRight.IsValid() }

// Params carries the attributes of a Collection.
type Params struct {
	ID                string
	Kind              Kind
	Name              string
	Description       string
	Filters           string
	IncludeInferences bool
	ScoreToConfidence bool
	TaxiiPublic       bool
	AuthorizedMembers []Member
	// IngestionRunning is nil when the record carries no running flag.
	IngestionRunning *bool
}

// Collection is a read-only snapshot of a TAXII collection (immutable value object).
type Collection struct {
	id                string
	kind              Kind
	name              string
	description       string
	filters           string
	includeInferences bool
	scoreToConfidence bool
	taxiiPublic       bool
	members           []Member
	ingestionRunning  *bool
}

// New validates and creates a Collection.
func New(p Params) (Collection, error) {
	if p.ID == "" {
		return Collection{}, fmt.Errorf("collection id is required")
	}
	if !p.Kind.IsValid() {
		return Collection{}, fmt.Errorf("invalid collection kind: %q", p.Kind)
	}
	for _, m := range p.AuthorizedMembers {
		if m.PrincipalID == "" {
			return Collection{}, fmt.Errorf("authorized member id is required")
		}
		if !m.AccessRight.IsValid() {
			return Collection{}, fmt.Errorf("invalid access right %q for member %s", m.AccessRight, m.PrincipalID)
		}
	}
	return Reconstruct(p), nil
}

// Reconstruct creates a Collection without validation (storage hydration).
func Reconstruct(p Params) Collection {
	var running *bool
	if p.IngestionRunning != nil {
		v := *p.IngestionRunning
		running = &v
	}
	return Collection{
		id:                p.ID,
		kind:              p.Kind,
		name:              p.Name,
		description:       p.Description,
		filters:           p.Filters,
		includeInferences: p.IncludeInferences,
		scoreToConfidence: p.ScoreToConfidence,
		taxiiPublic:       p.TaxiiPublic,
		members:           slices.Clone(p.AuthorizedMembers),
		ingestionRunning:  running,
	}
}

// ID returns the collection identifier.
func (c Collection) ID() string { return c.id }

// Kind returns the collection variant.
func (c Collection) Kind() Kind { return c.kind }

// Name returns the display name.
func (c Collection) Name() string { return c.name }

// Description returns the description.
func (c Collection) Description() string { return c.description }

// Filters returns the stored filter definition, empty when absent.
func (c Collection) Filters() string { return c.filters }

// IncludeInferences reports whether inferred records participate.
func (c Collection) IncludeInferences() bool { return c.includeInferences }

// ScoreToConfidence reports whether indicator confidence is replaced by the score.
func (c Collection) ScoreToConfidence() bool { return c.scoreToConfidence }

// TaxiiPublic reports whether anonymous principals may see the collection.
func (c Collection) TaxiiPublic() bool { return c.taxiiPublic }

// AuthorizedMembers returns the member list, in stored order.
func (c Collection) AuthorizedMembers() []Member { return slices.Clone(c.members) }

// IngestionRunning returns the running flag and whether it is set at all.
func (c Collection) IngestionRunning() (running, ok bool) {
	if c.ingestionRunning == nil {
		return false, false
	}
	return *c.ingestionRunning, true
}

// IsIngestionStopped reports an ingestion collection whose running flag is explicitly false.
func (c Collection) IsIngestionStopped() bool {
	running, ok := c.IngestionRunning()
	return c.kind == KindIngestion && ok && !running
}

// CanRead is true for the read kind only.
func (c Collection) CanRead() bool { return c.kind == KindRead }

// CanWrite is true for the ingestion kind only.
func (c Collection) CanWrite() bool { return c.kind == KindIngestion }

// GrantsView reports whether any of the given principal ids is a member with view access.
func (c Collection) GrantsView(principalIDs ...string) bool {
	for _, m := range c.members {
		if m.CanView() && slices.Contains(principalIDs, m.PrincipalID) {
			return true
		}
	}
	return false
}

// WithoutAuthorities returns a copy with the member list stripped.
func (c Collection) WithoutAuthorities() Collection {
	c.members = nil
	return c
}
