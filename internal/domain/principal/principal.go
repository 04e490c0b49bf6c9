package principal

import (
	"fmt"
	"slices"
)

// Capability is a named permission held by a principal.
type Capability string

const (
	// CapabilityBypass grants every capability.
	CapabilityBypass Capability = "BYPASS"
	// CapabilityTAXIIAPI grants access to every TAXII collection.
	CapabilityTAXIIAPI Capability = "TAXIIAPI"
)

// Principal is an authenticated caller.
type Principal struct {
	id           string
	name         string
	groupIDs     []string
	capabilities []Capability
}

// New validates and creates a Principal.
func New(id, name string, groupIDs []string, capabilities []Capability) (Principal, error) {
	if id == "" {
		return Principal{}, fmt.Errorf("principal id is required")
	}
	return Principal{
		id:           id,
		name:         name,
		groupIDs:     slices.Clone(groupIDs),
		capabilities: slices.Clone(capabilities),
	}, nil
}

// ID returns the principal identifier.
func (p Principal) ID() string { return p.id }

// Name returns the display name.
func (p Principal) Name() string { return p.name }

// GroupIDs returns the groups and organizations the principal belongs to.
func (p Principal) GroupIDs() []string { return slices.Clone(p.groupIDs) }

// Capabilities returns the granted capabilities.
func (p Principal) Capabilities() []Capability { return slices.Clone(p.capabilities) }

// MemberIDs returns every id under which the principal may appear in a member list.
func (p Principal) MemberIDs() []string {
	return append([]string{p.id}, p.groupIDs...)
}

// HasCapability reports whether the principal holds c, directly or through BYPASS.
func HasCapability(p *Principal, c Capability) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.capabilities, c) || slices.Contains(p.capabilities, CapabilityBypass)
}
