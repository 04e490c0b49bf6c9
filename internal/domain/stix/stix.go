// Package stix holds the STIX 2.1 vocabulary the feed engine depends on.
package stix

import "time"

const (
	// SpecVersion is the only STIX/TAXII protocol version served.
	SpecVersion = "2.1"
	// MediaType is the STIX media type advertised for every collection and manifest entry.
	MediaType = "application/stix+json;version=2.1"
	// TaxiiMediaType is the content type of every TAXII response.
	TaxiiMediaType = "application/taxii+json;version=2.1"
	// VersionLast is the only supported match[version] selector.
	VersionLast = "last"

	// ExtensionOCTI is the platform extension block carrying x_opencti_* attributes.
	ExtensionOCTI = "extension-definition--ea279b3e-5c71-4632-ac08-831c66a786ba"
)

// TimestampLayout is the TAXII 2.1 timestamp form: UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Abstract types used for default collection scoping.
const (
	AbstractStixObject               = "Stix-Object"
	AbstractStixCoreRelationship     = "stix-core-relationship"
	AbstractStixSightingRelationship = "stix-sighting-relationship"
)

// DefaultScope is applied when a collection declares no type restriction.
func DefaultScope() []string {
	return []string{AbstractStixCoreRelationship, AbstractStixSightingRelationship, AbstractStixObject}
}

// Kind is the closed set of object variants the engine distinguishes.
type Kind int

const (
	// KindUnknown is any type outside the STIX 2.1 vocabulary (custom objects included).
	KindUnknown Kind = iota
	// KindIndicator is the indicator SDO; the only variant with a data-shaping rule.
	KindIndicator
	// KindDomainObject is every other SDO.
	KindDomainObject
	// KindRelationship is the relationship SRO.
	KindRelationship
	// KindSighting is the sighting SRO.
	KindSighting
	// KindObservable is a STIX cyber-observable object.
	KindObservable
	// KindMeta is a meta object (marking definitions, language content, extension definitions).
	KindMeta
)

func (k Kind) String() string {
	switch k {
	case KindIndicator:
		return "indicator"
	case KindDomainObject:
		return "domain-object"
	case KindRelationship:
		return "relationship"
	case KindSighting:
		return "sighting"
	case KindObservable:
		return "observable"
	case KindMeta:
		return "meta"
	default:
		return "unknown"
	}
}

var domainObjectTypes = map[string]struct{}{
	"attack-pattern": {}, "campaign": {}, "course-of-action": {}, "grouping": {}, "identity": {},
	"incident": {}, "infrastructure": {}, "intrusion-set": {}, "location": {}, "malware": {},
	"malware-analysis": {}, "note": {}, "observed-data": {}, "opinion": {}, "report": {},
	"threat-actor": {}, "tool": {}, "vulnerability": {},
}

var observableTypes = map[string]struct{}{
	"artifact": {}, "autonomous-system": {}, "directory": {}, "domain-name": {}, "email-addr": {},
	"email-message": {}, "file": {}, "ipv4-addr": {}, "ipv6-addr": {}, "mac-addr": {}, "mutex": {},
	"network-traffic": {}, "process": {}, "software": {}, "url": {}, "user-account": {},
	"windows-registry-key": {}, "x509-certificate": {},
}

var metaTypes = map[string]struct{}{
	"marking-definition": {}, "language-content": {}, "extension-definition": {},
}

// KindOf classifies a STIX type string.
func KindOf(typ string) Kind {
	switch typ {
	case "indicator":
		return KindIndicator
	case "relationship":
		return KindRelationship
	case "sighting":
		return KindSighting
	}
	if _, ok := domainObjectTypes[typ]; ok {
		return KindDomainObject
	}
	if _, ok := observableTypes[typ]; ok {
		return KindObservable
	}
	if _, ok := metaTypes[typ]; ok {
		return KindMeta
	}
	return KindUnknown
}
