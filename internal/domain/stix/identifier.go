package stix

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Identifier is a STIX identifier: <object-type>--<UUID>.
type Identifier struct {
	raw        string
	objectType string
	id         uuid.UUID
}

// ParseIdentifier validates a STIX identifier.
func ParseIdentifier(s string) (Identifier, error) {
	typ, rest, ok := strings.Cut(s, "--")
	if !ok || typ == "" {
		return Identifier{}, fmt.Errorf("identifier %q: missing type prefix", s)
	}
	if len(rest) != 36 {
		return Identifier{}, fmt.Errorf("identifier %q: malformed uuid", s)
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return Identifier{}, fmt.Errorf("identifier %q: %w", s, err)
	}
	return Identifier{raw: s, objectType: typ, id: id}, nil
}

// Type returns the object type part.
func (i Identifier) Type() string { return i.objectType }

// UUID returns the UUID part.
func (i Identifier) UUID() uuid.UUID { return i.id }

// String returns the identifier as stored.
func (i Identifier) String() string { return i.raw }
