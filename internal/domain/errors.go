package domain

import (
	"errors"
	"fmt"
)

// KeyPrefix namespaces every key the service reads.
const KeyPrefix = "stixfeed:"

var (
	// ErrNotFound signals a missing (or invisible) resource.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized signals credentials that do not resolve to a principal.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden signals a resource the principal sees but may not read.
	ErrForbidden = errors.New("forbidden")

	// ErrProtocolVersion signals an unsupported match[spec_version].
	ErrProtocolVersion = errors.New("unsupported spec_version")
	// ErrUnsupportedVersionSelector signals an unsupported match[version].
	ErrUnsupportedVersionSelector = errors.New("unsupported version selector")
	// ErrInvalidLimit signals a malformed limit parameter.
	ErrInvalidLimit = errors.New("invalid limit")
	// ErrInvalidFilter signals a stored filter that cannot be compiled.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidCursor signals a continuation token the store cannot decode.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrInvalidParameter signals a malformed query parameter.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ProtocolVersionError names the rejected spec_version value.
type ProtocolVersionError struct {
	Value string
}

func (e *ProtocolVersionError) Error() string {
	return fmt.Sprintf("%s %q, only '2.1' supported", ErrProtocolVersion.Error(), e.Value)
}

func (e *ProtocolVersionError) Unwrap() error { return ErrProtocolVersion }

// UnsupportedVersionSelectorError names the rejected version selector.
type UnsupportedVersionSelectorError struct {
	Value string
}

func (e *UnsupportedVersionSelectorError) Error() string {
	return fmt.Sprintf("%s %q, only 'last' supported", ErrUnsupportedVersionSelector.Error(), e.Value)
}

func (e *UnsupportedVersionSelectorError) Unwrap() error { return ErrUnsupportedVersionSelector }

// InvalidLimitError names the rejected limit value.
type InvalidLimitError struct {
	Value string
}

func (e *InvalidLimitError) Error() string {
	return fmt.Sprintf("%s %q, expected a positive integer", ErrInvalidLimit.Error(), e.Value)
}

func (e *InvalidLimitError) Unwrap() error { return ErrInvalidLimit }
