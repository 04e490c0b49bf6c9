package stix

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Object is a full STIX 2.1 object. Attributes are kept as raw JSON so that
// serving an object never loses fields the engine does not model.
type Object struct {
	fields map[string]json.RawMessage
	typ    string
	id     Identifier
}

// ParseObject decodes and validates a stored STIX object.
func ParseObject(data []byte) (Object, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Object{}, fmt.Errorf("decode stix object: %w", err)
	}
	if fields == nil {
		return Object{}, errors.New("decode stix object: null document")
	}

	var typ, rawID string
	if err := decodeString(fields, "type", &typ); err != nil {
		return Object{}, err
	}
	if err := decodeString(fields, "id", &rawID); err != nil {
		return Object{}, err
	}
	id, err := ParseIdentifier(rawID)
	if err != nil {
		return Object{}, fmt.Errorf("decode stix object: %w", err)
	}
	if id.Type() != typ {
		return Object{}, fmt.Errorf("decode stix object: id %q does not match type %q", rawID, typ)
	}

	return Object{fields: fields, typ: typ, id: id}, nil
}

// MustParseObject is ParseObject for fixtures; it panics on error.
func MustParseObject(data string) Object {
	o, err := ParseObject([]byte(data))
	if err != nil {
		panic(err)
	}
	return o
}

func decodeString(fields map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := fields[key]
	if !ok {
		return fmt.Errorf("decode stix object: missing %q", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil || *dst == "" {
		return fmt.Errorf("decode stix object: %q must be a non-empty string", key)
	}
	return nil
}

// Type returns the STIX type.
func (o Object) Type() string { return o.typ }

// ID returns the STIX identifier.
func (o Object) ID() string { return o.id.String() }

// Kind returns the object variant.
func (o Object) Kind() Kind { return KindOf(o.typ) }

// Raw returns the raw JSON value of an attribute.
func (o Object) Raw(key string) (json.RawMessage, bool) {
	v, ok := o.fields[key]
	return v, ok
}

// Score returns the platform score, read from the native x_opencti_score
// attribute first and from the platform extension block otherwise.
// A null or non-numeric value counts as absent.
func (o Object) Score() (json.Number, bool) {
	if n, ok := numberField(o.fields, "x_opencti_score"); ok {
		return n, true
	}

	raw, ok := o.fields["extensions"]
	if !ok {
		return "", false
	}
	var extensions map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &extensions); err != nil {
		return "", false
	}
	return numberField(extensions[ExtensionOCTI], "score")
}

func numberField(fields map[string]json.RawMessage, key string) (json.Number, bool) {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return "", false
	}
	return n, true
}

// WithConfidence returns a copy whose confidence attribute is set to value.
func (o Object) WithConfidence(value json.Number) Object {
	fields := make(map[string]json.RawMessage, len(o.fields)+1)
	for k, v := range o.fields {
		fields[k] = v
	}
	fields["confidence"] = json.RawMessage(value.String())
	return Object{fields: fields, typ: o.typ, id: o.id}
}

// MarshalJSON writes the object with keys in lexical order.
func (o Object) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(o.fields)
	if err != nil {
		return nil, fmt.Errorf("encode stix object %s: %w", o.ID(), err)
	}
	return data, nil
}
