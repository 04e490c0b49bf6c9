package filter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field maps a stored-filter key onto an indexed field.
type Field struct {
	Name string
	Type FieldType
	// Date marks numeric fields holding epoch millis; stored values are RFC 3339.
	Date bool
}

// Schema is the whitelist of keys a stored filter may reference.
type Schema map[string]Field

// storedGroup is the persisted filter layout.
type storedGroup struct {
	Mode         Mode              `json:"mode"`
	Filters      []storedCondition `json:"filters"`
	FilterGroups []storedGroup     `json:"filterGroups"`
}

type storedCondition struct {
	Key      json.RawMessage `json:"key"`
	Values   []any           `json:"values"`
	Operator Operator        `json:"operator"`
	Mode     Mode            `json:"mode"`
}

// Parse decodes a persisted filter definition into a Group.
// An empty definition yields an empty group.
func Parse(raw string, schema Schema) (Group, error) {
	if strings.TrimSpace(raw) == "" {
		return Group{}, nil
	}
	var sg storedGroup
	if err := json.Unmarshal([]byte(raw), &sg); err != nil {
		return Group{}, fmt.Errorf("decode filter: %w", err)
	}
	return sg.toGroup(schema, 1)
}

func (sg storedGroup) toGroup(schema Schema, depth int) (Group, error) {
	if depth > MaxDepth {
		return Group{}, fmt.Errorf("filter nesting too deep (max %d)", MaxDepth)
	}

	conditions := make([]Condition, 0, len(sg.Filters))
	groups := make([]Group, 0, len(sg.FilterGroups))
	for _, sc := range sg.Filters {
		keys, err := decodeKeys(sc.Key)
		if err != nil {
			return Group{}, err
		}
		alternatives := make([]Condition, 0, len(keys))
		for _, key := range keys {
			c, err := sc.toCondition(key, schema)
			if err != nil {
				return Group{}, err
			}
			alternatives = append(alternatives, c)
		}
		if len(alternatives) == 1 {
			conditions = append(conditions, alternatives[0])
			continue
		}
		// Multi-key: eq matches on any key, not_eq must hold on every key.
		mode := ModeOr
		if alternatives[0].Operator() == OpNotEq {
			mode = ModeAnd
		}
		multi, err := NewGroup(mode, alternatives, nil)
		if err != nil {
			return Group{}, err
		}
		groups = append(groups, multi)
	}

	for _, sub := range sg.FilterGroups {
		g, err := sub.toGroup(schema, depth+1)
		if err != nil {
			return Group{}, err
		}
		if !g.IsEmpty() {
			groups = append(groups, g)
		}
	}

	return NewGroup(sg.Mode, conditions, groups)
}

func decodeKeys(raw json.RawMessage) ([]string, error) {
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		if len(many) == 0 {
			return nil, fmt.Errorf("filter key is required")
		}
		return many, nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err != nil || one == "" {
		return nil, fmt.Errorf("filter key must be a string or a list of strings")
	}
	return []string{one}, nil
}

func (sc storedCondition) toCondition(key string, schema Schema) (Condition, error) {
	f, ok := schema[key]
	if !ok {
		return Condition{}, fmt.Errorf("unsupported filter key %q", key)
	}
	op := sc.Operator
	if op == "" {
		op = OpEq
	}

	switch f.Type {
	case FieldTag:
		values := make([]string, 0, len(sc.Values))
		for _, v := range sc.Values {
			s, err := scalarString(v)
			if err != nil {
				return Condition{}, fmt.Errorf("key %q: %w", key, err)
			}
			values = append(values, s)
		}
		return NewTag(f.Name, op, sc.Mode, values)
	case FieldNumeric:
		numbers := make([]float64, 0, len(sc.Values))
		for _, v := range sc.Values {
			n, err := scalarNumber(v, f.Date)
			if err != nil {
				return Condition{}, fmt.Errorf("key %q: %w", key, err)
			}
			numbers = append(numbers, n)
		}
		return NewNumeric(f.Name, op, sc.Mode, numbers)
	default:
		return Condition{}, fmt.Errorf("key %q: unknown field type %q", key, f.Type)
	}
}

func scalarString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", fmt.Errorf("unsupported value %v", v)
	}
}

func scalarNumber(v any, date bool) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		if date {
			ts, err := time.Parse(time.RFC3339Nano, t)
			if err != nil {
				return 0, fmt.Errorf("invalid date %q: %w", t, err)
			}
			return float64(ts.UnixMilli()), nil
		}
		n, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q: %w", t, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported value %v", v)
	}
}
