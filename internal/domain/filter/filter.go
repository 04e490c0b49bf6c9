package filter

import (
	"fmt"
	"strconv"
)

// MaxConditionsPerGroup is the maximum number of conditions per filter group.
const MaxConditionsPerGroup = 32

// MaxDepth bounds group nesting.
const MaxDepth = 4

// Mode joins the members of a group, or the values of a condition.
type Mode string

const (
	// ModeAnd requires every member to match.
	ModeAnd Mode = "and"
	// ModeOr requires at least one member to match.
	ModeOr Mode = "or"
)

// IsValid reports whether the mode is supported.
func (m Mode) IsValid() bool { return m == ModeAnd || m == ModeOr }

// Operator compares an indexed field with the condition values.
type Operator string

const (
	// OpEq matches equal values.
	OpEq Operator = "eq"
	// OpNotEq excludes every listed value.
	OpNotEq Operator = "not_eq"
	// OpGt is a strict lower bound.
	OpGt Operator = "gt"
	// OpGte is an inclusive lower bound.
	OpGte Operator = "gte"
	// OpLt is a strict upper bound.
	OpLt Operator = "lt"
	// OpLte is an inclusive upper bound.
	OpLte Operator = "lte"
)

// IsRange reports whether the operator is an inequality.
func (o Operator) IsRange() bool {
	return o == OpGt || o == OpGte || o == OpLt || o == OpLte
}

// FieldType is the index type of the field a condition targets.
type FieldType string

const (
	// FieldTag is an exact-match tag field.
	FieldTag FieldType = "tag"
	// FieldNumeric is a numeric (or epoch-millis date) field.
	FieldNumeric FieldType = "numeric"
)

// Condition is a single clause on one indexed field.
type Condition struct {
	key       string
	fieldType FieldType
	op        Operator
	mode      Mode
	values    []string
	numbers   []float64
}

// NewTag creates a tag condition. Only eq and not_eq apply to tags.
func NewTag(key string, op Operator, mode Mode, values []string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if op != OpEq && op != OpNotEq {
		return Condition{}, fmt.Errorf("operator %q not supported on tag field %q", op, key)
	}
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("at least one value is required for key %q", key)
	}
	for _, v := range values {
		if v == "" {
			return Condition{}, fmt.Errorf("empty value for key %q", key)
		}
	}
	if mode == "" {
		mode = ModeOr
	}
	if !mode.IsValid() {
		return Condition{}, fmt.Errorf("invalid mode %q for key %q", mode, key)
	}
	return Condition{key: key, fieldType: FieldTag, op: op, mode: mode, values: values}, nil
}

// NewNumeric creates a numeric condition.
func NewNumeric(key string, op Operator, mode Mode, numbers []float64) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if op != OpEq && op != OpNotEq && !op.IsRange() {
		return Condition{}, fmt.Errorf("unknown operator %q for key %q", op, key)
	}
	if len(numbers) == 0 {
		return Condition{}, fmt.Errorf("at least one value is required for key %q", key)
	}
	if mode == "" {
		mode = ModeOr
	}
	if !mode.IsValid() {
		return Condition{}, fmt.Errorf("invalid mode %q for key %q", mode, key)
	}
	return Condition{key: key, fieldType: FieldNumeric, op: op, mode: mode, numbers: numbers}, nil
}

// Key returns the index field name.
func (c Condition) Key() string { return c.key }

// FieldType returns the index type of the field.
func (c Condition) FieldType() FieldType { return c.fieldType }

// Operator returns the comparison operator.
func (c Condition) Operator() Operator { return c.op }

// Mode returns how multiple values combine.
func (c Condition) Mode() Mode { return c.mode }

// Values returns the tag values.
func (c Condition) Values() []string { return c.values }

// Numbers returns the numeric values.
func (c Condition) Numbers() []float64 { return c.numbers }

func (c Condition) String() string {
	if c.fieldType == FieldNumeric {
		parts := make([]string, len(c.numbers))
		for i, n := range c.numbers {
			parts[i] = strconv.FormatFloat(n, 'g', -1, 64)
		}
		return fmt.Sprintf("%s %s %v", c.key, c.op, parts)
	}
	return fmt.Sprintf("%s %s %v", c.key, c.op, c.values)
}

// Group is a boolean combination of conditions and nested groups.
type Group struct {
	mode       Mode
	conditions []Condition
	groups     []Group
}

// NewGroup validates and creates a Group.
func NewGroup(mode Mode, conditions []Condition, groups []Group) (Group, error) {
	if mode == "" {
		mode = ModeAnd
	}
	if !mode.IsValid() {
		return Group{}, fmt.Errorf("invalid group mode %q", mode)
	}
	if len(conditions)+len(groups) > MaxConditionsPerGroup {
		return Group{}, fmt.Errorf("too many conditions in group (max %d)", MaxConditionsPerGroup)
	}
	g := Group{mode: mode, conditions: conditions, groups: groups}
	if g.Depth() > MaxDepth {
		return Group{}, fmt.Errorf("filter nesting too deep (max %d)", MaxDepth)
	}
	return g, nil
}

// And combines groups under a conjunction, dropping empty members.
func And(groups ...Group) Group {
	var members []Group
	for _, g := range groups {
		if !g.IsEmpty() {
			members = append(members, g)
		}
	}
	if len(members) == 1 {
		return members[0]
	}
	return Group{mode: ModeAnd, groups: members}
}

// Match builds a single-condition group.
func Match(c Condition) Group {
	return Group{mode: ModeAnd, conditions: []Condition{c}}
}

// Mode returns how the members combine.
func (g Group) Mode() Mode { return g.mode }

// Conditions returns the direct conditions.
func (g Group) Conditions() []Condition { return g.conditions }

// Groups returns the nested groups.
func (g Group) Groups() []Group { return g.groups }

// IsEmpty reports whether the group constrains nothing.
func (g Group) IsEmpty() bool {
	if len(g.conditions) > 0 {
		return false
	}
	for _, sub := range g.groups {
		if !sub.IsEmpty() {
			return false
		}
	}
	return true
}

// Depth returns the nesting depth; a flat group has depth 1.
func (g Group) Depth() int {
	deepest := 0
	for _, sub := range g.groups {
		if d := sub.Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// HasKey reports whether any condition in the tree targets key.
func (g Group) HasKey(key string) bool {
	for _, c := range g.conditions {
		if c.key == key {
			return true
		}
	}
	for _, sub := range g.groups {
		if sub.HasKey(key) {
			return true
		}
	}
	return false
}
