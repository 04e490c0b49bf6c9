package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/stixfeed/internal/db"
	"github.com/kailas-cloud/stixfeed/internal/domain/filter"
)

// SearchSorted runs an ordered, offset-paginated FT.SEARCH.
func (s *Store) SearchSorted(ctx context.Context, q *db.SortedQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Offset < 0 {
		return nil, fmt.Errorf("offset must not be negative")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	args := []string{q.IndexName, buildFilter(q.Filter)}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	if q.SortBy != "" {
		order := q.Order
		if order == "" {
			order = db.SortAsc
		}
		args = append(args, "SORTBY", q.SortBy, string(order))
	}

	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index") {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseListResult(raw)
}

// --- Result parsing ---

func parseListResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, len(raw)/2)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Filter building ---

// buildFilter translates a filter tree into an FT.SEARCH query string.
func buildFilter(g filter.Group) string {
	if g.IsEmpty() {
		return "*"
	}
	return buildGroup(g)
}

func buildGroup(g filter.Group) string {
	parts := make([]string, 0, len(g.Conditions())+len(g.Groups()))
	for _, c := range g.Conditions() {
		parts = append(parts, buildCondition(c))
	}
	for _, sub := range g.Groups() {
		if sub.IsEmpty() {
			continue
		}
		parts = append(parts, buildGroup(sub))
	}
	return join(parts, g.Mode())
}

// buildCondition renders one clause; values combine with the condition mode.
func buildCondition(c filter.Condition) string {
	var atoms []string
	if c.FieldType() == filter.FieldTag {
		atoms = make([]string, 0, len(c.Values()))
		for _, v := range c.Values() {
			atoms = append(atoms, buildTagFilter(c.Key(), v))
		}
	} else {
		atoms = make([]string, 0, len(c.Numbers()))
		for _, n := range c.Numbers() {
			atoms = append(atoms, buildNumericFilter(c.Key(), c.Operator(), n))
		}
	}
	if c.Operator() == filter.OpNotEq {
		for i := range atoms {
			atoms[i] = "-" + atoms[i]
		}
	}
	return join(atoms, c.Mode())
}

func join(parts []string, mode filter.Mode) string {
	if len(parts) == 1 {
		return parts[0]
	}
	if mode == filter.ModeOr {
		return "(" + strings.Join(parts, " | ") + ")"
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func buildTagFilter(key, value string) string {
	return fmt.Sprintf("@%s:{%s}", key, tagEscaper.Replace(value))
}

func buildNumericFilter(key string, op filter.Operator, n float64) string {
	v := formatNumber(n)
	minBound, maxBound := "-inf", "+inf"
	switch op {
	case filter.OpGt:
		minBound = "(" + v
	case filter.OpGte:
		minBound = v
	case filter.OpLt:
		maxBound = "(" + v
	case filter.OpLte:
		maxBound = v
	default: // eq, not_eq
		minBound, maxBound = v, v
	}
	return fmt.Sprintf("@%s:[%s %s]", key, minBound, maxBound)
}

// formatNumber avoids exponent notation so epoch millis stay exact.
func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// --- Query helpers ---

var tagEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	" ", "\\ ",
)
