package filter

import (
	"fmt"
	"strconv"
	"strings"
)

var operatorAliases = map[string]Operator{
	"EQUAL":        Equal,
	"==":           Equal,
	"NOT_EQUAL":    NotEqual,
	"!=":           NotEqual,
	"GREATER_THAN": GreaterThan,
	">":            GreaterThan,
	"LESS_THAN":    LessThan,
	"<":            LessThan,
}

// Parse builds an Expression from its text form: comparison clauses of the
// shape `path op value`, joined by AND. Operators accept both the spelled
// form (EQUAL, NOT_EQUAL, GREATER_THAN, LESS_THAN) and the symbolic one
// (==, !=, >, <). Values parse as number, bool, or bare/quoted string.
//
// This is the configuration and admin-API surface of the filter language;
// in-process consumers construct Expression values directly.
//
// An empty string yields a nil Expression, which matches everything.
func Parse(s string) (Expression, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	clauses := splitAnd(s)
	exprs := make([]Expression, 0, len(clauses))

	for _, clause := range clauses {
		parts := strings.Fields(clause)
		if len(parts) < 3 {
			return nil, fmt.Errorf("malformed filter clause %q, want `path op value`", clause)
		}

		op, ok := operatorAliases[strings.ToUpper(parts[1])]
		if !ok {
			return nil, fmt.Errorf("unknown operator %q in clause %q", parts[1], clause)
		}

		exprs = append(exprs, Comparison{
			Path:  parts[0],
			Op:    op,
			Value: parseValue(strings.Join(parts[2:], " ")),
		})
	}

	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return And(exprs), nil
}

// ParseOrder builds ordering keys from a comma-separated list of
// `path [asc|desc]` items.
func ParseOrder(s string) ([]OrderBy, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var order []OrderBy
	for _, item := range strings.Split(s, ",") {
		parts := strings.Fields(item)
		switch len(parts) {
		case 1:
			order = append(order, OrderBy{Path: parts[0], Direction: Ascending})
		case 2:
			var dir Direction
			switch strings.ToUpper(parts[1]) {
			case "ASC":
				dir = Ascending
			case "DESC":
				dir = Descending
			default:
				return nil, fmt.Errorf("unknown order direction %q", parts[1])
			}
			order = append(order, OrderBy{Path: parts[0], Direction: dir})
		default:
			return nil, fmt.Errorf("malformed order item %q, want `path [asc|desc]`", item)
		}
	}
	return order, nil
}

func splitAnd(s string) []string {
	fields := strings.Fields(s)
	var clauses []string
	var cur []string

	for _, f := range fields {
		if strings.EqualFold(f, "AND") {
			if len(cur) > 0 {
				clauses = append(clauses, strings.Join(cur, " "))
				cur = nil
			}
			continue
		}
		cur = append(cur, f)
	}
	if len(cur) > 0 {
		clauses = append(clauses, strings.Join(cur, " "))
	}
	return clauses
}

func parseValue(s string) any {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
