// Package filter implements the LDM query language: boolean expressions of
// dotted-path field comparisons, and stable multi-key ordering over data
// objects.
package filter

import (
	"fmt"

	"github.com/openv2x/openv2x/pkg/its"
)

// Operator is a field comparison operator.
type Operator string

const (
	Equal       Operator = "EQUAL"
	NotEqual    Operator = "NOT_EQUAL"
	GreaterThan Operator = "GREATER_THAN"
	LessThan    Operator = "LESS_THAN"
)

// Expression is a boolean predicate over a payload. A nil Expression matches
// everything.
type Expression interface {
	// Match evaluates the predicate against a payload.
	Match(p its.Payload) bool

	// Validate checks the expression for structural errors (unknown
	// operators, empty paths) ahead of evaluation.
	Validate() error
}

// Matches evaluates expr against p, treating nil as match-all.
func Matches(expr Expression, p its.Payload) bool {
	if expr == nil {
		return true
	}
	return expr.Match(p)
}

// Comparison compares the field at Path against Value.
type Comparison struct {
	Path  string
	Op    Operator
	Value any
}

var _ Expression = Comparison{}

// Match resolves the path and compares. A missing field never satisfies
// Equal, GreaterThan or LessThan; NotEqual is the exact complement of Equal,
// so a missing field satisfies it.
func (c Comparison) Match(p its.Payload) bool {
	got, ok := p.Field(c.Path)

	switch c.Op {
	case Equal:
		if !ok {
			return false
		}
		cmp, comparable := compareValues(got, c.Value)
		return comparable && cmp == 0
	case NotEqual:
		if !ok {
			return true
		}
		cmp, comparable := compareValues(got, c.Value)
		return !comparable || cmp != 0
	case GreaterThan:
		if !ok {
			return false
		}
		cmp, comparable := compareValues(got, c.Value)
		return comparable && cmp > 0
	case LessThan:
		if !ok {
			return false
		}
		cmp, comparable := compareValues(got, c.Value)
		return comparable && cmp < 0
	}
	return false
}

func (c Comparison) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("comparison has an empty field path")
	}
	switch c.Op {
	case Equal, NotEqual, GreaterThan, LessThan:
		return nil
	}
	return fmt.Errorf("unknown comparison operator %q", c.Op)
}

// And matches when every sub-expression matches.
type And []Expression

var _ Expression = And{}

func (a And) Match(p its.Payload) bool {
	for _, e := range a {
		if !e.Match(p) {
			return false
		}
	}
	return true
}

func (a And) Validate() error { return validateAll(a) }

// Or matches when at least one sub-expression matches.
type Or []Expression

var _ Expression = Or{}

func (o Or) Match(p its.Payload) bool {
	for _, e := range o {
		if e.Match(p) {
			return true
		}
	}
	return false
}

func (o Or) Validate() error { return validateAll(o) }

// Not inverts a sub-expression.
type Not struct {
	Expr Expression
}

var _ Expression = Not{}

func (n Not) Match(p its.Payload) bool {
	return !n.Expr.Match(p)
}

func (n Not) Validate() error {
	if n.Expr == nil {
		return fmt.Errorf("NOT has no operand")
	}
	return n.Expr.Validate()
}

func validateAll(exprs []Expression) error {
	if len(exprs) == 0 {
		return fmt.Errorf("boolean combinator has no operands")
	}
	for _, e := range exprs {
		if e == nil {
			return fmt.Errorf("boolean combinator has a nil operand")
		}
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// compareValues orders two field values: -1, 0 or 1 when comparable. Numbers
// of any width compare numerically, strings lexically, booleans with false
// before true. Mixed or unsupported kinds are incomparable.
func compareValues(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, okb := toFloat(b)
		if !okb {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}

	switch va := a.(type) {
	case string:
		vb, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case va < vb:
			return -1, true
		case va > vb:
			return 1, true
		}
		return 0, true
	case bool:
		vb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case va == vb:
			return 0, true
		case !va:
			return -1, true
		}
		return 1, true
	}

	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
