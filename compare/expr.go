// varcomp: a tool for comparing, reconciling, and filtering variant call
// sets produced by multiple callers, technologies, or pipeline runs.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License along with this program. If not, see
// <https://github.com/varcomp/varcomp/blob/master/LICENSE.txt>.

package compare

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/varcomp/varcomp/vcf"
)

// An Expr is a boolean filter expression over variant attributes: a
// disjunction ("||") of conjunctions ("&&") of comparisons of the
// form NAME OP NUMBER, with OP one of <, <=, >, >=, ==, !=. The empty
// expression matches every variant. A comparison over an absent or
// non-numeric attribute is false.
type Expr struct {
	source  string
	clauses [][]comparison
}

type comparison struct {
	attr  string
	op    string
	value float64
}

var comparisonOps = []string{"<=", ">=", "==", "!=", "<", ">"}

func parseComparison(s string) (comparison, error) {
	for _, op := range comparisonOps {
		if i := strings.Index(s, op); i >= 0 {
			attr := strings.TrimSpace(s[:i])
			rest := strings.TrimSpace(s[i+len(op):])
			if attr == "" || rest == "" {
				return comparison{}, fmt.Errorf("incomplete comparison %q", s)
			}
			value, err := strconv.ParseFloat(rest, 64)
			if err != nil {
				return comparison{}, fmt.Errorf("non-numeric comparison operand in %q", s)
			}
			return comparison{attr: attr, op: op, value: value}, nil
		}
	}
	return comparison{}, fmt.Errorf("no comparison operator in %q", s)
}

// ParseExpr parses a filter expression.
func ParseExpr(source string) (*Expr, error) {
	expr := &Expr{source: source}
	if strings.TrimSpace(source) == "" {
		return expr, nil
	}
	for _, clause := range strings.Split(source, "||") {
		var comparisons []comparison
		for _, term := range strings.Split(clause, "&&") {
			cmp, err := parseComparison(strings.TrimSpace(term))
			if err != nil {
				return nil, fmt.Errorf("%v, while parsing filter expression %q", err, source)
			}
			comparisons = append(comparisons, cmp)
		}
		expr.clauses = append(expr.clauses, comparisons)
	}
	return expr, nil
}

// String returns the source form of the expression.
func (e *Expr) String() string {
	return e.source
}

func (c comparison) eval(v *vcf.Variant, retr Getter) bool {
	value, ok := asFloat(retr.Get(v, c.attr))
	if !ok {
		return false
	}
	switch c.op {
	case "<":
		return value < c.value
	case "<=":
		return value <= c.value
	case ">":
		return value > c.value
	case ">=":
		return value >= c.value
	case "==":
		return value == c.value
	default:
		return value != c.value
	}
}

// Eval evaluates the expression against a variant, resolving
// attribute names through the given retriever.
func (e *Expr) Eval(v *vcf.Variant, retr Getter) bool {
	if len(e.clauses) == 0 {
		return true
	}
	for _, clause := range e.clauses {
		matches := true
		for _, cmp := range clause {
			if !cmp.eval(v, retr) {
				matches = false
				break
			}
		}
		if matches {
			return true
		}
	}
	return false
}
