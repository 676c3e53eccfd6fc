// Package condition parses the predicate mini-language used to restrict
// columns: "<attr> <op> <value>". The attribute reference is either a name
// or a $-prefixed dimensional identifier; the operator is one of the scalar
// comparisons or the substring operator "like".
package condition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/healiseu/hypermorph"
)

// Operator is a predicate operator symbol.
type Operator int

const (
	// OpNone marks a condition carrying only an attribute reference. Such a
	// condition resolves a column without restricting it.
	OpNone Operator = iota
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpLike
)

var opNames = map[Operator]string{
	OpNone:         "",
	OpEqual:        "=",
	OpNotEqual:     "!=",
	OpLess:         "<",
	OpLessEqual:    "<=",
	OpGreater:      ">",
	OpGreaterEqual: ">=",
	OpLike:         "like",
}

func (o Operator) String() string { return opNames[o] }

// Condition is one parsed predicate.
type Condition struct {
	// Attr is the attribute name reference; empty when the condition used a
	// $dim2 identifier instead.
	Attr string
	// Dim2 is the dimensional identifier reference, valid when HasDim2.
	Dim2    uint32
	HasDim2 bool

	Op Operator

	// Operand is the raw operand text; for OpLike it is the substring
	// pattern with surrounding quotes stripped.
	Operand string
	// Number is the operand parsed as floating point, valid for the scalar
	// comparison operators.
	Number float64
}

// The comparison operators are matched in this order so that two-character
// operators are found before their one-character prefixes.
var scanOrder = []struct {
	text string
	op   Operator
}{
	{">=", OpGreaterEqual},
	{"<=", OpLessEqual},
	{"<", OpLess},
	{">", OpGreater},
	{"=", OpEqual},
	{"!=", OpNotEqual},
}

// Parse splits a condition string into attribute reference, operator and
// operand. A string containing no operator parses as an OpNone condition
// naming just the attribute. An operator with a malformed operand is an
// ErrUnsupportedPredicate.
func Parse(cond string) (Condition, error) {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return Condition{}, fmt.Errorf("%w: empty condition", hypermorph.ErrUnsupportedPredicate)
	}

	var c Condition
	attr := cond
	for _, s := range scanOrder {
		pos := strings.Index(cond, s.text)
		if pos < 0 {
			continue
		}
		c.Op = s.op
		operand := cond[pos+len(s.text):]
		// "=" preceded by "!" is the not-equal operator.
		if s.op == OpEqual && pos > 0 && cond[pos-1] == '!' {
			c.Op = OpNotEqual
			pos--
		}
		attr = cond[:pos]
		c.Operand = strings.TrimSpace(operand)
		break
	}

	if c.Op == OpNone {
		// No comparison operator; "like" may appear as a keyword.
		if strings.HasSuffix(cond, " like") {
			return Condition{}, fmt.Errorf("%w: like without pattern in %q", hypermorph.ErrUnsupportedPredicate, cond)
		}
		if pos := strings.Index(cond, " like "); pos >= 0 {
			c.Op = OpLike
			attr = cond[:pos]
			c.Operand = unquote(strings.TrimSpace(cond[pos+len(" like "):]))
			if c.Operand == "" {
				return Condition{}, fmt.Errorf("%w: like without pattern in %q", hypermorph.ErrUnsupportedPredicate, cond)
			}
		}
	} else {
		n, err := strconv.ParseFloat(c.Operand, 64)
		if err != nil {
			return Condition{}, fmt.Errorf("%w: operand %q of %q is not numeric", hypermorph.ErrUnsupportedPredicate, c.Operand, cond)
		}
		c.Number = n
	}

	if err := c.parseAttrRef(attr); err != nil {
		return Condition{}, err
	}
	return c, nil
}

// parseAttrRef resolves the attribute part of a condition, either a plain
// name or a $-prefixed dim2 identifier.
func (c *Condition) parseAttrRef(attr string) error {
	attr = strings.TrimSpace(attr)
	if attr == "" {
		return fmt.Errorf("%w: missing attribute reference", hypermorph.ErrUnsupportedPredicate)
	}
	if attr[0] == '$' {
		n, err := strconv.ParseUint(attr[1:], 10, 32)
		if err != nil {
			return fmt.Errorf("%w: bad attribute identifier %q", hypermorph.ErrUnsupportedPredicate, attr)
		}
		c.Dim2 = uint32(n)
		c.HasDim2 = true
		return nil
	}
	c.Attr = attr
	return nil
}

// unquote strips one level of single or double quotes from a pattern.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
