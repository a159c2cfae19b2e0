package dbstore

import (
	"fmt"
	"strings"
)

// Operator is a comparison operator in a query condition.
type Operator int

const (
	OpEq Operator = iota
	OpNe
	OpLike
	OpNotLike
	OpGt
	OpGte
	OpLt
	OpLte
	OpIn
	OpNotIn
)

func (o Operator) sql() string {
	switch o {
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpLike:
		return "LIKE"
	case OpNotLike:
		return "NOT LIKE"
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpIn:
		return "IN"
	case OpNotIn:
		return "NOT IN"
	default:
		return "="
	}
}

// Condition is one column filter. Conditions combine with AND only.
type Condition struct {
	Column string
	Op     Operator
	Value  any
}

// Eq matches rows where column equals value.
func Eq(column string, value any) Condition { return Condition{column, OpEq, value} }

// Ne matches rows where column differs from value.
func Ne(column string, value any) Condition { return Condition{column, OpNe, value} }

// Like matches rows where column matches a SQL LIKE pattern.
func Like(column, pattern string) Condition { return Condition{column, OpLike, pattern} }

// NotLike matches rows where column does not match a SQL LIKE pattern.
func NotLike(column, pattern string) Condition { return Condition{column, OpNotLike, pattern} }

// Gt matches rows where column is greater than value.
func Gt(column string, value any) Condition { return Condition{column, OpGt, value} }

// Gte matches rows where column is greater than or equal to value.
func Gte(column string, value any) Condition { return Condition{column, OpGte, value} }

// Lt matches rows where column is less than value.
func Lt(column string, value any) Condition { return Condition{column, OpLt, value} }

// Lte matches rows where column is less than or equal to value.
func Lte(column string, value any) Condition { return Condition{column, OpLte, value} }

// In matches rows where column is one of values. An empty value list
// makes the condition a no-op filter that is skipped entirely.
func In(column string, values ...any) Condition { return Condition{column, OpIn, values} }

// NotIn matches rows where column is none of values. An empty value
// list is skipped, same as In.
func NotIn(column string, values ...any) Condition { return Condition{column, OpNotIn, values} }

// buildConditionClause renders conditions as a WHERE body plus ordered
// placeholder arguments. The returned clause is empty when every
// condition was skipped. numbered selects $N style placeholders.
func buildConditionClause(conds []Condition, numbered bool, argOffset int) (string, []any, error) {
	var parts []string
	var args []any
	n := argOffset

	placeholder := func() string {
		n++
		if numbered {
			return fmt.Sprintf("$%d", n)
		}
		return "?"
	}

	for _, c := range conds {
		if err := validIdent(c.Column); err != nil {
			return "", nil, err
		}

		switch c.Op {
		case OpIn, OpNotIn:
			values, err := conditionValues(c)
			if err != nil {
				return "", nil, err
			}
			if len(values) == 0 {
				// Trivial filter, deliberately ignored.
				continue
			}
			holders := make([]string, len(values))
			for i, v := range values {
				holders[i] = placeholder()
				args = append(args, v)
			}
			parts = append(parts, fmt.Sprintf("%s %s (%s)", c.Column, c.Op.sql(), strings.Join(holders, ", ")))
		default:
			parts = append(parts, fmt.Sprintf("%s %s %s", c.Column, c.Op.sql(), placeholder()))
			args = append(args, c.Value)
		}
	}

	return strings.Join(parts, " AND "), args, nil
}

func conditionValues(c Condition) ([]any, error) {
	switch v := c.Value.(type) {
	case []any:
		return v, nil
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	case []int:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("dbstore: %s condition on %q needs a slice value, got %T", c.Op.sql(), c.Column, c.Value)
	}
}
