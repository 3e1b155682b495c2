package services

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// column maps a payload key to its column and an optional value converter.
type column struct {
	name    string
	convert func(any) (any, error)
}

// assignments builds "col = $n" clauses for the keys of values found in
// allowed, in the given order, starting at placeholder start. With
// skipFalsy, empty strings, zeros and false are ignored like absent keys.
func assignments(values map[string]any, allowed map[string]column, order []string, start int, skipFalsy bool) ([]string, []any, error) {
	var (
		clauses []string
		args    []any
	)
	for _, key := range order {
		col, ok := allowed[key]
		if !ok {
			continue
		}
		v, present := values[key]
		if !present || (skipFalsy && !truthy(v)) {
			continue
		}
		if col.convert != nil {
			converted, err := col.convert(v)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", key, err)
			}
			v = converted
		}
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(col.name), start+len(args)-1))
	}
	return clauses, args, nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case int64:
		return x != 0
	case int:
		return x != 0
	case float64:
		return x != 0
	default:
		return true
	}
}

// setClause joins assignments for an UPDATE statement.
func setClause(clauses []string) string {
	return strings.Join(clauses, ", ")
}
