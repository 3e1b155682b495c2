package services

import (
	"cmp"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
	defaultSort  = "-createdAt"
)

// fieldKind drives how filter values are parsed.
type fieldKind int

const (
	textField fieldKind = iota
	numberField
	timeField
)

type tourField struct {
	column string
	kind   fieldKind
}

// tourFields are the listing keys clients may filter, sort and project on.
// "rating" is accepted as an alias of ratingsAverage.
var tourFields = map[string]tourField{
	"id":              {"id", textField},
	"name":            {"name", textField},
	"price":           {"price", numberField},
	"ratingsAverage":  {"ratings_average", numberField},
	"rating":          {"ratings_average", numberField},
	"ratingsQuantity": {"ratings_quantity", numberField},
	"duration":        {"duration", numberField},
	"difficulty":      {"difficulty", textField},
	"createdAt":       {"created_at", timeField},
}

// filterable excludes id and ratingsQuantity from filters.
var filterable = map[string]bool{
	"name": true, "price": true, "ratingsAverage": true, "rating": true,
	"duration": true, "difficulty": true, "createdAt": true,
}

// TourFieldNames lists the keys accepted by sort and fields.
func TourFieldNames() []string {
	names := make([]string, 0, len(tourFields))
	for name := range tourFields {
		names = append(names, name)
	}
	return names
}

var operators = map[string]string{
	"gte": ">=",
	"gt":  ">",
	"lte": "<=",
	"lt":  "<",
}

// filterKey matches "price" or "price[gte]".
var filterKey = regexp.MustCompile(`^([A-Za-z]+)(?:\[(gte|gt|lte|lt)\])?$`)

// Filter is one comparison of a listing query.
type Filter struct {
	Field    string
	Operator string
	Value    any
}

// SortKey orders the listing by one field.
type SortKey struct {
	Field string
	Desc  bool
}

// TourQuery is a parsed listing request.
type TourQuery struct {
	Filters   []Filter
	Sort      []SortKey
	Fields    []string
	Page      int
	Limit     int
	PageGiven bool
}

// Offset is the number of rows skipped before the page.
func (q TourQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ParseTourQuery interprets listing query parameters:
// price[gte]=500&difficulty=easy&sort=-price,name&fields=name,price&page=2&limit=10.
func ParseTourQuery(values url.Values) (TourQuery, error) {
	q := TourQuery{Page: 1, Limit: defaultLimit}

	for key, vals := range values {
		switch key {
		case "page", "limit", "sort", "fields":
			continue
		}
		m := filterKey.FindStringSubmatch(key)
		if m == nil || !filterable[m[1]] {
			return TourQuery{}, &QueryError{Param: key, Reason: "unknown filter"}
		}
		op := "="
		if m[2] != "" {
			op = operators[m[2]]
		}
		for _, raw := range vals {
			v, err := parseFilterValue(tourFields[m[1]].kind, raw)
			if err != nil {
				return TourQuery{}, &QueryError{Param: key, Reason: err.Error()}
			}
			q.Filters = append(q.Filters, Filter{Field: m[1], Operator: op, Value: v})
		}
	}

	sortParam := values.Get("sort")
	if sortParam == "" {
		sortParam = defaultSort
	}
	for _, part := range splitList(sortParam) {
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		if _, ok := tourFields[name]; !ok {
			return TourQuery{}, &QueryError{Param: "sort", Reason: fmt.Sprintf("unknown field %q", name)}
		}
		q.Sort = append(q.Sort, SortKey{Field: name, Desc: desc})
	}

	for _, name := range splitList(values.Get("fields")) {
		if _, ok := tourFields[name]; !ok {
			return TourQuery{}, &QueryError{Param: "fields", Reason: fmt.Sprintf("unknown field %q", name)}
		}
		q.Fields = append(q.Fields, name)
	}

	var err error
	if raw := values.Get("page"); raw != "" {
		if q.Page, err = positiveInt(raw); err != nil {
			return TourQuery{}, &QueryError{Param: "page", Reason: err.Error()}
		}
		q.PageGiven = true
	}
	if raw := values.Get("limit"); raw != "" {
		if q.Limit, err = positiveInt(raw); err != nil {
			return TourQuery{}, &QueryError{Param: "limit", Reason: err.Error()}
		}
		if q.Limit > maxLimit {
			return TourQuery{}, &QueryError{Param: "limit", Reason: fmt.Sprintf("must not exceed %d", maxLimit)}
		}
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return TourQuery{}, &QueryError{Param: "page", Reason: "out of range"}
	}

	// Map iteration is random; keep SQL stable for identical queries.
	slices.SortStableFunc(q.Filters, func(a, b Filter) int {
		return cmp.Or(strings.Compare(a.Field, b.Field), strings.Compare(a.Operator, b.Operator))
	})
	return q, nil
}

// Where renders the filters as a WHERE clause with $1.. placeholders.
func (q TourQuery) Where() (string, []any) {
	if len(q.Filters) == 0 {
		return "", nil
	}
	clauses := make([]string, len(q.Filters))
	args := make([]any, len(q.Filters))
	for i, f := range q.Filters {
		clauses[i] = fmt.Sprintf("%s %s $%d", pq.QuoteIdentifier(tourFields[f.Field].column), f.Operator, i+1)
		args[i] = f.Value
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// OrderBy renders the sort keys; id breaks ties so pages are stable.
func (q TourQuery) OrderBy() string {
	parts := make([]string, 0, len(q.Sort)+1)
	for _, k := range q.Sort {
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		parts = append(parts, pq.QuoteIdentifier(tourFields[k.Field].column)+" "+dir)
	}
	parts = append(parts, "id ASC")
	return " ORDER BY " + strings.Join(parts, ", ")
}

// SQL renders the full listing statement.
func (q TourQuery) SQL() (string, []any) {
	where, args := q.Where()
	n := len(args)
	stmt := "SELECT " + tourColumns + " FROM tours" + where + q.OrderBy() +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)
	return stmt, append(args, q.Limit, q.Offset())
}

func parseFilterValue(kind fieldKind, raw string) (any, error) {
	switch kind {
	case numberField:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return f, nil
	case timeField:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("%q is not a date", raw)
	default:
		return raw, nil
	}
}

func positiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%q is not a positive integer", raw)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
