package services

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTourQuery_Defaults(t *testing.T) {
	q, err := ParseTourQuery(url.Values{})
	require.NoError(t, err)

	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 100, q.Limit)
	assert.False(t, q.PageGiven)
	assert.Equal(t, []SortKey{{Field: "createdAt", Desc: true}}, q.Sort)
	assert.Empty(t, q.Filters)
	assert.Empty(t, q.Fields)
}

func TestParseTourQuery_FiltersSortFieldsPaging(t *testing.T) {
	values, err := url.ParseQuery("difficulty=easy&price[gte]=500&sort=-price,name&fields=name,price&page=2&limit=10")
	require.NoError(t, err)

	q, err := ParseTourQuery(values)
	require.NoError(t, err)

	assert.Equal(t, []Filter{
		{Field: "difficulty", Operator: "=", Value: "easy"},
		{Field: "price", Operator: ">=", Value: 500.0},
	}, q.Filters)
	assert.Equal(t, []SortKey{{Field: "price", Desc: true}, {Field: "name"}}, q.Sort)
	assert.Equal(t, []string{"name", "price"}, q.Fields)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 10, q.Limit)
	assert.True(t, q.PageGiven)
	assert.Equal(t, 10, q.Offset())
}

func TestParseTourQuery_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown filter":   "password=x",
		"bad operator":     "price[ne]=5",
		"not filterable":   "ratingsQuantity=3",
		"bad number":       "price=cheap",
		"bad date":         "createdAt[gte]=yesterday",
		"unknown sort":     "sort=-secret",
		"unknown field":    "fields=name,secret",
		"zero page":        "page=0",
		"non numeric page": "limit=ten",
		"limit too large":  "limit=1001",
		"page overflow":    "page=9223372036854775807&limit=2",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			values, err := url.ParseQuery(raw)
			require.NoError(t, err)

			_, err = ParseTourQuery(values)
			var qerr *QueryError
			require.ErrorAs(t, err, &qerr)
			assert.NotEmpty(t, qerr.Param)
		})
	}
}

func TestTourQuery_SQL(t *testing.T) {
	values, err := url.ParseQuery("rating[gte]=4.5&duration[lt]=10&sort=price&page=3&limit=5")
	require.NoError(t, err)
	q, err := ParseTourQuery(values)
	require.NoError(t, err)

	stmt, args := q.SQL()

	assert.Equal(t,
		"SELECT "+tourColumns+` FROM tours WHERE "duration" < $1 AND "ratings_average" >= $2`+
			` ORDER BY "price" ASC, id ASC LIMIT $3 OFFSET $4`,
		stmt)
	assert.Equal(t, []any{10.0, 4.5, 5, 10}, args)
}

func TestTourQuery_WhereWithoutFilters(t *testing.T) {
	where, args := TourQuery{}.Where()
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestParseTourQuery_LargePageKeepsPositiveOffset(t *testing.T) {
	values, err := url.ParseQuery("page=1000000&limit=1000")
	require.NoError(t, err)

	q, err := ParseTourQuery(values)
	require.NoError(t, err)
	assert.Equal(t, 999999000, q.Offset())
}
