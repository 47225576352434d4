package listing_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/projecthub-service/internal/listing"
	"github.com/maxviazov/projecthub-service/internal/pagination"
	"github.com/maxviazov/projecthub-service/internal/repository"
	"github.com/maxviazov/projecthub-service/pkg/response"
)

type item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// stubStore serves a fixed slice and records what the listing asked for.
type stubStore struct {
	rows     []item
	count    int
	countErr error
	fetchErr error

	counts  []repository.Filter
	queries []repository.Query
}

func (s *stubStore) Count(_ context.Context, f repository.Filter) (int, error) {
	s.counts = append(s.counts, f)
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.count, nil
}

func (s *stubStore) Fetch(_ context.Context, q repository.Query) ([]item, error) {
	s.queries = append(s.queries, q)
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	end := q.Window.Skip + q.Window.Take
	if q.Window.Skip >= len(s.rows) {
		return nil, nil
	}
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return s.rows[q.Window.Skip:end], nil
}

type countingReads struct{ calls int }

func (r *countingReads) WithinReadTx(ctx context.Context, fn repository.TxFunc) error {
	r.calls++
	return fn(ctx)
}

func rows(n int) []item {
	out := make([]item, n)
	for i := range out {
		out[i] = item{ID: int64(i + 1), Name: "p"}
	}
	return out
}

var projectSorting = listing.Sorting{
	Default: repository.FieldStartDate,
	Allowed: []string{repository.FieldStartDate, repository.FieldName, repository.FieldStatus},
}

func projectRequest(page, limit int) listing.Request {
	return listing.Request{
		Entity:  "projects",
		Scope:   []listing.Criterion{listing.Require("company ID", repository.FieldCompanyID, int64(7), true)},
		Page:    pagination.PageRequest{Page: page, Limit: limit},
		Sorting: projectSorting,
	}
}

func TestList_FirstPage(t *testing.T) {
	store := &stubStore{rows: rows(10), count: 10}
	reads := &countingReads{}

	out := listing.List[item](context.Background(), reads, store, projectRequest(1, 4))

	assert.False(t, out.IsError)
	assert.Nil(t, out.Error)
	assert.Len(t, out.Data, 4)
	assert.Equal(t, pagination.Info{Page: 1, TotalPages: 3, RemainingPages: 0}, out.Pagination)
	assert.Equal(t, 1, reads.calls)

	require.Len(t, store.queries, 1)
	q := store.queries[0]
	assert.Equal(t, pagination.SkipTake{Skip: 0, Take: 4}, q.Window)
	assert.Equal(t, []repository.Clause{repository.Eq(repository.FieldCompanyID, int64(7))}, q.Filter.Clauses)
	assert.Equal(t, store.counts[0], q.Filter)
	assert.Equal(t, []repository.OrderBy{
		{Field: repository.FieldStartDate, Dir: repository.Asc},
		{Field: repository.FieldID, Dir: repository.Asc},
	}, q.OrderBy)
}

func TestList_LastPageReportsLiteralRemaining(t *testing.T) {
	store := &stubStore{rows: rows(10), count: 10}

	out := listing.List[item](context.Background(), nil, store, projectRequest(3, 4))

	assert.Len(t, out.Data, 2)
	assert.Equal(t, pagination.Info{Page: 3, TotalPages: 3, RemainingPages: 0}, out.Pagination)
	assert.Equal(t, pagination.SkipTake{Skip: 8, Take: 4}, store.queries[0].Window)
}

func TestList_EmptyPageIsNotFoundWithZeroTotals(t *testing.T) {
	store := &stubStore{rows: rows(10), count: 10}

	out := listing.List[item](context.Background(), nil, store, projectRequest(4, 4))

	require.NotNil(t, out.Error)
	assert.Equal(t, response.KindNotFound, *out.Error)
	assert.True(t, out.IsError)
	assert.Equal(t, []item{}, out.Data)
	assert.Equal(t, pagination.Info{Page: 4, TotalPages: 0, RemainingPages: 0}, out.Pagination)
	assert.Equal(t, 404, out.Status())
}

func TestList_FarOutPageIsNotFound(t *testing.T) {
	store := &stubStore{rows: rows(10), count: 10}

	out := listing.List[item](context.Background(), nil, store, projectRequest(4611686018427387905, 4))

	require.NotNil(t, out.Error)
	assert.Equal(t, response.KindNotFound, *out.Error)
	assert.Equal(t, []item{}, out.Data)
	assert.Equal(t, 404, out.Status())
	require.Len(t, store.queries, 1)
	assert.GreaterOrEqual(t, store.queries[0].Window.Skip, 0)
}

func TestList_EmptyStore(t *testing.T) {
	out := listing.List[item](context.Background(), nil, &stubStore{}, projectRequest(1, 4))

	require.NotNil(t, out.Error)
	assert.Equal(t, response.KindNotFound, *out.Error)
	assert.Equal(t, pagination.Info{Page: 1}, out.Pagination)
}

func TestList_MissingScopeNeverQueries(t *testing.T) {
	store := &stubStore{rows: rows(3), count: 3}
	req := projectRequest(1, 5)
	req.Scope = []listing.Criterion{
		listing.Require("team ID", repository.FieldTeamID, int64(0), false),
		listing.Require("member ID", repository.FieldAssignedTo, int64(0), false),
	}

	out := listing.List[item](context.Background(), nil, store, req)

	require.NotNil(t, out.Error)
	assert.Equal(t, response.KindBadRequest, *out.Error)
	assert.Equal(t, "Please provide a team ID", out.ErrorDetails.ValueOrZero())
	assert.Empty(t, store.counts)
	assert.Empty(t, store.queries)
}

func TestList_OptionalFilterOnlyWhenPresent(t *testing.T) {
	base := listing.Request{
		Entity: "tasks",
		Scope: []listing.Criterion{
			listing.Require("team ID", repository.FieldTeamID, int64(3), true),
			listing.Require("member ID", repository.FieldAssignedTo, int64(9), true),
		},
		Page:    pagination.PageRequest{Page: 1, Limit: 5},
		Sorting: listing.Sorting{Default: repository.FieldCreatedAt, Allowed: []string{repository.FieldCreatedAt}},
	}

	absent := base
	absent.Filters = []listing.Criterion{listing.Optional(repository.FieldStatus, "", false)}
	s1 := &stubStore{rows: rows(1), count: 1}
	listing.List[item](context.Background(), nil, s1, absent)
	_, hasStatus := s1.queries[0].Filter.Lookup(repository.FieldStatus)
	assert.False(t, hasStatus)
	assert.Len(t, s1.queries[0].Filter.Clauses, 2)

	present := base
	present.Filters = []listing.Criterion{listing.Optional(repository.FieldStatus, "DONE", true)}
	s2 := &stubStore{rows: rows(1), count: 1}
	listing.List[item](context.Background(), nil, s2, present)
	c, hasStatus := s2.queries[0].Filter.Lookup(repository.FieldStatus)
	assert.True(t, hasStatus)
	assert.Equal(t, "DONE", c.Value)
	assert.Equal(t, s2.counts[0], s2.queries[0].Filter)
}

func TestList_SearchIgnoresBlank(t *testing.T) {
	req := projectRequest(1, 4)
	req.Filters = []listing.Criterion{listing.Search(repository.FieldName, "   ")}
	s := &stubStore{rows: rows(1), count: 1}
	listing.List[item](context.Background(), nil, s, req)
	assert.Len(t, s.queries[0].Filter.Clauses, 1)

	req.Filters = []listing.Criterion{listing.Search(repository.FieldName, " ada ")}
	s = &stubStore{rows: rows(1), count: 1}
	listing.List[item](context.Background(), nil, s, req)
	c, ok := s.queries[0].Filter.Lookup(repository.FieldName)
	require.True(t, ok)
	assert.Equal(t, repository.OpContains, c.Op)
	assert.Equal(t, "ada", c.Value)
}

func TestList_RejectsUnknownSort(t *testing.T) {
	cases := []struct{ by, dir string }{
		{"password", ""},
		{"name", "sideways"},
	}
	for _, tc := range cases {
		req := projectRequest(1, 4)
		req.SortBy, req.SortDir = tc.by, tc.dir
		store := &stubStore{rows: rows(3), count: 3}

		out := listing.List[item](context.Background(), nil, store, req)

		require.NotNil(t, out.Error)
		assert.Equal(t, response.KindValidation, *out.Error)
		assert.Equal(t, 400, out.Status())
		assert.Empty(t, store.queries)
	}
}

func TestList_SortDirDesc(t *testing.T) {
	req := projectRequest(1, 4)
	req.SortBy, req.SortDir = "name", "DESC"
	store := &stubStore{rows: rows(3), count: 3}

	listing.List[item](context.Background(), nil, store, req)

	assert.Equal(t, repository.OrderBy{Field: repository.FieldName, Dir: repository.Desc}, store.queries[0].OrderBy[0])
}

func TestList_StoreErrorsBecomeBadRequest(t *testing.T) {
	for _, store := range []*stubStore{
		{countErr: errors.New("connection reset")},
		{rows: rows(3), count: 3, fetchErr: errors.New("connection reset")},
	} {
		out := listing.List[item](context.Background(), nil, store, projectRequest(2, 4))

		require.NotNil(t, out.Error)
		assert.Equal(t, response.KindBadRequest, *out.Error)
		assert.Equal(t, pagination.Info{Page: 2}, out.Pagination)
		assert.Equal(t, []item{}, out.Data)
	}
}

func TestList_UnsupportedFieldFromStore(t *testing.T) {
	store := &stubStore{countErr: repository.ErrUnsupportedField}
	out := listing.List[item](context.Background(), nil, store, projectRequest(1, 4))
	require.NotNil(t, out.Error)
	assert.Equal(t, response.KindValidation, *out.Error)
}

func TestList_Idempotent(t *testing.T) {
	store := &stubStore{rows: rows(10), count: 10}
	req := projectRequest(2, 4)

	a, err := json.Marshal(listing.List[item](context.Background(), nil, store, req))
	require.NoError(t, err)
	b, err := json.Marshal(listing.List[item](context.Background(), nil, store, req))
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b))
	assert.JSONEq(t,
		`{"data":[{"id":5,"name":"p"},{"id":6,"name":"p"},{"id":7,"name":"p"},{"id":8,"name":"p"}],`+
			`"pagination":{"page":2,"totalPages":3,"remainingPages":0},"error":null,"isError":false,"errorDetails":null}`,
		string(a))
}

func TestSorting_IDKeyHasNoTieBreaker(t *testing.T) {
	s := listing.Sorting{Default: repository.FieldID, Allowed: []string{repository.FieldID, repository.FieldName}}
	order, err := s.Resolve("", "")
	require.NoError(t, err)
	assert.Equal(t, []repository.OrderBy{{Field: repository.FieldID, Dir: repository.Asc}}, order)
}
