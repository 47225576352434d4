package repository

import (
	"context"

	"github.com/maxviazov/projecthub-service/internal/pagination"
)

// Op is a comparison supported by the listing filters.
type Op string

const (
	// OpEq matches a column equal to the value.
	OpEq Op = "eq"
	// OpContains matches a case-insensitive substring of a text column.
	OpContains Op = "contains"
)

// Clause is one predicate of a filter. Field is the logical (API) attribute name;
// each store maps it onto a column through its own allow-list.
type Clause struct {
	Field string
	Op    Op
	Value any
}

// Eq builds an equality clause.
func Eq(field string, value any) Clause { return Clause{Field: field, Op: OpEq, Value: value} }

// Contains builds a substring clause.
func Contains(field, value string) Clause { return Clause{Field: field, Op: OpContains, Value: value} }

// Filter is a conjunction of clauses, composed per request.
type Filter struct {
	Clauses []Clause
}

// And returns a copy of the filter with c appended.
func (f Filter) And(c Clause) Filter {
	out := make([]Clause, 0, len(f.Clauses)+1)
	out = append(out, f.Clauses...)
	return Filter{Clauses: append(out, c)}
}

// Lookup returns the first clause on field, if any.
func (f Filter) Lookup(field string) (Clause, bool) {
	for _, c := range f.Clauses {
		if c.Field == field {
			return c, true
		}
	}
	return Clause{}, false
}

// SortDir is an ordering direction.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// OrderBy is one sort key; Field is a logical attribute name.
type OrderBy struct {
	Field string
	Dir   SortDir
}

// Query bundles what a bulk fetch needs: predicate, ordering and the page window.
type Query struct {
	Filter  Filter
	OrderBy []OrderBy
	Window  pagination.SkipTake
}

// Lister is the narrow contract the listing core depends on: a count and a
// bounded fetch under the same filter.
type Lister[T any] interface {
	Count(ctx context.Context, f Filter) (int, error)
	Fetch(ctx context.Context, q Query) ([]T, error)
}
