// Package listing runs the count + fetch pattern shared by every paginated endpoint
// and shapes the outcome into a paginated envelope. It never returns an error:
// every failure is reported inside the envelope.
package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/maxviazov/projecthub-service/internal/pagination"
	"github.com/maxviazov/projecthub-service/internal/repository"
	"github.com/maxviazov/projecthub-service/pkg/response"
)

// Store is the entity store a listing reads from.
type Store[T any] interface {
	repository.Lister[T]
}

// ReadRunner executes the count and the fetch as one unit. The postgres TxManager
// runs them in a read-only repeatable-read transaction so both see the same snapshot.
type ReadRunner interface {
	WithinReadTx(ctx context.Context, fn repository.TxFunc) error
}

// NoopReads runs the unit directly, without a shared snapshot.
type NoopReads struct{}

func (NoopReads) WithinReadTx(ctx context.Context, fn repository.TxFunc) error { return fn(ctx) }

// Criterion is one filter input. Name is the client-facing parameter label used in
// "Please provide a <Name>"; Present reports whether the client supplied a value.
type Criterion struct {
	Name    string
	Clause  repository.Clause
	Present bool
}

// Require builds a mandatory criterion: the listing is refused when it is absent.
func Require(name, field string, value any, present bool) Criterion {
	return Criterion{Name: name, Clause: repository.Eq(field, value), Present: present}
}

// Optional builds an equality criterion that only narrows the result when present.
func Optional(field string, value any, present bool) Criterion {
	return Criterion{Name: field, Clause: repository.Eq(field, value), Present: present}
}

// Search builds an optional substring criterion.
func Search(field, value string) Criterion {
	value = strings.TrimSpace(value)
	return Criterion{Name: field, Clause: repository.Contains(field, value), Present: value != ""}
}

// Sorting is the per-entity ordering policy: the default key and direction and the
// keys a client may choose from.
type Sorting struct {
	Default    string
	DefaultDir repository.SortDir
	Allowed    []string
}

// ErrInvalidSort is reported when sortBy or sortDir is outside the allow-list.
var ErrInvalidSort = errors.New("invalid sort")

// Resolve validates the client's choice and returns the ordering to apply. A trailing
// id key keeps pages stable when the primary key has ties.
func (s Sorting) Resolve(sortBy, sortDir string) ([]repository.OrderBy, error) {
	field := strings.TrimSpace(sortBy)
	if field == "" {
		field = s.Default
	}
	if !s.allows(field) {
		return nil, fmt.Errorf("%w: sortBy must be one of %s", ErrInvalidSort, strings.Join(s.Allowed, ", "))
	}

	dir := s.DefaultDir
	if dir == "" {
		dir = repository.Asc
	}
	switch strings.ToLower(strings.TrimSpace(sortDir)) {
	case "":
	case string(repository.Asc):
		dir = repository.Asc
	case string(repository.Desc):
		dir = repository.Desc
	default:
		return nil, fmt.Errorf("%w: sortDir must be asc or desc", ErrInvalidSort)
	}

	order := []repository.OrderBy{{Field: field, Dir: dir}}
	if field != repository.FieldID {
		order = append(order, repository.OrderBy{Field: repository.FieldID, Dir: repository.Asc})
	}
	return order, nil
}

func (s Sorting) allows(field string) bool {
	for _, a := range s.Allowed {
		if a == field {
			return true
		}
	}
	return false
}

// Request is everything one listing call needs.
type Request struct {
	// Entity names the listing in logs and metrics.
	Entity  string
	Scope   []Criterion
	Filters []Criterion
	Page    pagination.PageRequest
	SortBy  string
	SortDir string
	Sorting Sorting
}

// filter composes scope and present optional clauses. It returns the name of the
// first absent scope criterion, if any.
func (r Request) filter() (repository.Filter, string) {
	var f repository.Filter
	for _, c := range r.Scope {
		if !c.Present {
			return repository.Filter{}, c.Name
		}
		f = f.And(c.Clause)
	}
	for _, c := range r.Filters {
		if c.Present {
			f = f.And(c.Clause)
		}
	}
	return f, ""
}

// List counts and fetches one page of T and wraps it in a paginated envelope:
// a missing scope or a bad sort key is refused before the store is touched, an
// empty page is Not Found with zero totals, and store failures become Bad Request.
func List[T any](ctx context.Context, reads ReadRunner, store Store[T], req Request) response.Paginated[T] {
	log := zerolog.Ctx(ctx).With().Str("module", "listing").Str("entity", req.Entity).Logger()
	empty := pagination.EmptyInfo(req.Page)

	filter, missing := req.filter()
	if missing != "" {
		return response.BuildPaginated[T](nil, empty,
			response.WithError(response.KindBadRequest),
			response.WithDetails("Please provide a "+missing))
	}

	order, err := req.Sorting.Resolve(req.SortBy, req.SortDir)
	if err != nil {
		return response.BuildPaginated[T](nil, empty,
			response.WithError(response.KindValidation),
			response.WithDetails(err.Error()))
	}

	if reads == nil {
		reads = NoopReads{}
	}

	var (
		items []T
		total int
	)
	err = reads.WithinReadTx(ctx, func(ctx context.Context) error {
		n, err := store.Count(ctx, filter)
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		rows, err := store.Fetch(ctx, repository.Query{
			Filter:  filter,
			OrderBy: order,
			Window:  pagination.Resolve(req.Page),
		})
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		total, items = n, rows
		return nil
	})
	if err != nil {
		log.Error().Err(err).Int("page", req.Page.Page).Int("limit", req.Page.Limit).Msg("listing failed")
		kind := response.KindBadRequest
		if errors.Is(err, repository.ErrUnsupportedField) {
			kind = response.KindValidation
		}
		return response.BuildPaginated[T](nil, empty, response.WithError(kind))
	}

	if len(items) == 0 {
		return response.BuildPaginated[T](nil, empty, response.WithError(response.KindNotFound))
	}

	info, err := pagination.NewInfo(req.Page, total)
	if err != nil {
		log.Error().Err(err).Int("total", total).Int("limit", req.Page.Limit).Msg("pagination math failed")
		return response.BuildPaginated[T](nil, empty, response.WithError(response.KindBadRequest))
	}
	log.Debug().Int("page", info.Page).Int("total", total).Int("returned", len(items)).Msg("listing served")
	return response.BuildPaginated(items, info)
}
