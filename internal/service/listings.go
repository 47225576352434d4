package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/maxviazov/projecthub-service/internal/listing"
	"github.com/maxviazov/projecthub-service/internal/pagination"
	"github.com/maxviazov/projecthub-service/internal/repository"
)

// Default page sizes per listing, as the front-end expects them.
const (
	usersPageLimit    = 4
	projectsPageLimit = 4
	teamsPageLimit    = 3
	tasksPageLimit    = 5
)

var (
	userSorting = listing.Sorting{
		Default: repository.FieldJoinedAt,
		Allowed: []string{repository.FieldJoinedAt, repository.FieldName, repository.FieldEmail, repository.FieldRole},
	}
	projectSorting = listing.Sorting{
		Default: repository.FieldStartDate,
		Allowed: []string{repository.FieldStartDate, repository.FieldEndDate, repository.FieldName, repository.FieldStatus},
	}
	teamSorting = listing.Sorting{
		Default: repository.FieldID,
		Allowed: []string{repository.FieldID, repository.FieldName},
	}
	taskSorting = listing.Sorting{
		Default: repository.FieldCreatedAt,
		Allowed: []string{repository.FieldCreatedAt, repository.FieldDueDate, repository.FieldTitle, repository.FieldStatus},
	}
)

func companyScope(p Principal) listing.Criterion {
	return listing.Require("company ID", repository.FieldCompanyID, p.CompanyID, p.CompanyID > 0)
}

func newListingRequest(entity string, params PageParams, defaultLimit int, sorting listing.Sorting) listing.Request {
	return listing.Request{
		Entity:  entity,
		Page:    pagination.ParsePageRequest(params.Page, params.Limit, defaultLimit),
		SortBy:  params.SortBy,
		SortDir: params.SortDir,
		Sorting: sorting,
	}
}

// withLogger keeps the request logger when the transport attached one and falls
// back to the service logger otherwise.
func withLogger(ctx context.Context, l zerolog.Logger) context.Context {
	if zerolog.Ctx(ctx).GetLevel() != zerolog.Disabled {
		return ctx
	}
	return l.WithContext(ctx)
}
