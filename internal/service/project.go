package service

import (
	"context"
	"errors"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"

	"github.com/maxviazov/projecthub-service/internal/listing"
	"github.com/maxviazov/projecthub-service/internal/model"
	"github.com/maxviazov/projecthub-service/internal/repository"
	"github.com/maxviazov/projecthub-service/pkg/response"
)

type projectService struct {
	projects repository.ProjectRepository
	users    repository.UserRepository
	listings Listings
	log      zerolog.Logger
}

func NewProjectService(projects repository.ProjectRepository, users repository.UserRepository, listings Listings, logger zerolog.Logger) ProjectService {
	l := logger.With().Str("module", "service").Str("component", "project").Logger()
	return &projectService{projects: projects, users: users, listings: listings, log: l}
}

func (s *projectService) List(ctx context.Context, p Principal, params PageParams) response.Paginated[model.Project] {
	req := newListingRequest("projects", params, projectsPageLimit, projectSorting)
	req.Scope = []listing.Criterion{companyScope(p)}
	return runListing[model.Project](withLogger(ctx, s.log), s.listings, s.projects, req)
}

func (s *projectService) Details(ctx context.Context, p Principal, rawID string) (model.Project, error) {
	if p.CompanyID <= 0 {
		return model.Project{}, notFound("Please provide a company ID.", nil)
	}
	id, ok := parseID(rawID)
	if !ok {
		return model.Project{}, notFound("Please provide a project ID.", nil)
	}
	out, err := s.projects.GetInCompany(ctx, p.CompanyID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Project{}, notFound("Project not found.", err)
		}
		return model.Project{}, err
	}
	return out, nil
}

func (s *projectService) Create(ctx context.Context, p Principal, in CreateProjectInput) (model.Project, error) {
	if p.CompanyID <= 0 {
		return model.Project{}, badRequest("Please provide a company ID.")
	}
	if in.ManagerID <= 0 {
		return model.Project{}, badRequest("Please provide a manager ID.")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Status = strings.ToUpper(strings.TrimSpace(in.Status))
	if err := validateStruct(in); err != nil {
		return model.Project{}, err
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return model.Project{}, newInvalidInput([]FieldError{{Field: "endDate", Message: "must not be before startDate"}})
	}

	if _, err := s.users.GetInCompany(ctx, p.CompanyID, in.ManagerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Project{}, badRequest("Manager does not belong to this company.")
		}
		return model.Project{}, err
	}

	project := model.Project{
		CompanyID:   p.CompanyID,
		ManagerID:   in.ManagerID,
		Name:        in.Name,
		Description: null.NewString(in.Description, in.Description != ""),
		EndDate:     null.TimeFromPtr(in.EndDate),
		Status:      in.Status,
	}
	if in.StartDate != nil {
		project.StartDate = *in.StartDate
	}
	out, err := s.projects.Create(ctx, project)
	if err != nil {
		s.log.Error().Err(err).Int64("company_id", p.CompanyID).Msg("create project failed")
		return model.Project{}, err
	}
	s.log.Info().Int64("project_id", out.ID).Int64("company_id", p.CompanyID).Msg("project created")
	return out, nil
}

func (s *projectService) Delete(ctx context.Context, p Principal, rawID string) (model.Project, error) {
	id, ok := parseID(rawID)
	if !ok {
		return model.Project{}, notFound("Please provide a project ID.", nil)
	}
	out, err := s.projects.Delete(ctx, p.CompanyID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Project{}, notFound("Project not found.", err)
		}
		return model.Project{}, err
	}
	s.log.Info().Int64("project_id", id).Int64("by", p.UserID).Msg("project deleted")
	return out, nil
}
