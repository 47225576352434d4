package service

import (
	"context"
	"errors"
	"strings"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"

	"github.com/maxviazov/projecthub-service/internal/listing"
	"github.com/maxviazov/projecthub-service/internal/model"
	"github.com/maxviazov/projecthub-service/internal/pagination"
	"github.com/maxviazov/projecthub-service/internal/repository"
	"github.com/maxviazov/projecthub-service/pkg/response"
)

type taskService struct {
	tasks    repository.TaskRepository
	teams    repository.TeamRepository
	users    repository.UserRepository
	listings Listings
	log      zerolog.Logger
}

func NewTaskService(tasks repository.TaskRepository, teams repository.TeamRepository, users repository.UserRepository,
	listings Listings, logger zerolog.Logger) TaskService {
	l := logger.With().Str("module", "service").Str("component", "task").Logger()
	return &taskService{tasks: tasks, teams: teams, users: users, listings: listings, log: l}
}

// List pages through one member's tasks in one team. The status clause is only
// applied when the client sent a status.
func (s *taskService) List(ctx context.Context, p Principal, f TaskFilter, params PageParams) response.Paginated[model.Task] {
	teamID, hasTeam := parseID(f.TeamID)
	memberID, hasMember := parseID(f.MemberID)
	status := strings.ToUpper(strings.TrimSpace(f.Status))

	req := newListingRequest("tasks", params, tasksPageLimit, taskSorting)
	req.Scope = []listing.Criterion{
		companyScope(p),
		listing.Require("team ID", repository.FieldTeamID, teamID, hasTeam),
		listing.Require("member ID", repository.FieldAssignedTo, memberID, hasMember),
	}
	req.Filters = []listing.Criterion{listing.Optional(repository.FieldStatus, status, status != "")}

	if hasTeam && hasMember && status != "" && !isValidTaskStatus(status) {
		return response.BuildPaginated[model.Task](nil, pagination.EmptyInfo(req.Page),
			response.WithError(response.KindValidation),
			response.WithDetails("status must be one of TODO, IN_PROGRESS, DONE"))
	}
	return runListing[model.Task](withLogger(ctx, s.log), s.listings, s.tasks, req)
}

func (s *taskService) Assign(ctx context.Context, p Principal, in AssignTaskInput) (model.Task, error) {
	if in.TeamID <= 0 {
		return model.Task{}, badRequest("Please provide a team ID")
	}
	if in.AssignedTo <= 0 {
		return model.Task{}, badRequest("Please provide a user ID")
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Status = strings.ToUpper(strings.TrimSpace(in.Status))
	if err := validateStruct(in); err != nil {
		return model.Task{}, err
	}
	if _, err := s.teams.GetDetails(ctx, p.CompanyID, in.TeamID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Task{}, notFound("Team not found.", err)
		}
		return model.Task{}, err
	}
	if _, err := s.users.GetInCompany(ctx, p.CompanyID, in.AssignedTo); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Task{}, badRequest("User is not part of this company")
		}
		return model.Task{}, err
	}

	out, err := s.tasks.Create(ctx, model.Task{
		TeamID:      in.TeamID,
		AssignedTo:  in.AssignedTo,
		Title:       in.Title,
		Description: null.NewString(in.Description, in.Description != ""),
		Status:      in.Status,
		DueDate:     null.TimeFromPtr(in.DueDate),
	})
	if err != nil {
		s.log.Error().Err(err).Int64("team_id", in.TeamID).Msg("assign task failed")
		return model.Task{}, err
	}
	s.log.Info().Int64("task_id", out.ID).Int64("assigned_to", out.AssignedTo).Msg("task assigned")
	return out, nil
}

func (s *taskService) Update(ctx context.Context, p Principal, rawID string, patch model.TaskPatch) (model.Task, error) {
	task, err := s.owned(ctx, p, rawID)
	if err != nil {
		return model.Task{}, err
	}
	patch.Title = trimPtr(patch.Title)
	if patch.Title == nil && patch.Description == nil && patch.Status == nil && patch.DueDate == nil && patch.AssignedTo == nil {
		return model.Task{}, badRequest("Please provide a task object to update")
	}
	var ferrs []FieldError
	if patch.Title != nil && *patch.Title == "" {
		ferrs = append(ferrs, FieldError{Field: "title", Message: "must not be empty"})
	}
	if patch.Status != nil {
		st := strings.ToUpper(strings.TrimSpace(*patch.Status))
		patch.Status = &st
		if !isValidTaskStatus(st) {
			ferrs = append(ferrs, FieldError{Field: "status", Message: "must be one of TODO, IN_PROGRESS, DONE"})
		}
	}
	if err := newInvalidInput(ferrs); err != nil {
		return model.Task{}, err
	}
	if patch.AssignedTo != nil {
		if _, err := s.users.GetInCompany(ctx, p.CompanyID, *patch.AssignedTo); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return model.Task{}, badRequest("User is not part of this company")
			}
			return model.Task{}, err
		}
	}
	out, err := s.tasks.Update(ctx, task.ID, patch)
	if err != nil {
		return model.Task{}, err
	}
	s.log.Info().Int64("task_id", task.ID).Int64("by", p.UserID).Msg("task updated")
	return out, nil
}

func (s *taskService) UpdateStatus(ctx context.Context, p Principal, rawID, status string) (TaskStatus, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status == "" {
		return TaskStatus{}, badRequest("Please provide a task status to update")
	}
	if !isValidTaskStatus(status) {
		return TaskStatus{}, newInvalidInput([]FieldError{{Field: "status", Message: "must be one of TODO, IN_PROGRESS, DONE"}})
	}
	task, err := s.owned(ctx, p, rawID)
	if err != nil {
		return TaskStatus{}, err
	}
	out, err := s.tasks.Update(ctx, task.ID, model.TaskPatch{Status: &status})
	if err != nil {
		return TaskStatus{}, err
	}
	return TaskStatus{ID: out.ID, Status: out.Status}, nil
}

func (s *taskService) Delete(ctx context.Context, p Principal, rawID string) error {
	task, err := s.owned(ctx, p, rawID)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return err
	}
	s.log.Info().Int64("task_id", task.ID).Int64("by", p.UserID).Msg("task deleted")
	return nil
}

// owned loads the task only if it belongs to the caller's company.
func (s *taskService) owned(ctx context.Context, p Principal, rawID string) (model.Task, error) {
	id, ok := parseID(rawID)
	if !ok {
		return model.Task{}, badRequest("Please provide a task ID")
	}
	return s.tasks.GetInCompany(ctx, p.CompanyID, id)
}
