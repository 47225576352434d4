package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"

	"github.com/maxviazov/projecthub-service/internal/listing"
	"github.com/maxviazov/projecthub-service/internal/model"
	"github.com/maxviazov/projecthub-service/internal/repository"
	"github.com/maxviazov/projecthub-service/pkg/response"
)

// teamService holds team use-case logic: validation + orchestration, no transport / SQL details.
type teamService struct {
	teams    repository.TeamRepository
	projects repository.ProjectRepository
	users    repository.UserRepository
	tx       repository.TxManager
	listings Listings
	log      zerolog.Logger
}

func NewTeamService(teams repository.TeamRepository, projects repository.ProjectRepository, users repository.UserRepository,
	tx repository.TxManager, listings Listings, logger zerolog.Logger) TeamService {
	l := logger.With().Str("module", "service").Str("component", "team").Logger()
	return &teamService{teams: teams, projects: projects, users: users, tx: tx, listings: listings, log: l}
}

func (s *teamService) List(ctx context.Context, p Principal, rawProjectID string, params PageParams) response.Paginated[model.TeamSummary] {
	projectID, ok := parseID(rawProjectID)
	req := newListingRequest("teams", params, teamsPageLimit, teamSorting)
	req.Scope = []listing.Criterion{
		companyScope(p),
		listing.Require("project ID", repository.FieldProjectID, projectID, ok),
	}
	return runListing[model.TeamSummary](withLogger(ctx, s.log), s.listings, s.teams, req)
}

// Create stores the team and its first members atomically; a team without members is refused.
func (s *teamService) Create(ctx context.Context, p Principal, in CreateTeamInput) (CreatedTeam, error) {
	start := time.Now()
	in.Team.Name = strings.TrimSpace(in.Team.Name)
	if err := validateStruct(in.Team); err != nil {
		s.log.Debug().Interface("field_errors", FieldErrors(err)).Msg("team validation failed")
		return CreatedTeam{}, err
	}
	members := uniqueIDs(in.Members)
	if len(members) == 0 {
		return CreatedTeam{}, badRequest("No members were added to the team")
	}
	if _, err := s.projects.GetInCompany(ctx, p.CompanyID, in.Team.ProjectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return CreatedTeam{}, notFound("Project not found.", err)
		}
		return CreatedTeam{}, err
	}

	var out CreatedTeam
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ensureCompanyUsers(ctx, p.CompanyID, append([]int64{in.Team.LeaderID}, members...)); err != nil {
			return err
		}
		team, err := s.teams.Create(ctx, model.Team{
			ProjectID:   in.Team.ProjectID,
			LeaderID:    in.Team.LeaderID,
			Name:        in.Team.Name,
			Description: null.NewString(in.Team.Description, in.Team.Description != ""),
		})
		if err != nil {
			return err
		}
		rows := make([]model.TeamMember, 0, len(members))
		for _, id := range members {
			rows = append(rows, model.TeamMember{TeamID: team.ID, UserID: id, Role: model.TeamRoleMember})
		}
		added, err := s.teams.AddMembers(ctx, team.ID, rows)
		if err != nil {
			return err
		}
		if len(added) == 0 {
			return badRequest("No members were added to the team")
		}
		out = CreatedTeam{Team: team, Members: added}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Int64("project_id", in.Team.ProjectID).Msg("create team failed")
		return CreatedTeam{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("team_id", out.Team.ID).Int("members", len(out.Members)).Msg("team created")
	return out, nil
}

func (s *teamService) Details(ctx context.Context, p Principal, rawID string) (model.TeamDetails, error) {
	id, ok := parseID(rawID)
	if !ok {
		return model.TeamDetails{}, newInvalidInput([]FieldError{{Field: "teamId", Message: "must be > 0"}})
	}
	return s.teams.GetDetails(ctx, p.CompanyID, id)
}

func (s *teamService) Update(ctx context.Context, p Principal, rawID string, patch model.TeamPatch) (model.Team, error) {
	team, err := s.Details(ctx, p, rawID)
	if err != nil {
		return model.Team{}, err
	}
	patch.Name = trimPtr(patch.Name)
	if patch.Name == nil && patch.Description == nil && patch.LeaderID == nil {
		return model.Team{}, badRequest("Please provide the team fields to update")
	}
	if patch.Name != nil && *patch.Name == "" {
		return model.Team{}, newInvalidInput([]FieldError{{Field: "name", Message: "must not be empty"}})
	}
	if patch.LeaderID != nil {
		if err := s.ensureCompanyUsers(ctx, p.CompanyID, []int64{*patch.LeaderID}); err != nil {
			return model.Team{}, err
		}
	}
	out, err := s.teams.Update(ctx, team.ID, patch)
	if err != nil {
		return model.Team{}, err
	}
	s.log.Info().Int64("team_id", team.ID).Int64("by", p.UserID).Msg("team updated")
	return out, nil
}

// Delete removes the memberships first and then the team, in one transaction.
func (s *teamService) Delete(ctx context.Context, p Principal, rawID string) (DeletedTeam, error) {
	team, err := s.Details(ctx, p, rawID)
	if err != nil {
		return DeletedTeam{}, err
	}
	out := DeletedTeam{ID: team.ID}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		n, err := s.teams.ClearMembers(ctx, team.ID)
		if err != nil {
			return err
		}
		out.RemovedMembers = n
		return s.teams.Delete(ctx, team.ID)
	})
	if err != nil {
		s.log.Error().Err(err).Int64("team_id", team.ID).Msg("delete team failed")
		return DeletedTeam{}, err
	}
	s.log.Info().Int64("team_id", team.ID).Int64("removed_members", out.RemovedMembers).Msg("team deleted")
	return out, nil
}

func (s *teamService) AddMembers(ctx context.Context, p Principal, rawID string, members []MemberInput) (TeamMembership, error) {
	if len(members) == 0 {
		return TeamMembership{}, badRequest("Please provide the members to add")
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if strings.EqualFold(m.Role, model.TeamRoleLeader) {
			return TeamMembership{}, badRequest("Team leader role are not allowed to added, members only !")
		}
		if m.ID <= 0 {
			return TeamMembership{}, newInvalidInput([]FieldError{{Field: "id", Message: "must be > 0"}})
		}
		ids = append(ids, m.ID)
	}
	ids = uniqueIDs(ids)

	team, err := s.Details(ctx, p, rawID)
	if err != nil {
		return TeamMembership{}, err
	}

	var out TeamMembership
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ensureCompanyUsers(ctx, p.CompanyID, ids); err != nil {
			return err
		}
		rows := make([]model.TeamMember, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, model.TeamMember{TeamID: team.ID, UserID: id, Role: model.TeamRoleMember})
		}
		added, err := s.teams.AddMembers(ctx, team.ID, rows)
		if err != nil {
			return err
		}
		current, err := s.teams.ListMembers(ctx, team.ID)
		if err != nil {
			return err
		}
		out = TeamMembership{Added: added, Members: current}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Int64("team_id", team.ID).Msg("add team members failed")
		return TeamMembership{}, err
	}
	s.log.Info().Int64("team_id", team.ID).Int("added", len(out.Added)).Msg("team members added")
	return out, nil
}

// RemoveMember drops one user from the team. The member is identified by user id.
func (s *teamService) RemoveMember(ctx context.Context, p Principal, rawTeamID, rawUserID string) (TeamMembership, error) {
	if strings.TrimSpace(rawTeamID) == "" {
		return TeamMembership{}, badRequest("teamId is required")
	}
	userID, ok := parseID(rawUserID)
	if !ok {
		return TeamMembership{}, badRequest("userId is required")
	}
	team, err := s.Details(ctx, p, rawTeamID)
	if err != nil {
		return TeamMembership{}, err
	}

	var out TeamMembership
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		n, err := s.teams.RemoveMember(ctx, team.ID, userID)
		if err != nil {
			return err
		}
		if n == 0 {
			return notFound("Member is not part of this team", repository.ErrNotFound)
		}
		current, err := s.teams.ListMembers(ctx, team.ID)
		if err != nil {
			return err
		}
		out = TeamMembership{Members: current}
		return nil
	})
	if err != nil {
		return TeamMembership{}, err
	}
	s.log.Info().Int64("team_id", team.ID).Int64("user_id", userID).Msg("team member removed")
	return out, nil
}

func (s *teamService) ClearMembers(ctx context.Context, p Principal, rawID string) (int64, error) {
	team, err := s.Details(ctx, p, rawID)
	if err != nil {
		return 0, err
	}
	n, err := s.teams.ClearMembers(ctx, team.ID)
	if err != nil {
		s.log.Error().Err(err).Int64("team_id", team.ID).Msg("clear team members failed")
		return 0, err
	}
	s.log.Info().Int64("team_id", team.ID).Int64("removed", n).Msg("team members cleared")
	return n, nil
}

// ensureCompanyUsers refuses ids that do not belong to the caller's company.
func (s *teamService) ensureCompanyUsers(ctx context.Context, companyID int64, ids []int64) error {
	for _, id := range ids {
		if _, err := s.users.GetInCompany(ctx, companyID, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return &Error{Kind: response.KindBadRequest, Details: "User is not part of this company", Err: err}
			}
			return err
		}
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
