package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/projecthub-service/internal/model"
	"github.com/maxviazov/projecthub-service/internal/repository"
)

// membersPreview is how many members a team listing embeds per team.
const membersPreview = 6

type teamRepository struct{ pool *pgxpool.Pool }

func NewTeamRepository(pool *pgxpool.Pool) repository.TeamRepository {
	return &teamRepository{pool: pool}
}

const teamColumns = `t.id, t.project_id, t.leader_id, t.name, t.description`

const teamSummaryColumns = `t.id, t.name, t.description, l.id, l.name, l.email, l.joined_at`

const teamListFrom = `FROM teams t
	JOIN projects p ON p.id = t.project_id
	JOIN users l ON l.id = t.leader_id`

var teamListColumns = columns{
	repository.FieldID:        "t.id",
	repository.FieldProjectID: "t.project_id",
	repository.FieldCompanyID: "p.company_id",
	repository.FieldName:      "t.name",
}

func scanTeam(row pgx.Row) (model.Team, error) {
	var t model.Team
	if err := row.Scan(&t.ID, &t.ProjectID, &t.LeaderID, &t.Name, &t.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Team{}, repository.ErrNotFound
		}
		return model.Team{}, repository.MapPgError(err)
	}
	return t, nil
}

func (r *teamRepository) Create(ctx context.Context, t model.Team) (model.Team, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Team{}, err
	}
	exec := getQ(ctx, r.pool)
	return scanTeam(exec.QueryRow(ctx,
		`INSERT INTO teams AS t (project_id, leader_id, name, description) VALUES ($1, $2, $3, $4)
		 RETURNING `+teamColumns,
		t.ProjectID, t.LeaderID, t.Name, t.Description,
	))
}

func (r *teamRepository) GetDetails(ctx context.Context, companyID, id int64) (model.TeamDetails, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.TeamDetails{}, err
	}
	exec := getQ(ctx, r.pool)
	var d model.TeamDetails
	err := exec.QueryRow(ctx,
		`SELECT t.id, t.name, t.description,
		        l.id, l.name, l.email, l.role, l.joined_at,
		        p.id, p.name, p.description, p.start_date, p.end_date
		 `+teamListFrom+`
		 WHERE t.id = $1 AND p.company_id = $2`,
		id, companyID,
	).Scan(
		&d.ID, &d.Name, &d.Description,
		&d.Leader.ID, &d.Leader.Name, &d.Leader.Email, &d.Leader.Role, &d.Leader.JoinedAt,
		&d.Project.ID, &d.Project.Name, &d.Project.Description, &d.Project.StartDate, &d.Project.EndDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.TeamDetails{}, repository.ErrNotFound
		}
		return model.TeamDetails{}, repository.MapPgError(err)
	}
	if d.Members, err = r.ListMembers(ctx, id); err != nil {
		return model.TeamDetails{}, err
	}
	return d, nil
}

func (r *teamRepository) Update(ctx context.Context, id int64, p model.TeamPatch) (model.Team, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Team{}, err
	}
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if p.Name != nil {
		set("name", *p.Name)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.LeaderID != nil {
		set("leader_id", *p.LeaderID)
	}
	exec := getQ(ctx, r.pool)
	if len(sets) == 0 {
		return scanTeam(exec.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams t WHERE t.id = $1`, id))
	}
	args = append(args, id)
	return scanTeam(exec.QueryRow(ctx,
		`UPDATE teams AS t SET `+strings.Join(sets, ", ")+
			` WHERE t.id = $`+strconv.Itoa(len(args))+` RETURNING `+teamColumns,
		args...,
	))
}

func (r *teamRepository) Delete(ctx context.Context, id int64) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddMembers inserts every membership in one statement and returns the stored rows.
func (r *teamRepository) AddMembers(ctx context.Context, teamID int64, members []model.TeamMember) ([]model.TeamMember, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []model.TeamMember{}, nil
	}
	userIDs := make([]int64, len(members))
	roles := make([]string, len(members))
	for i, m := range members {
		userIDs[i] = m.UserID
		roles[i] = m.Role
		if roles[i] == "" {
			roles[i] = model.TeamRoleMember
		}
	}
	rows, err := getQ(ctx, r.pool).Query(ctx,
		`INSERT INTO team_members (team_id, user_id, role)
		 SELECT $1, m.user_id, m.role FROM unnest($2::BIGINT[], $3::TEXT[]) AS m(user_id, role)
		 RETURNING id, team_id, user_id, role`,
		teamID, userIDs, roles,
	)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.TeamMember])
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	return out, nil
}

func (r *teamRepository) ListMembers(ctx context.Context, teamID int64) ([]model.UserBrief, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.pool).Query(ctx,
		`SELECT u.id, u.name, u.email, u.role, u.joined_at
		 FROM team_members tm JOIN users u ON u.id = tm.user_id
		 WHERE tm.team_id = $1
		 ORDER BY tm.id`,
		teamID,
	)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.UserBrief])
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	return out, nil
}

func (r *teamRepository) RemoveMember(ctx context.Context, teamID, userID int64) (int64, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx,
		`DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return 0, repository.MapPgError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *teamRepository) ClearMembers(ctx context.Context, teamID int64) (int64, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx, `DELETE FROM team_members WHERE team_id = $1`, teamID)
	if err != nil {
		return 0, repository.MapPgError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *teamRepository) Count(ctx context.Context, f repository.Filter) (int, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	sql, args, err := countSQL(teamListColumns, teamListFrom, f)
	if err != nil {
		return 0, err
	}
	var n int
	if err := getQ(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, repository.MapPgError(err)
	}
	return n, nil
}

// Fetch returns one page of teams with their leader and a preview of their members.
func (r *teamRepository) Fetch(ctx context.Context, query repository.Query) ([]model.TeamSummary, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	sql, args, err := fetchSQL(teamListColumns, teamSummaryColumns, teamListFrom, query)
	if err != nil {
		return nil, err
	}
	exec := getQ(ctx, r.pool)
	rows, err := exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()

	out := make([]model.TeamSummary, 0)
	index := make(map[int64]int)
	ids := make([]int64, 0)
	for rows.Next() {
		var t model.TeamSummary
		if err := rows.Scan(&t.ID, &t.Name, &t.Description,
			&t.Leader.ID, &t.Leader.Name, &t.Leader.Email, &t.Leader.JoinedAt); err != nil {
			return nil, repository.MapPgError(err)
		}
		t.Members = []model.UserBrief{}
		index[t.ID] = len(out)
		ids = append(ids, t.ID)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.MapPgError(err)
	}
	rows.Close()
	if len(ids) == 0 {
		return out, nil
	}

	mrows, err := exec.Query(ctx,
		`SELECT m.team_id, m.id, m.name, m.email, m.joined_at FROM (
		     SELECT tm.team_id, u.id, u.name, u.email, u.joined_at,
		            ROW_NUMBER() OVER (PARTITION BY tm.team_id ORDER BY tm.id) AS rn
		     FROM team_members tm JOIN users u ON u.id = tm.user_id
		     WHERE tm.team_id = ANY($1)
		 ) m
		 WHERE m.rn <= $2
		 ORDER BY m.team_id, m.rn`,
		ids, membersPreview,
	)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer mrows.Close()
	for mrows.Next() {
		var teamID int64
		var u model.UserBrief
		if err := mrows.Scan(&teamID, &u.ID, &u.Name, &u.Email, &u.JoinedAt); err != nil {
			return nil, repository.MapPgError(err)
		}
		if i, ok := index[teamID]; ok {
			out[i].Members = append(out[i].Members, u)
		}
	}
	return out, repository.MapPgError(mrows.Err())
}

var _ repository.TeamRepository = (*teamRepository)(nil)
