package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/projecthub-service/internal/model"
	"github.com/maxviazov/projecthub-service/internal/repository"
)

type projectRepository struct{ pool *pgxpool.Pool }

func NewProjectRepository(pool *pgxpool.Pool) repository.ProjectRepository {
	return &projectRepository{pool: pool}
}

const projectColumns = `p.id, p.company_id, p.manager_id, p.name, p.description, p.start_date, p.end_date, p.status`

const projectFrom = `FROM projects p`

var projectListColumns = columns{
	repository.FieldID:        "p.id",
	repository.FieldCompanyID: "p.company_id",
	repository.FieldName:      "p.name",
	repository.FieldStatus:    "p.status",
	repository.FieldStartDate: "p.start_date",
	repository.FieldEndDate:   "p.end_date",
}

func scanProject(row pgx.Row) (model.Project, error) {
	var p model.Project
	err := row.Scan(&p.ID, &p.CompanyID, &p.ManagerID, &p.Name, &p.Description, &p.StartDate, &p.EndDate, &p.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Project{}, repository.ErrNotFound
		}
		return model.Project{}, repository.MapPgError(err)
	}
	return p, nil
}

func (r *projectRepository) Create(ctx context.Context, p model.Project) (model.Project, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Project{}, err
	}
	exec := getQ(ctx, r.pool)
	return scanProject(exec.QueryRow(ctx,
		`INSERT INTO projects AS p (company_id, manager_id, name, description, start_date, end_date, status)
		 VALUES ($1, $2, $3, $4, COALESCE($5, NOW()), $6, COALESCE(NULLIF($7, ''), 'PLANNED'))
		 RETURNING `+projectColumns,
		p.CompanyID, p.ManagerID, p.Name, p.Description, nullableTime(p.StartDate), p.EndDate, p.Status,
	))
}

func (r *projectRepository) GetInCompany(ctx context.Context, companyID, id int64) (model.Project, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Project{}, err
	}
	exec := getQ(ctx, r.pool)
	return scanProject(exec.QueryRow(ctx,
		`SELECT `+projectColumns+` `+projectFrom+` WHERE p.id = $1 AND p.company_id = $2`, id, companyID))
}

func (r *projectRepository) Delete(ctx context.Context, companyID, id int64) (model.Project, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Project{}, err
	}
	exec := getQ(ctx, r.pool)
	return scanProject(exec.QueryRow(ctx,
		`DELETE FROM projects AS p WHERE p.id = $1 AND p.company_id = $2 RETURNING `+projectColumns, id, companyID))
}

func (r *projectRepository) Count(ctx context.Context, f repository.Filter) (int, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	sql, args, err := countSQL(projectListColumns, projectFrom, f)
	if err != nil {
		return 0, err
	}
	var n int
	if err := getQ(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, repository.MapPgError(err)
	}
	return n, nil
}

func (r *projectRepository) Fetch(ctx context.Context, query repository.Query) ([]model.Project, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	sql, args, err := fetchSQL(projectListColumns, projectColumns, projectFrom, query)
	if err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()
	out := make([]model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, repository.MapPgError(rows.Err())
}

var _ repository.ProjectRepository = (*projectRepository)(nil)
