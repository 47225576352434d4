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

type taskRepository struct{ pool *pgxpool.Pool }

func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `k.id, k.team_id, k.assigned_to, k.title, k.description, k.status, k.due_date, k.created_at`

const taskFrom = `FROM tasks k
	JOIN teams t ON t.id = k.team_id
	JOIN projects p ON p.id = t.project_id`

var taskListColumns = columns{
	repository.FieldID:         "k.id",
	repository.FieldTeamID:     "k.team_id",
	repository.FieldAssignedTo: "k.assigned_to",
	repository.FieldStatus:     "k.status",
	repository.FieldTitle:      "k.title",
	repository.FieldDueDate:    "k.due_date",
	repository.FieldCreatedAt:  "k.created_at",
	repository.FieldCompanyID:  "p.company_id",
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(&t.ID, &t.TeamID, &t.AssignedTo, &t.Title, &t.Description, &t.Status, &t.DueDate, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Task{}, repository.ErrNotFound
		}
		return model.Task{}, repository.MapPgError(err)
	}
	return t, nil
}

func (r *taskRepository) Create(ctx context.Context, t model.Task) (model.Task, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Task{}, err
	}
	exec := getQ(ctx, r.pool)
	return scanTask(exec.QueryRow(ctx,
		`INSERT INTO tasks AS k (team_id, assigned_to, title, description, status, due_date)
		 VALUES ($1, $2, $3, $4, COALESCE(NULLIF($5, ''), 'TODO'), $6)
		 RETURNING `+taskColumns,
		t.TeamID, t.AssignedTo, t.Title, t.Description, t.Status, t.DueDate,
	))
}

func (r *taskRepository) GetInCompany(ctx context.Context, companyID, id int64) (model.Task, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Task{}, err
	}
	exec := getQ(ctx, r.pool)
	return scanTask(exec.QueryRow(ctx,
		`SELECT `+taskColumns+` `+taskFrom+` WHERE k.id = $1 AND p.company_id = $2`, id, companyID))
}

func (r *taskRepository) Update(ctx context.Context, id int64, p model.TaskPatch) (model.Task, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Task{}, err
	}
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if p.Title != nil {
		set("title", *p.Title)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Status != nil {
		set("status", *p.Status)
	}
	if p.DueDate != nil {
		set("due_date", *p.DueDate)
	}
	if p.AssignedTo != nil {
		set("assigned_to", *p.AssignedTo)
	}
	exec := getQ(ctx, r.pool)
	if len(sets) == 0 {
		return scanTask(exec.QueryRow(ctx, `SELECT `+taskColumns+` `+taskFrom+` WHERE k.id = $1`, id))
	}
	args = append(args, id)
	return scanTask(exec.QueryRow(ctx,
		`UPDATE tasks AS k SET `+strings.Join(sets, ", ")+
			` WHERE k.id = $`+strconv.Itoa(len(args))+` RETURNING `+taskColumns,
		args...,
	))
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *taskRepository) Count(ctx context.Context, f repository.Filter) (int, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	sql, args, err := countSQL(taskListColumns, taskFrom, f)
	if err != nil {
		return 0, err
	}
	var n int
	if err := getQ(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, repository.MapPgError(err)
	}
	return n, nil
}

func (r *taskRepository) Fetch(ctx context.Context, query repository.Query) ([]model.Task, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	sql, args, err := fetchSQL(taskListColumns, taskColumns, taskFrom, query)
	if err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()
	out := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, repository.MapPgError(rows.Err())
}

var _ repository.TaskRepository = (*taskRepository)(nil)
