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

type userRepository struct{ pool *pgxpool.Pool }

func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

// password_hash is only selected by GetByEmail.
const userColumns = `u.id, u.company_id, u.name, u.email, u.role, u.skills, u.joined_at`

const userFrom = `FROM users u`

var userListColumns = columns{
	repository.FieldID:        "u.id",
	repository.FieldCompanyID: "u.company_id",
	repository.FieldName:      "u.name",
	repository.FieldEmail:     "u.email",
	repository.FieldRole:      "u.role",
	repository.FieldJoinedAt:  "u.joined_at",
}

func scanUser(row pgx.Row, extra ...any) (model.User, error) {
	var u model.User
	dest := append([]any{&u.ID, &u.CompanyID, &u.Name, &u.Email, &u.Role, &u.Skills, &u.JoinedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, repository.ErrNotFound
		}
		return model.User{}, repository.MapPgError(err)
	}
	if u.Skills == nil {
		u.Skills = []string{}
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.User{}, err
	}
	if u.Skills == nil {
		u.Skills = []string{}
	}
	exec := getQ(ctx, r.pool)
	return scanUser(exec.QueryRow(ctx,
		`INSERT INTO users AS u (company_id, name, email, password_hash, role, skills)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		u.CompanyID, u.Name, u.Email, u.PasswordHash, u.Role, u.Skills,
	))
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (model.User, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.User{}, err
	}
	exec := getQ(ctx, r.pool)
	return scanUser(exec.QueryRow(ctx, `SELECT `+userColumns+` `+userFrom+` WHERE u.id = $1`, id))
}

func (r *userRepository) GetInCompany(ctx context.Context, companyID, id int64) (model.User, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.User{}, err
	}
	exec := getQ(ctx, r.pool)
	return scanUser(exec.QueryRow(ctx,
		`SELECT `+userColumns+` `+userFrom+` WHERE u.id = $1 AND u.company_id = $2`, id, companyID))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.User{}, err
	}
	exec := getQ(ctx, r.pool)
	var hash string
	u, err := scanUser(exec.QueryRow(ctx,
		`SELECT `+userColumns+`, u.password_hash `+userFrom+` WHERE u.email = $1`, email), &hash)
	if err != nil {
		return model.User{}, err
	}
	u.PasswordHash = hash
	return u, nil
}

func (r *userRepository) Update(ctx context.Context, companyID, id int64, p model.UserPatch) (model.User, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.User{}, err
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
	if p.Email != nil {
		set("email", *p.Email)
	}
	if p.Role != nil {
		set("role", *p.Role)
	}
	if p.Skills != nil {
		set("skills", *p.Skills)
	}
	if len(sets) == 0 {
		return r.GetInCompany(ctx, companyID, id)
	}
	args = append(args, id, companyID)
	n := len(args)
	exec := getQ(ctx, r.pool)
	return scanUser(exec.QueryRow(ctx,
		`UPDATE users AS u SET `+strings.Join(sets, ", ")+
			` WHERE u.id = $`+strconv.Itoa(n-1)+` AND u.company_id = $`+strconv.Itoa(n)+
			` RETURNING `+userColumns,
		args...,
	))
}

func (r *userRepository) Delete(ctx context.Context, companyID, id int64) (model.User, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.User{}, err
	}
	exec := getQ(ctx, r.pool)
	return scanUser(exec.QueryRow(ctx,
		`DELETE FROM users AS u WHERE u.id = $1 AND u.company_id = $2 RETURNING `+userColumns, id, companyID))
}

func (r *userRepository) Count(ctx context.Context, f repository.Filter) (int, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	sql, args, err := countSQL(userListColumns, userFrom, f)
	if err != nil {
		return 0, err
	}
	var n int
	if err := getQ(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, repository.MapPgError(err)
	}
	return n, nil
}

func (r *userRepository) Fetch(ctx context.Context, query repository.Query) ([]model.User, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	sql, args, err := fetchSQL(userListColumns, userColumns, userFrom, query)
	if err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, repository.MapPgError(rows.Err())
}

var _ repository.UserRepository = (*userRepository)(nil)
