package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/projecthub-service/internal/model"
	"github.com/maxviazov/projecthub-service/internal/repository"
)

type companyRepository struct{ pool *pgxpool.Pool }

func NewCompanyRepository(pool *pgxpool.Pool) repository.CompanyRepository {
	return &companyRepository{pool: pool}
}

const companyColumns = `id, name, owner_name, bio, created_at`

func scanCompany(row pgx.Row) (model.Company, error) {
	var c model.Company
	if err := row.Scan(&c.ID, &c.Name, &c.OwnerName, &c.Bio, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Company{}, repository.ErrNotFound
		}
		return model.Company{}, repository.MapPgError(err)
	}
	return c, nil
}

func (r *companyRepository) Create(ctx context.Context, c model.Company) (model.Company, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Company{}, err
	}
	exec := getQ(ctx, r.pool)
	return scanCompany(exec.QueryRow(ctx,
		`INSERT INTO companies (name, owner_name, bio) VALUES ($1, $2, $3)
		 RETURNING `+companyColumns,
		c.Name, c.OwnerName, c.Bio,
	))
}

func (r *companyRepository) GetByID(ctx context.Context, id int64) (model.Company, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Company{}, err
	}
	exec := getQ(ctx, r.pool)
	return scanCompany(exec.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
}

func (r *companyRepository) List(ctx context.Context) ([]model.Company, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	exec := getQ(ctx, r.pool)
	rows, err := exec.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY id`)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()
	out := make([]model.Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, repository.MapPgError(rows.Err())
}

func (r *companyRepository) Delete(ctx context.Context, id int64) (model.Company, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Company{}, err
	}
	exec := getQ(ctx, r.pool)
	return scanCompany(exec.QueryRow(ctx, `DELETE FROM companies WHERE id = $1 RETURNING `+companyColumns, id))
}

var _ repository.CompanyRepository = (*companyRepository)(nil)
