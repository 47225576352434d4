package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/projecthub-service/internal/model"
	"github.com/maxviazov/projecthub-service/internal/repository"
)

type invitationRepository struct{ pool *pgxpool.Pool }

func NewInvitationRepository(pool *pgxpool.Pool) repository.InvitationRepository {
	return &invitationRepository{pool: pool}
}

const invitationColumns = `id, company_id, email, role, token, status, expires_at, created_at`

func scanInvitation(row pgx.Row) (model.Invitation, error) {
	var i model.Invitation
	err := row.Scan(&i.ID, &i.CompanyID, &i.Email, &i.Role, &i.Token, &i.Status, &i.ExpiresAt, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Invitation{}, repository.ErrNotFound
		}
		return model.Invitation{}, repository.MapPgError(err)
	}
	return i, nil
}

func (r *invitationRepository) Create(ctx context.Context, inv model.Invitation) (model.Invitation, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Invitation{}, err
	}
	exec := getQ(ctx, r.pool)
	return scanInvitation(exec.QueryRow(ctx,
		`INSERT INTO invitations (company_id, email, role, token, expires_at)
		 VALUES ($1, $2, COALESCE(NULLIF($3, ''), 'MEMBER'), $4, $5)
		 RETURNING `+invitationColumns,
		inv.CompanyID, inv.Email, inv.Role, inv.Token, inv.ExpiresAt,
	))
}

func (r *invitationRepository) GetPendingByToken(ctx context.Context, token string, now time.Time) (model.Invitation, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Invitation{}, err
	}
	exec := getQ(ctx, r.pool)
	return scanInvitation(exec.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		 WHERE token = $1 AND status = 'PENDING' AND expires_at > $2`,
		token, now,
	))
}

func (r *invitationRepository) MarkAccepted(ctx context.Context, id int64) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx,
		`UPDATE invitations SET status = 'ACCEPTED' WHERE id = $1 AND status = 'PENDING'`, id)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *invitationRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx,
		`UPDATE invitations SET status = 'EXPIRED' WHERE status = 'PENDING' AND expires_at <= $1`, now)
	if err != nil {
		return 0, repository.MapPgError(err)
	}
	return tag.RowsAffected(), nil
}

var _ repository.InvitationRepository = (*invitationRepository)(nil)
