package repository

import (
	"context"
	"time"

	"github.com/maxviazov/projecthub-service/internal/model"
)

// Pinger is the readiness check a store exposes.
// Health handlers depend on it rather than on a concrete pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
// ctx carries the transaction, cancellation and deadline to nested store calls.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for repositories that support it.
// WithinReadTx runs fn in a read-only snapshot so several reads observe the same data.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
	WithinReadTx(ctx context.Context, fn TxFunc) error
}

// Logical attribute names understood by the listing filters and sort keys.
// Stores translate them to columns; anything outside their allow-list is rejected.
const (
	FieldID         = "id"
	FieldCompanyID  = "companyId"
	FieldProjectID  = "projectId"
	FieldTeamID     = "teamId"
	FieldAssignedTo = "assignedTo"
	FieldStatus     = "status"
	FieldName       = "name"
	FieldEmail      = "email"
	FieldRole       = "role"
	FieldJoinedAt   = "joinedAt"
	FieldStartDate  = "startDate"
	FieldEndDate    = "endDate"
	FieldTitle      = "title"
	FieldDueDate    = "dueDate"
	FieldCreatedAt  = "createdAt"
)

// CompanyRepository declares persistence operations for companies.
type CompanyRepository interface {
	Create(ctx context.Context, c model.Company) (model.Company, error)
	GetByID(ctx context.Context, id int64) (model.Company, error)
	List(ctx context.Context) ([]model.Company, error)
	Delete(ctx context.Context, id int64) (model.Company, error)
}

// UserRepository declares persistence operations for users.
// Every read except GetByEmail/GetByID is scoped to a company.
type UserRepository interface {
	Lister[model.User]
	Create(ctx context.Context, u model.User) (model.User, error)
	GetByID(ctx context.Context, id int64) (model.User, error)
	GetInCompany(ctx context.Context, companyID, id int64) (model.User, error)
	// GetByEmail returns the user together with its password hash.
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Update(ctx context.Context, companyID, id int64, p model.UserPatch) (model.User, error)
	Delete(ctx context.Context, companyID, id int64) (model.User, error)
}

// ProjectRepository declares persistence operations for projects.
type ProjectRepository interface {
	Lister[model.Project]
	Create(ctx context.Context, p model.Project) (model.Project, error)
	GetInCompany(ctx context.Context, companyID, id int64) (model.Project, error)
	Delete(ctx context.Context, companyID, id int64) (model.Project, error)
}

// TeamRepository declares persistence operations for teams and their membership.
type TeamRepository interface {
	Lister[model.TeamSummary]
	Create(ctx context.Context, t model.Team) (model.Team, error)
	// GetDetails only finds teams whose project belongs to companyID.
	GetDetails(ctx context.Context, companyID, id int64) (model.TeamDetails, error)
	Update(ctx context.Context, id int64, p model.TeamPatch) (model.Team, error)
	Delete(ctx context.Context, id int64) error
	AddMembers(ctx context.Context, teamID int64, members []model.TeamMember) ([]model.TeamMember, error)
	ListMembers(ctx context.Context, teamID int64) ([]model.UserBrief, error)
	RemoveMember(ctx context.Context, teamID, userID int64) (int64, error)
	ClearMembers(ctx context.Context, teamID int64) (int64, error)
}

// TaskRepository declares persistence operations for tasks.
type TaskRepository interface {
	Lister[model.Task]
	Create(ctx context.Context, t model.Task) (model.Task, error)
	GetInCompany(ctx context.Context, companyID, id int64) (model.Task, error)
	Update(ctx context.Context, id int64, p model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, id int64) error
}

// InvitationRepository declares persistence operations for invitations.
type InvitationRepository interface {
	Create(ctx context.Context, inv model.Invitation) (model.Invitation, error)
	// GetPendingByToken only returns invitations still PENDING and not expired at now.
	GetPendingByToken(ctx context.Context, token string, now time.Time) (model.Invitation, error)
	MarkAccepted(ctx context.Context, id int64) error
	// ExpireStale flips every PENDING invitation with expires_at <= now to EXPIRED.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}
