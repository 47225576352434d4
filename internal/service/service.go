// Package service holds business logic orchestration across repositories and handlers.
// Kept intentionally lean: only use-case coordination, validation and domain error shaping.
package service

import (
	"context"
	"time"

	"github.com/maxviazov/projecthub-service/internal/listing"
	"github.com/maxviazov/projecthub-service/internal/model"
	"github.com/maxviazov/projecthub-service/pkg/response"
)

// Principal is the authenticated caller, taken from the session token.
type Principal struct {
	UserID    int64
	CompanyID int64
	TokenID   string
	ExpiresAt time.Time
}

// Session is what a successful login or registration hands back to the transport layer.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      model.User
}

// PageParams are the raw listing query values; each listing applies its own defaults.
type PageParams struct {
	Page    string
	Limit   string
	SortBy  string
	SortDir string
}

// ListingObserver is told the outcome of every listing; metrics.Metrics satisfies it.
type ListingObserver interface {
	ObserveListing(entity, kind string)
}

// Listings bundles what every paginated use case needs besides its store.
type Listings struct {
	Reads    listing.ReadRunner
	Observer ListingObserver
}

// runListing is listing.List plus outcome reporting.
func runListing[T any](ctx context.Context, l Listings, store listing.Store[T], req listing.Request) response.Paginated[T] {
	page := listing.List(ctx, l.Reads, store, req)
	if l.Observer != nil {
		kind := ""
		if page.Error != nil {
			kind = string(*page.Error)
		}
		l.Observer.ObserveListing(req.Entity, kind)
	}
	return page
}

type CreateCompanyInput struct {
	Name      string `json:"name" validate:"required,max=120"`
	OwnerName string `json:"ownerName" validate:"required,max=120"`
	Bio       string `json:"bio" validate:"max=2000"`
}

type RegisterInput struct {
	Name      string   `json:"name" validate:"required,max=120"`
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=6,max=72"`
	Role      string   `json:"role"`
	CompanyID int64    `json:"companyId"`
	Skills    []string `json:"skills"`
}

type InvitedRegistration struct {
	Token    string   `json:"token" validate:"required"`
	Name     string   `json:"name" validate:"required,max=120"`
	Password string   `json:"password" validate:"required,min=6,max=72"`
	Skills   []string `json:"skills"`
}

type CreateUserInput struct {
	Name     string   `json:"name" validate:"required,max=120"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6,max=72"`
	Role     string   `json:"role" validate:"omitempty,oneof=ADMIN MANAGER MEMBER"`
	Skills   []string `json:"skills"`
}

type CreateProjectInput struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Description string     `json:"description"`
	ManagerID   int64      `json:"managerId"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Status      string     `json:"status" validate:"omitempty,oneof=PLANNED IN_PROGRESS COMPLETED"`
}

type NewTeam struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description"`
	ProjectID   int64  `json:"projectId" validate:"gt=0"`
	LeaderID    int64  `json:"leaderId" validate:"gt=0"`
}

type CreateTeamInput struct {
	Team    NewTeam `json:"team"`
	Members []int64 `json:"members"`
}

// CreatedTeam is the result of creating a team together with its first members.
type CreatedTeam struct {
	Team    model.Team         `json:"updatedTeam"`
	Members []model.TeamMember `json:"addedMembers"`
}

// MemberInput is one entry of an add-member request.
type MemberInput struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
}

// TeamMembership is the membership after an add or remove.
type TeamMembership struct {
	Added   []model.TeamMember `json:"addedMembers,omitempty"`
	Members []model.UserBrief  `json:"members"`
}

// DeletedTeam reports what a team deletion removed.
type DeletedTeam struct {
	ID             int64 `json:"id"`
	RemovedMembers int64 `json:"removedMembers"`
}

type AssignTaskInput struct {
	TeamID      int64      `json:"teamId"`
	AssignedTo  int64      `json:"assignedTo"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description"`
	Status      string     `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	DueDate     *time.Time `json:"dueDate"`
}

// TaskStatus is the reduced view returned by a status-only update.
type TaskStatus struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// TaskFilter carries the raw task listing filters.
type TaskFilter struct {
	TeamID   string
	MemberID string
	Status   string
}

type SendInvitationInput struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=ADMIN MANAGER MEMBER"`
}

// SentInvitation is the public view of a freshly sent invitation.
type SentInvitation struct {
	Email   string        `json:"email"`
	Status  string        `json:"status"`
	Company model.Company `json:"company"`
}

// CompanyService defines company use cases.
type CompanyService interface {
	Create(ctx context.Context, in CreateCompanyInput) (model.Company, error)
	List(ctx context.Context) ([]model.Company, error)
	Info(ctx context.Context, p Principal) (model.Company, error)
	Delete(ctx context.Context, rawID string) (model.Company, error)
}

// UserService defines account and session use cases plus the company user listing.
type UserService interface {
	Authenticate(ctx context.Context, rawToken string) (Principal, error)
	Login(ctx context.Context, email, password string) (Session, error)
	Logout(ctx context.Context, rawToken string) error
	Register(ctx context.Context, in RegisterInput) (Session, error)
	RegisterInvited(ctx context.Context, in InvitedRegistration) (Session, error)
	CheckToken(ctx context.Context, rawToken string) error
	Me(ctx context.Context, p Principal) (model.User, error)
	Create(ctx context.Context, p Principal, in CreateUserInput) (model.User, error)
	Get(ctx context.Context, p Principal, rawID string) (model.User, error)
	Update(ctx context.Context, p Principal, rawID string, patch model.UserPatch) (model.User, error)
	Delete(ctx context.Context, p Principal, rawID string) (model.User, error)
	List(ctx context.Context, p Principal, params PageParams, query string) response.Paginated[model.User]
}

// ProjectService defines project use cases.
type ProjectService interface {
	List(ctx context.Context, p Principal, params PageParams) response.Paginated[model.Project]
	Details(ctx context.Context, p Principal, rawID string) (model.Project, error)
	Create(ctx context.Context, p Principal, in CreateProjectInput) (model.Project, error)
	Delete(ctx context.Context, p Principal, rawID string) (model.Project, error)
}

// TeamService defines team and membership use cases.
type TeamService interface {
	List(ctx context.Context, p Principal, rawProjectID string, params PageParams) response.Paginated[model.TeamSummary]
	Create(ctx context.Context, p Principal, in CreateTeamInput) (CreatedTeam, error)
	Details(ctx context.Context, p Principal, rawID string) (model.TeamDetails, error)
	Update(ctx context.Context, p Principal, rawID string, patch model.TeamPatch) (model.Team, error)
	Delete(ctx context.Context, p Principal, rawID string) (DeletedTeam, error)
	AddMembers(ctx context.Context, p Principal, rawID string, members []MemberInput) (TeamMembership, error)
	RemoveMember(ctx context.Context, p Principal, rawTeamID, rawUserID string) (TeamMembership, error)
	ClearMembers(ctx context.Context, p Principal, rawID string) (int64, error)
}

// TaskService defines task use cases.
type TaskService interface {
	List(ctx context.Context, p Principal, f TaskFilter, params PageParams) response.Paginated[model.Task]
	Assign(ctx context.Context, p Principal, in AssignTaskInput) (model.Task, error)
	Update(ctx context.Context, p Principal, rawID string, patch model.TaskPatch) (model.Task, error)
	UpdateStatus(ctx context.Context, p Principal, rawID, status string) (TaskStatus, error)
	Delete(ctx context.Context, p Principal, rawID string) error
}

// InvitationService defines invitation use cases.
type InvitationService interface {
	Send(ctx context.Context, p Principal, in SendInvitationInput) (SentInvitation, error)
	Verify(ctx context.Context, token string) (model.Invitation, error)
}
