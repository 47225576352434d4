// Package model contains domain entities and DTOs used across layers.
// Entities carry data shapes only, no behavior.
package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// User roles inside a company.
const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleMember  = "MEMBER"
)

// Team roles.
const (
	TeamRoleLeader = "LEADER"
	TeamRoleMember = "MEMBER"
)

// Project statuses.
const (
	ProjectPlanned    = "PLANNED"
	ProjectInProgress = "IN_PROGRESS"
	ProjectCompleted  = "COMPLETED"
)

// Task statuses.
const (
	TaskTodo       = "TODO"
	TaskInProgress = "IN_PROGRESS"
	TaskDone       = "DONE"
)

// Invitation statuses.
const (
	InvitationPending  = "PENDING"
	InvitationAccepted = "ACCEPTED"
	InvitationExpired  = "EXPIRED"
)

// Company is the tenant every other record hangs off.
type Company struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	OwnerName string      `json:"ownerName"`
	Bio       null.String `json:"bio"`
	CreatedAt time.Time   `json:"createdAt"`
}

// User is a member of a company. PasswordHash never leaves the process.
type User struct {
	ID           int64     `json:"id"`
	CompanyID    int64     `json:"companyId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Skills       []string  `json:"skills"`
	JoinedAt     time.Time `json:"joinedAt"`
	PasswordHash string    `json:"-"`
}

// UserPatch carries the optional fields of a user update.
type UserPatch struct {
	Name   *string   `json:"name"`
	Email  *string   `json:"email"`
	Role   *string   `json:"role"`
	Skills *[]string `json:"skills"`
}

// UserBrief is the compact user shape embedded in team listings.
type UserBrief struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Project belongs to a company and is run by a manager.
type Project struct {
	ID          int64       `json:"id"`
	CompanyID   int64       `json:"companyId"`
	ManagerID   int64       `json:"managerId"`
	Name        string      `json:"name"`
	Description null.String `json:"description"`
	StartDate   time.Time   `json:"startDate"`
	EndDate     null.Time   `json:"endDate"`
	Status      string      `json:"status"`
}

// Team groups users working on one project.
type Team struct {
	ID          int64       `json:"id"`
	ProjectID   int64       `json:"projectId"`
	LeaderID    int64       `json:"leaderId"`
	Name        string      `json:"name"`
	Description null.String `json:"description"`
}

// TeamPatch carries the optional fields of a team update.
type TeamPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	LeaderID    *int64  `json:"leaderId"`
}

// TeamMember is one row of the team membership table.
type TeamMember struct {
	ID     int64  `json:"id"`
	TeamID int64  `json:"teamId"`
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
}

// TeamSummary is the listing shape: leader plus the first few members.
type TeamSummary struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description null.String `json:"description"`
	Leader      UserBrief   `json:"leader"`
	Members     []UserBrief `json:"members"`
}

// ProjectBrief is embedded in team details.
type ProjectBrief struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description null.String `json:"description"`
	StartDate   time.Time   `json:"startDate"`
	EndDate     null.Time   `json:"endDate"`
}

// TeamDetails is the full team view with every member and its project.
type TeamDetails struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description null.String  `json:"description"`
	Leader      UserBrief    `json:"leader"`
	Members     []UserBrief  `json:"members"`
	Project     ProjectBrief `json:"project"`
}

// Task is assigned to one member of a team.
type Task struct {
	ID          int64       `json:"id"`
	TeamID      int64       `json:"teamId"`
	AssignedTo  int64       `json:"assignedTo"`
	Title       string      `json:"title"`
	Description null.String `json:"description"`
	Status      string      `json:"status"`
	DueDate     null.Time   `json:"dueDate"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// TaskPatch carries the optional fields of a task update.
type TaskPatch struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
	AssignedTo  *int64     `json:"assignedTo"`
}

// Invitation lets an outsider join a company through a one-time token.
type Invitation struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"companyId"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Token     string    `json:"-"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
