package service_test

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/projecthub-service/internal/model"
	"github.com/maxviazov/projecthub-service/internal/repository"
	"github.com/maxviazov/projecthub-service/internal/service"
	"github.com/maxviazov/projecthub-service/pkg/response"
)

type teamFixture struct {
	svc      service.TeamService
	teams    *fakeTeamRepo
	projects *fakeProjectRepo
	users    *fakeUserRepo
	tx       *fakeTx
	p        service.Principal
}

func newTeamFixture() *teamFixture {
	projects := newFakeProjectRepo()
	f := &teamFixture{
		teams:    newFakeTeamRepo(projects),
		projects: projects,
		users:    newFakeUserRepo(),
		tx:       &fakeTx{},
		p:        service.Principal{UserID: 1, CompanyID: 4},
	}
	projects.items[1] = model.Project{ID: 1, CompanyID: 4, Name: "Apollo"}
	projects.items[2] = model.Project{ID: 2, CompanyID: 8, Name: "Foreign"}
	f.svc = service.NewTeamService(f.teams, projects, f.users, f.tx, service.Listings{Reads: f.tx}, zerolog.New(io.Discard))
	return f
}

func TestTeamService_Create(t *testing.T) {
	f := newTeamFixture()
	lead := f.users.seed(4, "lead@acme.io", model.RoleManager)
	a := f.users.seed(4, "a@acme.io", model.RoleMember)
	b := f.users.seed(4, "b@acme.io", model.RoleMember)
	ctx := context.Background()

	team := service.NewTeam{Name: "Core", ProjectID: 1, LeaderID: lead.ID}
	_, err := f.svc.Create(ctx, f.p, service.CreateTeamInput{Team: team})
	_, details := kindOf(t, err)
	assert.Equal(t, "No members were added to the team", details)

	_, err = f.svc.Create(ctx, f.p, service.CreateTeamInput{Team: service.NewTeam{Name: "Core", ProjectID: 2, LeaderID: lead.ID}, Members: []int64{a.ID}})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.svc.Create(ctx, f.p, service.CreateTeamInput{Team: service.NewTeam{ProjectID: 1, LeaderID: lead.ID}, Members: []int64{a.ID}})
	require.ErrorIs(t, err, service.ErrInvalidInput)

	out, err := f.svc.Create(ctx, f.p, service.CreateTeamInput{Team: team, Members: []int64{a.ID, b.ID, a.ID}})
	require.NoError(t, err)
	assert.Equal(t, "Core", out.Team.Name)
	require.Len(t, out.Members, 2)
	for _, m := range out.Members {
		assert.Equal(t, model.TeamRoleMember, m.Role)
		assert.Equal(t, out.Team.ID, m.TeamID)
	}
	assert.Equal(t, 1, f.tx.writes)
}

func TestTeamService_Create_RefusesForeignMembers(t *testing.T) {
	f := newTeamFixture()
	lead := f.users.seed(4, "lead@acme.io", model.RoleManager)
	foreign := f.users.seed(8, "x@corp.io", model.RoleMember)

	_, err := f.svc.Create(context.Background(), f.p, service.CreateTeamInput{
		Team:    service.NewTeam{Name: "Core", ProjectID: 1, LeaderID: lead.ID},
		Members: []int64{foreign.ID},
	})
	kind, details := kindOf(t, err)
	assert.Equal(t, response.KindBadRequest, kind)
	assert.Equal(t, "User is not part of this company", details)
	assert.Empty(t, f.teams.teams)
}

// seedTeam creates team 1 led by user 1 with user 2 as its only member.
func (f *teamFixture) seedTeam(t *testing.T) (model.Team, []model.User) {
	t.Helper()
	lead := f.users.seed(4, "lead@acme.io", model.RoleManager)
	a := f.users.seed(4, "a@acme.io", model.RoleMember)
	out, err := f.svc.Create(context.Background(), f.p, service.CreateTeamInput{
		Team:    service.NewTeam{Name: "Core", ProjectID: 1, LeaderID: lead.ID},
		Members: []int64{a.ID},
	})
	require.NoError(t, err)
	return out.Team, []model.User{lead, a}
}

func TestTeamService_AddMembers(t *testing.T) {
	f := newTeamFixture()
	team, _ := f.seedTeam(t)
	c := f.users.seed(4, "c@acme.io", model.RoleMember)
	ctx := context.Background()
	id := "1"

	_, err := f.svc.AddMembers(ctx, f.p, id, []service.MemberInput{{ID: c.ID, Role: "leader"}})
	_, details := kindOf(t, err)
	assert.Equal(t, "Team leader role are not allowed to added, members only !", details)

	_, err = f.svc.AddMembers(ctx, f.p, id, nil)
	assert.Error(t, err)

	out, err := f.svc.AddMembers(ctx, f.p, id, []service.MemberInput{{ID: c.ID, Role: model.TeamRoleMember}})
	require.NoError(t, err)
	assert.Len(t, out.Added, 1)
	assert.Len(t, out.Members, 2)
	assert.Equal(t, team.ID, out.Added[0].TeamID)

	// duplicates surface as a storage conflict
	_, err = f.svc.AddMembers(ctx, f.p, id, []service.MemberInput{{ID: c.ID}})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestTeamService_RemoveAndClearMembers(t *testing.T) {
	f := newTeamFixture()
	f.seedTeam(t)
	ctx := context.Background()

	_, err := f.svc.RemoveMember(ctx, f.p, "", "2")
	_, details := kindOf(t, err)
	assert.Equal(t, "teamId is required", details)

	_, err = f.svc.RemoveMember(ctx, f.p, "1", "")
	_, details = kindOf(t, err)
	assert.Equal(t, "userId is required", details)

	_, err = f.svc.RemoveMember(ctx, f.p, "1", "99")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	out, err := f.svc.RemoveMember(ctx, f.p, "1", "2")
	require.NoError(t, err)
	assert.Empty(t, out.Members)

	n, err := f.svc.ClearMembers(ctx, f.p, "1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTeamService_UpdateAndDelete(t *testing.T) {
	f := newTeamFixture()
	f.seedTeam(t)
	ctx := context.Background()

	_, err := f.svc.Update(ctx, f.p, "1", model.TeamPatch{})
	kind, _ := kindOf(t, err)
	assert.Equal(t, response.KindBadRequest, kind)

	name := " Platform "
	desc := "infra folks"
	out, err := f.svc.Update(ctx, f.p, "1", model.TeamPatch{Name: &name, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Platform", out.Name)
	assert.Equal(t, "infra folks", out.Description.String)

	other := service.Principal{UserID: 9, CompanyID: 8}
	_, err = f.svc.Delete(ctx, other, "1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	writes := f.tx.writes
	del, err := f.svc.Delete(ctx, f.p, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), del.RemovedMembers)
	assert.Equal(t, writes+1, f.tx.writes)
	assert.Empty(t, f.teams.teams)
}

func TestTeamService_List(t *testing.T) {
	f := newTeamFixture()
	f.teams.rows = []model.TeamSummary{{ID: 1}, {ID: 2}, {ID: 3}}
	f.teams.total = 7

	page := f.svc.List(context.Background(), f.p, "", service.PageParams{})
	require.True(t, page.IsError)
	assert.Equal(t, "Please provide a project ID", page.ErrorDetails.ValueOrZero())
	assert.Zero(t, f.teams.calls())

	page = f.svc.List(context.Background(), f.p, "1", service.PageParams{Page: "1"})
	require.False(t, page.IsError)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	q := f.teams.queries[0]
	assert.Equal(t, 3, q.Window.Take)
	assert.Equal(t, []repository.Clause{
		repository.Eq(repository.FieldCompanyID, int64(4)),
		repository.Eq(repository.FieldProjectID, int64(1)),
	}, q.Filter.Clauses)
	assert.Equal(t, []repository.OrderBy{{Field: repository.FieldID, Dir: repository.Asc}}, q.OrderBy)
}
