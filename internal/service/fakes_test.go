package service_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/maxviazov/projecthub-service/internal/mail"
	"github.com/maxviazov/projecthub-service/internal/model"
	"github.com/maxviazov/projecthub-service/internal/repository"
)

// lister records what the listing core asked for and answers with canned rows.
type lister[T any] struct {
	rows    []T
	total   int
	err     error
	filters []repository.Filter
	queries []repository.Query
}

func (l *lister[T]) Count(_ context.Context, f repository.Filter) (int, error) {
	l.filters = append(l.filters, f)
	if l.err != nil {
		return 0, l.err
	}
	if l.total > 0 {
		return l.total, nil
	}
	return len(l.rows), nil
}

func (l *lister[T]) Fetch(_ context.Context, q repository.Query) ([]T, error) {
	l.queries = append(l.queries, q)
	if l.err != nil {
		return nil, l.err
	}
	return l.rows, nil
}

func (l *lister[T]) calls() int { return len(l.filters) + len(l.queries) }

type fakeCompanyRepo struct {
	nextID int64
	items  map[int64]model.Company
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{nextID: 1, items: map[int64]model.Company{}}
}

func (f *fakeCompanyRepo) Create(_ context.Context, c model.Company) (model.Company, error) {
	for _, it := range f.items {
		if it.Name == c.Name {
			return model.Company{}, repository.ErrAlreadyExists
		}
	}
	c.ID = f.nextID
	f.nextID++
	c.CreatedAt = time.Now()
	f.items[c.ID] = c
	return c, nil
}

func (f *fakeCompanyRepo) GetByID(_ context.Context, id int64) (model.Company, error) {
	c, ok := f.items[id]
	if !ok {
		return model.Company{}, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeCompanyRepo) List(_ context.Context) ([]model.Company, error) {
	out := make([]model.Company, 0, len(f.items))
	for _, c := range f.items {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCompanyRepo) Delete(_ context.Context, id int64) (model.Company, error) {
	c, ok := f.items[id]
	if !ok {
		return model.Company{}, repository.ErrNotFound
	}
	delete(f.items, id)
	return c, nil
}

type fakeUserRepo struct {
	lister[model.User]
	nextID int64
	items  map[int64]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, items: map[int64]model.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, u model.User) (model.User, error) {
	for _, it := range f.items {
		if strings.EqualFold(it.Email, u.Email) {
			return model.User{}, repository.ErrAlreadyExists
		}
	}
	u.ID = f.nextID
	f.nextID++
	u.JoinedAt = time.Now()
	f.items[u.ID] = u
	u.PasswordHash = ""
	return u, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (model.User, error) {
	u, ok := f.items[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	u.PasswordHash = ""
	return u, nil
}

func (f *fakeUserRepo) GetInCompany(ctx context.Context, companyID, id int64) (model.User, error) {
	u, err := f.GetByID(ctx, id)
	if err != nil || u.CompanyID != companyID {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.items {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, companyID, id int64, p model.UserPatch) (model.User, error) {
	u, err := f.GetInCompany(ctx, companyID, id)
	if err != nil {
		return model.User{}, err
	}
	stored := f.items[id]
	if p.Name != nil {
		stored.Name = *p.Name
	}
	if p.Email != nil {
		stored.Email = *p.Email
	}
	if p.Role != nil {
		stored.Role = *p.Role
	}
	if p.Skills != nil {
		stored.Skills = *p.Skills
	}
	f.items[id] = stored
	u = stored
	u.PasswordHash = ""
	return u, nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, companyID, id int64) (model.User, error) {
	u, err := f.GetInCompany(ctx, companyID, id)
	if err != nil {
		return model.User{}, err
	}
	delete(f.items, id)
	return u, nil
}

func (f *fakeUserRepo) seed(companyID int64, email, role string) model.User {
	u := model.User{ID: f.nextID, CompanyID: companyID, Name: email, Email: email, Role: role}
	f.nextID++
	f.items[u.ID] = u
	return u
}

type fakeProjectRepo struct {
	lister[model.Project]
	nextID int64
	items  map[int64]model.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{nextID: 1, items: map[int64]model.Project{}}
}

func (f *fakeProjectRepo) Create(_ context.Context, p model.Project) (model.Project, error) {
	p.ID = f.nextID
	f.nextID++
	if p.StartDate.IsZero() {
		p.StartDate = time.Now()
	}
	if p.Status == "" {
		p.Status = model.ProjectPlanned
	}
	f.items[p.ID] = p
	return p, nil
}

func (f *fakeProjectRepo) GetInCompany(_ context.Context, companyID, id int64) (model.Project, error) {
	p, ok := f.items[id]
	if !ok || p.CompanyID != companyID {
		return model.Project{}, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeProjectRepo) Delete(ctx context.Context, companyID, id int64) (model.Project, error) {
	p, err := f.GetInCompany(ctx, companyID, id)
	if err != nil {
		return model.Project{}, err
	}
	delete(f.items, id)
	return p, nil
}

type fakeTeamRepo struct {
	lister[model.TeamSummary]
	nextID   int64
	teams    map[int64]model.Team
	company  map[int64]int64
	members  map[int64][]model.TeamMember
	projects *fakeProjectRepo
}

func newFakeTeamRepo(projects *fakeProjectRepo) *fakeTeamRepo {
	return &fakeTeamRepo{
		nextID:   1,
		teams:    map[int64]model.Team{},
		company:  map[int64]int64{},
		members:  map[int64][]model.TeamMember{},
		projects: projects,
	}
}

func (f *fakeTeamRepo) Create(_ context.Context, t model.Team) (model.Team, error) {
	t.ID = f.nextID
	f.nextID++
	f.teams[t.ID] = t
	if p, ok := f.projects.items[t.ProjectID]; ok {
		f.company[t.ID] = p.CompanyID
	}
	return t, nil
}

func (f *fakeTeamRepo) GetDetails(_ context.Context, companyID, id int64) (model.TeamDetails, error) {
	t, ok := f.teams[id]
	if !ok || f.company[id] != companyID {
		return model.TeamDetails{}, repository.ErrNotFound
	}
	return model.TeamDetails{ID: t.ID, Name: t.Name, Description: t.Description, Leader: model.UserBrief{ID: t.LeaderID}}, nil
}

func (f *fakeTeamRepo) Update(_ context.Context, id int64, p model.TeamPatch) (model.Team, error) {
	t, ok := f.teams[id]
	if !ok {
		return model.Team{}, repository.ErrNotFound
	}
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description.SetValid(*p.Description)
	}
	if p.LeaderID != nil {
		t.LeaderID = *p.LeaderID
	}
	f.teams[id] = t
	return t, nil
}

func (f *fakeTeamRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.teams[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.teams, id)
	return nil
}

func (f *fakeTeamRepo) AddMembers(_ context.Context, teamID int64, members []model.TeamMember) ([]model.TeamMember, error) {
	out := make([]model.TeamMember, 0, len(members))
	for _, m := range members {
		for _, existing := range f.members[teamID] {
			if existing.UserID == m.UserID {
				return nil, repository.ErrAlreadyExists
			}
		}
		m.ID = int64(len(f.members[teamID]) + 1)
		m.TeamID = teamID
		f.members[teamID] = append(f.members[teamID], m)
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeTeamRepo) ListMembers(_ context.Context, teamID int64) ([]model.UserBrief, error) {
	out := make([]model.UserBrief, 0, len(f.members[teamID]))
	for _, m := range f.members[teamID] {
		out = append(out, model.UserBrief{ID: m.UserID, Role: m.Role})
	}
	return out, nil
}

func (f *fakeTeamRepo) RemoveMember(_ context.Context, teamID, userID int64) (int64, error) {
	kept := f.members[teamID][:0]
	var removed int64
	for _, m := range f.members[teamID] {
		if m.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	f.members[teamID] = kept
	return removed, nil
}

func (f *fakeTeamRepo) ClearMembers(_ context.Context, teamID int64) (int64, error) {
	n := int64(len(f.members[teamID]))
	delete(f.members, teamID)
	return n, nil
}

type fakeTaskRepo struct {
	lister[model.Task]
	nextID  int64
	items   map[int64]model.Task
	company map[int64]int64
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{nextID: 1, items: map[int64]model.Task{}, company: map[int64]int64{}}
}

func (f *fakeTaskRepo) Create(_ context.Context, t model.Task) (model.Task, error) {
	t.ID = f.nextID
	f.nextID++
	if t.Status == "" {
		t.Status = model.TaskTodo
	}
	t.CreatedAt = time.Now()
	f.items[t.ID] = t
	return t, nil
}

func (f *fakeTaskRepo) GetInCompany(_ context.Context, companyID, id int64) (model.Task, error) {
	t, ok := f.items[id]
	if !ok || f.company[id] != companyID {
		return model.Task{}, repository.ErrNotFound
	}
	return t, nil
}

func (f *fakeTaskRepo) Update(_ context.Context, id int64, p model.TaskPatch) (model.Task, error) {
	t, ok := f.items[id]
	if !ok {
		return model.Task{}, repository.ErrNotFound
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	f.items[id] = t
	return t, nil
}

func (f *fakeTaskRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeInvitationRepo struct {
	nextID int64
	items  map[int64]model.Invitation
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{nextID: 1, items: map[int64]model.Invitation{}}
}

func (f *fakeInvitationRepo) Create(_ context.Context, inv model.Invitation) (model.Invitation, error) {
	inv.ID = f.nextID
	f.nextID++
	inv.Status = model.InvitationPending
	inv.CreatedAt = time.Now()
	f.items[inv.ID] = inv
	return inv, nil
}

func (f *fakeInvitationRepo) GetPendingByToken(_ context.Context, token string, now time.Time) (model.Invitation, error) {
	for _, inv := range f.items {
		if inv.Token == token && inv.Status == model.InvitationPending && inv.ExpiresAt.After(now) {
			return inv, nil
		}
	}
	return model.Invitation{}, repository.ErrNotFound
}

func (f *fakeInvitationRepo) MarkAccepted(_ context.Context, id int64) error {
	inv, ok := f.items[id]
	if !ok || inv.Status != model.InvitationPending {
		return repository.ErrNotFound
	}
	inv.Status = model.InvitationAccepted
	f.items[id] = inv
	return nil
}

func (f *fakeInvitationRepo) ExpireStale(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, inv := range f.items {
		if inv.Status == model.InvitationPending && !inv.ExpiresAt.After(now) {
			inv.Status = model.InvitationExpired
			f.items[id] = inv
			n++
		}
	}
	return n, nil
}

// fakeTx runs units of work inline and counts them.
type fakeTx struct {
	writes int
	reads  int
}

func (f *fakeTx) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	f.writes++
	return fn(ctx)
}

func (f *fakeTx) WithinReadTx(ctx context.Context, fn repository.TxFunc) error {
	f.reads++
	return fn(ctx)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeObserver struct {
	outcomes []string
}

func (f *fakeObserver) ObserveListing(entity, kind string) {
	f.outcomes = append(f.outcomes, entity+":"+kind)
}

// fakeRevoker keeps revoked ids in memory.
type fakeRevoker struct {
	revoked map[string]time.Time
	err     error
}

func (f *fakeRevoker) Revoke(_ context.Context, id string, until time.Time) error {
	if f.revoked == nil {
		f.revoked = map[string]time.Time{}
	}
	f.revoked[id] = until
	return nil
}

func (f *fakeRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.revoked[id]
	return ok, nil
}

var (
	_ repository.CompanyRepository    = (*fakeCompanyRepo)(nil)
	_ repository.UserRepository       = (*fakeUserRepo)(nil)
	_ repository.ProjectRepository    = (*fakeProjectRepo)(nil)
	_ repository.TeamRepository       = (*fakeTeamRepo)(nil)
	_ repository.TaskRepository       = (*fakeTaskRepo)(nil)
	_ repository.InvitationRepository = (*fakeInvitationRepo)(nil)
	_ repository.TxManager            = (*fakeTx)(nil)
)
