// Package contract holds behavior suites every repository implementation must pass.
// Backends wire them up from their own _test.go files with a Factory.
package contract

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/guregu/null/v6"

	"github.com/maxviazov/projecthub-service/internal/model"
	"github.com/maxviazov/projecthub-service/internal/pagination"
	"github.com/maxviazov/projecthub-service/internal/repository"
)

// Stores is the full set of repositories of one backend, sharing one database.
type Stores struct {
	Companies   repository.CompanyRepository
	Users       repository.UserRepository
	Projects    repository.ProjectRepository
	Teams       repository.TeamRepository
	Tasks       repository.TaskRepository
	Invitations repository.InvitationRepository
	Tx          repository.TxManager
	Pinger      repository.Pinger
}

// Factory returns fresh, empty stores and a cleanup func.
type Factory func(t *testing.T) (Stores, func())

func open(t *testing.T, makeStores Factory) Stores {
	t.Helper()
	s, cleanup := makeStores(t)
	t.Cleanup(cleanup)
	return s
}

func mustCompany(t *testing.T, s Stores, name string) model.Company {
	t.Helper()
	c, err := s.Companies.Create(context.Background(), model.Company{Name: name, OwnerName: "Owner " + name})
	if err != nil {
		t.Fatalf("seed company: %v", err)
	}
	return c
}

func mustUser(t *testing.T, s Stores, companyID int64, name string) model.User {
	t.Helper()
	u, err := s.Users.Create(context.Background(), model.User{
		CompanyID:    companyID,
		Name:         name,
		Email:        fmt.Sprintf("%s.%d@example.com", name, companyID),
		PasswordHash: "$2a$10$hash",
		Role:         model.RoleMember,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func mustProject(t *testing.T, s Stores, companyID, managerID int64, name string, start time.Time) model.Project {
	t.Helper()
	p, err := s.Projects.Create(context.Background(), model.Project{
		CompanyID: companyID, ManagerID: managerID, Name: name, StartDate: start,
	})
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return p
}

func mustTeam(t *testing.T, s Stores, projectID, leaderID int64, name string) model.Team {
	t.Helper()
	tm, err := s.Teams.Create(context.Background(), model.Team{ProjectID: projectID, LeaderID: leaderID, Name: name})
	if err != nil {
		t.Fatalf("seed team: %v", err)
	}
	return tm
}

func page(p, limit int) pagination.SkipTake {
	return pagination.Resolve(pagination.PageRequest{Page: p, Limit: limit})
}

func byID() []repository.OrderBy {
	return []repository.OrderBy{{Field: repository.FieldID, Dir: repository.Asc}}
}

func RunCompanyRepositoryContract(t *testing.T, makeStores Factory) {
	t.Helper()

	t.Run("create_get_delete", func(t *testing.T) {
		s := open(t, makeStores)
		ctx := context.Background()
		created, err := s.Companies.Create(ctx, model.Company{Name: "Acme", OwnerName: "Wile", Bio: null.StringFrom("rockets")})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := s.Companies.GetByID(ctx, created.ID)
		if err != nil || got.Name != "Acme" || got.Bio.String != "rockets" {
			t.Fatalf("get: %+v err=%v", got, err)
		}
		deleted, err := s.Companies.Delete(ctx, created.ID)
		if err != nil || deleted.ID != created.ID {
			t.Fatalf("delete: %+v err=%v", deleted, err)
		}
		if _, err := s.Companies.GetByID(ctx, created.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("duplicate_name", func(t *testing.T) {
		s := open(t, makeStores)
		mustCompany(t, s, "Dup")
		_, err := s.Companies.Create(context.Background(), model.Company{Name: "Dup", OwnerName: "x"})
		if !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("list_empty_is_not_nil", func(t *testing.T) {
		s := open(t, makeStores)
		out, err := s.Companies.List(context.Background())
		if err != nil || out == nil || len(out) != 0 {
			t.Fatalf("unexpected list: %v err=%v", out, err)
		}
	})
}

func RunUserRepositoryContract(t *testing.T, makeStores Factory) {
	t.Helper()

	t.Run("company_scoped_reads", func(t *testing.T) {
		s := open(t, makeStores)
		ctx := context.Background()
		a := mustCompany(t, s, "A")
		b := mustCompany(t, s, "B")
		u := mustUser(t, s, a.ID, "ada")

		if _, err := s.Users.GetInCompany(ctx, a.ID, u.ID); err != nil {
			t.Fatalf("own company: %v", err)
		}
		if _, err := s.Users.GetInCompany(ctx, b.ID, u.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("foreign company must not see user, got %v", err)
		}
		if _, err := s.Users.Delete(ctx, b.ID, u.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("foreign company must not delete user, got %v", err)
		}
	})

	t.Run("get_by_email_carries_hash", func(t *testing.T) {
		s := open(t, makeStores)
		c := mustCompany(t, s, "A")
		u := mustUser(t, s, c.ID, "ada")
		got, err := s.Users.GetByEmail(context.Background(), u.Email)
		if err != nil || got.PasswordHash == "" {
			t.Fatalf("expected hash, got %+v err=%v", got, err)
		}
		other, _ := s.Users.GetByID(context.Background(), u.ID)
		if other.PasswordHash != "" {
			t.Fatalf("GetByID must not load the hash")
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		s := open(t, makeStores)
		c := mustCompany(t, s, "A")
		u := mustUser(t, s, c.ID, "ada")
		_, err := s.Users.Create(context.Background(), model.User{CompanyID: c.ID, Name: "x", Email: u.Email, PasswordHash: "h", Role: model.RoleMember})
		if !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("update_patch", func(t *testing.T) {
		s := open(t, makeStores)
		c := mustCompany(t, s, "A")
		u := mustUser(t, s, c.ID, "ada")
		name := "Ada L."
		skills := []string{"go", "sql"}
		got, err := s.Users.Update(context.Background(), c.ID, u.ID, model.UserPatch{Name: &name, Skills: &skills})
		if err != nil || got.Name != name || len(got.Skills) != 2 || got.Email != u.Email {
			t.Fatalf("update: %+v err=%v", got, err)
		}
	})

	t.Run("listing_count_and_window", func(t *testing.T) {
		s := open(t, makeStores)
		ctx := context.Background()
		a := mustCompany(t, s, "A")
		b := mustCompany(t, s, "B")
		for i := 0; i < 6; i++ {
			mustUser(t, s, a.ID, fmt.Sprintf("user%d", i))
		}
		mustUser(t, s, b.ID, "outsider")

		f := repository.Filter{}.And(repository.Eq(repository.FieldCompanyID, a.ID))
		n, err := s.Users.Count(ctx, f)
		if err != nil || n != 6 {
			t.Fatalf("count: %d err=%v", n, err)
		}
		second, err := s.Users.Fetch(ctx, repository.Query{Filter: f, OrderBy: byID(), Window: page(2, 4)})
		if err != nil || len(second) != 2 {
			t.Fatalf("page 2: %d err=%v", len(second), err)
		}
		for _, u := range second {
			if u.CompanyID != a.ID {
				t.Fatalf("tenant leak: %+v", u)
			}
		}

		search := f.And(repository.Contains(repository.FieldName, "USER1"))
		n, err = s.Users.Count(ctx, search)
		if err != nil || n != 1 {
			t.Fatalf("search count: %d err=%v", n, err)
		}
	})

	t.Run("listing_rejects_unknown_field", func(t *testing.T) {
		s := open(t, makeStores)
		_, err := s.Users.Count(context.Background(), repository.Filter{}.And(repository.Eq("password_hash", "x")))
		if !errors.Is(err, repository.ErrUnsupportedField) {
			t.Fatalf("expected ErrUnsupportedField, got %v", err)
		}
	})
}

func RunProjectRepositoryContract(t *testing.T, makeStores Factory) {
	t.Helper()

	t.Run("listing_sorted_and_scoped", func(t *testing.T) {
		s := open(t, makeStores)
		ctx := context.Background()
		a := mustCompany(t, s, "A")
		b := mustCompany(t, s, "B")
		ma := mustUser(t, s, a.ID, "manager")
		mb := mustUser(t, s, b.ID, "manager")
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		mustProject(t, s, a.ID, ma.ID, "beta", base.Add(48*time.Hour))
		mustProject(t, s, a.ID, ma.ID, "alpha", base)
		mustProject(t, s, a.ID, ma.ID, "gamma", base.Add(24*time.Hour))
		mustProject(t, s, b.ID, mb.ID, "foreign", base)

		f := repository.Filter{}.And(repository.Eq(repository.FieldCompanyID, a.ID))
		got, err := s.Projects.Fetch(ctx, repository.Query{
			Filter:  f,
			OrderBy: []repository.OrderBy{{Field: repository.FieldStartDate, Dir: repository.Asc}, {Field: repository.FieldID, Dir: repository.Asc}},
			Window:  page(1, 4),
		})
		if err != nil || len(got) != 3 {
			t.Fatalf("fetch: %d err=%v", len(got), err)
		}
		if got[0].Name != "alpha" || got[1].Name != "gamma" || got[2].Name != "beta" {
			t.Fatalf("unexpected order: %s %s %s", got[0].Name, got[1].Name, got[2].Name)
		}
		if got[0].Status != model.ProjectPlanned {
			t.Fatalf("default status not applied: %q", got[0].Status)
		}
	})

	t.Run("delete_scoped", func(t *testing.T) {
		s := open(t, makeStores)
		a := mustCompany(t, s, "A")
		b := mustCompany(t, s, "B")
		m := mustUser(t, s, a.ID, "manager")
		p := mustProject(t, s, a.ID, m.ID, "alpha", time.Time{})
		if _, err := s.Projects.Delete(context.Background(), b.ID, p.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := s.Projects.Delete(context.Background(), a.ID, p.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
	})
}

func RunTeamRepositoryContract(t *testing.T, makeStores Factory) {
	t.Helper()

	t.Run("listing_previews_members", func(t *testing.T) {
		s := open(t, makeStores)
		ctx := context.Background()
		c := mustCompany(t, s, "A")
		lead := mustUser(t, s, c.ID, "lead")
		p := mustProject(t, s, c.ID, lead.ID, "alpha", time.Time{})
		team := mustTeam(t, s, p.ID, lead.ID, "core")
		var members []model.TeamMember
		for i := 0; i < 8; i++ {
			u := mustUser(t, s, c.ID, fmt.Sprintf("m%d", i))
			members = append(members, model.TeamMember{UserID: u.ID, Role: model.TeamRoleMember})
		}
		added, err := s.Teams.AddMembers(ctx, team.ID, members)
		if err != nil || len(added) != 8 {
			t.Fatalf("add members: %d err=%v", len(added), err)
		}

		f := repository.Filter{}.
			And(repository.Eq(repository.FieldProjectID, p.ID)).
			And(repository.Eq(repository.FieldCompanyID, c.ID))
		got, err := s.Teams.Fetch(ctx, repository.Query{Filter: f, OrderBy: byID(), Window: page(1, 3)})
		if err != nil || len(got) != 1 {
			t.Fatalf("fetch: %d err=%v", len(got), err)
		}
		if got[0].Leader.ID != lead.ID || len(got[0].Members) != 6 {
			t.Fatalf("unexpected summary: leader=%d members=%d", got[0].Leader.ID, len(got[0].Members))
		}

		details, err := s.Teams.GetDetails(ctx, c.ID, team.ID)
		if err != nil || len(details.Members) != 8 || details.Project.ID != p.ID {
			t.Fatalf("details: members=%d err=%v", len(details.Members), err)
		}
	})

	t.Run("details_scoped_to_company", func(t *testing.T) {
		s := open(t, makeStores)
		a := mustCompany(t, s, "A")
		b := mustCompany(t, s, "B")
		lead := mustUser(t, s, a.ID, "lead")
		p := mustProject(t, s, a.ID, lead.ID, "alpha", time.Time{})
		team := mustTeam(t, s, p.ID, lead.ID, "core")
		if _, err := s.Teams.GetDetails(context.Background(), b.ID, team.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("membership_changes", func(t *testing.T) {
		s := open(t, makeStores)
		ctx := context.Background()
		c := mustCompany(t, s, "A")
		lead := mustUser(t, s, c.ID, "lead")
		u1 := mustUser(t, s, c.ID, "u1")
		u2 := mustUser(t, s, c.ID, "u2")
		p := mustProject(t, s, c.ID, lead.ID, "alpha", time.Time{})
		team := mustTeam(t, s, p.ID, lead.ID, "core")
		if _, err := s.Teams.AddMembers(ctx, team.ID, []model.TeamMember{{UserID: u1.ID}, {UserID: u2.ID}}); err != nil {
			t.Fatalf("add: %v", err)
		}
		if _, err := s.Teams.AddMembers(ctx, team.ID, []model.TeamMember{{UserID: u1.ID}}); !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists on duplicate member, got %v", err)
		}
		if n, err := s.Teams.RemoveMember(ctx, team.ID, u1.ID); err != nil || n != 1 {
			t.Fatalf("remove: %d err=%v", n, err)
		}
		if n, err := s.Teams.ClearMembers(ctx, team.ID); err != nil || n != 1 {
			t.Fatalf("clear: %d err=%v", n, err)
		}
		name := "renamed"
		if got, err := s.Teams.Update(ctx, team.ID, model.TeamPatch{Name: &name}); err != nil || got.Name != name {
			t.Fatalf("update: %+v err=%v", got, err)
		}
		if err := s.Teams.Delete(ctx, team.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := s.Teams.Delete(ctx, team.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func RunTaskRepositoryContract(t *testing.T, makeStores Factory) {
	t.Helper()

	t.Run("status_filter_is_optional", func(t *testing.T) {
		s := open(t, makeStores)
		ctx := context.Background()
		c := mustCompany(t, s, "A")
		lead := mustUser(t, s, c.ID, "lead")
		dev := mustUser(t, s, c.ID, "dev")
		p := mustProject(t, s, c.ID, lead.ID, "alpha", time.Time{})
		team := mustTeam(t, s, p.ID, lead.ID, "core")
		for i, status := range []string{model.TaskTodo, model.TaskDone, model.TaskDone} {
			if _, err := s.Tasks.Create(ctx, model.Task{TeamID: team.ID, AssignedTo: dev.ID, Title: fmt.Sprintf("t%d", i), Status: status}); err != nil {
				t.Fatalf("seed task: %v", err)
			}
		}

		scope := repository.Filter{}.
			And(repository.Eq(repository.FieldTeamID, team.ID)).
			And(repository.Eq(repository.FieldAssignedTo, dev.ID))
		all, err := s.Tasks.Count(ctx, scope)
		if err != nil || all != 3 {
			t.Fatalf("all: %d err=%v", all, err)
		}
		done, err := s.Tasks.Count(ctx, scope.And(repository.Eq(repository.FieldStatus, model.TaskDone)))
		if err != nil || done != 2 {
			t.Fatalf("done: %d err=%v", done, err)
		}
	})

	t.Run("update_and_scope", func(t *testing.T) {
		s := open(t, makeStores)
		ctx := context.Background()
		a := mustCompany(t, s, "A")
		b := mustCompany(t, s, "B")
		lead := mustUser(t, s, a.ID, "lead")
		p := mustProject(t, s, a.ID, lead.ID, "alpha", time.Time{})
		team := mustTeam(t, s, p.ID, lead.ID, "core")
		task, err := s.Tasks.Create(ctx, model.Task{TeamID: team.ID, AssignedTo: lead.ID, Title: "write docs"})
		if err != nil || task.Status != model.TaskTodo {
			t.Fatalf("create: %+v err=%v", task, err)
		}
		if _, err := s.Tasks.GetInCompany(ctx, b.ID, task.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for foreign company, got %v", err)
		}
		status := model.TaskInProgress
		got, err := s.Tasks.Update(ctx, task.ID, model.TaskPatch{Status: &status})
		if err != nil || got.Status != status || got.Title != "write docs" {
			t.Fatalf("update: %+v err=%v", got, err)
		}
		bad := "SOMEDAY"
		if _, err := s.Tasks.Update(ctx, task.ID, model.TaskPatch{Status: &bad}); !errors.Is(err, repository.ErrConflict) {
			t.Fatalf("expected ErrConflict for check violation, got %v", err)
		}
		if err := s.Tasks.Delete(ctx, task.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
	})
}

func RunInvitationRepositoryContract(t *testing.T, makeStores Factory) {
	t.Helper()

	t.Run("pending_lookup_and_sweep", func(t *testing.T) {
		s := open(t, makeStores)
		ctx := context.Background()
		c := mustCompany(t, s, "A")
		now := time.Now().UTC()
		live, err := s.Invitations.Create(ctx, model.Invitation{CompanyID: c.ID, Email: "new@example.com", Token: "live-token", ExpiresAt: now.Add(time.Hour)})
		if err != nil || live.Status != model.InvitationPending || live.Role != model.RoleMember {
			t.Fatalf("create: %+v err=%v", live, err)
		}
		if _, err := s.Invitations.Create(ctx, model.Invitation{CompanyID: c.ID, Email: "old@example.com", Token: "old-token", ExpiresAt: now.Add(-time.Hour)}); err != nil {
			t.Fatalf("create expired: %v", err)
		}

		if _, err := s.Invitations.GetPendingByToken(ctx, "live-token", now); err != nil {
			t.Fatalf("live token: %v", err)
		}
		if _, err := s.Invitations.GetPendingByToken(ctx, "old-token", now); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expired token must not resolve, got %v", err)
		}

		n, err := s.Invitations.ExpireStale(ctx, now)
		if err != nil || n != 1 {
			t.Fatalf("sweep: %d err=%v", n, err)
		}

		if err := s.Invitations.MarkAccepted(ctx, live.ID); err != nil {
			t.Fatalf("accept: %v", err)
		}
		if err := s.Invitations.MarkAccepted(ctx, live.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("second accept must fail, got %v", err)
		}
	})
}

func RunTxManagerContract(t *testing.T, makeStores Factory) {
	t.Helper()

	t.Run("commit_on_nil_error", func(t *testing.T) {
		s := open(t, makeStores)
		ctx := context.Background()
		var createdID int64
		err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := s.Companies.Create(ctx, model.Company{Name: "TxCommit", OwnerName: "o"})
			if err != nil {
				return err
			}
			createdID = out.ID
			return nil
		})
		if err != nil {
			t.Fatalf("WithinTx: %v", err)
		}
		if _, err := s.Companies.GetByID(ctx, createdID); err != nil {
			t.Fatalf("expected committed row visible, got err=%v", err)
		}
	})

	t.Run("rollback_on_error", func(t *testing.T) {
		s := open(t, makeStores)
		ctx := context.Background()
		var createdID int64
		marker := errors.New("boom")
		err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := s.Companies.Create(ctx, model.Company{Name: "TxRollback", OwnerName: "o"})
			if err != nil {
				return err
			}
			createdID = out.ID
			return marker
		})
		if !errors.Is(err, marker) {
			t.Fatalf("expected marker error, got %v", err)
		}
		if _, err := s.Companies.GetByID(ctx, createdID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after rollback, got %v", err)
		}
	})

	t.Run("read_tx_is_read_only", func(t *testing.T) {
		s := open(t, makeStores)
		err := s.Tx.WithinReadTx(context.Background(), func(ctx context.Context) error {
			_, err := s.Companies.Create(ctx, model.Company{Name: "Nope", OwnerName: "o"})
			return err
		})
		if err == nil {
			t.Fatalf("expected write inside read-only tx to fail")
		}
	})

	t.Run("read_tx_sees_one_snapshot", func(t *testing.T) {
		s := open(t, makeStores)
		ctx := context.Background()
		c := mustCompany(t, s, "A")
		mustUser(t, s, c.ID, "first")
		f := repository.Filter{}.And(repository.Eq(repository.FieldCompanyID, c.ID))

		var before, after int
		err := s.Tx.WithinReadTx(ctx, func(ctx context.Context) error {
			var err error
			if before, err = s.Users.Count(ctx, f); err != nil {
				return err
			}
			// committed outside the snapshot
			mustUser(t, s, c.ID, "second")
			after, err = s.Users.Count(ctx, f)
			return err
		})
		if err != nil {
			t.Fatalf("read tx: %v", err)
		}
		if before != 1 || after != 1 {
			t.Fatalf("snapshot not stable: before=%d after=%d", before, after)
		}
	})
}

func RunPingerContract(t *testing.T, makeStores Factory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		s := open(t, makeStores)
		if err := s.Pinger.Ping(context.Background()); err != nil {
			t.Fatalf("expected ping ok, got %v", err)
		}
	})
}
