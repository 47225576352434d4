package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/maxviazov/projecthub-service/internal/repository/contract"
	"github.com/maxviazov/projecthub-service/migrations"
)

var (
	pool   *pgxpool.Pool
	skippy bool
)

func TestMain(m *testing.M) {
	if os.Getenv("CONTRACT_TESTS") != "1" {
		// allow skipping contract tests unless explicitly enabled
		skippy = true
		os.Exit(m.Run())
	}

	dsn := buildDSNFromEnv()
	if dsn == "" {
		fmt.Println("[contract] DATABASE_URL or APP_POSTGRES_* env not set; skipping")
		skippy = true
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var err error
	pool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Println("[contract] pgxpool new error:", err)
		os.Exit(1)
	}
	if err := pool.Ping(ctx); err != nil {
		fmt.Println("[contract] db ping error:", err)
		os.Exit(1)
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := migrateUp(db); err != nil {
		fmt.Println("[contract] goose up error:", err)
		os.Exit(1)
	}
	_ = db.Close()

	code := m.Run()
	pool.Close()
	os.Exit(code)
}

func migrateUp(db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, ".")
}

func skipIfNeeded(t *testing.T) {
	if skippy {
		t.Skip("contract tests skipped; set CONTRACT_TESTS=1 and provide DB env")
	}
}

func buildDSNFromEnv() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	user := firstNonEmpty(os.Getenv("APP_POSTGRES_USER"), os.Getenv("POSTGRES_USER"))
	pass := firstNonEmpty(os.Getenv("APP_POSTGRES_PASSWORD"), os.Getenv("POSTGRES_PASSWORD"))
	host := firstNonEmpty(os.Getenv("APP_POSTGRES_HOST"), os.Getenv("POSTGRES_HOST"), "localhost")
	port := firstNonEmpty(os.Getenv("APP_POSTGRES_PORT"), os.Getenv("POSTGRES_PORT"), "5432")
	db := firstNonEmpty(os.Getenv("APP_POSTGRES_DB"), os.Getenv("POSTGRES_DB"))
	ssl := firstNonEmpty(os.Getenv("APP_POSTGRES_SSLMODE"), os.Getenv("POSTGRES_SSLMODE"), "disable")
	if user == "" || pass == "" || db == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncateAll(t *testing.T) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`TRUNCATE TABLE invitations, tasks, team_members, teams, projects, users, companies RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("truncate failed: %v", err)
	}
}

func makeStores(t *testing.T) (contract.Stores, func()) {
	skipIfNeeded(t)
	truncateAll(t)
	return contract.Stores{
		Companies:   NewCompanyRepository(pool),
		Users:       NewUserRepository(pool),
		Projects:    NewProjectRepository(pool),
		Teams:       NewTeamRepository(pool),
		Tasks:       NewTaskRepository(pool),
		Invitations: NewInvitationRepository(pool),
		Tx:          NewTxManager(pool),
		Pinger:      NewPinger(pool),
	}, func() { truncateAll(t) }
}

func TestCompanyRepository_PostgresContract(t *testing.T) {
	contract.RunCompanyRepositoryContract(t, makeStores)
}

func TestUserRepository_PostgresContract(t *testing.T) {
	contract.RunUserRepositoryContract(t, makeStores)
}

func TestProjectRepository_PostgresContract(t *testing.T) {
	contract.RunProjectRepositoryContract(t, makeStores)
}

func TestTeamRepository_PostgresContract(t *testing.T) {
	contract.RunTeamRepositoryContract(t, makeStores)
}

func TestTaskRepository_PostgresContract(t *testing.T) {
	contract.RunTaskRepositoryContract(t, makeStores)
}

func TestInvitationRepository_PostgresContract(t *testing.T) {
	contract.RunInvitationRepositoryContract(t, makeStores)
}

func TestTxManager_PostgresContract(t *testing.T) {
	contract.RunTxManagerContract(t, makeStores)
}

func TestPinger_PostgresContract(t *testing.T) {
	contract.RunPingerContract(t, makeStores)
}
