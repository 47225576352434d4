package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/maxviazov/projecthub-service/internal/auth"
	"github.com/maxviazov/projecthub-service/internal/config"
	"github.com/maxviazov/projecthub-service/internal/handler"
	"github.com/maxviazov/projecthub-service/internal/jobs"
	"github.com/maxviazov/projecthub-service/internal/logger"
	"github.com/maxviazov/projecthub-service/internal/mail"
	"github.com/maxviazov/projecthub-service/internal/metrics"
	"github.com/maxviazov/projecthub-service/internal/repository"
	"github.com/maxviazov/projecthub-service/internal/repository/postgres"
	"github.com/maxviazov/projecthub-service/internal/service"
	"github.com/maxviazov/projecthub-service/internal/session"
	"github.com/maxviazov/projecthub-service/migrations"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config")
	flag.Parse()

	// Load application config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Config loading failed: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("❌ Logger initialization failed: %v", err)
	}

	if err := run(cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("service stopped with error")
	}
	appLogger.Info().Msg("👋 Service stopped")
}

func run(cfg *config.Config, appLogger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.New(ctx, cfg, &appLogger)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer db.Close()

	if cfg.Postgres.AutoMigrate {
		if err := db.Migrate(ctx, migrations.FS); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	health := map[string]handler.Pinger{"postgres": postgres.NewPinger(db.Pool())}

	var revoker session.Revoker = session.NoopRevoker{}
	if cfg.Redis.Enabled {
		client, err := session.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		redisRevoker := session.NewRedisRevoker(client)
		revoker = redisRevoker
		health["redis"] = redisRevoker
	} else {
		appLogger.Warn().Msg("redis disabled: logout will not revoke tokens")
	}

	var mailer mail.Mailer = mail.NewLogMailer(appLogger)
	if cfg.Mail.Enabled {
		mailer = mail.NewSMTPMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
	}

	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	pool := db.Pool()
	var (
		companies   = postgres.NewCompanyRepository(pool)
		users       = postgres.NewUserRepository(pool)
		projects    = postgres.NewProjectRepository(pool)
		teams       = postgres.NewTeamRepository(pool)
		tasks       = postgres.NewTaskRepository(pool)
		invitations = postgres.NewInvitationRepository(pool)
		tx          = postgres.NewTxManager(pool)
	)

	m := metrics.New()
	listings := service.Listings{Reads: tx, Observer: m}

	services := handler.Services{
		Companies: service.NewCompanyService(companies, appLogger),
		Users: service.NewUserService(service.UserDeps{
			Users:       users,
			Invitations: invitations,
			Tx:          tx,
			Tokens:      tokens,
			Revoker:     revoker,
			Listings:    listings,
		}, appLogger),
		Projects:    service.NewProjectService(projects, users, listings, appLogger),
		Teams:       service.NewTeamService(teams, projects, users, tx, listings, appLogger),
		Tasks:       service.NewTaskService(tasks, teams, users, listings, appLogger),
		Invitations: service.NewInvitationService(invitations, companies, mailer, cfg.App.FrontendURL, appLogger),
	}

	if cfg.App.Env == "prod" || cfg.App.Env == "staging" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	handler.Register(engine, services, handler.Options{
		Health:       health,
		Metrics:      m,
		Logger:       appLogger,
		Cookie:       handler.CookieOptions{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure},
		AllowOrigins: cfg.CORS.AllowOrigins,
	})

	scheduler := jobs.NewScheduler(appLogger, m)
	if err := scheduler.ScheduleInvitationSweep(cfg.Jobs.InvitationSweepSpec, invitations); err != nil {
		return err
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info().Str("addr", srv.Addr).Str("version", cfg.App.Version).Msg("🚀 Service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		appLogger.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
