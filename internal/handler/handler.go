package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/maxviazov/projecthub-service/internal/metrics"
	"github.com/maxviazov/projecthub-service/internal/service"
)

// Services are the use cases the HTTP API exposes.
type Services struct {
	Companies   service.CompanyService
	Users       service.UserService
	Projects    service.ProjectService
	Teams       service.TeamService
	Tasks       service.TaskService
	Invitations service.InvitationService
}

// Options carries the transport concerns around the services.
type Options struct {
	// Health maps a dependency name to its readiness probe.
	Health       map[string]Pinger
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
	Cookie       CookieOptions
	AllowOrigins []string
}

// Register mounts middleware, probes, metrics and every API route on the engine.
func Register(r *gin.Engine, svc Services, opts Options) {
	r.Use(RequestID(), AccessLog(opts.Logger), CORS(opts.AllowOrigins))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	h := NewHealthHandler(opts.Health)
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	auth := RequireAuth(svc.Users, opts.Cookie.name())

	api := r.Group(APIV1Prefix)
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}

		NewCompanyHandler(svc.Companies, auth).Register(api)
		NewUserHandler(svc.Users, auth, opts.Cookie).Register(api)
		NewInvitationHandler(svc.Invitations, auth).Register(api)

		private := api.Group("", auth)
		NewProjectHandler(svc.Projects).Register(private)
		NewTeamHandler(svc.Teams).Register(private)
		NewTaskHandler(svc.Tasks).Register(private)
	}
}
