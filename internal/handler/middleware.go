package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/maxviazov/projecthub-service/internal/service"
	"github.com/maxviazov/projecthub-service/pkg/response"
)

const (
	// RequestIDHeader carries the request id in and out.
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
	principalKey = "principal"
)

// RequestID reuses the caller's X-Request-ID or generates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// AccessLog attaches a request scoped logger to the request context and logs one
// line per request once it is served.
func AccessLog(logger zerolog.Logger) gin.HandlerFunc {
	base := logger.With().Str("module", "http").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		l := base.With().Str("request_id", c.GetString(requestIDKey)).Logger()
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = l.Error()
		case status >= http.StatusBadRequest:
			ev = l.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request served")
	}
}

// CORS allows the configured front-end origins to call the API with cookies.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodDelete, http.MethodPatch, http.MethodPost, http.MethodPut},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", RequestIDHeader},
		ExposeHeaders:    []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		// credentials cannot be combined with a wildcard origin
		cfg.AllowOrigins = nil
		cfg.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(cfg)
}

// Authenticator resolves a session token to its principal.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (service.Principal, error)
}

// RequireAuth rejects requests without a valid, unrevoked session cookie.
func RequireAuth(auth Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			response.WriteError(c, service.ErrUnauthenticated)
			return
		}
		p, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.WriteError(c, err)
			return
		}
		c.Set(principalKey, p)
		l := zerolog.Ctx(c.Request.Context()).With().Int64("user_id", p.UserID).Int64("company_id", p.CompanyID).Logger()
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
		c.Next()
	}
}

// CurrentPrincipal returns the caller set by RequireAuth.
func CurrentPrincipal(c *gin.Context) (service.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return service.Principal{}, false
	}
	p, ok := v.(service.Principal)
	return p, ok
}

// principal is CurrentPrincipal for handlers mounted behind RequireAuth; it writes
// the 401 itself when the caller is missing.
func principal(c *gin.Context) (service.Principal, bool) {
	p, ok := CurrentPrincipal(c)
	if !ok {
		response.WriteError(c, service.ErrUnauthenticated)
	}
	return p, ok
}
