package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/projecthub-service/internal/service"
	"github.com/maxviazov/projecthub-service/pkg/response"
)

// bindJSON decodes the body into dst and writes a Validation Error when it cannot.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		// parse internals are not echoed back
		response.WriteError(c, service.NewInvalidInputError([]service.FieldError{{Field: "body", Message: "malformed JSON"}}))
		return false
	}
	return true
}

// pageParams collects the listing query values shared by every paginated route.
func pageParams(c *gin.Context) service.PageParams {
	return service.PageParams{
		Page:    c.Query("page"),
		Limit:   c.Query("limit"),
		SortBy:  c.Query("sortBy"),
		SortDir: c.Query("sortDir"),
	}
}

// CookieOptions controls the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
}

func (o CookieOptions) name() string {
	if o.Name == "" {
		return "token"
	}
	return o.Name
}

func (o CookieOptions) set(c *gin.Context, token string, expires time.Time, sameSite http.SameSite) {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(sameSite)
	c.SetCookie(o.name(), token, maxAge, "/", "", o.Secure, true)
}

func (o CookieOptions) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(o.name(), "", -1, "/", "", o.Secure, true)
}
