package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/projecthub-service/internal/service"
	"github.com/maxviazov/projecthub-service/pkg/response"
)

type CompanyHandler struct {
	svc  service.CompanyService
	auth gin.HandlerFunc
}

func NewCompanyHandler(svc service.CompanyService, auth gin.HandlerFunc) *CompanyHandler {
	return &CompanyHandler{svc: svc, auth: auth}
}

func (h *CompanyHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/company")
	{
		g.POST("", h.create)
		g.GET("", h.list)
		g.GET("/info", h.auth, h.info)
		g.DELETE("/:companyId", h.auth, h.delete)
	}
}

func (h *CompanyHandler) create(c *gin.Context) {
	var in service.CreateCompanyInput
	if !bindJSON(c, &in) {
		return
	}
	company, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, company)
}

func (h *CompanyHandler) list(c *gin.Context) {
	companies, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, companies)
}

func (h *CompanyHandler) info(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	company, err := h.svc.Info(c.Request.Context(), p)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, company)
}

// delete only lets a caller remove their own company.
func (h *CompanyHandler) delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	raw := c.Param("companyId")
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id != p.CompanyID {
		response.WriteError(c, service.ErrForbidden)
		return
	}
	company, err := h.svc.Delete(c.Request.Context(), raw)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, company)
}
