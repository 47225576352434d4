package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/projecthub-service/internal/service"
	"github.com/maxviazov/projecthub-service/pkg/response"
)

type ProjectHandler struct {
	svc service.ProjectService
}

func NewProjectHandler(svc service.ProjectService) *ProjectHandler { return &ProjectHandler{svc: svc} }

// Register mounts the project routes; r must already require authentication.
func (h *ProjectHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/projects")
	{
		g.GET("/company", h.list)
		g.GET("/details", h.details)
		g.POST("", h.create)
		g.DELETE("", h.delete)
	}
}

func (h *ProjectHandler) list(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	response.WritePaginated(c, h.svc.List(c.Request.Context(), p, pageParams(c)))
}

func (h *ProjectHandler) details(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	project, err := h.svc.Details(c.Request.Context(), p, c.Query("projectId"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, project)
}

func (h *ProjectHandler) create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in service.CreateProjectInput
	if !bindJSON(c, &in) {
		return
	}
	project, err := h.svc.Create(c.Request.Context(), p, in)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, project)
}

func (h *ProjectHandler) delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	project, err := h.svc.Delete(c.Request.Context(), p, c.Query("projectId"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, project)
}
