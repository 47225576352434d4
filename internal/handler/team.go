package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/projecthub-service/internal/model"
	"github.com/maxviazov/projecthub-service/internal/service"
	"github.com/maxviazov/projecthub-service/pkg/response"
)

type TeamHandler struct {
	svc service.TeamService
}

func NewTeamHandler(svc service.TeamService) *TeamHandler { return &TeamHandler{svc: svc} }

// Register mounts the team routes; r must already require authentication.
func (h *TeamHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/teams")
	{
		g.GET("/project/:projectId", h.list)
		g.POST("", h.create)
		g.PATCH("/add-member/:teamId", h.addMembers)
		g.DELETE("/remove-member", h.removeMember)
		g.DELETE("/clear/:teamId", h.clearMembers)
		g.GET("/:teamId", h.details)
		g.PATCH("/:teamId", h.update)
		g.DELETE("/:teamId", h.delete)
	}
}

func (h *TeamHandler) list(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	response.WritePaginated(c, h.svc.List(c.Request.Context(), p, c.Param("projectId"), pageParams(c)))
}

func (h *TeamHandler) create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in service.CreateTeamInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.svc.Create(c.Request.Context(), p, in)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, out)
}

func (h *TeamHandler) details(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	team, err := h.svc.Details(c.Request.Context(), p, c.Param("teamId"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, team)
}

func (h *TeamHandler) update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var patch model.TeamPatch
	if !bindJSON(c, &patch) {
		return
	}
	team, err := h.svc.Update(c.Request.Context(), p, c.Param("teamId"), patch)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, team)
}

func (h *TeamHandler) delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	out, err := h.svc.Delete(c.Request.Context(), p, c.Param("teamId"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

type addMembersRequest struct {
	Members []service.MemberInput `json:"members"`
}

func (h *TeamHandler) addMembers(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req addMembersRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.svc.AddMembers(c.Request.Context(), p, c.Param("teamId"), req.Members)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

func (h *TeamHandler) removeMember(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	out, err := h.svc.RemoveMember(c.Request.Context(), p, c.Query("teamId"), c.Query("teamMemberId"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

func (h *TeamHandler) clearMembers(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	n, err := h.svc.ClearMembers(c.Request.Context(), p, c.Param("teamId"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"removedMembers": n})
}
