package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/projecthub-service/internal/model"
	"github.com/maxviazov/projecthub-service/internal/service"
	"github.com/maxviazov/projecthub-service/pkg/response"
)

type TaskHandler struct {
	svc service.TaskService
}

func NewTaskHandler(svc service.TaskService) *TaskHandler { return &TaskHandler{svc: svc} }

// Register mounts the task routes; r must already require authentication.
func (h *TaskHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/tasks")
	{
		g.GET("/team", h.list)
		g.POST("/assign-task", h.assign)
		g.PATCH("/update-status/:taskId", h.updateStatus)
		g.PUT("/:taskId", h.update)
		g.DELETE("/:taskId", h.delete)
	}
}

func (h *TaskHandler) list(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	f := service.TaskFilter{
		TeamID:   c.Query("teamId"),
		MemberID: c.Query("memberId"),
		Status:   c.Query("status"),
	}
	response.WritePaginated(c, h.svc.List(c.Request.Context(), p, f, pageParams(c)))
}

func (h *TaskHandler) assign(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in service.AssignTaskInput
	if !bindJSON(c, &in) {
		return
	}
	task, err := h.svc.Assign(c.Request.Context(), p, in)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, task)
}

func (h *TaskHandler) update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var patch model.TaskPatch
	if !bindJSON(c, &patch) {
		return
	}
	task, err := h.svc.Update(c.Request.Context(), p, c.Param("taskId"), patch)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, task)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *TaskHandler) updateStatus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.svc.UpdateStatus(c.Request.Context(), p, c.Param("taskId"), req.Status)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

func (h *TaskHandler) delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), p, c.Param("taskId")); err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, nil)
}
