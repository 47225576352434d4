package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/projecthub-service/internal/service"
	"github.com/maxviazov/projecthub-service/pkg/response"
)

type InvitationHandler struct {
	svc  service.InvitationService
	auth gin.HandlerFunc
}

func NewInvitationHandler(svc service.InvitationService, auth gin.HandlerFunc) *InvitationHandler {
	return &InvitationHandler{svc: svc, auth: auth}
}

func (h *InvitationHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/invitation")
	{
		g.POST("/send-invitation", h.auth, h.send)
		g.GET("/:token", h.verify)
	}
}

func (h *InvitationHandler) send(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in service.SendInvitationInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.svc.Send(c.Request.Context(), p, in)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, out)
}

// verify lets the front-end check a link before showing the registration form.
func (h *InvitationHandler) verify(c *gin.Context) {
	inv, err := h.svc.Verify(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, inv)
}
