package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/projecthub-service/internal/model"
	"github.com/maxviazov/projecthub-service/internal/service"
	"github.com/maxviazov/projecthub-service/pkg/response"
)

type UserHandler struct {
	svc    service.UserService
	auth   gin.HandlerFunc
	cookie CookieOptions
}

func NewUserHandler(svc service.UserService, auth gin.HandlerFunc, cookie CookieOptions) *UserHandler {
	return &UserHandler{svc: svc, auth: auth, cookie: cookie}
}

func (h *UserHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/users")
	{
		g.POST("/login", h.login)
		g.POST("/logout", h.logout)
		g.POST("/register", h.register)
		g.POST("/register-invite-user", h.registerInvited)
		g.GET("/check-token", h.checkToken)

		g.GET("/info", h.auth, h.me)
		g.GET("/company-users", h.auth, h.list)
		g.POST("", h.auth, h.create)
		g.GET("/:userId", h.auth, h.get)
		g.PATCH("/:userId", h.auth, h.update)
		g.DELETE("/:userId", h.auth, h.delete)
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHandler) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	h.cookie.set(c, sess.Token, sess.ExpiresAt, http.SameSiteLaxMode)
	response.WriteData(c, http.StatusOK, gin.H{"name": sess.User.Name})
}

// logout revokes the token when there is one; the cookie is cleared either way.
func (h *UserHandler) logout(c *gin.Context) {
	token, _ := c.Cookie(h.cookie.name())
	h.cookie.clear(c)
	if token != "" {
		if err := h.svc.Logout(c.Request.Context(), token); err != nil {
			response.WriteError(c, err)
			return
		}
	}
	response.WriteData(c, http.StatusOK, nil)
}

func (h *UserHandler) register(c *gin.Context) {
	var in service.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	sess, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	h.cookie.set(c, sess.Token, sess.ExpiresAt, http.SameSiteStrictMode)
	response.WriteData(c, http.StatusCreated, sess.User)
}

func (h *UserHandler) registerInvited(c *gin.Context) {
	var in service.InvitedRegistration
	if !bindJSON(c, &in) {
		return
	}
	sess, err := h.svc.RegisterInvited(c.Request.Context(), in)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	h.cookie.set(c, sess.Token, sess.ExpiresAt, http.SameSiteStrictMode)
	response.WriteData(c, http.StatusCreated, sess.User)
}

func (h *UserHandler) checkToken(c *gin.Context) {
	token, _ := c.Cookie(h.cookie.name())
	if err := h.svc.CheckToken(c.Request.Context(), token); err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, true)
}

func (h *UserHandler) me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	u, err := h.svc.Me(c.Request.Context(), p)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, u)
}

func (h *UserHandler) list(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	page := h.svc.List(c.Request.Context(), p, pageParams(c), c.Query("query"))
	response.WritePaginated(c, page)
}

func (h *UserHandler) create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in service.CreateUserInput
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.svc.Create(c.Request.Context(), p, in)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, u)
}

func (h *UserHandler) get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	u, err := h.svc.Get(c.Request.Context(), p, c.Param("userId"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, u)
}

func (h *UserHandler) update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var patch model.UserPatch
	if !bindJSON(c, &patch) {
		return
	}
	u, err := h.svc.Update(c.Request.Context(), p, c.Param("userId"), patch)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, u)
}

func (h *UserHandler) delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	u, err := h.svc.Delete(c.Request.Context(), p, c.Param("userId"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, u)
}
