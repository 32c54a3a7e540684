package staff

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medicore/hospital-api/internal/handler"
	"github.com/medicore/hospital-api/internal/middleware"
	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/service/tenant"
)

type Handler struct {
	service *tenant.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *tenant.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	staff := r.Group("/staff")
	{
		staff.GET("", h.ListStaff)
		staff.POST("", h.InviteStaff)
		staff.PATCH("/:id", h.UpdateStaff)
		staff.DELETE("/:id", h.RemoveStaff)
	}

	departments := r.Group("/departments")
	{
		departments.GET("", h.ListDepartments)
		departments.POST("", h.CreateDepartment)
		departments.DELETE("/:id", h.DeleteDepartment)
	}
}

func (h *Handler) ListStaff(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	profiles, err := h.service.ListStaff(c.Request.Context(), actor)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(profiles))
}

func (h *Handler) InviteStaff(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	var req model.InviteStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	profile, err := h.service.InviteStaff(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(profile))
}

func (h *Handler) UpdateStaff(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}
	id, err := handler.PathUUID(c, "id")
	if err != nil {
		handler.Error(c, err)
		return
	}

	var req model.UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	profile, err := h.service.UpdateStaff(c.Request.Context(), actor, id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	// The cached actor may now carry a stale role.
	h.auth.Forget(id.String())
	c.JSON(http.StatusOK, handler.NewSuccessResponse(profile))
}

func (h *Handler) RemoveStaff(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}
	id, err := handler.PathUUID(c, "id")
	if err != nil {
		handler.Error(c, err)
		return
	}

	if err := h.service.RemoveStaff(c.Request.Context(), actor, id); err != nil {
		handler.Error(c, err)
		return
	}
	h.auth.Forget(id.String())
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ListDepartments(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	departments, err := h.service.ListDepartments(c.Request.Context(), actor)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(departments))
}

func (h *Handler) CreateDepartment(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	var req model.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	department, err := h.service.CreateDepartment(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(department))
}

func (h *Handler) DeleteDepartment(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}
	id, err := handler.PathUUID(c, "id")
	if err != nil {
		handler.Error(c, err)
		return
	}

	if err := h.service.DeleteDepartment(c.Request.Context(), actor, id); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
