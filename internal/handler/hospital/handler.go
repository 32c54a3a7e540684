package hospital

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medicore/hospital-api/internal/handler"
	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/service/tenant"
)

type Handler struct {
	service *tenant.Service
}

func NewHandler(service *tenant.Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes mounts the unauthenticated signup endpoint.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/hospitals", h.RegisterHospital)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.PATCH("/hospitals/me", h.UpdateHospital)
}

func (h *Handler) RegisterHospital(c *gin.Context) {
	var req model.RegisterHospitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	hospital, err := h.service.RegisterHospital(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(hospital))
}

func (h *Handler) UpdateHospital(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	var req model.UpdateHospitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	hospital, err := h.service.UpdateHospital(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(hospital))
}
