package visit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medicore/hospital-api/internal/handler"
	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/service/visit"
)

type Handler struct {
	service *visit.Service
}

func NewHandler(service *visit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	visits := r.Group("/visits")
	{
		visits.POST("", h.OpenVisit)
		visits.GET("", h.ListVisits)
		visits.GET("/:id", h.GetVisit)
		visits.POST("/:id/vitals", h.RecordVitals)
		visits.POST("/:id/prescription", h.RecordPrescription)
		visits.POST("/:id/cancel", h.CancelVisit)
	}
}

func (h *Handler) OpenVisit(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	var req model.OpenVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	v, err := h.service.Open(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(v))
}

// ListVisits supports ?status=, ?active=true and role-scoped queues.
func (h *Handler) ListVisits(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	filters := &model.VisitFilters{
		Status:     model.VisitStatus(c.Query("status")),
		ActiveOnly: c.Query("active") == "true",
	}
	visits, err := h.service.List(c.Request.Context(), actor, filters)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(visits))
}

func (h *Handler) GetVisit(c *gin.Context) {
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

	v, vital, prescription, err := h.service.Detail(c.Request.Context(), actor, id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"visit":        v,
		"vitals":       vital,
		"prescription": prescription,
	}))
}

func (h *Handler) RecordVitals(c *gin.Context) {
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

	var req model.RecordVitalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	v, err := h.service.RecordVitals(c.Request.Context(), actor, id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(v))
}

func (h *Handler) RecordPrescription(c *gin.Context) {
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

	var req model.RecordPrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	v, err := h.service.RecordPrescription(c.Request.Context(), actor, id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(v))
}

func (h *Handler) CancelVisit(c *gin.Context) {
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

	v, err := h.service.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(v))
}
