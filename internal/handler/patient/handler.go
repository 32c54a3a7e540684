package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medicore/hospital-api/internal/handler"
	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/service/patient"
)

type Handler struct {
	service *patient.Service
}

func NewHandler(service *patient.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.RegisterPatient)
		patients.GET("", h.ListPatients)
		patients.GET("/search", h.SearchByAadhar)
		patients.GET("/:id", h.GetPatient)
		patients.PATCH("/:id", h.UpdatePatient)
		patients.GET("/:id/visits", h.VisitHistory)
	}
}

func (h *Handler) RegisterPatient(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	var req model.RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	p, err := h.service.Register(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

func (h *Handler) ListPatients(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	var pagination model.Pagination
	if err := c.ShouldBindQuery(&pagination); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	patients, err := h.service.List(c.Request.Context(), actor, c.Query("search"), pagination)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(patients))
}

// SearchByAadhar is the front-desk lookup: 404 means "register them".
func (h *Handler) SearchByAadhar(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	p, err := h.service.SearchByAadhar(c.Request.Context(), actor, c.Query("aadhar"))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) GetPatient(c *gin.Context) {
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

	p, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) UpdatePatient(c *gin.Context) {
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

	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	p, err := h.service.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) VisitHistory(c *gin.Context) {
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

	visits, err := h.service.History(c.Request.Context(), actor, id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(visits))
}
