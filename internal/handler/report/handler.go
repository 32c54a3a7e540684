package report

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medicore/hospital-api/internal/handler"
	"github.com/medicore/hospital-api/internal/service/report"
)

type Handler struct {
	service *report.Service
}

func NewHandler(service *report.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/reports/overview", h.Overview)
}

func (h *Handler) Overview(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	overview, err := h.service.Overview(c.Request.Context(), actor, days)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(overview))
}
