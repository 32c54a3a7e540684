package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medicore/hospital-api/internal/handler"
	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/service/billing"
)

type Handler struct {
	service *billing.Service
}

func NewHandler(service *billing.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/visits/:id/invoice", h.GenerateInvoice)

	invoices := r.Group("/invoices")
	{
		invoices.GET("", h.ListInvoices)
		invoices.GET("/:id", h.GetInvoice)
		invoices.GET("/:id/render", h.RenderInvoice)
	}
}

func (h *Handler) GenerateInvoice(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}
	visitID, err := handler.PathUUID(c, "id")
	if err != nil {
		handler.Error(c, err)
		return
	}

	var req model.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	invoice, err := h.service.Generate(c.Request.Context(), actor, visitID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(invoice))
}

func (h *Handler) ListInvoices(c *gin.Context) {
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

	invoices, err := h.service.List(c.Request.Context(), actor, pagination)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(invoices))
}

func (h *Handler) GetInvoice(c *gin.Context) {
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

	invoice, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(invoice))
}

// RenderInvoice returns the full printable projection.
func (h *Handler) RenderInvoice(c *gin.Context) {
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

	view, err := h.service.Render(c.Request.Context(), actor, id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(view))
}
