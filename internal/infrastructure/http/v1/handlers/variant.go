package handlers

import (
	"github.com/gin-gonic/gin"

	"stockshift/internal/domain/catalogs/variant"
	"stockshift/internal/infrastructure/http/v1/dto"
	"stockshift/internal/infrastructure/storage/postgres"
)

// VariantHandler handles HTTP requests for the variant catalog.
type VariantHandler struct {
	*BaseHandler
	service *variant.Service
	audit   *postgres.AuditService
}

// NewVariantHandler creates a new variant handler.
func NewVariantHandler(base *BaseHandler, service *variant.Service, audit *postgres.AuditService) *VariantHandler {
	return &VariantHandler{
		BaseHandler: base,
		service:     service,
		audit:       audit,
	}
}

// Create handles POST /variants
func (h *VariantHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateVariantRequest
	if !h.BindJSON(c, &req) {
		return
	}

	v, err := h.service.Create(ctx, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	if h.audit != nil {
		_ = h.audit.Record(ctx, "variant", v.ID, postgres.AuditActionCreate, v)
	}

	h.Created(c, v.ID.String())
}

// Update handles PATCH /variants/:variantId
func (h *VariantHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	variantID, ok := h.ParseIDParam(c, "variantId")
	if !ok {
		return
	}

	var req dto.UpdateVariantRequest
	if !h.BindJSON(c, &req) {
		return
	}

	v, err := h.service.Update(ctx, variantID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	if h.audit != nil {
		_ = h.audit.Record(ctx, "variant", v.ID, postgres.AuditActionUpdate, v)
	}

	h.OK(c, dto.FromVariant(v))
}

// Get handles GET /variants/:variantId
func (h *VariantHandler) Get(c *gin.Context) {
	variantID, ok := h.ParseIDParam(c, "variantId")
	if !ok {
		return
	}

	v, err := h.service.Get(c.Request.Context(), variantID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromVariant(v))
}

// List handles GET /variants
func (h *VariantHandler) List(c *gin.Context) {
	filter := variant.ListFilter{
		Search: c.Query("search"),
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if a := c.Query("active"); a != "" {
		active := a != "false"
		filter.Active = &active
	}

	list, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:  dto.FromVariants(list),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}
