package handlers

import (
	"github.com/gin-gonic/gin"

	"stockshift/internal/domain/catalogs/warehouse"
	"stockshift/internal/infrastructure/http/v1/dto"
	"stockshift/internal/infrastructure/storage/postgres"
)

// WarehouseHandler handles HTTP requests for the warehouse catalog.
type WarehouseHandler struct {
	*BaseHandler
	service *warehouse.Service
	audit   *postgres.AuditService
}

// NewWarehouseHandler creates a new warehouse handler.
func NewWarehouseHandler(base *BaseHandler, service *warehouse.Service, audit *postgres.AuditService) *WarehouseHandler {
	return &WarehouseHandler{
		BaseHandler: base,
		service:     service,
		audit:       audit,
	}
}

// Create handles POST /warehouses
func (h *WarehouseHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateWarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	w, err := h.service.Create(ctx, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	if h.audit != nil {
		_ = h.audit.Record(ctx, "warehouse", w.ID, postgres.AuditActionCreate, w)
	}

	h.Created(c, w.ID.String())
}

// Update handles PATCH /warehouses/:warehouseId
func (h *WarehouseHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	warehouseID, ok := h.ParseIDParam(c, "warehouseId")
	if !ok {
		return
	}

	var req dto.UpdateWarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	w, err := h.service.Update(ctx, warehouseID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	if h.audit != nil {
		_ = h.audit.Record(ctx, "warehouse", w.ID, postgres.AuditActionUpdate, w)
	}

	h.OK(c, dto.FromWarehouse(w))
}

// Get handles GET /warehouses/:warehouseId
func (h *WarehouseHandler) Get(c *gin.Context) {
	warehouseID, ok := h.ParseIDParam(c, "warehouseId")
	if !ok {
		return
	}

	w, err := h.service.Get(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromWarehouse(w))
}

// List handles GET /warehouses
func (h *WarehouseHandler) List(c *gin.Context) {
	filter := warehouse.ListFilter{
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
		Items:  dto.FromWarehouses(list),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}
