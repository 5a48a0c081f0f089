package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockshift/internal/core/apperror"
	"stockshift/internal/core/id"
	"stockshift/internal/domain/stock"
	"stockshift/internal/infrastructure/http/v1/dto"
	"stockshift/internal/infrastructure/storage/postgres"
)

// StockHandler handles HTTP requests for the stock ledger.
type StockHandler struct {
	*BaseHandler
	ledger *stock.Ledger
	audit  *postgres.AuditService
}

// NewStockHandler creates a new stock ledger handler.
func NewStockHandler(base *BaseHandler, ledger *stock.Ledger, audit *postgres.AuditService) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		ledger:      ledger,
		audit:       audit,
	}
}

// ApplyEvent handles POST /stock/warehouses/:warehouseId/events
func (h *StockHandler) ApplyEvent(c *gin.Context) {
	ctx := c.Request.Context()

	warehouseID, ok := h.ParseIDParam(c, "warehouseId")
	if !ok {
		return
	}

	var req dto.ApplyEventRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput(warehouseID, h.IdempotencyKey(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	event, err := h.ledger.ApplyEvent(ctx, input)
	if err != nil {
		h.Error(c, err)
		return
	}

	if h.audit != nil {
		_ = h.audit.Record(ctx, "stock_event", event.ID, postgres.AuditActionApply, event)
	}

	h.Created(c, event.ID.String())
}

// GetEvent handles GET /stock/events/:eventId
func (h *StockHandler) GetEvent(c *gin.Context) {
	eventID, ok := h.ParseIDParam(c, "eventId")
	if !ok {
		return
	}

	event, err := h.ledger.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromEvent(event))
}

// ListEvents handles GET /stock/events
func (h *StockHandler) ListEvents(c *gin.Context) {
	filter, ok := h.parseEventFilter(c)
	if !ok {
		return
	}

	events, err := h.ledger.ListEvents(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:  dto.FromEvents(events),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// GetBalance handles GET /stock/warehouses/:warehouseId/balances/:variantId
func (h *StockHandler) GetBalance(c *gin.Context) {
	warehouseID, ok := h.ParseIDParam(c, "warehouseId")
	if !ok {
		return
	}
	variantID, ok := h.ParseIDParam(c, "variantId")
	if !ok {
		return
	}

	item, err := h.ledger.GetBalance(c.Request.Context(), warehouseID, variantID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromItem(item))
}

// ListBalances handles GET /stock/balances
func (h *StockHandler) ListBalances(c *gin.Context) {
	filter := stock.ItemFilter{
		ExcludeZero: c.Query("excludeZero") != "false",
		Limit:       h.ParseIntQuery(c, "limit", 100),
		Offset:      h.ParseIntQuery(c, "offset", 0),
	}

	if whID, ok, failed := h.optionalIDQuery(c, "warehouseId"); failed {
		return
	} else if ok {
		filter.WarehouseID = &whID
	}
	if vID, ok, failed := h.optionalIDQuery(c, "variantId"); failed {
		return
	} else if ok {
		filter.VariantID = &vID
	}

	items, err := h.ledger.ListBalances(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:  dto.FromItems(items),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

func (h *StockHandler) parseEventFilter(c *gin.Context) (stock.EventFilter, bool) {
	filter := stock.EventFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if t := c.Query("type"); t != "" {
		eventType := stock.EventType(t)
		if !eventType.Valid() {
			h.Error(c, apperror.NewValidation("invalid event type").WithDetail("type", t))
			return filter, false
		}
		filter.Type = &eventType
	}
	if rc := c.Query("reasonCode"); rc != "" {
		reason := stock.ReasonCode(rc)
		filter.ReasonCode = &reason
	}
	if whID, ok, failed := h.optionalIDQuery(c, "warehouseId"); failed {
		return filter, false
	} else if ok {
		filter.WarehouseID = &whID
	}
	if vID, ok, failed := h.optionalIDQuery(c, "variantId"); failed {
		return filter, false
	} else if ok {
		filter.VariantID = &vID
	}
	if from, ok, failed := h.optionalTimeQuery(c, "occurredFrom"); failed {
		return filter, false
	} else if ok {
		filter.OccurredFrom = &from
	}
	if to, ok, failed := h.optionalTimeQuery(c, "occurredTo"); failed {
		return filter, false
	} else if ok {
		filter.OccurredTo = &to
	}

	return filter, true
}

// optionalIDQuery parses an optional UUID query parameter.
// Returns (value, present, failed); failed means an error was registered.
func (h *BaseHandler) optionalIDQuery(c *gin.Context, key string) (id.ID, bool, bool) {
	raw := c.Query(key)
	if raw == "" {
		return id.Nil(), false, false
	}
	parsed, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+key+" format").WithDetail(key, raw))
		return id.Nil(), false, true
	}
	return parsed, true, false
}

// optionalTimeQuery parses an optional RFC3339 query parameter.
func (h *BaseHandler) optionalTimeQuery(c *gin.Context, key string) (time.Time, bool, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, false, false
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+key+" format, expected RFC3339").WithDetail(key, raw))
		return time.Time{}, false, true
	}
	return parsed, true, false
}
