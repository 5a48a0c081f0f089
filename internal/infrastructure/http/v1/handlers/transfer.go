package handlers

import (
	"github.com/gin-gonic/gin"

	"stockshift/internal/core/apperror"
	"stockshift/internal/domain/stock"
	"stockshift/internal/infrastructure/http/v1/dto"
	"stockshift/internal/infrastructure/storage/postgres"
)

// TransferHandler handles HTTP requests for stock transfers.
type TransferHandler struct {
	*BaseHandler
	service *stock.TransferService
	audit   *postgres.AuditService
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(base *BaseHandler, service *stock.TransferService, audit *postgres.AuditService) *TransferHandler {
	return &TransferHandler{
		BaseHandler: base,
		service:     service,
		audit:       audit,
	}
}

// Create handles POST /transfers
func (h *TransferHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateTransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput(h.IdempotencyKey(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	transfer, err := h.service.CreateDraft(ctx, input)
	if err != nil {
		h.Error(c, err)
		return
	}

	if h.audit != nil {
		_ = h.audit.Record(ctx, "stock_transfer", transfer.ID, postgres.AuditActionCreate, transfer)
	}

	h.Created(c, transfer.ID.String())
}

// Confirm handles POST /transfers/:transferId/confirm
func (h *TransferHandler) Confirm(c *gin.Context) {
	ctx := c.Request.Context()

	transferID, ok := h.ParseIDParam(c, "transferId")
	if !ok {
		return
	}

	transfer, err := h.service.Confirm(ctx, transferID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if h.audit != nil {
		_ = h.audit.Record(ctx, "stock_transfer", transfer.ID, postgres.AuditActionConfirm, transfer)
	}

	h.OK(c, dto.FromTransfer(transfer))
}

// Cancel handles POST /transfers/:transferId/cancel
func (h *TransferHandler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()

	transferID, ok := h.ParseIDParam(c, "transferId")
	if !ok {
		return
	}

	transfer, err := h.service.Cancel(ctx, transferID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if h.audit != nil {
		_ = h.audit.Record(ctx, "stock_transfer", transfer.ID, postgres.AuditActionCancel, transfer)
	}

	h.OK(c, dto.FromTransfer(transfer))
}

// Get handles GET /transfers/:transferId
func (h *TransferHandler) Get(c *gin.Context) {
	transferID, ok := h.ParseIDParam(c, "transferId")
	if !ok {
		return
	}

	transfer, err := h.service.GetTransfer(c.Request.Context(), transferID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTransfer(transfer))
}

// List handles GET /transfers
func (h *TransferHandler) List(c *gin.Context) {
	filter := stock.TransferFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if s := c.Query("status"); s != "" {
		status := stock.TransferStatus(s)
		if !status.Valid() {
			h.Error(c, apperror.NewValidation("invalid transfer status").WithDetail("status", s))
			return
		}
		filter.Status = &status
	}
	if origin, ok, failed := h.optionalIDQuery(c, "originWarehouseId"); failed {
		return
	} else if ok {
		filter.OriginWarehouseID = &origin
	}
	if dest, ok, failed := h.optionalIDQuery(c, "destinationWarehouseId"); failed {
		return
	} else if ok {
		filter.DestinationWarehouseID = &dest
	}
	if from, ok, failed := h.optionalTimeQuery(c, "occurredFrom"); failed {
		return
	} else if ok {
		filter.OccurredFrom = &from
	}
	if to, ok, failed := h.optionalTimeQuery(c, "occurredTo"); failed {
		return
	} else if ok {
		filter.OccurredTo = &to
	}

	transfers, err := h.service.ListTransfers(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:  dto.FromTransfers(transfers),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}
