package handlers

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"stockshift/internal/core/apperror"
	"stockshift/internal/infrastructure/http/v1/dto"
	"stockshift/internal/infrastructure/storage/postgres"
)

var auditEntityTypes = map[string]bool{
	"stock_event":    true,
	"stock_transfer": true,
	"warehouse":      true,
	"variant":        true,
}

// AuditHandler exposes the audit trail for inspection.
type AuditHandler struct {
	*BaseHandler
	audit *postgres.AuditService
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, audit *postgres.AuditService) *AuditHandler {
	return &AuditHandler{BaseHandler: base, audit: audit}
}

// AuditEntryResponse represents one audit record in API responses.
type AuditEntryResponse struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Action     string          `json:"action"`
	ActorID    string          `json:"actorId"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// History handles GET /audit/:entityType/:entityId
func (h *AuditHandler) History(c *gin.Context) {
	entityType := c.Param("entityType")
	if !auditEntityTypes[entityType] {
		h.Error(c, apperror.NewValidation("unknown entity type").WithDetail("entityType", entityType))
		return
	}

	entityID, ok := h.ParseIDParam(c, "entityId")
	if !ok {
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)

	entries, err := h.audit.EntityHistory(c.Request.Context(), entityType, entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryResponse{
			ID:         e.ID.String(),
			EntityType: e.EntityType,
			EntityID:   e.EntityID.String(),
			Action:     string(e.Action),
			ActorID:    e.ActorID,
			Payload:    e.Payload,
			CreatedAt:  e.CreatedAt,
		})
	}

	h.OK(c, dto.ListResponse{Items: out, Limit: limit, Offset: 0})
}
