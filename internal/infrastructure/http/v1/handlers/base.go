package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"stockshift/internal/core/apperror"
	appctx "stockshift/internal/core/context"
	"stockshift/internal/core/id"
	"stockshift/internal/infrastructure/http/v1/dto"
)

// IdempotencyKeyHeader carries the client-chosen key for replay-safe writes.
const IdempotencyKeyHeader = "X-Idempotency-Key"

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers an error on the Gin context and aborts the request.
// The JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseIntQuery parses an integer query parameter with a default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseIDParam parses a UUID path parameter. Reports false after
// registering a validation error.
func (h *BaseHandler) ParseIDParam(c *gin.Context, name string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(name))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+name+" format").WithDetail(name, c.Param(name)))
		return id.Nil(), false
	}
	return parsed, true
}

// IdempotencyKey reads the X-Idempotency-Key header, trimmed.
// An empty result means the client opted out of replay protection.
func (h *BaseHandler) IdempotencyKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
}

// GetActorID extracts the authenticated actor ID from the request context.
func (h *BaseHandler) GetActorID(c *gin.Context) string {
	return appctx.GetActorID(c.Request.Context())
}

// Created sends a 201 response with the new entity ID.
func (h *BaseHandler) Created(c *gin.Context, id string) {
	c.JSON(http.StatusCreated, dto.IDResponse{ID: id})
}

// OK sends a 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends a 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Success sends a generic success response.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: message})
}
