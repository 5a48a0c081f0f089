package stock

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"stockshift/internal/core/apperror"
	"stockshift/internal/core/id"
)

// The payload hash covers the fields that define what the caller asked
// for. occurredAt stays out of the hash: a retried request may carry a
// fresh timestamp and still be the same logical operation.

type eventPayload struct {
	Type        EventType     `json:"type"`
	WarehouseID id.ID         `json:"warehouseId"`
	ReasonCode  ReasonCode    `json:"reasonCode"`
	Notes       string        `json:"notes"`
	Lines       []linePayload `json:"lines"`
}

type transferPayload struct {
	OriginWarehouseID      id.ID         `json:"originWarehouseId"`
	DestinationWarehouseID id.ID         `json:"destinationWarehouseId"`
	Notes                  string        `json:"notes"`
	Lines                  []linePayload `json:"lines"`
}

type linePayload struct {
	VariantID id.ID `json:"variantId"`
	Quantity  int64 `json:"quantity"`
}

func canonicalLines(lines []linePayload) []linePayload {
	sorted := make([]linePayload, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.Compare(sorted[i].VariantID.String(), sorted[j].VariantID.String()) < 0
	})
	return sorted
}

func hashPayload(payload any) string {
	raw, err := json.Marshal(payload)
	if err != nil {
		// Payload structs contain only marshalable fields.
		panic(err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// HashEventPayload computes the content hash of an apply-event request.
// Lines are ordered by variant id so equivalent requests hash equally.
func HashEventPayload(in ApplyEventInput) string {
	lines := make([]linePayload, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, linePayload{VariantID: l.VariantID, Quantity: l.Quantity})
	}
	return hashPayload(eventPayload{
		Type:        in.Type,
		WarehouseID: in.WarehouseID,
		ReasonCode:  in.ReasonCode,
		Notes:       strings.TrimSpace(in.Notes),
		Lines:       canonicalLines(lines),
	})
}

// HashTransferPayload computes the content hash of a create-draft request.
func HashTransferPayload(in CreateTransferInput) string {
	lines := make([]linePayload, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, linePayload{VariantID: l.VariantID, Quantity: l.Quantity})
	}
	return hashPayload(transferPayload{
		OriginWarehouseID:      in.OriginWarehouseID,
		DestinationWarehouseID: in.DestinationWarehouseID,
		Notes:                  strings.TrimSpace(in.Notes),
		Lines:                  canonicalLines(lines),
	})
}

// resolveReplay decides the fate of a request whose idempotency key
// already names a stored record. Matching hashes replay the stored
// record; diverging hashes are a conflict.
func resolveReplay(key string, storedHash *string, requestHash string) error {
	if storedHash != nil && *storedHash == requestHash {
		return nil
	}
	return apperror.NewIdempotencyConflict(key)
}
