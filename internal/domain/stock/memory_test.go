package stock

import (
	"context"
	"sync"
	"time"

	appctx "stockshift/internal/core/context"
	"stockshift/internal/core/id"
)

// In-memory repositories backing the package tests. They honor the same
// contracts the postgres implementations do: unique idempotency keys,
// conditional version updates and lost-race signaling.

type memEventRepo struct {
	mu     sync.Mutex
	events map[id.ID]*StockEvent
	byKey  map[string]id.ID
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{
		events: make(map[id.ID]*StockEvent),
		byKey:  make(map[string]id.ID),
	}
}

func (r *memEventRepo) Create(_ context.Context, event *StockEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.IdempotencyKey != nil {
		if _, exists := r.byKey[*event.IdempotencyKey]; exists {
			return ErrDuplicateIdempotencyKey
		}
		r.byKey[*event.IdempotencyKey] = event.ID
	}
	clone := *event
	clone.Lines = append([]StockEventLine(nil), event.Lines...)
	r.events[event.ID] = &clone
	return nil
}

func (r *memEventRepo) GetByID(_ context.Context, eventID id.ID) (*StockEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.events[eventID]; ok {
		clone := *e
		return &clone, nil
	}
	return nil, nil
}

func (r *memEventRepo) FindByIdempotencyKey(_ context.Context, key string) (*StockEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if eventID, ok := r.byKey[key]; ok {
		clone := *r.events[eventID]
		return &clone, nil
	}
	return nil, nil
}

func (r *memEventRepo) List(_ context.Context, filter EventFilter) ([]*StockEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*StockEvent
	for _, e := range r.events {
		if filter.Type != nil && e.Type != *filter.Type {
			continue
		}
		if filter.WarehouseID != nil && e.WarehouseID != *filter.WarehouseID {
			continue
		}
		if filter.ReasonCode != nil && e.ReasonCode != *filter.ReasonCode {
			continue
		}
		clone := *e
		out = append(out, &clone)
	}
	return out, nil
}

type memItemRepo struct {
	mu    sync.Mutex
	items map[id.ID]*StockItem
	// failUpdates forces the next N UpdateQuantity calls to report a
	// lost version race.
	failUpdates int
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{items: make(map[id.ID]*StockItem)}
}

func (r *memItemRepo) Find(_ context.Context, warehouseID, variantID id.ID) (*StockItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.WarehouseID == warehouseID && item.VariantID == variantID {
			clone := *item
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memItemRepo) Insert(_ context.Context, item *StockItem) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.WarehouseID == item.WarehouseID && existing.VariantID == item.VariantID {
			return false, nil
		}
	}
	clone := *item
	r.items[item.ID] = &clone
	return true, nil
}

func (r *memItemRepo) UpdateQuantity(_ context.Context, itemID id.ID, newQuantity, observedVersion int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdates > 0 {
		r.failUpdates--
		return false, nil
	}
	item, ok := r.items[itemID]
	if !ok || item.Version != observedVersion {
		return false, nil
	}
	item.Quantity = newQuantity
	item.Version++
	item.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *memItemRepo) List(_ context.Context, filter ItemFilter) ([]StockItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []StockItem
	for _, item := range r.items {
		if filter.WarehouseID != nil && item.WarehouseID != *filter.WarehouseID {
			continue
		}
		if filter.VariantID != nil && item.VariantID != *filter.VariantID {
			continue
		}
		if filter.ExcludeZero && item.Quantity == 0 {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

type memTransferRepo struct {
	mu        sync.Mutex
	transfers map[id.ID]*StockTransfer
	byKey     map[string]id.ID
}

func newMemTransferRepo() *memTransferRepo {
	return &memTransferRepo{
		transfers: make(map[id.ID]*StockTransfer),
		byKey:     make(map[string]id.ID),
	}
}

func (r *memTransferRepo) Create(_ context.Context, transfer *StockTransfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if transfer.IdempotencyKey != nil {
		if _, exists := r.byKey[*transfer.IdempotencyKey]; exists {
			return ErrDuplicateIdempotencyKey
		}
		r.byKey[*transfer.IdempotencyKey] = transfer.ID
	}
	clone := *transfer
	clone.Lines = append([]StockTransferLine(nil), transfer.Lines...)
	r.transfers[transfer.ID] = &clone
	return nil
}

func (r *memTransferRepo) GetByID(_ context.Context, transferID id.ID) (*StockTransfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.transfers[transferID]; ok {
		clone := *t
		clone.Lines = append([]StockTransferLine(nil), t.Lines...)
		return &clone, nil
	}
	return nil, nil
}

func (r *memTransferRepo) FindByIdempotencyKey(_ context.Context, key string) (*StockTransfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if transferID, ok := r.byKey[key]; ok {
		clone := *r.transfers[transferID]
		return &clone, nil
	}
	return nil, nil
}

func (r *memTransferRepo) MarkConfirmed(_ context.Context, transfer *StockTransfer) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.transfers[transfer.ID]
	if !ok || stored.Status != TransferDraft {
		return false, nil
	}
	stored.Status = TransferConfirmed
	stored.ConfirmedBy = transfer.ConfirmedBy
	stored.ConfirmedAt = transfer.ConfirmedAt
	stored.OutboundEventID = transfer.OutboundEventID
	stored.InboundEventID = transfer.InboundEventID
	return true, nil
}

func (r *memTransferRepo) MarkCancelled(_ context.Context, transferID id.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.transfers[transferID]
	if !ok || stored.Status != TransferDraft {
		return false, nil
	}
	stored.Status = TransferCancelled
	return true, nil
}

func (r *memTransferRepo) List(_ context.Context, filter TransferFilter) ([]*StockTransfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*StockTransfer
	for _, t := range r.transfers {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.OriginWarehouseID != nil && t.OriginWarehouseID != *filter.OriginWarehouseID {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	return out, nil
}

type memWarehouseDirectory struct {
	mu         sync.Mutex
	warehouses map[id.ID]*WarehouseRef
}

func newMemWarehouseDirectory() *memWarehouseDirectory {
	return &memWarehouseDirectory{warehouses: make(map[id.ID]*WarehouseRef)}
}

func (d *memWarehouseDirectory) add(code string, active bool) id.ID {
	d.mu.Lock()
	defer d.mu.Unlock()
	warehouseID := id.New()
	d.warehouses[warehouseID] = &WarehouseRef{ID: warehouseID, Code: code, Active: active}
	return warehouseID
}

func (d *memWarehouseDirectory) Get(_ context.Context, warehouseID id.ID) (*WarehouseRef, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w, ok := d.warehouses[warehouseID]; ok {
		clone := *w
		return &clone, nil
	}
	return nil, nil
}

type memVariantCatalog struct {
	mu       sync.Mutex
	variants map[id.ID]*VariantRef
}

func newMemVariantCatalog() *memVariantCatalog {
	return &memVariantCatalog{variants: make(map[id.ID]*VariantRef)}
}

func (c *memVariantCatalog) add(sku string, active bool, expiresAt *time.Time) id.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	variantID := id.New()
	c.variants[variantID] = &VariantRef{ID: variantID, SKU: sku, Active: active, ExpiresAt: expiresAt}
	return variantID
}

func (c *memVariantCatalog) Get(_ context.Context, variantID id.ID) (*VariantRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.variants[variantID]; ok {
		clone := *v
		return &clone, nil
	}
	return nil, nil
}

// memTxManager mimics the transactional contract over the in-memory
// repositories: it serializes writers, snapshots state on begin and
// restores it when the function fails. Nested calls join the enclosing
// transaction.
type memTxManager struct {
	mu        sync.Mutex
	events    *memEventRepo
	items     *memItemRepo
	transfers *memTransferRepo
}

type memTxKey struct{}

func (m *memTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	eventsSnap, keysSnap := m.events.snapshot()
	itemsSnap := m.items.snapshot()
	transfersSnap, transferKeysSnap := m.transfers.snapshot()

	err := fn(context.WithValue(ctx, memTxKey{}, struct{}{}))
	if err != nil {
		m.events.restore(eventsSnap, keysSnap)
		m.items.restore(itemsSnap)
		m.transfers.restore(transfersSnap, transferKeysSnap)
	}
	return err
}

func (r *memEventRepo) snapshot() (map[id.ID]*StockEvent, map[string]id.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make(map[id.ID]*StockEvent, len(r.events))
	for k, v := range r.events {
		events[k] = v
	}
	keys := make(map[string]id.ID, len(r.byKey))
	for k, v := range r.byKey {
		keys[k] = v
	}
	return events, keys
}

func (r *memEventRepo) restore(events map[id.ID]*StockEvent, keys map[string]id.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = events
	r.byKey = keys
}

func (r *memItemRepo) snapshot() map[id.ID]*StockItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make(map[id.ID]*StockItem, len(r.items))
	for k, v := range r.items {
		clone := *v
		items[k] = &clone
	}
	return items
}

func (r *memItemRepo) restore(items map[id.ID]*StockItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = items
}

func (r *memTransferRepo) snapshot() (map[id.ID]*StockTransfer, map[string]id.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	transfers := make(map[id.ID]*StockTransfer, len(r.transfers))
	for k, v := range r.transfers {
		clone := *v
		clone.Lines = append([]StockTransferLine(nil), v.Lines...)
		transfers[k] = &clone
	}
	keys := make(map[string]id.ID, len(r.byKey))
	for k, v := range r.byKey {
		keys[k] = v
	}
	return transfers, keys
}

func (r *memTransferRepo) restore(transfers map[id.ID]*StockTransfer, keys map[string]id.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transfers = transfers
	r.byKey = keys
}

// fixture wires the full domain graph over in-memory storage.
type fixture struct {
	events     *memEventRepo
	items      *memItemRepo
	transfers  *memTransferRepo
	warehouses *memWarehouseDirectory
	variants   *memVariantCatalog
	ledger     *Ledger
	service    *TransferService
}

func newFixture() *fixture {
	f := &fixture{
		events:     newMemEventRepo(),
		items:      newMemItemRepo(),
		transfers:  newMemTransferRepo(),
		warehouses: newMemWarehouseDirectory(),
		variants:   newMemVariantCatalog(),
	}
	txm := &memTxManager{events: f.events, items: f.items, transfers: f.transfers}
	f.ledger = NewLedger(f.events, f.items, f.warehouses, f.variants, txm, DefaultMaxRetries)
	f.service = NewTransferService(f.transfers, f.warehouses, f.variants, f.ledger, txm)
	return f
}

func actorCtx() context.Context {
	return appctx.WithActor(context.Background(), &appctx.ActorContext{
		ActorID: "test-operator",
		Name:    "Test Operator",
		Roles:   []string{"stock:write"},
	})
}
