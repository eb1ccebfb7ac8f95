package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/db"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/models"
)

type fakeLookup struct {
	mu      sync.Mutex
	known   map[int]bool
	err     error
	lookups int
}

func newLookup(ids ...int) *fakeLookup {
	l := &fakeLookup{known: make(map[int]bool)}
	for _, id := range ids {
		l.known[id] = true
	}
	return l
}

func (f *fakeLookup) Exists(_ context.Context, productID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.err != nil {
		return f.err
	}
	if !f.known[productID] {
		return apperr.ErrUpstreamNotFound
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.InventoryChangedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, _ int, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.(models.InventoryChangedEvent))
	return nil
}

func newLedger(lookup ProductLookup) (*Ledger, *db.MemoryInventoryStore, *recordingPublisher) {
	store := db.NewMemoryInventoryStore()
	pub := &recordingPublisher{}
	return NewLedger(store, lookup, pub, zap.NewNop()), store, pub
}

func TestLedgerLapScenario(t *testing.T) {
	ctx := context.Background()
	ledger, _, pub := newLedger(newLookup(2))

	if q, err := ledger.SetStock(ctx, 2, 8); err != nil || q != 8 {
		t.Fatalf("SetStock = %d, %v", q, err)
	}
	if q, err := ledger.GetStock(ctx, 2); err != nil || q != 8 {
		t.Fatalf("GetStock = %d, %v", q, err)
	}
	if q, err := ledger.Purchase(ctx, 2, 3); err != nil || q != 5 {
		t.Fatalf("Purchase = %d, %v", q, err)
	}
	if _, err := ledger.Purchase(ctx, 2, 10); !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if q, _ := ledger.GetStock(ctx, 2); q != 5 {
		t.Fatalf("stock changed after rejected purchase: %d", q)
	}

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	if e := pub.events[1]; e.Reason != models.ReasonPurchase || e.Delta != -3 || e.Quantity != 5 {
		t.Fatalf("unexpected purchase event %+v", e)
	}
}

func TestLedgerUnknownProductIsNotFoundWithoutMutation(t *testing.T) {
	ctx := context.Background()
	ledger, store, _ := newLedger(newLookup(2))

	if _, err := ledger.GetStock(ctx, 999); !errors.Is(err, apperr.ErrUpstreamNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := ledger.SetStock(ctx, 999, 4); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := ledger.Purchase(ctx, 999, 1); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if ids, _ := store.ProductIDs(ctx); len(ids) != 0 {
		t.Fatalf("store mutated: %v", ids)
	}
}

func TestLedgerKnownProductWithoutRecordHasZeroStock(t *testing.T) {
	ledger, _, _ := newLedger(newLookup(7))
	if q, err := ledger.GetStock(context.Background(), 7); err != nil || q != 0 {
		t.Fatalf("GetStock = %d, %v", q, err)
	}
}

func TestLedgerDependencyUnavailable(t *testing.T) {
	lookup := newLookup(2)
	lookup.err = apperr.Unavailable(errors.New("connection refused"))
	ledger, store, _ := newLedger(lookup)

	_, err := ledger.SetStock(context.Background(), 2, 3)
	if apperr.KindOf(err) != apperr.KindDependencyUnavailable {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
	if _, found, _ := store.Get(context.Background(), 2); found {
		t.Fatalf("store mutated while dependency was down")
	}
}

func TestLedgerValidation(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newLedger(newLookup(2))

	for _, amount := range []int{0, -1} {
		_, err := ledger.Purchase(ctx, 2, amount)
		if apperr.KindOf(err) != apperr.KindValidation || apperr.DetailOf(err) != "quantity must be > 0" {
			t.Fatalf("Purchase(%d): unexpected error %v", amount, err)
		}
	}
	if _, err := ledger.SetStock(ctx, 2, -5); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("negative set must be rejected, got %v", err)
	}
	if _, err := ledger.GetStock(ctx, 0); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("non-positive id must be rejected, got %v", err)
	}
}

func TestLedgerPurchaseWithoutRecordIsInsufficient(t *testing.T) {
	ctx := context.Background()
	ledger, store, _ := newLedger(newLookup(3))

	if _, err := ledger.Purchase(ctx, 3, 1); !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if _, found, _ := store.Get(ctx, 3); found {
		t.Fatalf("rejected purchase created a record")
	}
}

func TestLedgerConcurrentPurchasesSerialize(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newLedger(newLookup(1))
	if _, err := ledger.SetStock(ctx, 1, 5); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.Purchase(ctx, 1, 3)
		}(i)
	}
	wg.Wait()

	ok, insufficient := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperr.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 || insufficient != 1 {
		t.Fatalf("expected one success and one insufficient, got %d/%d", ok, insufficient)
	}
	if q, _ := ledger.GetStock(ctx, 1); q != 2 {
		t.Fatalf("expected stock 2, got %d", q)
	}
}

func TestRemoveProduct(t *testing.T) {
	ctx := context.Background()
	ledger, store, _ := newLedger(newLookup(4))
	store.Upsert(ctx, 4, 9)

	if err := ledger.RemoveProduct(ctx, 4); err != nil {
		t.Fatalf("RemoveProduct: %v", err)
	}
	if err := ledger.RemoveProduct(ctx, 4); err != nil {
		t.Fatalf("removing twice should be a no-op: %v", err)
	}
	if _, found, _ := store.Get(ctx, 4); found {
		t.Fatalf("record still present")
	}
}
