package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/models"
)

// MemoryProductRepository keeps products in process memory. Used with STORE_BACKEND=memory and in tests.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	nextID   int
	products map[int]models.Product
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		nextID:   1,
		products: make(map[int]models.Product),
	}
}

func (r *MemoryProductRepository) List(_ context.Context, limit, offset int) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int, 0, len(r.products))
	for id := range r.products {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	products := make([]models.Product, 0, limit)
	for i := offset; i < len(ids) && len(products) < limit; i++ {
		products = append(products, r.products[ids[i]])
	}
	return products, nil
}

func (r *MemoryProductRepository) GetByID(_ context.Context, id int) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, apperr.ErrProductNotFound
	}
	return &p, nil
}

func (r *MemoryProductRepository) Create(_ context.Context, attrs models.ProductAttributes) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := models.Product{
		ID:        r.nextID,
		Name:      attrs.Name,
		Price:     attrs.Price,
		CreatedAt: time.Now().UTC(),
	}
	r.products[p.ID] = p
	r.nextID++
	return &p, nil
}

func (r *MemoryProductRepository) Update(_ context.Context, id int, attrs models.ProductAttributes) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, apperr.ErrProductNotFound
	}
	p.Name = attrs.Name
	p.Price = attrs.Price
	r.products[id] = p
	return &p, nil
}

func (r *MemoryProductRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return apperr.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

// MemoryInventoryStore keeps stock records in process memory. Writers to the same
// product serialize on a per-key mutex; different products never block each other.
type MemoryInventoryStore struct {
	mu      sync.RWMutex
	records map[int]models.InventoryRecord
	locks   sync.Map // product id -> *sync.Mutex
}

func NewMemoryInventoryStore() *MemoryInventoryStore {
	return &MemoryInventoryStore{records: make(map[int]models.InventoryRecord)}
}

func (s *MemoryInventoryStore) keyLock(productID int) *sync.Mutex {
	l, _ := s.locks.LoadOrStore(productID, &sync.Mutex{})
	return l.(*sync.Mutex)
}

func (s *MemoryInventoryStore) Get(_ context.Context, productID int) (models.InventoryRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[productID]
	return rec, ok, nil
}

func (s *MemoryInventoryStore) Upsert(_ context.Context, productID, quantity int) (models.InventoryRecord, error) {
	l := s.keyLock(productID)
	l.Lock()
	defer l.Unlock()

	return s.put(productID, quantity), nil
}

func (s *MemoryInventoryStore) Delete(_ context.Context, productID int) (bool, error) {
	l := s.keyLock(productID)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[productID]
	delete(s.records, productID)
	return ok, nil
}

func (s *MemoryInventoryStore) Update(ctx context.Context, productID int, fn func(current int) (int, error)) (int, error) {
	l := s.keyLock(productID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	current := s.records[productID].Quantity
	s.mu.RUnlock()

	next, err := fn(current)
	if err != nil {
		return 0, err
	}
	s.put(productID, next)
	return next, nil
}

func (s *MemoryInventoryStore) ProductIDs(_ context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *MemoryInventoryStore) put(productID, quantity int) models.InventoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := models.InventoryRecord{ProductID: productID, Quantity: quantity, UpdatedAt: time.Now().UTC()}
	s.records[productID] = rec
	return rec
}
