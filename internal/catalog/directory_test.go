package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/db"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/models"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/publisher"
)

type topicRecorder struct {
	topics []string
	err    error
}

func (r *topicRecorder) Publish(_ context.Context, topic string, _ int, _ interface{}) error {
	r.topics = append(r.topics, topic)
	return r.err
}

func attrs(name string, price int64) models.ProductAttributes {
	return models.ProductAttributes{Name: name, Price: decimal.NewFromInt(price)}
}

func TestCreateThenGet(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory(db.NewMemoryProductRepository(), &topicRecorder{}, zap.NewNop())

	created, err := d.Create(ctx, attrs("Lap", 1200))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := d.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Lap" || !got.Price.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("unexpected product %+v", got)
	}
}

func TestCreateValidation(t *testing.T) {
	d := NewDirectory(db.NewMemoryProductRepository(), &topicRecorder{}, zap.NewNop())
	for _, a := range []models.ProductAttributes{attrs("  ", 1), attrs("Lap", -1)} {
		if _, err := d.Create(context.Background(), a); apperr.KindOf(err) != apperr.KindValidation {
			t.Fatalf("Create(%+v): expected validation error, got %v", a, err)
		}
	}
}

func TestListDefaultsAndBounds(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory(db.NewMemoryProductRepository(), &topicRecorder{}, zap.NewNop())
	for i := 0; i < 15; i++ {
		d.Create(ctx, attrs("p", 1))
	}

	page, _ := d.List(ctx, 0, 0)
	if len(page) != DefaultLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultLimit, len(page))
	}
	page, _ = d.List(ctx, 3, 13)
	if len(page) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page))
	}
}

func TestUpdateMissing(t *testing.T) {
	d := NewDirectory(db.NewMemoryProductRepository(), &topicRecorder{}, zap.NewNop())
	if _, err := d.Update(context.Background(), 42, attrs("x", 1)); !errors.Is(err, apperr.ErrProductNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeletePublishesEvent(t *testing.T) {
	ctx := context.Background()
	events := &topicRecorder{err: errors.New("broker down")}
	d := NewDirectory(db.NewMemoryProductRepository(), events, zap.NewNop())
	p, _ := d.Create(ctx, attrs("Lap", 1200))

	if err := d.Delete(ctx, p.ID); err != nil {
		t.Fatalf("publish failures must not fail delete: %v", err)
	}
	if len(events.topics) != 1 || events.topics[0] != publisher.ProductDeletedTopic {
		t.Fatalf("unexpected events %v", events.topics)
	}
	if err := d.Delete(ctx, p.ID); !errors.Is(err, apperr.ErrProductNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
	if len(events.topics) != 1 {
		t.Fatalf("failed delete must not publish")
	}
}

// staleCache answers GetByID from a snapshot taken before writes, like a cache
// whose invalidation failed.
type staleCache struct {
	*db.MemoryProductRepository
	snapshot map[int]models.Product
}

func (s *staleCache) GetByID(_ context.Context, id int) (*models.Product, error) {
	if p, ok := s.snapshot[id]; ok {
		return &p, nil
	}
	return nil, apperr.ErrProductNotFound
}

func (s *staleCache) GetByIDUncached(ctx context.Context, id int) (*models.Product, error) {
	return s.MemoryProductRepository.GetByID(ctx, id)
}

func TestLookupSkipsStaleCache(t *testing.T) {
	ctx := context.Background()
	repo := &staleCache{MemoryProductRepository: db.NewMemoryProductRepository(), snapshot: map[int]models.Product{}}
	d := NewDirectory(repo, &topicRecorder{}, zap.NewNop())

	p, err := d.Create(ctx, attrs("Lap", 1200))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	repo.snapshot[p.ID] = *p
	if err := d.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := d.Get(ctx, p.ID); err != nil {
		t.Fatalf("public read is allowed to be stale: %v", err)
	}
	if _, err := d.Lookup(ctx, p.ID); !errors.Is(err, apperr.ErrProductNotFound) {
		t.Fatalf("Lookup must not see a deleted product, got %v", err)
	}
}

func TestLookupWithoutCacheUsesRepository(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory(db.NewMemoryProductRepository(), &topicRecorder{}, zap.NewNop())

	p, _ := d.Create(ctx, attrs("Mouse", 25))
	got, err := d.Lookup(ctx, p.ID)
	if err != nil || got.Name != "Mouse" {
		t.Fatalf("Lookup: %+v %v", got, err)
	}
}
