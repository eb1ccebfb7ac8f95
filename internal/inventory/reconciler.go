package inventory

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/apperr"
)

// Reconciler periodically removes records whose product the catalog reports
// as gone. A round stops at the first lookup that is not a definite answer.
type Reconciler struct {
	store    Store
	products ProductLookup
	interval time.Duration
	logger   *zap.Logger
}

func NewReconciler(store Store, products ProductLookup, interval time.Duration, logger *zap.Logger) *Reconciler {
	return &Reconciler{store: store, products: products, interval: interval, logger: logger}
}

// Run sweeps every interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := r.Sweep(ctx)
			if err != nil {
				r.logger.Warn("⚠️ Reconcile round aborted", zap.Int("removed", removed), zap.Error(err))
				continue
			}
			r.logger.Info("🔄 Reconcile round complete", zap.Int("removed", removed))
		}
	}
}

// Sweep runs one round and returns how many records it removed.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	ids, err := r.store.ProductIDs(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		err := r.products.Exists(ctx, id)
		switch {
		case err == nil:
			continue
		case errors.Is(err, apperr.ErrUpstreamNotFound):
			ok, err := r.store.Delete(ctx, id)
			if err != nil {
				return removed, err
			}
			if ok {
				removed++
				r.logger.Info("🗑️ Removed orphaned inventory record", zap.Int("product_id", id))
			}
		default:
			return removed, err
		}
	}
	return removed, nil
}
