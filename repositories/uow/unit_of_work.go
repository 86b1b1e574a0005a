// Package uow implements the unit of work shared by every store: a change
// tracker, save hooks run inside the commit transaction, and a typed registry
// that dispatches tracked entities to their repositories.
package uow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/upb/library-api/internal/audit"
	"github.com/upb/library-api/internal/changes"
	"github.com/upb/library-api/internal/observability"
	"github.com/upb/library-api/models"
	"github.com/upb/library-api/repositories"
)

// Hook runs once per commit attempt after the transaction is opened and
// before any entity write is dispatched.
type Hook interface {
	SavingChanges(ctx context.Context, entries []*changes.Entry, sink audit.Sink) error
}

// Factory creates units of work bound to one store
type Factory struct {
	tx      repositories.TransactionManager
	writers *Registry
	trails  repositories.AuditTrailRepository
	hooks   []Hook
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewFactory creates a unit-of-work factory
func NewFactory(
	tx repositories.TransactionManager,
	writers *Registry,
	trails repositories.AuditTrailRepository,
	metrics *observability.Metrics,
	logger *zap.Logger,
	hooks ...Hook,
) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{
		tx:      tx,
		writers: writers,
		trails:  trails,
		hooks:   hooks,
		metrics: metrics,
		logger:  logger,
	}
}

// New creates a unit of work with an empty tracker
func (f *Factory) New() repositories.UnitOfWork {
	return &UnitOfWork{
		factory: f,
		tracker: changes.NewTracker(),
	}
}

// UnitOfWork tracks changes for a single request. It is not safe for
// concurrent use.
type UnitOfWork struct {
	factory *Factory
	tracker *changes.Tracker
}

func (u *UnitOfWork) Add(entity models.Auditable)    { u.tracker.Add(entity) }
func (u *UnitOfWork) Attach(entity models.Auditable) { u.tracker.Attach(entity) }
func (u *UnitOfWork) Update(entity models.Auditable) { u.tracker.Update(entity) }
func (u *UnitOfWork) Remove(entity models.Auditable) { u.tracker.Remove(entity) }

// Tracker exposes the change tracker
func (u *UnitOfWork) Tracker() *changes.Tracker {
	return u.tracker
}

// SaveChanges commits all pending changes. Hooks, entity writes and audit
// trail inserts share one transaction; on failure nothing is persisted and
// the tracker keeps its pending state.
func (u *UnitOfWork) SaveChanges(ctx context.Context) (int, error) {
	f := u.factory
	start := time.Now()

	u.tracker.DetectChanges()
	pending := u.tracker.Pending()
	if len(pending) == 0 {
		return 0, nil
	}

	buf := &trailBuffer{}
	err := f.tx.InTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
		for _, h := range f.hooks {
			if err := h.SavingChanges(ctx, pending, buf); err != nil {
				return err
			}
		}
		if err := u.dispatch(ctx, pending); err != nil {
			return err
		}
		if len(buf.trails) == 0 {
			return nil
		}
		if err := f.trails.InsertBatch(ctx, buf.trails); err != nil {
			return fmt.Errorf("failed to insert audit trails: %w", err)
		}
		return nil
	})
	if err != nil {
		f.metrics.ObserveSaveChanges("error", time.Since(start))
		f.logger.Warn("save changes failed",
			zap.Int("entities", len(pending)),
			zap.Error(err),
		)
		return 0, err
	}

	u.tracker.AcceptChanges()
	f.metrics.ObserveSaveChanges("success", time.Since(start))
	buf.record(f.metrics)
	f.logger.Debug("changes saved",
		zap.Int("entities", len(pending)),
		zap.Int("audit_trails", len(buf.trails)),
	)
	return len(pending), nil
}

// dispatch writes inserts and updates in tracking order, then deletes in
// reverse order so dependents are removed before their parents.
func (u *UnitOfWork) dispatch(ctx context.Context, pending []*changes.Entry) error {
	var deleted []*changes.Entry
	for _, e := range pending {
		w, err := u.factory.writers.lookup(e.Entity.EntityName())
		if err != nil {
			return err
		}
		switch e.State {
		case changes.Added:
			err = w.insert(ctx, e.Entity)
		case changes.Modified:
			err = w.update(ctx, e.Entity)
		case changes.Deleted:
			deleted = append(deleted, e)
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", e.Entity.EntityName(), err)
		}
	}

	for i := len(deleted) - 1; i >= 0; i-- {
		e := deleted[i]
		w, _ := u.factory.writers.lookup(e.Entity.EntityName())
		if err := w.remove(ctx, e.Entity); err != nil {
			return fmt.Errorf("failed to delete %s: %w", e.Entity.EntityName(), err)
		}
	}
	return nil
}

// trailBuffer collects trails from hooks until entity writes are done
type trailBuffer struct {
	trails []*models.AuditTrail
}

func (b *trailBuffer) AddAuditTrails(_ context.Context, trails []*models.AuditTrail) error {
	b.trails = append(b.trails, trails...)
	return nil
}

func (b *trailBuffer) record(m *observability.Metrics) {
	counts := make(map[[2]string]int)
	for _, t := range b.trails {
		counts[[2]string{t.EntityName, string(t.TrailType)}]++
	}
	for k, n := range counts {
		m.AddAuditTrails(k[0], k[1], n)
	}
}
