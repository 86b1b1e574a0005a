package audit

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/library-api/internal/changes"
	"github.com/upb/library-api/internal/clock"
	"github.com/upb/library-api/models"
)

// DefaultSystemActor is stamped when no principal is resolved
const DefaultSystemActor = "system"

// ActorResolver resolves the acting principal for a commit.
// Returning false means anonymous; it is not an error.
type ActorResolver interface {
	ResolveActor(ctx context.Context) (uuid.UUID, bool)
}

// ActorResolverFunc adapts a function to ActorResolver
type ActorResolverFunc func(ctx context.Context) (uuid.UUID, bool)

func (f ActorResolverFunc) ResolveActor(ctx context.Context) (uuid.UUID, bool) {
	return f(ctx)
}

// Anonymous never resolves an actor
var Anonymous ActorResolver = ActorResolverFunc(func(context.Context) (uuid.UUID, bool) {
	return uuid.Nil, false
})

// Sink accepts audit trails that must be written in the commit transaction
type Sink interface {
	AddAuditTrails(ctx context.Context, trails []*models.AuditTrail) error
}

// Options configures an Interceptor
type Options struct {
	SystemActor       string
	MaxValueLength    int
	ChangedFieldsOnly bool
}

// Interceptor stamps provenance and derives audit trails. It holds no
// mutable state and may be shared by concurrent units of work.
type Interceptor struct {
	actors            ActorResolver
	clock             clock.Clock
	systemActor       string
	maxValueLength    int
	changedFieldsOnly bool
	logger            *zap.Logger
}

// NewInterceptor creates an Interceptor. A nil resolver is treated as anonymous.
func NewInterceptor(actors ActorResolver, clk clock.Clock, opts Options, logger *zap.Logger) *Interceptor {
	if actors == nil {
		actors = Anonymous
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if opts.SystemActor == "" {
		opts.SystemActor = DefaultSystemActor
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interceptor{
		actors:            actors,
		clock:             clk,
		systemActor:       opts.SystemActor,
		maxValueLength:    opts.MaxValueLength,
		changedFieldsOnly: opts.ChangedFieldsOnly,
		logger:            logger,
	}
}

// SavingChanges stamps every pending entry, then derives the audit trails
// for the commit and hands them to sink.
func (i *Interceptor) SavingChanges(ctx context.Context, entries []*changes.Entry, sink Sink) error {
	now := i.clock.Now().UTC()
	actorID, label := i.resolveActor(ctx)

	for _, e := range entries {
		switch e.State {
		case changes.Added:
			e.Entity.Audit().MarkCreated(now, label)
		case changes.Modified:
			e.Entity.Audit().MarkUpdated(now, label)
		}
	}

	var trails []*models.AuditTrail
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("derive audit trails: %w", err)
		}
		trails = append(trails, i.derive(e, now, actorID)...)
	}

	if len(trails) == 0 {
		return nil
	}

	i.logger.Debug("Audit trails derived",
		zap.Int("entities", len(entries)),
		zap.Int("trails", len(trails)),
		zap.Bool("anonymous", actorID == nil),
	)

	if err := sink.AddAuditTrails(ctx, trails); err != nil {
		return fmt.Errorf("add audit trails: %w", err)
	}
	return nil
}

func (i *Interceptor) resolveActor(ctx context.Context) (*uuid.UUID, string) {
	id, ok := i.actors.ResolveActor(ctx)
	if !ok || id == uuid.Nil {
		return nil, i.systemActor
	}
	return &id, id.String()
}

func (i *Interceptor) derive(e *changes.Entry, now time.Time, actorID *uuid.UUID) []*models.AuditTrail {
	var trailType models.TrailType
	switch e.State {
	case changes.Added:
		trailType = models.TrailTypeCreate
	case changes.Modified:
		trailType = models.TrailTypeUpdate
	case changes.Deleted:
		trailType = models.TrailTypeDelete
	default:
		return nil
	}

	props := e.Properties()
	primaryKey := i.primaryKey(props)
	entityName := e.Entity.EntityName()

	trails := make([]*models.AuditTrail, 0, len(props))
	for _, p := range props {
		var oldValue, newValue *string
		switch trailType {
		case models.TrailTypeCreate:
			newValue = i.format(p, p.Current)
		case models.TrailTypeUpdate:
			oldValue = i.format(p, p.Original)
			newValue = i.format(p, p.Current)
			if i.changedFieldsOnly && unchanged(p, oldValue, newValue) {
				continue
			}
		case models.TrailTypeDelete:
			oldValue = i.format(p, p.Original)
		}

		trails = append(trails, models.NewAuditTrail(entityName, p.Name, trailType, now).
			WithActor(actorID).
			WithPrimaryKey(primaryKey).
			WithValues(oldValue, newValue))
	}
	return trails
}

func (i *Interceptor) primaryKey(props []changes.PropertyEntry) *string {
	for _, p := range props {
		if !p.PrimaryKey {
			continue
		}
		v := p.Current
		if v == nil {
			v = p.Original
		}
		return FormatValue(v, 0)
	}
	return nil
}

func (i *Interceptor) format(p changes.PropertyEntry, v any) *string {
	if p.Redacted {
		return formatRedacted(v, i.maxValueLength)
	}
	return FormatValue(v, i.maxValueLength)
}

// unchanged compares rendered values, or raw values for redacted properties
// whose rendering hides the difference.
func unchanged(p changes.PropertyEntry, oldValue, newValue *string) bool {
	if p.Redacted {
		return reflect.DeepEqual(p.Original, p.Current)
	}
	if oldValue == nil || newValue == nil {
		return oldValue == newValue
	}
	return *oldValue == *newValue
}
