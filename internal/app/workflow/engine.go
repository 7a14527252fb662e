// Package workflow drives sessions, seances and participations through
// their lifecycles. Each exported operation runs in one transaction; the
// cascades it triggers run inside the same transaction as direct calls.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/coursehub/internal/domain/errs"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "coursehub/workflow"

type correlationKey struct{}

// Stores bundles the storage ports.
type Stores struct {
	Sessions       SessionStore
	Seances        SeanceStore
	Groups         GroupStore
	Participations ParticipationStore
	Lines          SubscriptionLineStore
	Stakeholders   StakeholderStore
	Requests       RequestStore
	Offers         OfferStore
	Suppliers      SupplierDirectory
}

// Collaborators bundles the external systems the workflow triggers.
type Collaborators struct {
	Procurement Procurement
	Invoicing   Invoicing
	Notifier    Notifier
	Reporter    Reporter
	Holidays    HolidayCalendar
}

// Options tune engine behavior.
type Options struct {
	// LocationHint is passed to the procurement collaborator with every order.
	LocationHint string
	// Now is the clock. Defaults to time.Now in UTC.
	Now func() time.Time
}

// Engine implements the session and seance state machines, the
// participation ledger and the availability read model.
type Engine struct {
	tx       Transactor
	st       Stores
	co       Collaborators
	audit    Auditor
	log      *zap.Logger
	tracer   trace.Tracer
	validate *validator.Validate
	opts     Options
}

// New constructs an Engine. audit may be nil.
func New(tx Transactor, st Stores, co Collaborators, audit Auditor, logger *zap.Logger, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		tx:       tx,
		st:       st,
		co:       co,
		audit:    audit,
		log:      logger,
		tracer:   otel.Tracer(tracerName),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		opts:     opts,
	}
}

// op runs fn as one top-level operation: a span, a transaction, and one log
// line on failure. Guard failures log at Warn; anything else at Error.
func (e *Engine) op(ctx context.Context, entity string, id primitive.ObjectID, name string, fn func(ctx context.Context) error) error {
	corr := uuid.NewString()
	ctx, span := e.tracer.Start(ctx, entity+"."+name, trace.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("id", id.Hex()),
		attribute.String("event", name),
		attribute.String("correlation_id", corr),
	))
	defer span.End()
	ctx = context.WithValue(ctx, correlationKey{}, corr)

	err := e.tx.Run(ctx, fn)
	if err == nil {
		return nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	fields := []zap.Field{
		zap.String("entity", entity),
		zap.String("id", id.Hex()),
		zap.String("event", name),
		zap.String("correlation_id", corr),
		zap.Error(err),
	}
	switch errs.CodeOf(err) {
	case errs.CodePrecondition, errs.CodeInvariant, errs.CodeUnsupported, errs.CodeNotFound:
		e.log.Warn("workflow operation rejected", fields...)
	default:
		e.log.Error("workflow operation failed", fields...)
	}
	return err
}

// transitioned logs and audits a committed top-level transition.
func (e *Engine) transitioned(ctx context.Context, rec TransitionRecord) {
	rec.CorrelationID, _ = ctx.Value(correlationKey{}).(string)
	e.log.Info("transition applied",
		zap.String("entity", rec.Entity),
		zap.String("id", rec.ID.Hex()),
		zap.String("event", rec.Event),
		zap.String("from", rec.From),
		zap.String("to", rec.To),
		zap.String("correlation_id", rec.CorrelationID))
	if e.audit != nil {
		e.audit.Transition(ctx, rec)
	}
}

// check runs struct validation and converts failures into an invariant
// violation naming the first offending field.
func (e *Engine) check(v any) error {
	err := e.validate.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return fmt.Errorf("validate: %w", err)
	}
	fe := ves[0]
	switch fe.Tag() {
	case "ltefield":
		return errs.Invariant("%s must not exceed %s", snake(fe.Field()), snake(fe.Param()))
	case "required":
		return errs.Invariant("%s is required", snake(fe.Field()))
	case "gte":
		return errs.Invariant("%s must be at least %s", snake(fe.Field()), fe.Param())
	default:
		return errs.Invariant("%s is invalid (%s)", snake(fe.Field()), fe.Tag())
	}
}

// snake turns MinLimit into min_limit for error messages.
func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ignorePrecondition turns a guard failure into a no-op. Cascaded signals
// behave like workflow signals: they apply when the target accepts them
// and are dropped otherwise.
func ignorePrecondition(err error) error {
	if errors.Is(err, errs.ErrPrecondition) {
		return nil
	}
	return err
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
