// Package workflow drives patron requests through their lifecycle. Each step
// is a Transition; the Engine attempts them and writes one audit row per
// attempt.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/ils"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/resolution"
)

type requestRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error)
	Update(ctx context.Context, pr *domain.PatronRequest) error
	GetActiveSupplierRequest(ctx context.Context, patronRequestID uuid.UUID) (*domain.SupplierRequest, error)
	CreateSupplierRequest(ctx context.Context, sr *domain.SupplierRequest) error
	UpdateSupplierRequest(ctx context.Context, sr *domain.SupplierRequest) error
	CreateInactiveSupplierRequest(ctx context.Context, isr domain.InactiveSupplierRequest) error
}

type auditRepo interface {
	Create(ctx context.Context, a domain.PatronRequestAudit) error
}

type patronRepo interface {
	GetPatron(ctx context.Context, id uuid.UUID) (domain.Patron, error)
	GetIdentity(ctx context.Context, id uuid.UUID) (domain.PatronIdentity, error)
	FindVirtualIdentity(ctx context.Context, patronID uuid.UUID, hostLmsCode string) (domain.PatronIdentity, error)
	CreateIdentity(ctx context.Context, pi domain.PatronIdentity) error
	UpdateIdentity(ctx context.Context, pi domain.PatronIdentity) error
}

type agencyRepo interface {
	GetAgency(ctx context.Context, code string) (domain.Agency, error)
}

type locationRepo interface {
	GetLocation(ctx context.Context, id uuid.UUID) (domain.Location, error)
	FindLocationByCode(ctx context.Context, code, hostLmsCode string) (domain.Location, error)
}

type clusterRepo interface {
	GetCluster(ctx context.Context, id uuid.UUID) (domain.BibCluster, error)
}

type mapper interface {
	DeterminePatronType(ctx context.Context, supplyingSystem, requestingSystem, localPatronType string) (string, error)
	ToCanonicalPatronType(ctx context.Context, system, localPatronType string) (string, error)
	LocationToAgency(ctx context.Context, system, locationCode string) (string, error)
	PickupLocationToAgency(ctx context.Context, pickupContext, locationCode string) (string, error)
}

type itemResolver interface {
	Resolve(ctx context.Context, p resolution.Parameters) (resolution.Resolution, error)
}

type clientRegistry interface {
	Lookup(code string) (ils.Client, error)
	Statuses(code string) (*ils.StatusTable, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Transition is one step of the lifecycle.
type Transition interface {
	Name() string
	// IsApplicableFor reports whether the transition can run now. It must not
	// have side effects.
	IsApplicableFor(wc *RequestWorkflowContext) bool
	// Attempt performs the step, mutating wc. On error the request is moved
	// to ERROR by the engine.
	Attempt(ctx context.Context, wc *RequestWorkflowContext) error
}

// Engine attempts transitions and records their outcome.
type Engine struct {
	transitions      []Transition
	builder          *ContextBuilder
	requests         requestRepo
	patrons          patronRepo
	audits           auditRepo
	tx               txManager
	maxMessageLength int
	maxSteps         int
	tracer           trace.Tracer
	now              func() time.Time
	log              *slog.Logger
}

// EngineConfig holds the engine's tunables.
type EngineConfig struct {
	// MaxMessageLength bounds error messages stored on requests and audits.
	MaxMessageLength int
	// MaxSteps bounds the transitions Progress runs in one call.
	MaxSteps int
}

// NewEngine creates an Engine that considers transitions in the given order.
func NewEngine(
	log *slog.Logger,
	cfg EngineConfig,
	builder *ContextBuilder,
	requests requestRepo,
	patrons patronRepo,
	audits auditRepo,
	tx txManager,
	transitions []Transition,
) *Engine {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 10
	}
	return &Engine{
		transitions:      transitions,
		builder:          builder,
		requests:         requests,
		patrons:          patrons,
		audits:           audits,
		tx:               tx,
		maxMessageLength: cfg.MaxMessageLength,
		maxSteps:         cfg.MaxSteps,
		tracer:           otel.Tracer("dcb/workflow"),
		now:              time.Now,
		log:              log.With("service", "workflow"),
	}
}

// Builder returns the engine's context builder.
func (e *Engine) Builder() *ContextBuilder { return e.builder }

// Attempt runs t against wc. A transition that does not apply yields
// domain.ErrTransitionNotApplicable and changes nothing. A failing
// transition moves the request to ERROR, is audited, and is returned as
// *domain.TransitionError.
func (e *Engine) Attempt(ctx context.Context, t Transition, wc *RequestWorkflowContext) error {
	pr := wc.PatronRequest
	if !t.IsApplicableFor(wc) {
		return fmt.Errorf("%s for patron request %s in %s: %w", t.Name(), pr.ID, pr.Status, domain.ErrTransitionNotApplicable)
	}

	ctx, span := e.tracer.Start(ctx, "transition."+t.Name(), trace.WithAttributes(
		attribute.String("dcb.patron_request_id", pr.ID.String()),
		attribute.String("dcb.from_status", string(pr.Status)),
	))
	defer span.End()

	from := pr.Status
	attemptErr := t.Attempt(ctx, wc)
	if attemptErr == nil {
		if err := e.record(ctx, wc, t.Name(), from, nil, nil); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "persist")
			return err
		}
		span.SetAttributes(attribute.String("dcb.to_status", string(pr.Status)))
		e.log.InfoContext(ctx, "transition applied",
			slog.String("patron_request_id", pr.ID.String()),
			slog.String("transition", t.Name()),
			slog.String("from", string(from)),
			slog.String("to", string(pr.Status)),
		)
		return nil
	}

	span.RecordError(attemptErr)
	span.SetStatus(codes.Error, t.Name())

	// Whatever the transition changed before failing is kept so a retry
	// can pick up from there.
	pr.Status = from
	pr.MarkError(attemptErr.Error(), e.maxMessageLength)
	message := domain.Deref(pr.ErrorMessage)

	auditData := map[string]any{}
	if data := ils.AuditDataFrom(attemptErr); data != nil {
		maps.Copy(auditData, data)
	}
	auditData["transition"] = t.Name()

	transitionErr := &domain.TransitionError{
		Transition: t.Name(),
		FromStatus: from,
		Message:    message,
		AuditData:  auditData,
		Cause:      attemptErr,
	}

	e.log.WarnContext(ctx, "transition failed",
		slog.String("patron_request_id", pr.ID.String()),
		slog.String("transition", t.Name()),
		slog.String("from", string(from)),
		slog.String("error", message),
	)

	if err := e.record(ctx, wc, t.Name(), from, &message, auditData); err != nil {
		return errors.Join(transitionErr, err)
	}
	return transitionErr
}

// record persists wc and writes the audit row in one transaction.
func (e *Engine) record(ctx context.Context, wc *RequestWorkflowContext, name string, from domain.Status, brief *string, data map[string]any) error {
	pr := wc.PatronRequest
	if data == nil {
		data = map[string]any{"transition": name}
	}
	return e.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := e.persist(txCtx, wc); err != nil {
			return err
		}
		err := e.audits.Create(txCtx, domain.PatronRequestAudit{
			ID:               uuid.New(),
			PatronRequestID:  pr.ID,
			AuditDate:        e.now().UTC(),
			FromStatus:       from,
			ToStatus:         pr.Status,
			BriefDescription: brief,
			AuditData:        data,
		})
		if err != nil {
			return fmt.Errorf("write audit: %w", err)
		}
		return nil
	})
}

// Save persists wc without an audit row. Tracking uses it to store fresh
// observations before progressing.
func (e *Engine) Save(ctx context.Context, wc *RequestWorkflowContext) error {
	return e.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return e.persist(txCtx, wc)
	})
}

func (e *Engine) persist(ctx context.Context, wc *RequestWorkflowContext) error {
	for _, pi := range wc.createdIdentities {
		if err := e.patrons.CreateIdentity(ctx, pi); err != nil {
			return fmt.Errorf("create identity at %s: %w", pi.HostLmsCode, err)
		}
	}
	for _, pi := range wc.updatedIdentities {
		if err := e.patrons.UpdateIdentity(ctx, pi); err != nil {
			return fmt.Errorf("update identity %s: %w", pi.ID, err)
		}
	}
	for _, isr := range wc.archived {
		if err := e.requests.CreateInactiveSupplierRequest(ctx, isr); err != nil {
			return fmt.Errorf("archive supplier request: %w", err)
		}
	}
	if sr := wc.SupplierRequest; sr != nil {
		switch {
		case wc.supplierCreated:
			if err := e.requests.CreateSupplierRequest(ctx, sr); err != nil {
				return fmt.Errorf("create supplier request: %w", err)
			}
		case wc.supplierChanged:
			if err := e.requests.UpdateSupplierRequest(ctx, sr); err != nil {
				return fmt.Errorf("update supplier request: %w", err)
			}
		}
	}
	if err := e.requests.Update(ctx, wc.PatronRequest); err != nil {
		return fmt.Errorf("update patron request: %w", err)
	}
	wc.clearChanges()
	return nil
}

// Applicable returns the first transition applicable to wc, or nil.
func (e *Engine) Applicable(wc *RequestWorkflowContext) Transition {
	for _, t := range e.transitions {
		if t.IsApplicableFor(wc) {
			return t
		}
	}
	return nil
}

// Progress repeatedly attempts the first applicable transition until none
// applies, one fails, or the step bound is reached. It returns the request
// as last persisted.
func (e *Engine) Progress(ctx context.Context, id uuid.UUID) (*domain.PatronRequest, error) {
	var pr *domain.PatronRequest
	for range e.maxSteps {
		if err := ctx.Err(); err != nil {
			return pr, err
		}
		wc, err := e.builder.Build(ctx, id)
		if err != nil {
			return pr, err
		}
		pr = wc.PatronRequest

		t := e.Applicable(wc)
		if t == nil {
			return pr, nil
		}
		if err := e.Attempt(ctx, t, wc); err != nil {
			return pr, err
		}
	}
	e.log.DebugContext(ctx, "step bound reached",
		slog.String("patron_request_id", id.String()),
		slog.Int("max_steps", e.maxSteps),
	)
	return pr, nil
}
