package locking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/rowlock/internal/workitem"
)

// Controller assigns work items under one concurrency strategy.
type Controller interface {
	Strategy() workitem.Strategy
	Update(ctx context.Context, id workitem.ID, assignedTo string, forceConflict bool) (workitem.Outcome, error)
}

// ConflictInjector writes a record on behalf of a simulated concurrent
// writer. Implemented by conflict.Injector.
type ConflictInjector interface {
	ForceConcurrentWrite(ctx context.Context, strategy workitem.Strategy, id workitem.ID) error
}

// OpIDGenerator produces correlation ids for log lines of one update.
type OpIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 operation ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

type options struct {
	injector ConflictInjector
	logger   *slog.Logger
	ids      OpIDGenerator
}

// Option configures a controller.
type Option func(*options)

// WithInjector enables forceConflict.
func WithInjector(inj ConflictInjector) Option {
	return func(o *options) { o.injector = inj }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithOpIDGenerator overrides the UUIDv7 operation id generator.
func WithOpIDGenerator(g OpIDGenerator) Option {
	return func(o *options) {
		if g != nil {
			o.ids = g
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger: slog.Default(),
		ids:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// begin starts one update: it assigns an op id, normalises the assignee and
// checks that forceConflict can be honoured.
func (o *options) begin(strategy workitem.Strategy, id workitem.ID, assignedTo string, forceConflict bool) (*slog.Logger, string, error) {
	log := o.logger.With("op_id", o.ids.Generate(), "strategy", string(strategy), "id", int64(id))

	assignee, err := workitem.NormalizeAssignee(assignedTo)
	if err != nil {
		return log, "", err
	}

	if forceConflict && o.injector == nil {
		return log, "", &workitem.Error{
			Code:     workitem.ErrCodeInjectorDisabled,
			Op:       "update",
			Strategy: strategy,
			ID:       id,
			Err:      fmt.Errorf("forceConflict requested but no conflict injector is configured"),
		}
	}

	log.Debug("update started", "assigned_to", assignee, "force_conflict", forceConflict)
	return log, assignee, nil
}

// finish logs the outcome and converts err into it.
func finish(log *slog.Logger, err error) (workitem.Outcome, error) {
	outcome := workitem.OutcomeOf(err)
	switch outcome {
	case workitem.Success:
		log.Info("update committed")
	case workitem.NotFound:
		log.Info("update target not found")
	case workitem.Conflict:
		log.Warn("update rejected: resource was already modified", "error", err)
	default:
		log.Error("update failed", "error", err, "code", string(workitem.CodeOf(err)))
	}
	return outcome, err
}

// Set holds one controller per strategy over a shared store.
type Set struct {
	controllers map[workitem.Strategy]Controller
}

// NewSet builds all three controllers with the same options.
func NewSet(st Store, opts ...Option) *Set {
	return &Set{controllers: map[workitem.Strategy]Controller{
		workitem.Pessimistic:      NewPessimistic(st, opts...),
		workitem.RowVersion:       NewRowVersion(st, opts...),
		workitem.ConcurrencyToken: NewConcurrencyToken(st, opts...),
	}}
}

// For returns the controller for a strategy.
func (s *Set) For(strategy workitem.Strategy) (Controller, error) {
	c, ok := s.controllers[strategy]
	if !ok {
		return nil, fmt.Errorf("no controller for strategy %q", strategy)
	}
	return c, nil
}

// Update dispatches to the controller for strategy. An unknown strategy is
// a Failure.
func (s *Set) Update(ctx context.Context, strategy workitem.Strategy, id workitem.ID, assignedTo string, forceConflict bool) (workitem.Outcome, error) {
	c, err := s.For(strategy)
	if err != nil {
		return workitem.Failure, err
	}
	return c.Update(ctx, id, assignedTo, forceConflict)
}
