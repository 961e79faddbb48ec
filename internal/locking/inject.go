package locking

import (
	"context"
	"log/slog"

	"github.com/roach88/rowlock/internal/workitem"
)

// awaitInjected waits for a background injected write, if any, and logs how
// it ended. The injected writer's result never changes the outcome of the
// update that triggered it.
func awaitInjected(ctx context.Context, log *slog.Logger, injected <-chan error) {
	if injected == nil {
		return
	}
	if err := <-injected; err != nil {
		log.Warn("injected concurrent write failed", "error", err, "cancelled", ctx.Err() != nil)
		return
	}
	log.Debug("injected concurrent write applied after scope release")
}

// injectBetween runs the injector synchronously in the gap between an
// optimistic read and its compare-and-set.
func (o *options) injectBetween(ctx context.Context, log *slog.Logger, strategy workitem.Strategy, id workitem.ID) error {
	if err := o.injector.ForceConcurrentWrite(ctx, strategy, id); err != nil {
		return &workitem.Error{Code: workitem.ErrCodeStore, Op: "inject concurrent write", Strategy: strategy, ID: id, Err: err}
	}
	log.Debug("injected concurrent write between read and commit")
	return nil
}
