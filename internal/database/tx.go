package database

import (
	"context"

	"github.com/uptrace/bun"
)

type txKey struct{}
type hooksKey struct{}

// TxRunner runs a function inside a single database transaction. The
// transaction handle travels in the context so repositories called from the
// closure join it transparently.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type commitHooks struct {
	fns []func(context.Context)
}

func (h *commitHooks) run(ctx context.Context) {
	for _, fn := range h.fns {
		fn(ctx)
	}
}

// AfterCommit defers fn until the outermost transaction on ctx commits. A
// rollback discards it. Side effects that must not outlive a failed
// transaction (event publishes, cache invalidation, counters) go through
// here; a service that registers them cannot tell whether it owns the
// transaction or joined a caller's. Without a transaction in flight fn runs
// immediately.
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	if hooks, ok := ctx.Value(hooksKey{}).(*commitHooks); ok {
		hooks.fns = append(hooks.fns, fn)
		return
	}
	fn(ctx)
}

// DeferHooks arms ctx so AfterCommit collects callbacks instead of running
// them. The returned flush runs the collected callbacks and must only be
// called once the work under ctx has committed. RunInTx uses it around the
// outermost transaction; transaction-shaped test doubles can reuse it.
func DeferHooks(ctx context.Context) (context.Context, func(context.Context)) {
	hooks := &commitHooks{}
	return context.WithValue(ctx, hooksKey{}, hooks), hooks.run
}

// RunInTx starts a transaction on the writer, stores it in the context and
// invokes fn. Nested calls reuse the outer transaction; commit, rollback and
// the AfterCommit hooks stay with the outermost caller.
func (c *Connections) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return fn(ctx)
	}
	hookCtx, flush := DeferHooks(ctx)
	err := c.Writer.RunInTx(hookCtx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	if err != nil {
		return err
	}
	flush(ctx)
	return nil
}

// FromContext resolves the ambient transaction, falling back to the supplied
// connection when no transaction is in flight.
func FromContext(ctx context.Context, fallback bun.IDB) bun.IDB {
	if tx, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return tx
	}
	return fallback
}
