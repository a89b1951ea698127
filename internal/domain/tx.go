package domain

import "context"

type commitHooksKey struct{}

// CommitHooks collects side effects to run once the outermost storage
// transaction commits. Transactor implementations install a fresh list when
// they open a transaction and run it after a successful commit; a rolled-back
// transaction drops its hooks unrun.
type CommitHooks struct {
	fns []func(ctx context.Context)
}

// WithCommitHooks returns ctx carrying a fresh hook list for the transaction
// being opened.
func WithCommitHooks(ctx context.Context) (context.Context, *CommitHooks) {
	hooks := &CommitHooks{}
	return context.WithValue(ctx, commitHooksKey{}, hooks), hooks
}

// Run executes the collected hooks in registration order.
func (h *CommitHooks) Run(ctx context.Context) {
	for _, fn := range h.fns {
		fn(ctx)
	}
}

// OnCommit defers fn until the transaction open in ctx commits. With no
// transaction open, fn runs immediately.
func OnCommit(ctx context.Context, fn func(ctx context.Context)) {
	if hooks, ok := ctx.Value(commitHooksKey{}).(*CommitHooks); ok {
		hooks.fns = append(hooks.fns, fn)
		return
	}
	fn(ctx)
}

// InTransaction reports whether ctx is inside an open storage transaction.
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(commitHooksKey{}).(*CommitHooks)
	return ok
}
