package database

import (
	"context"
	"log/slog"
	"sync"
)

type commitScopeKey struct{}

// CommitScope collects work that must only happen once the surrounding
// transaction has committed, such as writes to stores outside it.
type CommitScope struct {
	mu    sync.Mutex
	hooks []func(ctx context.Context) error
}

// NewCommitScope returns ctx carrying a fresh scope. A Transactor flushes the
// scope after a successful commit and drops it on rollback.
func NewCommitScope(ctx context.Context) (context.Context, *CommitScope) {
	scope := &CommitScope{}
	return context.WithValue(ctx, commitScopeKey{}, scope), scope
}

// AfterCommit queues fn on the transaction carried by ctx. Outside a
// transaction fn runs immediately and its error is returned.
func AfterCommit(ctx context.Context, fn func(ctx context.Context) error) error {
	scope, ok := ctx.Value(commitScopeKey{}).(*CommitScope)
	if !ok {
		return fn(ctx)
	}
	scope.mu.Lock()
	scope.hooks = append(scope.hooks, fn)
	scope.mu.Unlock()
	return nil
}

// Flush runs the queued hooks in order. Hook failures are logged; the
// transaction they belong to has already committed.
func (s *CommitScope) Flush(ctx context.Context) {
	s.mu.Lock()
	hooks := s.hooks
	s.hooks = nil
	s.mu.Unlock()

	for _, fn := range hooks {
		if err := fn(ctx); err != nil {
			slog.WarnContext(ctx, "After-commit hook failed", "error", err)
		}
	}
}

// Len is the number of hooks waiting for the commit
func (s *CommitScope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hooks)
}
