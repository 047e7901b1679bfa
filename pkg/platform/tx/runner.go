package tx

import (
	"context"
	"sync"
)

// Runner executes a function as one atomic commit. The postgres
// implementation opens a database transaction and places it in the
// context, where the stores pick it up; MemoryRunner serializes commits
// behind a single lock instead.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// MemoryRunner is the in-memory stand-in for a database transaction.
// It provides mutual exclusion, not rollback: callers must order their
// work so every fallible step runs before the first mutation.
type MemoryRunner struct {
	mu sync.Mutex
}

func NewMemoryRunner() *MemoryRunner {
	return &MemoryRunner{}
}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}
