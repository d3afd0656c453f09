// Package store defines the ports the engine reads and writes through.
//
// Each entity collection is exposed as a Store: plain mutations plus a
// subscription feed delivering full per-user snapshots on every change.
// Consumers recompute derived views from the latest snapshot; there is no
// incremental patching contract.
package store

import (
	"context"

	"github.com/google/uuid"

	"tally/internal/core"
)

// Store is the per-entity collection port. Every mutation is a single
// atomic write; a failed write leaves the collection untouched and is
// surfaced to the caller as a core.UpstreamError.
type Store[T any] interface {
	Add(ctx context.Context, item T) error
	Update(ctx context.Context, item T) error
	Remove(ctx context.Context, userID string, id uuid.UUID) error
	Get(ctx context.Context, userID string, id uuid.UUID) (T, error)
	List(ctx context.Context, userID string) ([]T, error)

	// Subscribe registers callbacks for one user's collection. The current
	// snapshot is delivered immediately, then again after every committed
	// mutation. The returned function cancels the subscription; no delivery
	// happens after it returns.
	Subscribe(userID string, onSnapshot func([]T), onError func(error)) (unsubscribe func())
}

type (
	TransactionStore = Store[core.Transaction]
	BudgetStore      = Store[core.Budget]
	RecurrenceStore  = Store[core.RecurrenceDefinition]
	GoalStore        = Store[core.SavingsGoal]
)

// Stores bundles the four collections a deployment owns.
type Stores struct {
	Transactions TransactionStore
	Budgets      BudgetStore
	Recurrences  RecurrenceStore
	Goals        GoalStore
}
