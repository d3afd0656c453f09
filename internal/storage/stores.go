package storage

import (
	"context"

	"github.com/google/uuid"

	"tally/internal/core"
	"tally/internal/store"
)

// repoOps is the per-entity slice of Repository a sqliteStore drives.
type repoOps[T any] struct {
	insert func(ctx context.Context, item T) error
	update func(ctx context.Context, item T) error
	delete func(ctx context.Context, userID string, id uuid.UUID) error
	get    func(ctx context.Context, userID string, id uuid.UUID) (T, error)
	list   func(ctx context.Context, userID string) ([]T, error)
}

// sqliteStore adapts the Repository to store.Store. After each committed
// mutation it re-reads the owner's collection and publishes the snapshot
// on the feed; a failed re-read reaches subscribers through onError.
type sqliteStore[T any] struct {
	ops   repoOps[T]
	owner func(T) string
	feed  *store.Feed[T]
	op    string
}

func (s *sqliteStore[T]) Add(ctx context.Context, item T) error {
	if err := s.ops.insert(ctx, item); err != nil {
		return core.WrapStore(s.op+".add", err)
	}
	s.publish(ctx, s.owner(item))
	return nil
}

func (s *sqliteStore[T]) Update(ctx context.Context, item T) error {
	if err := s.ops.update(ctx, item); err != nil {
		return core.WrapStore(s.op+".update", err)
	}
	s.publish(ctx, s.owner(item))
	return nil
}

func (s *sqliteStore[T]) Remove(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.ops.delete(ctx, userID, id); err != nil {
		return core.WrapStore(s.op+".remove", err)
	}
	s.publish(ctx, userID)
	return nil
}

func (s *sqliteStore[T]) Get(ctx context.Context, userID string, id uuid.UUID) (T, error) {
	item, err := s.ops.get(ctx, userID, id)
	if err != nil {
		var zero T
		return zero, core.WrapStore(s.op+".get", err)
	}
	return item, nil
}

func (s *sqliteStore[T]) List(ctx context.Context, userID string) ([]T, error) {
	items, err := s.ops.list(ctx, userID)
	if err != nil {
		return nil, core.WrapStore(s.op+".list", err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (s *sqliteStore[T]) Subscribe(userID string, onSnapshot func([]T), onError func(error)) func() {
	cancel := s.feed.Subscribe(userID, onSnapshot, onError)
	items, err := s.List(context.Background(), userID)
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return cancel
	}
	if onSnapshot != nil {
		onSnapshot(items)
	}
	return cancel
}

func (s *sqliteStore[T]) publish(ctx context.Context, userID string) {
	items, err := s.ops.list(ctx, userID)
	if err != nil {
		s.feed.Fail(userID, core.WrapStore(s.op+".list", err))
		return
	}
	if items == nil {
		items = []T{}
	}
	s.feed.Publish(userID, items)
}

// Stores exposes the repository as the four collection ports.
func (r *Repository) Stores() store.Stores {
	return store.Stores{
		Transactions: &sqliteStore[core.Transaction]{
			ops: repoOps[core.Transaction]{
				insert: r.InsertTransaction,
				update: r.UpdateTransaction,
				delete: r.DeleteTransaction,
				get:    r.GetTransaction,
				list:   r.ListTransactions,
			},
			owner: func(tx core.Transaction) string { return tx.UserID },
			feed:  store.NewFeed[core.Transaction](),
			op:    "transactions",
		},
		Budgets: &sqliteStore[core.Budget]{
			ops: repoOps[core.Budget]{
				insert: r.InsertBudget,
				update: r.UpdateBudget,
				delete: r.DeleteBudget,
				get:    r.GetBudget,
				list:   r.ListBudgets,
			},
			owner: func(b core.Budget) string { return b.UserID },
			feed:  store.NewFeed[core.Budget](),
			op:    "budgets",
		},
		Recurrences: &sqliteStore[core.RecurrenceDefinition]{
			ops: repoOps[core.RecurrenceDefinition]{
				insert: r.InsertRecurrence,
				update: r.UpdateRecurrence,
				delete: r.DeleteRecurrence,
				get:    r.GetRecurrence,
				list:   r.ListRecurrences,
			},
			owner: func(def core.RecurrenceDefinition) string { return def.UserID },
			feed:  store.NewFeed[core.RecurrenceDefinition](),
			op:    "recurrences",
		},
		Goals: &sqliteStore[core.SavingsGoal]{
			ops: repoOps[core.SavingsGoal]{
				insert: r.InsertGoal,
				update: r.UpdateGoal,
				delete: r.DeleteGoal,
				get:    r.GetGoal,
				list:   r.ListGoals,
			},
			owner: func(g core.SavingsGoal) string { return g.UserID },
			feed:  store.NewFeed[core.SavingsGoal](),
			op:    "goals",
		},
	}
}
