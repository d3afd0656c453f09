// Package memory provides in-memory store implementations, used as the
// default backend and by tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"tally/internal/core"
	"tally/internal/store"
)

// Collection is an in-memory store.Store implementation. Items are held
// per user; every committed mutation fans the user's fresh snapshot out to
// subscribers.
type Collection[T any] struct {
	mu    sync.RWMutex
	items map[string]map[uuid.UUID]T
	order map[string][]uuid.UUID
	kind  string
	id    func(T) uuid.UUID
	owner func(T) string
	feed  *store.Feed[T]
}

func NewCollection[T any](kind string, id func(T) uuid.UUID, owner func(T) string) *Collection[T] {
	return &Collection[T]{
		items: make(map[string]map[uuid.UUID]T),
		order: make(map[string][]uuid.UUID),
		kind:  kind,
		id:    id,
		owner: owner,
		feed:  store.NewFeed[T](),
	}
}

func (c *Collection[T]) Add(_ context.Context, item T) error {
	user := c.owner(item)
	c.mu.Lock()
	if c.items[user] == nil {
		c.items[user] = make(map[uuid.UUID]T)
	}
	id := c.id(item)
	if _, exists := c.items[user][id]; !exists {
		c.order[user] = append(c.order[user], id)
	}
	c.items[user][id] = item
	snapshot := c.snapshotLocked(user)
	c.mu.Unlock()

	c.feed.Publish(user, snapshot)
	return nil
}

func (c *Collection[T]) Update(_ context.Context, item T) error {
	user := c.owner(item)
	id := c.id(item)
	c.mu.Lock()
	if _, exists := c.items[user][id]; !exists {
		c.mu.Unlock()
		return &core.NotFoundError{Kind: c.kind, ID: id.String()}
	}
	c.items[user][id] = item
	snapshot := c.snapshotLocked(user)
	c.mu.Unlock()

	c.feed.Publish(user, snapshot)
	return nil
}

func (c *Collection[T]) Remove(_ context.Context, userID string, id uuid.UUID) error {
	c.mu.Lock()
	if _, exists := c.items[userID][id]; !exists {
		c.mu.Unlock()
		return &core.NotFoundError{Kind: c.kind, ID: id.String()}
	}
	delete(c.items[userID], id)
	for i, v := range c.order[userID] {
		if v == id {
			c.order[userID] = append(c.order[userID][:i], c.order[userID][i+1:]...)
			break
		}
	}
	snapshot := c.snapshotLocked(userID)
	c.mu.Unlock()

	c.feed.Publish(userID, snapshot)
	return nil
}

func (c *Collection[T]) Get(_ context.Context, userID string, id uuid.UUID) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, exists := c.items[userID][id]
	if !exists {
		var zero T
		return zero, &core.NotFoundError{Kind: c.kind, ID: id.String()}
	}
	return item, nil
}

func (c *Collection[T]) List(_ context.Context, userID string) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked(userID), nil
}

// Subscribe delivers the current snapshot immediately, then again after
// every mutation, until the returned function is called.
func (c *Collection[T]) Subscribe(userID string, onSnapshot func([]T), onError func(error)) func() {
	unsubscribe := c.feed.Subscribe(userID, onSnapshot, onError)

	c.mu.RLock()
	snapshot := c.snapshotLocked(userID)
	c.mu.RUnlock()
	if onSnapshot != nil {
		onSnapshot(snapshot)
	}

	return unsubscribe
}

// snapshotLocked copies the user's items in insertion order. Callers hold
// at least the read lock.
func (c *Collection[T]) snapshotLocked(userID string) []T {
	out := make([]T, 0, len(c.items[userID]))
	for _, id := range c.order[userID] {
		if item, ok := c.items[userID][id]; ok {
			out = append(out, item)
		}
	}
	return out
}

// NewStores builds the four in-memory collections.
func NewStores() store.Stores {
	return store.Stores{
		Transactions: NewCollection("transaction",
			func(t core.Transaction) uuid.UUID { return t.ID },
			func(t core.Transaction) string { return t.UserID }),
		Budgets: NewCollection("budget",
			func(b core.Budget) uuid.UUID { return b.ID },
			func(b core.Budget) string { return b.UserID }),
		Recurrences: NewCollection("recurrence",
			func(r core.RecurrenceDefinition) uuid.UUID { return r.ID },
			func(r core.RecurrenceDefinition) string { return r.UserID }),
		Goals: NewCollection("goal",
			func(g core.SavingsGoal) uuid.UUID { return g.ID },
			func(g core.SavingsGoal) string { return g.UserID }),
	}
}
