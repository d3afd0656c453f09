package store

import "sync"

// Feed is a per-user snapshot fan-out used by store implementations.
// Subscribers are keyed so an unsubscribe stops further deliveries without
// affecting other subscribers of the same user.
type Feed[T any] struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]subscriber[T]
}

type subscriber[T any] struct {
	onSnapshot func([]T)
	onError    func(error)
}

func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{subs: make(map[string]map[int]subscriber[T])}
}

// Subscribe registers callbacks for userID and returns the cancel function.
func (f *Feed[T]) Subscribe(userID string, onSnapshot func([]T), onError func(error)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subs[userID] == nil {
		f.subs[userID] = make(map[int]subscriber[T])
	}
	key := f.next
	f.next++
	f.subs[userID][key] = subscriber[T]{onSnapshot: onSnapshot, onError: onError}

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs[userID], key)
		if len(f.subs[userID]) == 0 {
			delete(f.subs, userID)
		}
	}
}

// Publish delivers a snapshot to every subscriber of userID. The snapshot
// is delivered synchronously in subscription order; callbacks must not
// block on the store that published it.
func (f *Feed[T]) Publish(userID string, snapshot []T) {
	for _, sub := range f.snapshotSubs(userID) {
		if sub.onSnapshot != nil {
			sub.onSnapshot(snapshot)
		}
	}
}

// Fail delivers an error to every subscriber of userID.
func (f *Feed[T]) Fail(userID string, err error) {
	for _, sub := range f.snapshotSubs(userID) {
		if sub.onError != nil {
			sub.onError(err)
		}
	}
}

func (f *Feed[T]) snapshotSubs(userID string) []subscriber[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]subscriber[T], 0, len(f.subs[userID]))
	for _, sub := range f.subs[userID] {
		out = append(out, sub)
	}
	return out
}
